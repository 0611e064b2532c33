package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewRouter mounts both route groups, static file serving for uploaded
// images and the middleware pipeline.
func NewRouter(places *PlaceHandlers, users *UserHandlers, uploadDir string, log *zap.Logger) http.Handler {
	r := mux.NewRouter()

	r.PathPrefix("/uploads/images/").Handler(
		http.StripPrefix("/uploads/images/", http.FileServer(http.Dir(uploadDir))),
	)

	places.Register(r)
	users.Register(r)

	routeNotFound := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Could not find the route."})
	})
	r.NotFoundHandler = routeNotFound
	r.MethodNotAllowedHandler = routeNotFound

	var handler http.Handler = r
	handler = CORSMiddleware(handler)
	handler = RequestLoggerMiddleware(log, handler)
	handler = RecoveryMiddleware(log, handler)
	return handler
}
