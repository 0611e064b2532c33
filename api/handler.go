package api

import (
	"context"
	"net/http"

	"places-api/storage"

	"go.uber.org/zap"
)

type errHandler func(w http.ResponseWriter, r *http.Request) error

const uploadKey contextKey = 1

type uploadedFile struct {
	path string
}

// handle adapts an error-returning handler into an http.HandlerFunc.
// When the handler fails after storing an uploaded file, the file is
// best-effort deleted before the error body is written.
func handle(logger *zap.Logger, images storage.ImageStorage, fn errHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		upload := &uploadedFile{}
		r = r.WithContext(context.WithValue(r.Context(), uploadKey, upload))

		err := fn(w, r)
		if err == nil {
			return
		}

		if upload.path != "" && images != nil {
			if rmErr := images.Delete(upload.path); rmErr != nil {
				logger.Warn("failed to remove uploaded file",
					zap.String("path", upload.path),
					zap.Error(rmErr),
				)
			}
		}
		writeError(logger, w, err)
	}
}

func trackUpload(r *http.Request, path string) {
	if u, ok := r.Context().Value(uploadKey).(*uploadedFile); ok {
		u.path = path
	}
}
