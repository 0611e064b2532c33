package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"places-api/geocode"
	"places-api/model"
	"places-api/storage"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// 10 MB is plenty for a listing photo.
const maxUploadSize = 10 << 20

type Geocoder interface {
	Resolve(ctx context.Context, address string) (model.Location, error)
}

type PlaceHandlers struct {
	Db        storage.PlaceDB
	Users     storage.UserDB
	Images    storage.ImageStorage
	Geocoder  Geocoder
	SecretKey string
	Log       *zap.Logger
}

func (h *PlaceHandlers) Register(r *mux.Router) {
	auth := func(next http.Handler) http.Handler {
		return AuthMiddleware(h.SecretKey, h.Log, next)
	}

	r.Handle("/api/places/user/{uid}", handle(h.Log, h.Images, h.getPlacesByUser)).Methods(http.MethodGet)
	r.Handle("/api/places/{pid}", handle(h.Log, h.Images, h.getPlace)).Methods(http.MethodGet)
	r.Handle("/api/places", auth(handle(h.Log, h.Images, h.createPlace))).Methods(http.MethodPost)
	r.Handle("/api/places/{pid}", auth(handle(h.Log, h.Images, h.updatePlace))).Methods(http.MethodPatch)
	r.Handle("/api/places/{pid}", auth(handle(h.Log, h.Images, h.deletePlace))).Methods(http.MethodDelete)
}

func (h *PlaceHandlers) getPlace(w http.ResponseWriter, r *http.Request) error {
	placeID := mux.Vars(r)["pid"]

	place, err := h.Db.GetPlace(r.Context(), placeID)
	if errors.Is(err, storage.ErrNotFound) {
		return NewError(http.StatusNotFound, "Could not find the place for the provided id.")
	}
	if err != nil {
		h.Log.Error("failed to fetch place", zap.String("place_id", placeID), zap.Error(err))
		return NewError(http.StatusInternalServerError, "Could not find a place.")
	}

	writeJSON(w, http.StatusOK, map[string]any{"place": place})
	return nil
}

func (h *PlaceHandlers) getPlacesByUser(w http.ResponseWriter, r *http.Request) error {
	userID := mux.Vars(r)["uid"]

	places, err := h.Db.GetPlacesByUser(r.Context(), userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.Log.Error("failed to fetch user places", zap.String("user_id", userID), zap.Error(err))
		return NewError(http.StatusInternalServerError, "Could not find user places, please try again later.")
	}
	// A missing user and a user without places answer the same way.
	if errors.Is(err, storage.ErrNotFound) || len(places) == 0 {
		return NewError(http.StatusNotFound, "Could not find places for the provided user id.")
	}

	writeJSON(w, http.StatusOK, map[string]any{"places": places})
	return nil
}

func (h *PlaceHandlers) createPlace(w http.ResponseWriter, r *http.Request) error {
	if r.ContentLength > maxUploadSize {
		return NewError(http.StatusRequestEntityTooLarge, "Uploaded file exceeds the size limit.")
	}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return ErrInvalidInput()
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	address := strings.TrimSpace(r.FormValue("address"))
	if title == "" || description == "" || address == "" {
		return ErrInvalidInput()
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		return ErrInvalidInput()
	}
	defer file.Close()

	location, err := h.Geocoder.Resolve(r.Context(), address)
	if errors.Is(err, geocode.ErrNoResults) {
		return NewError(http.StatusNotFound, "Could not find the location for the specified address.")
	}
	if err != nil {
		h.Log.Error("geocoding failed", zap.String("address", address), zap.Error(err))
		return NewError(http.StatusInternalServerError, "Error fetching coordinates.")
	}

	creatorID := CallerID(r)
	user, err := h.Users.GetUser(r.Context(), creatorID)
	if errors.Is(err, storage.ErrNotFound) {
		return NewError(http.StatusNotFound, "Could not find a user for the provided id.")
	}
	if err != nil {
		h.Log.Error("failed to fetch creator", zap.String("user_id", creatorID), zap.Error(err))
		return NewError(http.StatusInternalServerError, "Creating a place failed, please try again.")
	}

	imagePath, err := h.Images.Save(file)
	if errors.Is(err, storage.ErrInvalidImage) {
		return ErrInvalidInput()
	}
	if err != nil {
		h.Log.Error("failed to store uploaded image", zap.Error(err))
		return NewError(http.StatusInternalServerError, "Could not store the uploaded image.")
	}
	trackUpload(r, imagePath)

	place := &model.Place{
		Title:       title,
		Description: description,
		Image:       imagePath,
		Address:     address,
		Location:    location,
		Creator:     user.ID,
	}

	if err := h.Db.CreatePlace(r.Context(), place); err != nil {
		h.Log.Error("failed to create place", zap.Error(err))
		return NewError(http.StatusInternalServerError, "Could not create a place.")
	}

	writeJSON(w, http.StatusCreated, map[string]any{"place": place})
	return nil
}

type updatePlaceRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *PlaceHandlers) updatePlace(w http.ResponseWriter, r *http.Request) error {
	placeID := mux.Vars(r)["pid"]

	var req updatePlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ErrInvalidInput()
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" || req.Description == "" {
		return ErrInvalidInput()
	}

	place, err := h.Db.GetPlace(r.Context(), placeID)
	if errors.Is(err, storage.ErrNotFound) {
		return NewError(http.StatusNotFound, "Could not find the place for the provided id.")
	}
	if err != nil {
		h.Log.Error("failed to fetch place", zap.String("place_id", placeID), zap.Error(err))
		return NewError(http.StatusInternalServerError, "Could not update a place, please try again later.")
	}

	if place.Creator.Hex() != CallerID(r) {
		return NewError(http.StatusUnauthorized, "You are not allowed to edit this place.")
	}

	// Only title and description are mutable.
	place.Title = req.Title
	place.Description = req.Description

	if err := h.Db.UpdatePlace(r.Context(), place); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewError(http.StatusNotFound, "Could not find the place for the provided id.")
		}
		h.Log.Error("failed to update place", zap.String("place_id", placeID), zap.Error(err))
		return NewError(http.StatusInternalServerError, "Something went wrong, could not update a place.")
	}

	writeJSON(w, http.StatusOK, map[string]any{"place": place})
	return nil
}

func (h *PlaceHandlers) deletePlace(w http.ResponseWriter, r *http.Request) error {
	placeID := mux.Vars(r)["pid"]

	place, err := h.Db.GetPlace(r.Context(), placeID)
	if errors.Is(err, storage.ErrNotFound) {
		return NewError(http.StatusNotFound, "Place not found.")
	}
	if err != nil {
		h.Log.Error("failed to fetch place", zap.String("place_id", placeID), zap.Error(err))
		return NewError(http.StatusInternalServerError, "Something went wrong, could not find a place.")
	}

	if place.Creator.Hex() != CallerID(r) {
		return NewError(http.StatusUnauthorized, "You are not allowed to delete this place.")
	}

	if err := h.Db.DeletePlace(r.Context(), place); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewError(http.StatusNotFound, "Place not found.")
		}
		h.Log.Error("failed to delete place", zap.String("place_id", placeID), zap.Error(err))
		return NewError(http.StatusInternalServerError, "Something went wrong, could not delete a place.")
	}

	// The image file is not part of the transaction; losing it is not
	// worth failing the delete over.
	if err := h.Images.Delete(place.Image); err != nil {
		h.Log.Warn("failed to delete place image",
			zap.String("path", place.Image),
			zap.Error(err),
		)
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "Deleted place."})
	return nil
}
