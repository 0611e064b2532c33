package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"places-api/model"
	"places-api/storage"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const minPasswordLength = 6

type UserHandlers struct {
	Db        storage.UserDB
	Images    storage.ImageStorage
	SecretKey string
	Log       *zap.Logger
}

func (h *UserHandlers) Register(r *mux.Router) {
	r.Handle("/api/users", handle(h.Log, h.Images, h.listUsers)).Methods(http.MethodGet)
	r.Handle("/api/users/signup", handle(h.Log, h.Images, h.signup)).Methods(http.MethodPost)
	r.Handle("/api/users/login", handle(h.Log, h.Images, h.login)).Methods(http.MethodPost)
}

func (h *UserHandlers) listUsers(w http.ResponseWriter, r *http.Request) error {
	users, err := h.Db.ListUsers(r.Context())
	if err != nil {
		h.Log.Error("failed to list users", zap.Error(err))
		return NewError(http.StatusInternalServerError, "Fetching users failed, please try again later.")
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": users})
	return nil
}

func (h *UserHandlers) signup(w http.ResponseWriter, r *http.Request) error {
	if r.ContentLength > maxUploadSize {
		return NewError(http.StatusRequestEntityTooLarge, "Uploaded file exceeds the size limit.")
	}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return ErrInvalidInput()
	}

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if name == "" || email == "" || len(password) < minPasswordLength {
		return ErrInvalidInput()
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		return ErrInvalidInput()
	}
	defer file.Close()

	hash, err := HashPassword(password)
	if err != nil {
		h.Log.Error("failed to hash password", zap.Error(err))
		return NewError(http.StatusInternalServerError, "Signing up failed, please try again later.")
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

	user := &model.User{
		Name:     name,
		Email:    email,
		Password: hash,
		Image:    imagePath,
	}

	if err := h.Db.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return NewError(http.StatusUnprocessableEntity, "User exists already, please login instead.")
		}
		h.Log.Error("failed to create user", zap.Error(err))
		return NewError(http.StatusInternalServerError, "Signing up failed, please try again later.")
	}

	token, err := generateToken(h.SecretKey, user.ID.Hex())
	if err != nil {
		h.Log.Error("failed to generate JWT token", zap.Error(err))
		return NewError(http.StatusInternalServerError, "Signing up failed, please try again later.")
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"userId": user.ID.Hex(),
		"email":  user.Email,
		"token":  token,
	})
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UserHandlers) login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ErrInvalidInput()
	}

	user, err := h.Db.GetUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if errors.Is(err, storage.ErrNotFound) {
		return NewError(http.StatusUnauthorized, "Invalid credentials, could not log you in.")
	}
	if err != nil {
		h.Log.Error("failed to fetch user by email", zap.Error(err))
		return NewError(http.StatusInternalServerError, "Logging in failed, please try again later.")
	}

	if !CheckPasswordHash(req.Password, user.Password) {
		h.Log.Warn("invalid login credentials", zap.String("email", req.Email))
		return NewError(http.StatusUnauthorized, "Invalid credentials, could not log you in.")
	}

	token, err := generateToken(h.SecretKey, user.ID.Hex())
	if err != nil {
		h.Log.Error("failed to generate JWT token", zap.Error(err))
		return NewError(http.StatusInternalServerError, "Logging in failed, please try again later.")
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"userId": user.ID.Hex(),
		"email":  user.Email,
		"token":  token,
	})
	return nil
}
