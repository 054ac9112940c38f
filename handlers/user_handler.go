package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"streetLearnAPI/internal/apperr"
	"streetLearnAPI/internal/types/user"
	"streetLearnAPI/middleware"
	"streetLearnAPI/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CreateAccount registers the authenticated Clerk identity and claims
// the requested role seat.
func (h *UserHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req user.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.ClerkID = clerkID

	created, err := h.userService.CreateUser(ctx, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	profile, err := h.userService.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

// GetRoles lists the seats and their claim state. Exposed without auth
// so the signup screen can show which seats are free.
func (h *UserHandler) GetRoles(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	roles, err := h.userService.GetRoles(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load roles")
		return
	}

	respondWithJSON(w, http.StatusOK, roles)
}

func (h *UserHandler) GetMembers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	members, err := h.userService.ListMembers(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load members")
		return
	}

	respondWithJSON(w, http.StatusOK, members)
}

// UploadProfilePhoto accepts a multipart photo and stores it at the
// member's fixed storage path.
func (h *UserHandler) UploadProfilePhoto(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing photo file")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")

	updated, err := h.userService.UploadProfilePhoto(ctx, clerkID, contentType, file)
	if err != nil {
		log.Printf("UserHandler: photo upload failed for %s: %v", clerkID, err)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.userService.DeleteUserByClerkID(ctx, clerkID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps the service error taxonomy onto HTTP
// status codes.
func respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case apperr.IsValidation(err):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case apperr.IsNotFound(err):
		respondWithError(w, http.StatusNotFound, err.Error())
	case apperr.IsAuth(err):
		respondWithError(w, http.StatusForbidden, err.Error())
	default:
		log.Printf("Handler: internal error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Something went wrong")
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
