package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"streetLearnAPI/internal/storage"
	"streetLearnAPI/internal/types/post"
	"streetLearnAPI/middleware"
	"streetLearnAPI/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type PostHandler struct {
	postService *services.PostService
	storage     *storage.Service
}

func NewPostHandler(postService *services.PostService, st *storage.Service) *PostHandler {
	return &PostHandler{
		postService: postService,
		storage:     st,
	}
}

// CreatePost accepts multipart form data with a "text" field and an
// optional "image" file.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := r.ParseMultipartForm(25 << 20); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	text := r.FormValue("text")

	var imageURL *string
	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()

		url, err := h.storage.Upload(ctx, "post-images", header.Filename, header.Header.Get("Content-Type"), header.Size, file, nil)
		if err != nil {
			log.Printf("PostHandler: image upload failed for %s: %v", clerkID, err)
			respondWithError(w, http.StatusInternalServerError, "Failed to upload image")
			return
		}
		imageURL = &url
	}

	created, err := h.postService.CreatePost(ctx, clerkID, text, imageURL)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *PostHandler) GetPosts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	posts, err := h.postService.ListPosts(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	postID, err := uuid.Parse(mux.Vars(r)["postID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid post id")
		return
	}

	var req post.AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.postService.AddComment(ctx, clerkID, postID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, comment)
}

func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	postID, err := uuid.Parse(mux.Vars(r)["postID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid post id")
		return
	}

	liked, err := h.postService.ToggleLike(ctx, clerkID, postID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	postID, err := uuid.Parse(mux.Vars(r)["postID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid post id")
		return
	}

	if err := h.postService.DeletePost(ctx, clerkID, postID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Post deleted"})
}
