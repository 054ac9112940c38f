package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"streetLearnAPI/internal/types/deadline"
	"streetLearnAPI/middleware"
	"streetLearnAPI/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type DeadlineHandler struct {
	deadlineService *services.DeadlineService
}

func NewDeadlineHandler(deadlineService *services.DeadlineService) *DeadlineHandler {
	return &DeadlineHandler{
		deadlineService: deadlineService,
	}
}

func (h *DeadlineHandler) CreateDeadline(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req deadline.CreateDeadlineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.deadlineService.CreateDeadline(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *DeadlineHandler) GetDeadlines(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	deadlines, err := h.deadlineService.ListDeadlines(ctx)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, deadlines)
}

func (h *DeadlineHandler) CompleteDeadline(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	deadlineID, err := uuid.Parse(mux.Vars(r)["deadlineID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid deadline id")
		return
	}

	if err := h.deadlineService.CompleteDeadline(ctx, clerkID, deadlineID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Deadline completed"})
}

func (h *DeadlineHandler) DeleteDeadline(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	deadlineID, err := uuid.Parse(mux.Vars(r)["deadlineID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid deadline id")
		return
	}

	if err := h.deadlineService.DeleteDeadline(ctx, clerkID, deadlineID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Deadline deleted"})
}
