package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"streetLearnAPI/internal/storage"
	"streetLearnAPI/internal/types/message"
	"streetLearnAPI/middleware"
	"streetLearnAPI/services"
)

type MessageHandler struct {
	messageService *services.MessageService
	storage        *storage.Service
}

func NewMessageHandler(messageService *services.MessageService, st *storage.Service) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		storage:        st,
	}
}

func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req message.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sent, err := h.messageService.SendMessage(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, sent)
}

// SendFileMessage uploads a multipart attachment and posts it to the
// chat.
func (h *MessageHandler) SendFileMessage(w http.ResponseWriter, r *http.Request) {
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

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")

	fileURL, err := h.storage.Upload(ctx, "chat-files", header.Filename, contentType, header.Size, file, nil)
	if err != nil {
		log.Printf("MessageHandler: chat upload failed for %s: %v", clerkID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	sent, err := h.messageService.SendFileMessage(ctx, clerkID, fileURL, header.Filename, contentType)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, sent)
}

func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	messages, err := h.messageService.ListMessages(ctx, limit)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, messages)
}

// ClearChat wipes the history. This is a deliberate endpoint rather
// than anything inferred from message content; the service records who
// did it.
func (h *MessageHandler) ClearChat(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.messageService.ClearChat(ctx, clerkID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Chat cleared"})
}
