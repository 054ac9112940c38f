package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"streetLearnAPI/middleware"
	"streetLearnAPI/services"
)

type FileHandler struct {
	fileService *services.FileService
}

func NewFileHandler(fileService *services.FileService) *FileHandler {
	return &FileHandler{
		fileService: fileService,
	}
}

// UploadFile attaches a study material to today's log. Upload progress
// is logged server-side; clients track their own request progress.
func (h *FileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 120*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := r.ParseMultipartForm(50 << 20); err != nil {
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

	lastLogged := -1
	progress := func(percent int) {
		if percent == 100 || percent-lastLogged >= 25 {
			lastLogged = percent
			log.Printf("FileHandler: upload %s for %s at %d%%", header.Filename, clerkID, percent)
		}
	}

	ref, err := h.fileService.AttachFile(ctx, clerkID, header.Filename, contentType, header.Size, file, progress)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, ref)
}

func (h *FileHandler) GetFiles(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	files, err := h.fileService.ListFiles(ctx)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, files)
}

// DownloadFile proxies a stored study material back to the member.
func (h *FileHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	fileURL := r.URL.Query().Get("url")
	if fileURL == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'url' is required")
		return
	}

	rc, err := h.fileService.Download(ctx, fileURL)
	if err != nil {
		log.Printf("FileHandler: download failed for %s: %v", fileURL, err)
		respondWithError(w, http.StatusNotFound, "File not found")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, rc); err != nil {
		log.Printf("FileHandler: streaming %s failed: %v", fileURL, err)
	}
}
