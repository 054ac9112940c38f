package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"streetLearnAPI/internal/apperr"
	"streetLearnAPI/internal/storage"
	"streetLearnAPI/internal/subscribe"
	"streetLearnAPI/internal/summary"
	"streetLearnAPI/internal/types/studylog"
	"streetLearnAPI/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FileService struct {
	db         *pgxpool.Pool
	storage    *storage.Service
	summarizer *summary.Service
	broker     *subscribe.Broker
}

func NewFileService(db *pgxpool.Pool, st *storage.Service, summarizer *summary.Service, broker *subscribe.Broker) *FileService {
	return &FileService{db: db, storage: st, summarizer: summarizer, broker: broker}
}

// SharedFile is one study material in the group library.
type SharedFile struct {
	Role string           `json:"role"`
	Date string           `json:"date"`
	File studylog.FileRef `json:"file"`
}

// AttachFile uploads a study material and pins it to the caller's log
// for today. Text files also feed the summary, which gets regenerated
// with the file content in the prompt.
func (s *FileService) AttachFile(ctx context.Context, clerkID, filename, mimeType string, size int64, r io.Reader, progress storage.ProgressFunc) (*studylog.FileRef, error) {
	today := utils.TodayIST()

	var userID uuid.UUID
	var topic string
	var hours float64
	err := s.db.QueryRow(ctx, `
	SELECT u.id, l.topic, l.hours
	FROM users u
	JOIN study_logs l ON l.user_id = u.id AND l.date = $2
	WHERE u.clerk_id = $1
	`, clerkID, today).Scan(&userID, &topic, &hours)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: log today's study session before attaching a file", apperr.ErrValidation)
		}
		return nil, fmt.Errorf("failed to find today's log: %w", err)
	}

	var fileText string
	src := r
	if summary.IsTextExtractable(mimeType, filename) {
		// Buffer text files so the content can ride in the summary
		// prompt as well as the upload.
		data, err := io.ReadAll(io.LimitReader(r, 10<<20))
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		fileText = summary.TruncateFileText(string(data))
		src = bytes.NewReader(data)
		size = int64(len(data))
	}

	url, err := s.storage.Upload(ctx, "study-files", filename, mimeType, size, src, progress)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	ref := &studylog.FileRef{Name: filename, MimeType: mimeType, SizeBytes: size, URL: url}

	_, err = s.db.Exec(ctx, `
	UPDATE study_logs
	SET file_name = $3, file_mime = $4, file_size = $5, file_url = $6, last_updated_at = NOW()
	WHERE user_id = $1 AND date = $2
	`, userID, today, ref.Name, ref.MimeType, ref.SizeBytes, ref.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to attach file to log: %w", err)
	}

	if s.summarizer != nil && fileText != "" {
		text := s.summarizer.Summarize(ctx, topic, hours, fileText)
		if _, err := s.db.Exec(ctx, `
		UPDATE study_logs SET summary = $3 WHERE user_id = $1 AND date = $2
		`, userID, today, text); err != nil {
			log.Printf("FileService: failed to refresh summary for %s on %s: %v", userID, today, err)
		}
	}

	s.broker.Publish("study_logs", fmt.Sprintf("%s_%s", userID, today), "updated")

	return ref, nil
}

// ListFiles returns every member's study materials, newest first.
func (s *FileService) ListFiles(ctx context.Context) ([]SharedFile, error) {
	query := `
	SELECT u.role, l.date, l.file_name, l.file_mime, l.file_size, l.file_url
	FROM study_logs l
	JOIN users u ON u.id = l.user_id
	WHERE l.file_url IS NOT NULL
	ORDER BY l.date DESC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []SharedFile
	for rows.Next() {
		var f SharedFile
		var mime *string
		var size *int64
		if err := rows.Scan(&f.Role, &f.Date, &f.File.Name, &mime, &size, &f.File.URL); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		if mime != nil {
			f.File.MimeType = *mime
		}
		if size != nil {
			f.File.SizeBytes = *size
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// Download streams a stored study material back to the caller.
func (s *FileService) Download(ctx context.Context, fileURL string) (io.ReadCloser, error) {
	return s.storage.Download(ctx, fileURL)
}
