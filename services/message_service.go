package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"streetLearnAPI/internal/apperr"
	"streetLearnAPI/internal/subscribe"
	"streetLearnAPI/internal/types/message"
	"streetLearnAPI/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageService struct {
	db       *pgxpool.Pool
	notifier *NotificationService
	broker   *subscribe.Broker
}

func NewMessageService(db *pgxpool.Pool, notifier *NotificationService, broker *subscribe.Broker) *MessageService {
	return &MessageService{db: db, notifier: notifier, broker: broker}
}

func (s *MessageService) SendMessage(ctx context.Context, clerkID string, req *message.SendMessageRequest) (*message.Message, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: message text is required", apperr.ErrValidation)
	}

	sender, err := s.lookupSender(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	m := &message.Message{
		ID:        uuid.New(),
		UserID:    &sender.id,
		Role:      sender.role,
		Text:      text,
		CreatedAt: time.Now(),
	}

	query := `
	INSERT INTO messages (id, user_id, text, is_system, created_at)
	VALUES ($1, $2, $3, false, $4)
	`

	if _, err := s.db.Exec(ctx, query, m.ID, m.UserID, m.Text, m.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	s.broker.Publish("messages", m.ID.String(), "created")
	go utils.ChatMessagePosted(s.notifier, sender.id, sender.role, m.Text)

	return m, nil
}

// SendFileMessage records a message carrying an uploaded attachment.
// The handler has already placed the file in storage.
func (s *MessageService) SendFileMessage(ctx context.Context, clerkID, fileURL, fileName, fileType string) (*message.Message, error) {
	sender, err := s.lookupSender(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	m := &message.Message{
		ID:        uuid.New(),
		UserID:    &sender.id,
		Role:      sender.role,
		Text:      fileName,
		FileURL:   &fileURL,
		FileName:  &fileName,
		FileType:  &fileType,
		CreatedAt: time.Now(),
	}

	query := `
	INSERT INTO messages (id, user_id, text, file_url, file_name, file_type, is_system, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, false, $7)
	`

	if _, err := s.db.Exec(ctx, query, m.ID, m.UserID, m.Text, m.FileURL, m.FileName, m.FileType, m.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to send file message: %w", err)
	}

	s.broker.Publish("messages", m.ID.String(), "created")
	go utils.ChatMessagePosted(s.notifier, sender.id, sender.role, "Shared a file: "+fileName)

	return m, nil
}

// ListMessages returns the chat in chronological order, capped at the
// most recent limit entries.
func (s *MessageService) ListMessages(ctx context.Context, limit int) ([]message.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}

	query := `
	SELECT id, user_id, role, text, file_url, file_name, file_type, is_system, created_at
	FROM (
		SELECT m.id, m.user_id, COALESCE(u.role, '') AS role, m.text,
		       m.file_url, m.file_name, m.file_type, m.is_system, m.created_at
		FROM messages m
		LEFT JOIN users u ON u.id = m.user_id
		ORDER BY m.created_at DESC
		LIMIT $1
	) recent
	ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []message.Message
	for rows.Next() {
		var m message.Message
		err := rows.Scan(
			&m.ID,
			&m.UserID,
			&m.Role,
			&m.Text,
			&m.FileURL,
			&m.FileName,
			&m.FileType,
			&m.IsSystem,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// ClearChat wipes the history and leaves a system message naming who
// cleared it. Any member can clear; the audit line is the deterrent.
func (s *MessageService) ClearChat(ctx context.Context, clerkID string) error {
	sender, err := s.lookupSender(ctx, clerkID)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("failed to clear chat: %w", err)
	}

	systemText := fmt.Sprintf("Chat cleared by %s", sender.role)
	_, err = tx.Exec(ctx, `
	INSERT INTO messages (id, user_id, text, is_system, created_at)
	VALUES ($1, NULL, $2, true, NOW())
	`, uuid.New(), systemText)
	if err != nil {
		return fmt.Errorf("failed to record clear marker: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit chat clear: %w", err)
	}

	s.broker.Publish("messages", "", "deleted")

	return nil
}

type senderInfo struct {
	id   uuid.UUID
	role string
}

func (s *MessageService) lookupSender(ctx context.Context, clerkID string) (*senderInfo, error) {
	var info senderInfo
	err := s.db.QueryRow(ctx, `SELECT id, role FROM users WHERE clerk_id = $1`, clerkID).Scan(&info.id, &info.role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find sender: %w", err)
	}
	return &info, nil
}
