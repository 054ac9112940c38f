package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"streetLearnAPI/internal/apperr"
	"streetLearnAPI/internal/types/notification"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PushProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, push notification.Push) error
}

// NotificationService owns the device token registry and fans pushes
// out to the group.
type NotificationService struct {
	db           *pgxpool.Pool
	pushProvider PushProvider
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{db: db}
}

// SetPushProvider injects the real FCM provider from main.go.
func (s *NotificationService) SetPushProvider(provider PushProvider) {
	s.pushProvider = provider
}

// RegisterDevice upserts a device token for the member. Re-registering
// the same token just refreshes its last_used stamp.
func (s *NotificationService) RegisterDevice(ctx context.Context, clerkID string, req *notification.RegisterDeviceRequest) error {
	query := `
	INSERT INTO device_tokens (user_id, token, platform, added_at, last_used)
	SELECT id, $2, $3, NOW(), NOW() FROM users WHERE clerk_id = $1
	ON CONFLICT (token) DO UPDATE SET platform = EXCLUDED.platform, last_used = NOW()
	`

	result, err := s.db.Exec(ctx, query, clerkID, req.Token, req.Platform)
	if err != nil {
		return fmt.Errorf("failed to register device token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: user", apperr.ErrNotFound)
	}
	return nil
}

// RemoveDevice drops a token, typically on logout.
func (s *NotificationService) RemoveDevice(ctx context.Context, token string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM device_tokens WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("failed to remove device token: %w", err)
	}
	return nil
}

// ListTokens returns every registered token, optionally excluding one
// member's devices so actors don't get pushed their own actions.
func (s *NotificationService) ListTokens(ctx context.Context, exclude *uuid.UUID) ([]notification.DeviceToken, error) {
	query := `
	SELECT user_id, token, platform, added_at, last_used
	FROM device_tokens
	WHERE $1::uuid IS NULL OR user_id != $1
	`

	rows, err := s.db.Query(ctx, query, exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.UserID, &t.Token, &t.Platform, &t.AddedAt, &t.LastUsed); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// Broadcast sends one push to every device except the excluded member's.
func (s *NotificationService) Broadcast(ctx context.Context, push notification.Push, exclude *uuid.UUID) {
	if s.pushProvider == nil {
		log.Printf("NotificationService: no push provider configured, dropping %q", push.Title)
		return
	}

	tokens, err := s.ListTokens(ctx, exclude)
	if err != nil {
		log.Printf("NotificationService: failed to load tokens: %v", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.pushProvider.SendPush(ctx, tokens, push); err != nil {
		log.Printf("NotificationService: broadcast %q failed: %v", push.Title, err)
	}
}

// SendTest pushes to the caller's own devices only, for verifying a
// fresh registration end to end.
func (s *NotificationService) SendTest(ctx context.Context, clerkID string) error {
	var userID uuid.UUID
	if err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID); err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	query := `
	SELECT user_id, token, platform, added_at, last_used
	FROM device_tokens
	WHERE user_id = $1
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to list own tokens: %w", err)
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.UserID, &t.Token, &t.Platform, &t.AddedAt, &t.LastUsed); err != nil {
			return fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(tokens) == 0 {
		return fmt.Errorf("no registered devices")
	}
	if s.pushProvider == nil {
		return fmt.Errorf("push provider not configured")
	}

	return s.pushProvider.SendPush(ctx, tokens, notification.Push{
		Title: "Test notification",
		Body:  "Push notifications are working.",
		Tag:   "test",
	})
}

// MockPushProvider logs instead of sending, used in tests and local
// runs without FCM credentials.
type MockPushProvider struct{}

func (m *MockPushProvider) SendPush(ctx context.Context, tokens []notification.DeviceToken, push notification.Push) error {
	log.Printf("MOCK PUSH: Sending to %d devices: %s - %s", len(tokens), push.Title, push.Body)
	return nil
}
