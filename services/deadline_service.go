package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"streetLearnAPI/internal/apperr"
	"streetLearnAPI/internal/subscribe"
	"streetLearnAPI/internal/types/deadline"
	"streetLearnAPI/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DeadlineService struct {
	db       *pgxpool.Pool
	notifier *NotificationService
	broker   *subscribe.Broker
}

func NewDeadlineService(db *pgxpool.Pool, notifier *NotificationService, broker *subscribe.Broker) *DeadlineService {
	return &DeadlineService{db: db, notifier: notifier, broker: broker}
}

func (s *DeadlineService) CreateDeadline(ctx context.Context, clerkID string, req *deadline.CreateDeadlineRequest) (*deadline.Deadline, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", apperr.ErrValidation)
	}
	if req.DueAt.Before(time.Now()) {
		return nil, fmt.Errorf("%w: due date is in the past", apperr.ErrValidation)
	}

	var creatorID uuid.UUID
	var creatorRole string
	err := s.db.QueryRow(ctx, `SELECT id, role FROM users WHERE clerk_id = $1`, clerkID).Scan(&creatorID, &creatorRole)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find creator: %w", err)
	}

	d := &deadline.Deadline{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		DueAt:       req.DueAt,
		CreatedBy:   creatorID,
		CreatorRole: creatorRole,
		CreatedAt:   time.Now(),
	}

	query := `
	INSERT INTO deadlines (id, title, description, due_at, created_by, created_at, completed)
	VALUES ($1, $2, $3, $4, $5, $6, false)
	`

	_, err = s.db.Exec(ctx, query, d.ID, d.Title, d.Description, d.DueAt, d.CreatedBy, d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create deadline: %w", err)
	}

	s.broker.Publish("deadlines", d.ID.String(), "created")
	go utils.DeadlineCreated(s.notifier, *d)

	return d, nil
}

// ListDeadlines returns every deadline, newest first, with the
// creator's and completer's roles joined in.
func (s *DeadlineService) ListDeadlines(ctx context.Context) ([]deadline.Deadline, error) {
	query := `
	SELECT d.id, d.title, d.description, d.due_at, d.created_by, cu.role, d.created_at,
	       d.completed, d.completed_by, xu.role, d.completed_at
	FROM deadlines d
	JOIN users cu ON cu.id = d.created_by
	LEFT JOIN users xu ON xu.id = d.completed_by
	ORDER BY d.created_at DESC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list deadlines: %w", err)
	}
	defer rows.Close()

	var deadlines []deadline.Deadline
	for rows.Next() {
		var d deadline.Deadline
		err := rows.Scan(
			&d.ID,
			&d.Title,
			&d.Description,
			&d.DueAt,
			&d.CreatedBy,
			&d.CreatorRole,
			&d.CreatedAt,
			&d.Completed,
			&d.CompletedBy,
			&d.CompletedByRole,
			&d.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deadline: %w", err)
		}
		deadlines = append(deadlines, d)
	}
	return deadlines, rows.Err()
}

// CompleteDeadline marks a deadline done. Completion is first come
// first served: the conditional update means a second completer is a
// no-op and the original completer stays on record.
func (s *DeadlineService) CompleteDeadline(ctx context.Context, clerkID string, deadlineID uuid.UUID) error {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	result, err := s.db.Exec(ctx, `
	UPDATE deadlines
	SET completed = true, completed_by = $2, completed_at = NOW()
	WHERE id = $1 AND completed = false
	`, deadlineID, userID)
	if err != nil {
		return fmt.Errorf("failed to complete deadline: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM deadlines WHERE id = $1)`, deadlineID).Scan(&exists); err == nil && !exists {
			return fmt.Errorf("%w: deadline", apperr.ErrNotFound)
		}
		// Already completed by someone else; treat as success.
		return nil
	}

	s.broker.Publish("deadlines", deadlineID.String(), "updated")

	return nil
}

// DeleteDeadline removes a deadline. Only its creator or whoever
// completed it may delete it.
func (s *DeadlineService) DeleteDeadline(ctx context.Context, clerkID string, deadlineID uuid.UUID) error {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	result, err := s.db.Exec(ctx, `
	DELETE FROM deadlines WHERE id = $1 AND (created_by = $2 OR completed_by = $2)
	`, deadlineID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete deadline: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM deadlines WHERE id = $1)`, deadlineID).Scan(&exists); err == nil && exists {
			return fmt.Errorf("%w: only the creator or completer can delete a deadline", apperr.ErrAuth)
		}
		return fmt.Errorf("%w: deadline", apperr.ErrNotFound)
	}

	s.broker.Publish("deadlines", deadlineID.String(), "deleted")

	return nil
}

// ListUpcoming returns incomplete deadlines due within the window used
// by the daily reminder scan.
func (s *DeadlineService) ListUpcoming(ctx context.Context, horizon time.Time) ([]deadline.Deadline, error) {
	query := `
	SELECT d.id, d.title, d.description, d.due_at, d.created_by, cu.role, d.created_at,
	       d.completed, d.completed_by, NULL::text, d.completed_at
	FROM deadlines d
	JOIN users cu ON cu.id = d.created_by
	WHERE d.completed = false AND d.due_at <= $1
	ORDER BY d.due_at
	`

	rows, err := s.db.Query(ctx, query, horizon)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming deadlines: %w", err)
	}
	defer rows.Close()

	var deadlines []deadline.Deadline
	for rows.Next() {
		var d deadline.Deadline
		err := rows.Scan(
			&d.ID,
			&d.Title,
			&d.Description,
			&d.DueAt,
			&d.CreatedBy,
			&d.CreatorRole,
			&d.CreatedAt,
			&d.Completed,
			&d.CompletedBy,
			&d.CompletedByRole,
			&d.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deadline: %w", err)
		}
		deadlines = append(deadlines, d)
	}
	return deadlines, rows.Err()
}
