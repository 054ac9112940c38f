package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"streetLearnAPI/internal/apperr"
	"streetLearnAPI/internal/cache"
	"streetLearnAPI/internal/storage"
	"streetLearnAPI/internal/subscribe"
	"streetLearnAPI/internal/types/role"
	"streetLearnAPI/internal/types/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserService struct {
	db      *pgxpool.Pool
	cache   *cache.Cache
	storage *storage.Service
	broker  *subscribe.Broker
}

func NewUserService(db *pgxpool.Pool, c *cache.Cache, st *storage.Service, broker *subscribe.Broker) *UserService {
	return &UserService{db: db, cache: c, storage: st, broker: broker}
}

// SeedRoles inserts the fixed seat rows, keeping existing claims. Run
// once at startup.
func (s *UserService) SeedRoles(ctx context.Context) error {
	for i, name := range role.Seats {
		_, err := s.db.Exec(ctx, `
		INSERT INTO roles (name, seat_order)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET seat_order = EXCLUDED.seat_order
		`, name, i)
		if err != nil {
			return fmt.Errorf("failed to seed role %s: %w", name, err)
		}
	}
	return nil
}

// CreateUser registers a member and claims their role seat in one
// transaction. Seats are first come first served: the row lock on the
// seat makes two concurrent signups for the same role serialize, and
// the loser gets a validation error.
func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	if !role.IsSeat(req.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, req.Role)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var claimedBy *uuid.UUID
	err = tx.QueryRow(ctx, `SELECT user_id FROM roles WHERE name = $1 FOR UPDATE`, req.Role).Scan(&claimedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to lock role seat: %w", err)
	}
	if claimedBy != nil {
		return nil, fmt.Errorf("%w: role %s is already taken", apperr.ErrValidation, req.Role)
	}

	u := &user.User{
		ID:        uuid.New(),
		ClerkID:   req.ClerkID,
		Email:     req.Email,
		Role:      req.Role,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query := `
	INSERT INTO users (id, clerk_id, email, role, streak, created_at, updated_at)
	VALUES ($1, $2, $3, $4, 0, $5, $6)
	RETURNING id, clerk_id, email, role, photo_url, streak, last_study_date, created_at, updated_at
	`

	err = tx.QueryRow(
		ctx,
		query,
		u.ID,
		u.ClerkID,
		u.Email,
		u.Role,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Role,
		&u.PhotoURL,
		&u.Streak,
		&u.LastStudyDate,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	_, err = tx.Exec(ctx, `UPDATE roles SET user_id = $1, claimed_at = NOW() WHERE name = $2`, u.ID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to claim role seat: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit signup: %w", err)
	}

	s.cache.Invalidate("roles")
	s.cache.Invalidate("members")
	s.broker.Publish("members", u.ID.String(), "created")

	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `
	SELECT id, clerk_id, email, role, photo_url, streak, last_study_date, created_at, updated_at
	FROM users
	WHERE clerk_id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Role,
		&u.PhotoURL,
		&u.Streak,
		&u.LastStudyDate,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// GetRoles lists all seats with their claim state, read through the
// collection cache since seats change only at signup.
func (s *UserService) GetRoles(ctx context.Context) ([]role.Role, error) {
	v, err := s.cache.Get(ctx, "roles", func(ctx context.Context) (any, error) {
		return s.loadRoles(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]role.Role), nil
}

func (s *UserService) loadRoles(ctx context.Context) ([]role.Role, error) {
	query := `
	SELECT r.name, r.user_id, r.claimed_at, u.email
	FROM roles r
	LEFT JOIN users u ON u.id = r.user_id
	ORDER BY r.seat_order
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []role.Role
	for rows.Next() {
		var r role.Role
		if err := rows.Scan(&r.Name, &r.UserID, &r.ClaimedAt, &r.Email); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		r.Taken = r.UserID != nil
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// ListMembers returns every registered member, cached. The group is
// small and fixed so the whole roster rides in one cache entry.
func (s *UserService) ListMembers(ctx context.Context) ([]user.User, error) {
	v, err := s.cache.Get(ctx, "members", func(ctx context.Context) (any, error) {
		return s.loadMembers(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]user.User), nil
}

func (s *UserService) loadMembers(ctx context.Context) ([]user.User, error) {
	query := `
	SELECT id, clerk_id, email, role, photo_url, streak, last_study_date, created_at, updated_at
	FROM users
	ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []user.User
	for rows.Next() {
		var u user.User
		err := rows.Scan(
			&u.ID,
			&u.ClerkID,
			&u.Email,
			&u.Role,
			&u.PhotoURL,
			&u.Streak,
			&u.LastStudyDate,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, u)
	}
	return members, rows.Err()
}

// UploadProfilePhoto stores the photo at a per-user path and records
// the URL on the profile.
func (s *UserService) UploadProfilePhoto(ctx context.Context, clerkID, contentType string, r io.Reader) (*user.User, error) {
	u, err := s.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	photoURL, err := s.storage.UploadProfilePhoto(ctx, u.ID.String(), contentType, r)
	if err != nil {
		return nil, fmt.Errorf("failed to upload profile photo: %w", err)
	}

	query := `
	UPDATE users
	SET photo_url = $2, updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING id, clerk_id, email, role, photo_url, streak, last_study_date, created_at, updated_at
	`

	updated := &user.User{}
	err = s.db.QueryRow(ctx, query, clerkID, photoURL).Scan(
		&updated.ID,
		&updated.ClerkID,
		&updated.Email,
		&updated.Role,
		&updated.PhotoURL,
		&updated.Streak,
		&updated.LastStudyDate,
		&updated.CreatedAt,
		&updated.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile photo: %w", err)
	}

	s.cache.Invalidate("members")
	s.broker.Publish("members", updated.ID.String(), "updated")

	return updated, nil
}

// DeleteUserByClerkID removes the member and frees their role seat.
func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	_, err = tx.Exec(ctx, `UPDATE roles SET user_id = NULL, claimed_at = NULL WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to release role seat: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: user", apperr.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	log.Printf("UserService: deleted user %s and released their seat", userID)

	s.cache.Invalidate("roles")
	s.cache.Invalidate("members")
	s.broker.Publish("members", userID.String(), "deleted")

	return nil
}
