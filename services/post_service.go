package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"streetLearnAPI/internal/apperr"
	"streetLearnAPI/internal/storage"
	"streetLearnAPI/internal/subscribe"
	"streetLearnAPI/internal/types/post"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostService struct {
	db      *pgxpool.Pool
	storage *storage.Service
	broker  *subscribe.Broker
}

func NewPostService(db *pgxpool.Pool, st *storage.Service, broker *subscribe.Broker) *PostService {
	return &PostService{db: db, storage: st, broker: broker}
}

// CreatePost writes a feed post. imageURL is optional; when present the
// handler has already uploaded the image to storage.
func (s *PostService) CreatePost(ctx context.Context, clerkID, text string, imageURL *string) (*post.Post, error) {
	text = strings.TrimSpace(text)
	if text == "" && imageURL == nil {
		return nil, fmt.Errorf("%w: post needs text or an image", apperr.ErrValidation)
	}

	var userID uuid.UUID
	var role string
	err := s.db.QueryRow(ctx, `SELECT id, role FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find author: %w", err)
	}

	p := &post.Post{
		ID:        uuid.New(),
		UserID:    userID,
		Role:      role,
		Text:      text,
		ImageURL:  imageURL,
		CreatedAt: time.Now(),
		Comments:  []*post.Comment{},
		Likes:     []*post.Like{},
	}

	query := `
	INSERT INTO posts (id, user_id, text, image_url, created_at)
	VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := s.db.Exec(ctx, query, p.ID, p.UserID, p.Text, p.ImageURL, p.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.broker.Publish("posts", p.ID.String(), "created")

	return p, nil
}

// ListPosts returns the feed newest first, each post carrying its
// comments, likes, and whether the caller has liked it.
func (s *PostService) ListPosts(ctx context.Context, clerkID string) ([]*post.Post, error) {
	var callerID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&callerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find caller: %w", err)
	}

	query := `
	SELECT p.id, p.user_id, u.role, p.text, p.image_url, p.created_at
	FROM posts p
	JOIN users u ON u.id = p.user_id
	ORDER BY p.created_at DESC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*post.Post
	byID := make(map[uuid.UUID]*post.Post)
	for rows.Next() {
		p := &post.Post{Comments: []*post.Comment{}, Likes: []*post.Like{}}
		if err := rows.Scan(&p.ID, &p.UserID, &p.Role, &p.Text, &p.ImageURL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}

	if err := s.attachComments(ctx, byID); err != nil {
		return nil, err
	}
	if err := s.attachLikes(ctx, byID, callerID); err != nil {
		return nil, err
	}

	return posts, nil
}

func (s *PostService) attachComments(ctx context.Context, byID map[uuid.UUID]*post.Post) error {
	query := `
	SELECT c.id, c.post_id, c.user_id, u.role, c.text, c.created_at
	FROM comments c
	JOIN users u ON u.id = c.user_id
	ORDER BY c.created_at
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c post.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Role, &c.Text, &c.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan comment: %w", err)
		}
		if p, ok := byID[c.PostID]; ok {
			p.Comments = append(p.Comments, &c)
		}
	}
	return rows.Err()
}

func (s *PostService) attachLikes(ctx context.Context, byID map[uuid.UUID]*post.Post, callerID uuid.UUID) error {
	query := `
	SELECT l.post_id, l.user_id, u.role, l.created_at
	FROM likes l
	JOIN users u ON u.id = l.user_id
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to list likes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID uuid.UUID
		var l post.Like
		if err := rows.Scan(&postID, &l.UserID, &l.Role, &l.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan like: %w", err)
		}
		if p, ok := byID[postID]; ok {
			p.Likes = append(p.Likes, &l)
			if l.UserID == callerID {
				p.LikedByCaller = true
			}
		}
	}
	return rows.Err()
}

func (s *PostService) AddComment(ctx context.Context, clerkID string, postID uuid.UUID, req *post.AddCommentRequest) (*post.Comment, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment text is required", apperr.ErrValidation)
	}

	var userID uuid.UUID
	var role string
	err := s.db.QueryRow(ctx, `SELECT id, role FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find commenter: %w", err)
	}

	c := &post.Comment{
		ID:        uuid.New(),
		PostID:    postID,
		UserID:    userID,
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}

	query := `
	INSERT INTO comments (id, post_id, user_id, text, created_at)
	SELECT $1, $2, $3, $4, $5 WHERE EXISTS (SELECT 1 FROM posts WHERE id = $2)
	`

	result, err := s.db.Exec(ctx, query, c.ID, c.PostID, c.UserID, c.Text, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: post", apperr.ErrNotFound)
	}

	s.broker.Publish("posts", postID.String(), "updated")

	return c, nil
}

// ToggleLike flips the caller's like on a post and reports the new
// state.
func (s *PostService) ToggleLike(ctx context.Context, clerkID string, postID uuid.UUID) (liked bool, err error) {
	var userID uuid.UUID
	err = s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return false, fmt.Errorf("failed to find user: %w", err)
	}

	result, err := s.db.Exec(ctx, `DELETE FROM likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to unlike post: %w", err)
	}
	if result.RowsAffected() > 0 {
		s.broker.Publish("posts", postID.String(), "updated")
		return false, nil
	}

	query := `
	INSERT INTO likes (post_id, user_id, created_at)
	SELECT $1, $2, NOW() WHERE EXISTS (SELECT 1 FROM posts WHERE id = $1)
	ON CONFLICT (post_id, user_id) DO NOTHING
	`

	result, err = s.db.Exec(ctx, query, postID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to like post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return false, fmt.Errorf("%w: post", apperr.ErrNotFound)
	}

	s.broker.Publish("posts", postID.String(), "updated")

	return true, nil
}

// DeletePost removes the caller's post with its comments, likes, and
// stored image.
func (s *PostService) DeletePost(ctx context.Context, clerkID string, postID uuid.UUID) error {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var ownerID uuid.UUID
	var imageURL *string
	err = tx.QueryRow(ctx, `SELECT user_id, image_url FROM posts WHERE id = $1 FOR UPDATE`, postID).Scan(&ownerID, &imageURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: post", apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to find post: %w", err)
	}
	if ownerID != userID {
		return fmt.Errorf("%w: only the author can delete a post", apperr.ErrAuth)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("failed to delete comments: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM likes WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("failed to delete likes: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit post delete: %w", err)
	}

	if imageURL != nil && s.storage != nil {
		if err := s.storage.Delete(ctx, *imageURL); err != nil {
			log.Printf("PostService: failed to delete image for post %s: %v", postID, err)
		}
	}

	s.broker.Publish("posts", postID.String(), "deleted")

	return nil
}
