package post

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	UserID        uuid.UUID  `json:"userId" db:"user_id"`
	Role          string     `json:"role" db:"role"`
	Text          string     `json:"text" db:"text"`
	ImageURL      *string    `json:"imageUrl,omitempty" db:"image_url"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	Comments      []*Comment `json:"comments"`
	Likes         []*Like    `json:"likes"`
	LikedByCaller bool       `json:"likedByCaller"`
}

type Comment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	PostID    uuid.UUID `json:"postId" db:"post_id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	Role      string    `json:"role" db:"role"`
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type Like struct {
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type CreatePostRequest struct {
	Text string `json:"text"`
}

type AddCommentRequest struct {
	Text string `json:"text"`
}
