package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID `json:"id" db:"id"`
	ClerkID       string    `json:"clerkId" db:"clerk_id"`
	Email         string    `json:"email" db:"email"`
	Role          string    `json:"role" db:"role"`
	PhotoURL      *string   `json:"photoUrl,omitempty" db:"photo_url"`
	Streak        int       `json:"streak" db:"streak"`
	LastStudyDate *string   `json:"lastStudyDate,omitempty" db:"last_study_date"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

type CreateUserRequest struct {
	ClerkID string `json:"clerkId"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}
