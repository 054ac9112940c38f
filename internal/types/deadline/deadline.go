package deadline

import (
	"time"

	"github.com/google/uuid"
)

type Deadline struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Description     string     `json:"description" db:"description"`
	DueAt           time.Time  `json:"dueAt" db:"due_at"`
	CreatedBy       uuid.UUID  `json:"createdBy" db:"created_by"`
	CreatorRole     string     `json:"creatorRole" db:"creator_role"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	Completed       bool       `json:"completed" db:"completed"`
	CompletedBy     *uuid.UUID `json:"completedBy,omitempty" db:"completed_by"`
	CompletedByRole *string    `json:"completedByRole,omitempty" db:"completed_by_role"`
	CompletedAt     *time.Time `json:"completedAt,omitempty" db:"completed_at"`
}

type CreateDeadlineRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueAt       time.Time `json:"dueAt"`
}
