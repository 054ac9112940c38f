package message

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    *uuid.UUID `json:"userId,omitempty" db:"user_id"`
	Role      string     `json:"role" db:"role"`
	Text      string     `json:"text" db:"text"`
	FileURL   *string    `json:"fileUrl,omitempty" db:"file_url"`
	FileName  *string    `json:"fileName,omitempty" db:"file_name"`
	FileType  *string    `json:"fileType,omitempty" db:"file_type"`
	IsSystem  bool       `json:"isSystem" db:"is_system"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

type SendMessageRequest struct {
	Text string `json:"text"`
}
