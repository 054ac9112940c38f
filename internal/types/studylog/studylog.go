package studylog

import (
	"time"

	"github.com/google/uuid"
)

// FileRef is attachment metadata carried on a log entry. The blob itself
// lives in the object store; only the descriptor is persisted here.
type FileRef struct {
	Name      string `json:"name" db:"file_name"`
	MimeType  string `json:"mimeType" db:"file_mime_type"`
	SizeBytes int64  `json:"sizeBytes" db:"file_size_bytes"`
	URL       string `json:"url" db:"file_url"`
}

// StudyLog is the per-user, per-day record. Identity is (user_id, date);
// multiple same-day logs merge into the one row.
type StudyLog struct {
	UserID        uuid.UUID `json:"userId" db:"user_id"`
	Date          string    `json:"date" db:"date"`
	Hours         float64   `json:"hours" db:"hours"`
	Topic         string    `json:"topic" db:"topic"`
	Summary       *string   `json:"summary,omitempty" db:"summary"`
	File          *FileRef  `json:"file,omitempty"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt" db:"last_updated_at"`
}

type LogStudyRequest struct {
	Hours float64 `json:"hours"`
	Topic string  `json:"topic"`
}

// LogStudyResult reports the merged entry plus the streak state after the
// write. Merged is true when the call topped up an existing same-day row.
type LogStudyResult struct {
	Entry  *StudyLog `json:"entry"`
	Streak int       `json:"streak"`
	Merged bool      `json:"merged"`
}

// StreakPoint is one streak-history sample, appended whenever the streak
// value changes on a new-day log.
type StreakPoint struct {
	Date   string `json:"date" db:"date"`
	Streak int    `json:"streak" db:"streak"`
}

// PresencePoint is the binary charting series: 1 if the day counted
// toward the streak, 0 otherwise.
type PresencePoint struct {
	Date    string `json:"date"`
	Studied int    `json:"studied"`
}
