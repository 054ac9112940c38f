package leaderboard

import (
	"time"

	"github.com/google/uuid"
)

type Window string

const (
	WindowWeekly  Window = "weekly"
	WindowMonthly Window = "monthly"
)

type Entry struct {
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Role       string    `json:"role" db:"role"`
	Streak     int       `json:"streak" db:"streak"`
	TotalHours float64   `json:"total_hours"`
	Rank       int       `json:"rank"`
	// Degraded marks a row whose logs failed to load; it stays on the
	// board with zero hours rather than being dropped.
	Degraded bool `json:"degraded,omitempty"`
}

type Leaderboard struct {
	Window  Window    `json:"window"`
	AsOf    time.Time `json:"as_of"`
	Entries []Entry   `json:"entries"`
}
