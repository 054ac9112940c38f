package role

import (
	"time"

	"github.com/google/uuid"
)

// Seats is the fixed enumeration of group seats. A seat is claimed by
// exactly one account at signup and the claim is permanent.
var Seats = []string{
	"Aquila",
	"Orion",
	"Lyra",
	"Phoenix",
	"Vega",
	"Atlas",
	"Nova",
}

// IsSeat reports whether name is one of the fixed seats.
func IsSeat(name string) bool {
	for _, s := range Seats {
		if s == name {
			return true
		}
	}
	return false
}

type Role struct {
	Name      string     `json:"name" db:"name"`
	Taken     bool       `json:"taken" db:"taken"`
	UserID    *uuid.UUID `json:"userId,omitempty" db:"user_id"`
	Email     *string    `json:"email,omitempty" db:"email"`
	ClaimedAt *time.Time `json:"claimedAt,omitempty" db:"claimed_at"`
}
