package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event is read-only from the reminder engine's perspective.
type Event struct {
	ID          uuid.UUID
	Name        string
	Description string
	Location    string

	Date time.Time // scheduled start, absolute UTC instant
}
