package entity

import (
	"time"

	"github.com/google/uuid"
)

// Participant is a member of a room's roster.
type Participant struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type Room struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title      string
	Type       string
	Recurrence string
	Roster     []Participant
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}
