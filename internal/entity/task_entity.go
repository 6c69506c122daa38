package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskStatusOpen = "open"
	TaskStatusDone = "done"
)

type Task struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoomId      uuid.UUID `gorm:"type:uuid;index"`
	MeetingId   uuid.UUID `gorm:"type:uuid;index"`
	Description string
	Assignee    string
	DueHint     string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}
