package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Task struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RoomId      uuid.UUID      `gorm:"type:uuid;not null;index"`
	MeetingId   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Description string         `gorm:"type:text;not null"`
	Assignee    string         `gorm:"type:varchar(255)"`
	DueHint     string         `gorm:"type:varchar(255)"`
	Status      string         `gorm:"type:varchar(30);not null;default:'open'"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Task) TableName() string {
	return "tasks"
}
