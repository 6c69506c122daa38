package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Meeting stores transcript metadata and pipeline state. Embedding vectors
// are never stored here; the vector index table is their single home.
type Meeting struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RoomId           uuid.UUID `gorm:"type:uuid;not null;index"`
	RoomName         string    `gorm:"type:varchar(255)"`
	Title            string    `gorm:"type:varchar(255)"`
	Type             string    `gorm:"type:varchar(50)"`
	StartedAt        time.Time
	EndedAt          *time.Time
	Participants     datatypes.JSON
	Transcripts      datatypes.JSON
	Summary          datatypes.JSON
	ProcessingStatus string `gorm:"type:varchar(30);not null;default:'pending';index"`
	ProcessingError  string `gorm:"type:text"`
	TranscriptCount  int    `gorm:"default:0"`
	HasEmbeddings    bool   `gorm:"default:false"`
	EmbeddingError   string `gorm:"type:text"`
	EmbeddedAt       *time.Time
	SummarizedAt     *time.Time
	NotifiedAt       *time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time      `gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime"`
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func (Meeting) TableName() string {
	return "meetings"
}
