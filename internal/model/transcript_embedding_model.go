package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// TranscriptEmbedding is one vector-index row. The (meeting_id,
// transcript_index) pair is the logical key; re-indexing deletes by meeting
// before inserting so the index never grows on re-runs.
type TranscriptEmbedding struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MeetingId       uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_meeting_transcript"`
	RoomId          uuid.UUID `gorm:"type:uuid;not null;index"`
	Speaker         string    `gorm:"type:varchar(255)"`
	Text            string    `gorm:"type:text"`
	Timestamp       time.Time
	MeetingDate     time.Time
	MeetingType     string          `gorm:"type:varchar(50)"`
	TranscriptIndex int             `gorm:"not null;uniqueIndex:idx_meeting_transcript"`
	EmbeddingValue  pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 dimensionality
	CreatedAt       time.Time       `gorm:"autoCreateTime"`
	DeletedAt       gorm.DeletedAt  `gorm:"index"`
}

func (TranscriptEmbedding) TableName() string {
	return "transcript_embeddings"
}
