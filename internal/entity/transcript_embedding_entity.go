package entity

import (
	"time"

	"github.com/google/uuid"
)

// TranscriptEmbedding is a vector-indexed transcript entry. Vectors live only
// in the vector index table, never on the Meeting record.
type TranscriptEmbedding struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey"`
	MeetingId       uuid.UUID `gorm:"type:uuid;index"`
	RoomId          uuid.UUID `gorm:"type:uuid;index"`
	Speaker         string
	Text            string
	Timestamp       time.Time
	MeetingDate     time.Time
	MeetingType     string
	TranscriptIndex int
	EmbeddingValue  []float32
	CreatedAt       time.Time
}
