package dto

import (
	"time"

	"github.com/google/uuid"

	"ai-meeting-be/internal/entity"
)

// EndMeetingRequest triggers post-meeting processing for an ended meeting.
type EndMeetingRequest struct {
	MeetingId    uuid.UUID                `json:"meeting_id" validate:"required"`
	RoomName     string                   `json:"room_name" validate:"required"`
	Transcripts  []entity.TranscriptEntry `json:"transcripts"`
	Participants []entity.Participant     `json:"participants"`
}

// MeetingEndedMessage is the job payload carried over the message bus between
// the end-meeting endpoint and the background processor.
type MeetingEndedMessage struct {
	MeetingId    uuid.UUID                `json:"meeting_id"`
	RoomName     string                   `json:"room_name"`
	Transcripts  []entity.TranscriptEntry `json:"transcripts"`
	Participants []entity.Participant     `json:"participants"`
	EndedAt      time.Time                `json:"ended_at"`
}

type EndMeetingResponse struct {
	MeetingId uuid.UUID `json:"meeting_id"`
	Status    string    `json:"status"`
}

// MeetingStatusResponse exposes pipeline progress for polling clients.
type MeetingStatusResponse struct {
	MeetingId        uuid.UUID  `json:"meeting_id"`
	ProcessingStatus string     `json:"processing_status"`
	ProcessingError  string     `json:"processing_error,omitempty"`
	TranscriptCount  int        `json:"transcript_count"`
	HasEmbeddings    bool       `json:"has_embeddings"`
	EmbeddingError   string     `json:"embedding_error,omitempty"`
	EmbeddedAt       *time.Time `json:"embedded_at,omitempty"`
	SummarizedAt     *time.Time `json:"summarized_at,omitempty"`
	NotifiedAt       *time.Time `json:"notified_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}
