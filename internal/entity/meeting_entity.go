package entity

import (
	"time"

	"github.com/google/uuid"
)

// Processing status values. Transitions only move forward
// (pending -> in_progress -> summary_completed -> completed) or jump to failed.
const (
	ProcessingStatusPending          = "pending"
	ProcessingStatusInProgress       = "in_progress"
	ProcessingStatusSummaryCompleted = "summary_completed"
	ProcessingStatusCompleted        = "completed"
	ProcessingStatusFailed           = "failed"
)

// TranscriptEntry is the unit of indexed conversation. Never mutated
// after creation.
type TranscriptEntry struct {
	Speaker    string    `json:"speaker"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence *float64  `json:"confidence,omitempty"`
}

// SummarySection groups cited points under a topic.
type SummarySection struct {
	Topic  string   `json:"topic"`
	Points []string `json:"points"`
}

// ActionItem is a follow-up extracted from the meeting.
type ActionItem struct {
	Description string `json:"description"`
	Assignee    string `json:"assignee,omitempty"`
	DueHint     string `json:"due_hint,omitempty"`
}

// MeetingSummary is the structured output of the summarization step.
type MeetingSummary struct {
	Title       string           `json:"title"`
	Overview    string           `json:"overview"`
	Sections    []SummarySection `json:"sections,omitempty"`
	ActionItems []ActionItem     `json:"action_items,omitempty"`
	Decisions   []string         `json:"decisions,omitempty"`
	Fallback    bool             `json:"fallback,omitempty"`
}

type Meeting struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoomId           uuid.UUID `gorm:"type:uuid;index"`
	RoomName         string
	Title            string
	Type             string
	StartedAt        time.Time
	EndedAt          *time.Time
	Participants     []string
	Transcripts      []TranscriptEntry
	Summary          *MeetingSummary
	ProcessingStatus string
	ProcessingError  string
	TranscriptCount  int
	HasEmbeddings    bool
	EmbeddingError   string
	EmbeddedAt       *time.Time
	SummarizedAt     *time.Time
	NotifiedAt       *time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}

// IsTerminal reports whether the meeting reached a final processing state.
func (m *Meeting) IsTerminal() bool {
	return m.ProcessingStatus == ProcessingStatusCompleted || m.ProcessingStatus == ProcessingStatusFailed
}
