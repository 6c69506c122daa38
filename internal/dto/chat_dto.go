package dto

import (
	"github.com/google/uuid"
)

// Stream event types emitted over the chat websocket
const (
	EventMetadata = "metadata"
	EventContext  = "context"
	EventText     = "text"
	EventRetry    = "retry"
	EventComplete = "complete"
	EventError    = "error"
)

// ChatRequest is one inbound user turn on the chat websocket.
type ChatRequest struct {
	RoomId         uuid.UUID `json:"room_id" validate:"required"`
	Message        string    `json:"message" validate:"required"`
	LiveTranscript string    `json:"live_transcript,omitempty"`
}

// ContextStats summarizes what grounding the answer was built on.
type ContextStats struct {
	UsedContext     bool   `json:"used_context"`
	QueryType       string `json:"query_type"`
	SummaryCount    int    `json:"summary_count"`
	TranscriptCount int    `json:"transcript_count"`
	LiveCount       int    `json:"live_count"`
}

type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// StreamEvent is the envelope for every frame sent to the client. Exactly one
// of the optional payloads is set, depending on Type.
type StreamEvent struct {
	Type      string        `json:"type"`
	Text      string        `json:"text,omitempty"`
	Model     string        `json:"model,omitempty"`
	Attempt   int           `json:"attempt,omitempty"`
	Retryable bool          `json:"retryable,omitempty"`
	Error     string        `json:"error,omitempty"`
	Stats     *ContextStats `json:"stats,omitempty"`
	Citations []Citation    `json:"citations,omitempty"`
}
