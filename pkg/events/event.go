package events

import "time"

// Event types published on the bus
const (
	TypeMeetingProcessed = "meeting.processed"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "meeting.processed").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the generic Event implementation used by publishers.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewMeetingProcessed builds the event emitted when post-meeting processing
// reaches a terminal status.
func NewMeetingProcessed(meetingId, roomId, status string, transcriptCount int) Event {
	return BaseEvent{
		Type: TypeMeetingProcessed,
		Data: map[string]interface{}{
			"meeting_id":       meetingId,
			"room_id":          roomId,
			"status":           status,
			"transcript_count": transcriptCount,
		},
		OccurredAt: time.Now(),
	}
}
