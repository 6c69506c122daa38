package store

import "time"

// Context source kinds
const (
	SourceSummary    = "summary"
	SourceTranscript = "transcript"
)

// TranscriptContext is one ranked grounding item returned by retrieval.
// Source distinguishes meeting-summary items from raw transcript hits.
type TranscriptContext struct {
	Speaker     string    `json:"speaker"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
	MeetingId   string    `json:"meeting_id"`
	MeetingType string    `json:"meeting_type"`
	MeetingDate time.Time `json:"meeting_date"`
	Similarity  float64   `json:"similarity"`
	Source      string    `json:"source"`
}

// RetrievalContext is the ephemeral result of a grounding query.
// Historical items come from the vector index; Current items are parsed from
// a live, unindexed transcript buffer and are always included when supplied.
type RetrievalContext struct {
	UsedContext bool                `json:"used_context"`
	QueryType   string              `json:"query_type"`
	Historical  []TranscriptContext `json:"historical"`
	Current     []TranscriptContext `json:"current"`
}
