package mapper

import (
	"encoding/json"
	"time"

	"ai-meeting-be/internal/entity"
	"ai-meeting-be/internal/model"

	"gorm.io/datatypes"
)

type MeetingMapper struct{}

func NewMeetingMapper() *MeetingMapper {
	return &MeetingMapper{}
}

func (m *MeetingMapper) ToEntity(e *model.Meeting) *entity.Meeting {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	var participants []string
	if len(e.Participants) > 0 {
		_ = json.Unmarshal(e.Participants, &participants)
	}

	var transcripts []entity.TranscriptEntry
	if len(e.Transcripts) > 0 {
		_ = json.Unmarshal(e.Transcripts, &transcripts)
	}

	var summary *entity.MeetingSummary
	if len(e.Summary) > 0 {
		var s entity.MeetingSummary
		if err := json.Unmarshal(e.Summary, &s); err == nil && (s.Title != "" || s.Overview != "") {
			summary = &s
		}
	}

	return &entity.Meeting{
		Id:               e.Id,
		RoomId:           e.RoomId,
		RoomName:         e.RoomName,
		Title:            e.Title,
		Type:             e.Type,
		StartedAt:        e.StartedAt,
		EndedAt:          e.EndedAt,
		Participants:     participants,
		Transcripts:      transcripts,
		Summary:          summary,
		ProcessingStatus: e.ProcessingStatus,
		ProcessingError:  e.ProcessingError,
		TranscriptCount:  e.TranscriptCount,
		HasEmbeddings:    e.HasEmbeddings,
		EmbeddingError:   e.EmbeddingError,
		EmbeddedAt:       e.EmbeddedAt,
		SummarizedAt:     e.SummarizedAt,
		NotifiedAt:       e.NotifiedAt,
		CompletedAt:      e.CompletedAt,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *MeetingMapper) ToModel(e *entity.Meeting) *model.Meeting {
	if e == nil {
		return nil
	}

	participants, _ := json.Marshal(e.Participants)
	transcripts, _ := json.Marshal(e.Transcripts)

	var summary datatypes.JSON
	if e.Summary != nil {
		b, _ := json.Marshal(e.Summary)
		summary = b
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.Meeting{
		Id:               e.Id,
		RoomId:           e.RoomId,
		RoomName:         e.RoomName,
		Title:            e.Title,
		Type:             e.Type,
		StartedAt:        e.StartedAt,
		EndedAt:          e.EndedAt,
		Participants:     participants,
		Transcripts:      transcripts,
		Summary:          summary,
		ProcessingStatus: e.ProcessingStatus,
		ProcessingError:  e.ProcessingError,
		TranscriptCount:  e.TranscriptCount,
		HasEmbeddings:    e.HasEmbeddings,
		EmbeddingError:   e.EmbeddingError,
		EmbeddedAt:       e.EmbeddedAt,
		SummarizedAt:     e.SummarizedAt,
		NotifiedAt:       e.NotifiedAt,
		CompletedAt:      e.CompletedAt,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *MeetingMapper) ToEntities(meetings []*model.Meeting) []*entity.Meeting {
	entities := make([]*entity.Meeting, len(meetings))
	for i, e := range meetings {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
