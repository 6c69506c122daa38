package mapper

import (
	"ai-meeting-be/internal/entity"
	"ai-meeting-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type TranscriptEmbeddingMapper struct{}

func NewTranscriptEmbeddingMapper() *TranscriptEmbeddingMapper {
	return &TranscriptEmbeddingMapper{}
}

func (m *TranscriptEmbeddingMapper) ToEntity(e *model.TranscriptEmbedding) *entity.TranscriptEmbedding {
	if e == nil {
		return nil
	}

	return &entity.TranscriptEmbedding{
		Id:              e.Id,
		MeetingId:       e.MeetingId,
		RoomId:          e.RoomId,
		Speaker:         e.Speaker,
		Text:            e.Text,
		Timestamp:       e.Timestamp,
		MeetingDate:     e.MeetingDate,
		MeetingType:     e.MeetingType,
		TranscriptIndex: e.TranscriptIndex,
		EmbeddingValue:  e.EmbeddingValue.Slice(),
		CreatedAt:       e.CreatedAt,
	}
}

func (m *TranscriptEmbeddingMapper) ToModel(e *entity.TranscriptEmbedding) *model.TranscriptEmbedding {
	if e == nil {
		return nil
	}

	return &model.TranscriptEmbedding{
		Id:              e.Id,
		MeetingId:       e.MeetingId,
		RoomId:          e.RoomId,
		Speaker:         e.Speaker,
		Text:            e.Text,
		Timestamp:       e.Timestamp,
		MeetingDate:     e.MeetingDate,
		MeetingType:     e.MeetingType,
		TranscriptIndex: e.TranscriptIndex,
		EmbeddingValue:  pgvector.NewVector(e.EmbeddingValue),
		CreatedAt:       e.CreatedAt,
	}
}

func (m *TranscriptEmbeddingMapper) ToModels(embeddings []*entity.TranscriptEmbedding) []*model.TranscriptEmbedding {
	models := make([]*model.TranscriptEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = m.ToModel(e)
	}
	return models
}
