package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"ai-meeting-be/internal/entity"
	"ai-meeting-be/internal/repository/unitofwork"
	"ai-meeting-be/pkg/embedding"
	"ai-meeting-be/pkg/utils"

	"github.com/google/uuid"
)

type IIngestionService interface {
	// IndexTranscripts dedupes, embeds, and indexes a meeting's transcript
	// entries. Re-running replaces the meeting's previous vectors, so the
	// index never grows on retry. Returns the number of entries indexed.
	IndexTranscripts(ctx context.Context, meeting *entity.Meeting, transcripts []entity.TranscriptEntry) (int, error)
}

type ingestionService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
}

func NewIngestionService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
) IIngestionService {
	return &ingestionService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
	}
}

func (s *ingestionService) IndexTranscripts(ctx context.Context, meeting *entity.Meeting, transcripts []entity.TranscriptEntry) (int, error) {
	deduped := utils.DeduplicateTranscripts(transcripts)

	entries := make([]entity.TranscriptEntry, 0, len(deduped))
	texts := make([]string, 0, len(deduped))
	for _, entry := range deduped {
		if strings.TrimSpace(entry.Text) == "" {
			continue
		}
		entries = append(entries, entry)
		texts = append(texts, entry.Text)
	}

	if len(entries) == 0 {
		log.Printf("[INFO] No indexable transcripts for meeting %s", meeting.Id)
		return 0, nil
	}

	log.Printf("[INFO] Embedding %d transcript entries for meeting %s", len(entries), meeting.Id)

	vectors, err := s.embeddingProvider.GenerateBatch(texts, embedding.TaskRetrievalDocument)
	if err != nil {
		return 0, fmt.Errorf("batch embedding failed: %w", err)
	}
	if len(vectors) != len(entries) {
		return 0, fmt.Errorf("embedding count mismatch: %d entries, %d vectors", len(entries), len(vectors))
	}

	newEmbeddings := make([]*entity.TranscriptEmbedding, 0, len(entries))
	for i, entry := range entries {
		newEmbeddings = append(newEmbeddings, &entity.TranscriptEmbedding{
			Id:              uuid.New(),
			MeetingId:       meeting.Id,
			RoomId:          meeting.RoomId,
			Speaker:         entry.Speaker,
			Text:            entry.Text,
			Timestamp:       entry.Timestamp,
			MeetingDate:     meeting.StartedAt,
			MeetingType:     meeting.Type,
			TranscriptIndex: i,
			EmbeddingValue:  vectors[i],
			CreatedAt:       time.Now(),
		})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.TranscriptEmbeddingRepository().DeleteByMeetingId(ctx, meeting.Id); err != nil {
		return 0, fmt.Errorf("failed to delete old embeddings: %w", err)
	}
	if err := uow.TranscriptEmbeddingRepository().CreateBulk(ctx, newEmbeddings); err != nil {
		return 0, fmt.Errorf("failed to create embeddings: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit embeddings: %w", err)
	}

	log.Printf("[SUCCESS] Indexed %d transcript entries for meeting %s", len(newEmbeddings), meeting.Id)
	return len(newEmbeddings), nil
}
