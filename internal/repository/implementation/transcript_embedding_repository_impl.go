package implementation

import (
	"context"

	"ai-meeting-be/internal/mapper"
	"ai-meeting-be/internal/model"
	"ai-meeting-be/internal/repository/contract"

	"ai-meeting-be/internal/entity"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type TranscriptEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TranscriptEmbeddingMapper
}

func NewTranscriptEmbeddingRepository(db *gorm.DB) contract.TranscriptEmbeddingRepository {
	return &TranscriptEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewTranscriptEmbeddingMapper(),
	}
}

func (r *TranscriptEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.TranscriptEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := r.mapper.ToModels(embeddings)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

// DeleteByMeetingId removes a meeting's vectors ahead of re-indexing. Hard
// delete: stale vectors must not linger behind a soft-delete flag, or the
// unique (meeting_id, transcript_index) key would block the re-insert.
func (r *TranscriptEmbeddingRepositoryImpl) DeleteByMeetingId(ctx context.Context, meetingId uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("meeting_id = ?", meetingId).
		Delete(&model.TranscriptEmbedding{}).Error
}

func (r *TranscriptEmbeddingRepositoryImpl) CountByMeetingId(ctx context.Context, meetingId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.TranscriptEmbedding{}).
		Where("meeting_id = ?", meetingId).
		Count(&count).Error
	return count, err
}

func (r *TranscriptEmbeddingRepositoryImpl) CountByRoomId(ctx context.Context, roomId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.TranscriptEmbedding{}).
		Where("room_id = ?", roomId).
		Count(&count).Error
	return count, err
}

// SearchSimilarWithScore returns room-scoped hits with similarity scores.
// Cosine distance in pgvector is 1 - cosine_similarity, so we compute
// 1 - (embedding_value <=> query_vector) and filter by threshold.
func (r *TranscriptEmbeddingRepositoryImpl) SearchSimilarWithScore(
	ctx context.Context,
	embedding []float32,
	topK int,
	roomId uuid.UUID,
	threshold float64,
) ([]*contract.ScoredTranscriptEmbedding, error) {
	if topK <= 0 {
		topK = 10
	}

	type result struct {
		model.TranscriptEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("transcript_embeddings").
		Select("transcript_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("room_id = ?", roomId).
		Where("deleted_at IS NULL").
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(topK).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredTranscriptEmbedding, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredTranscriptEmbedding{
			Embedding:  r.mapper.ToEntity(&res.TranscriptEmbedding),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
