package contract

import (
	"context"

	"ai-meeting-be/internal/entity"

	"github.com/google/uuid"
)

// ScoredTranscriptEmbedding pairs a vector-index hit with its cosine similarity
type ScoredTranscriptEmbedding struct {
	Embedding  *entity.TranscriptEmbedding
	Similarity float64
}

type TranscriptEmbeddingRepository interface {
	CreateBulk(ctx context.Context, embeddings []*entity.TranscriptEmbedding) error
	DeleteByMeetingId(ctx context.Context, meetingId uuid.UUID) error
	CountByMeetingId(ctx context.Context, meetingId uuid.UUID) (int64, error)
	CountByRoomId(ctx context.Context, roomId uuid.UUID) (int64, error)

	// SearchSimilarWithScore runs a room-scoped nearest-neighbor query and
	// returns hits at or above threshold, best first.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, topK int, roomId uuid.UUID, threshold float64) ([]*ScoredTranscriptEmbedding, error)
}
