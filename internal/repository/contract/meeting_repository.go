package contract

import (
	"context"

	"ai-meeting-be/internal/entity"
	"ai-meeting-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MeetingRepository interface {
	Create(ctx context.Context, meeting *entity.Meeting) error
	Update(ctx context.Context, meeting *entity.Meeting) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Meeting, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Meeting, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// FindAllLean projects away the transcripts blob for hot-path reads
	// (retrieval fetches many meetings and only needs summaries + metadata).
	FindAllLean(ctx context.Context, specs ...specification.Specification) ([]*entity.Meeting, error)

	// TransitionStatus performs a guarded status update: the row is only
	// updated when its current status equals from. Returns false when another
	// writer won the race. This is the compare-and-swap that makes concurrent
	// meeting-ended triggers safe.
	TransitionStatus(ctx context.Context, meetingId uuid.UUID, from, to string) (bool, error)
}
