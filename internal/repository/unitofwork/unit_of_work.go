package unitofwork

import (
	"context"

	"ai-meeting-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	RoomRepository() contract.RoomRepository
	MeetingRepository() contract.MeetingRepository
	TaskRepository() contract.TaskRepository
	TranscriptEmbeddingRepository() contract.TranscriptEmbeddingRepository
}
