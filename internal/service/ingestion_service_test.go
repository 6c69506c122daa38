package service

import (
	"context"
	"testing"
	"time"

	"ai-meeting-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func testMeeting(roomId uuid.UUID) *entity.Meeting {
	return &entity.Meeting{
		Id:               uuid.New(),
		RoomId:           roomId,
		RoomName:         "standup",
		Type:             "standup",
		StartedAt:        time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		ProcessingStatus: entity.ProcessingStatusPending,
	}
}

func TestIndexTranscriptsDedupesBeforeEmbedding(t *testing.T) {
	uow := newFakeUnitOfWork()
	provider := &fakeEmbeddingProvider{}
	svc := NewIngestionService(&fakeRepoFactory{uow: uow}, provider)

	meeting := testMeeting(uuid.New())
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	transcripts := []entity.TranscriptEntry{
		{Speaker: "alice", Text: "we ship friday", Timestamp: base},
		{Speaker: "alice", Text: "We ship Friday.", Timestamp: base.Add(2 * time.Second)}, // dupe in window
		{Speaker: "bob", Text: "sounds good", Timestamp: base.Add(3 * time.Second)},
	}

	indexed, err := svc.IndexTranscripts(context.Background(), meeting, transcripts)

	assert.NoError(t, err)
	assert.Equal(t, 2, indexed)
	assert.Len(t, provider.batchCalls, 1)
	assert.Equal(t, []string{"we ship friday", "sounds good"}, provider.batchCalls[0])
	assert.Len(t, uow.embeddings.stored, 2)
}

func TestIndexTranscriptsSkipsEmptyText(t *testing.T) {
	uow := newFakeUnitOfWork()
	provider := &fakeEmbeddingProvider{}
	svc := NewIngestionService(&fakeRepoFactory{uow: uow}, provider)

	meeting := testMeeting(uuid.New())
	transcripts := []entity.TranscriptEntry{
		{Speaker: "alice", Text: "   ", Timestamp: time.Now()},
		{Speaker: "bob", Text: "real content", Timestamp: time.Now().Add(6 * time.Second)},
	}

	indexed, err := svc.IndexTranscripts(context.Background(), meeting, transcripts)

	assert.NoError(t, err)
	assert.Equal(t, 1, indexed)
	assert.Equal(t, []string{"real content"}, provider.batchCalls[0])
}

func TestIndexTranscriptsEmptyInput(t *testing.T) {
	uow := newFakeUnitOfWork()
	provider := &fakeEmbeddingProvider{}
	svc := NewIngestionService(&fakeRepoFactory{uow: uow}, provider)

	indexed, err := svc.IndexTranscripts(context.Background(), testMeeting(uuid.New()), nil)

	assert.NoError(t, err)
	assert.Equal(t, 0, indexed)
	assert.Empty(t, provider.batchCalls)
	assert.Empty(t, uow.embeddings.stored)
}

func TestIndexTranscriptsReindexReplacesVectors(t *testing.T) {
	uow := newFakeUnitOfWork()
	provider := &fakeEmbeddingProvider{}
	svc := NewIngestionService(&fakeRepoFactory{uow: uow}, provider)

	meeting := testMeeting(uuid.New())
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	transcripts := []entity.TranscriptEntry{
		{Speaker: "alice", Text: "first point", Timestamp: base},
		{Speaker: "bob", Text: "second point", Timestamp: base.Add(10 * time.Second)},
	}

	for run := 0; run < 2; run++ {
		indexed, err := svc.IndexTranscripts(context.Background(), meeting, transcripts)
		assert.NoError(t, err)
		assert.Equal(t, 2, indexed)
	}

	// the second run replaced the first run's vectors instead of stacking
	assert.Len(t, uow.embeddings.stored, 2)
	assert.Equal(t, 2, uow.committed)
}

func TestIndexTranscriptsCarriesMeetingMetadata(t *testing.T) {
	uow := newFakeUnitOfWork()
	provider := &fakeEmbeddingProvider{}
	svc := NewIngestionService(&fakeRepoFactory{uow: uow}, provider)

	meeting := testMeeting(uuid.New())
	transcripts := []entity.TranscriptEntry{
		{Speaker: "alice", Text: "budget approved", Timestamp: meeting.StartedAt.Add(time.Minute)},
	}

	_, err := svc.IndexTranscripts(context.Background(), meeting, transcripts)
	assert.NoError(t, err)

	stored := uow.embeddings.stored[0]
	assert.Equal(t, meeting.Id, stored.MeetingId)
	assert.Equal(t, meeting.RoomId, stored.RoomId)
	assert.Equal(t, meeting.StartedAt, stored.MeetingDate)
	assert.Equal(t, meeting.Type, stored.MeetingType)
	assert.Equal(t, 0, stored.TranscriptIndex)
	assert.NotEmpty(t, stored.EmbeddingValue)
}
