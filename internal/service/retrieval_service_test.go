package service

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"ai-meeting-be/internal/entity"
	"ai-meeting-be/internal/repository/contract"
	"ai-meeting-be/pkg/rag/classify"
	"ai-meeting-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func scoredHitFor(meetingId, roomId uuid.UUID, speaker, text string, similarity float64) *contract.ScoredTranscriptEmbedding {
	return &contract.ScoredTranscriptEmbedding{
		Embedding: &entity.TranscriptEmbedding{
			Id:          uuid.New(),
			MeetingId:   meetingId,
			RoomId:      roomId,
			Speaker:     speaker,
			Text:        text,
			Timestamp:   time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC),
			MeetingDate: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
			MeetingType: "standup",
		},
		Similarity: similarity,
	}
}

func TestGetContextMissingRoom(t *testing.T) {
	uow := newFakeUnitOfWork()
	provider := &fakeEmbeddingProvider{}
	svc := NewRetrievalService(&fakeRepoFactory{uow: uow}, provider, &fakeClassifier{}, discardLogger())

	result := svc.GetContext(context.Background(), uuid.New(), "what did we decide", "alice: still going")

	assert.False(t, result.UsedContext)
	assert.Empty(t, result.Historical)
	assert.Empty(t, result.Current)
	assert.Equal(t, 0, provider.queryCalls)
}

func TestGetContextThresholdFallback(t *testing.T) {
	roomId := uuid.New()
	meetingId := uuid.New()

	uow := newFakeUnitOfWork()
	uow.rooms.room = &entity.Room{Id: roomId, Title: "planning"}
	uow.meetings.add(&entity.Meeting{Id: meetingId, RoomId: roomId, StartedAt: time.Now()})
	uow.embeddings.searchResults = [][]*contract.ScoredTranscriptEmbedding{
		nil, // strict pass finds nothing
		{scoredHitFor(meetingId, roomId, "alice", "we decided to ship friday", 0.22)},
	}

	classifier := &fakeClassifier{profile: &classify.QueryProfile{
		Type:            classify.TypeSpecific,
		SummaryPriority: classify.PriorityLow,
		Threshold:       0.5,
		TopK:            15,
		ContextCap:      15,
	}}
	svc := NewRetrievalService(&fakeRepoFactory{uow: uow}, &fakeEmbeddingProvider{}, classifier, discardLogger())

	result := svc.GetContext(context.Background(), roomId, "when are we shipping?", "")

	assert.True(t, result.UsedContext)
	assert.Len(t, result.Historical, 1)
	assert.Equal(t, "we decided to ship friday", result.Historical[0].Text)

	// one strict search, then exactly one retry at the fixed floor
	assert.Equal(t, []searchCall{
		{topK: 15, threshold: 0.5},
		{topK: 10, threshold: 0.2},
	}, uow.embeddings.searchCalls)
}

func TestGetContextNoFallbackWhenHitsExist(t *testing.T) {
	roomId := uuid.New()
	meetingId := uuid.New()

	uow := newFakeUnitOfWork()
	uow.rooms.room = &entity.Room{Id: roomId}
	uow.meetings.add(&entity.Meeting{Id: meetingId, RoomId: roomId, StartedAt: time.Now()})
	uow.embeddings.searchResults = [][]*contract.ScoredTranscriptEmbedding{
		{scoredHitFor(meetingId, roomId, "bob", "migration is on track", 0.6)},
	}

	svc := NewRetrievalService(&fakeRepoFactory{uow: uow}, &fakeEmbeddingProvider{}, &fakeClassifier{}, discardLogger())

	result := svc.GetContext(context.Background(), roomId, "how is the migration", "")

	assert.True(t, result.UsedContext)
	assert.Len(t, uow.embeddings.searchCalls, 1)
}

func TestGetContextRanksSummariesFirstOnHighPriority(t *testing.T) {
	roomId := uuid.New()
	meetingId := uuid.New()

	uow := newFakeUnitOfWork()
	uow.rooms.room = &entity.Room{Id: roomId}
	uow.meetings.add(&entity.Meeting{
		Id:        meetingId,
		RoomId:    roomId,
		StartedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Summary: &entity.MeetingSummary{
			Title:     "Sprint planning",
			Overview:  "Team agreed on the Friday release.",
			Decisions: []string{"Ship on Friday"},
		},
	})
	uow.embeddings.searchResults = [][]*contract.ScoredTranscriptEmbedding{
		{
			scoredHitFor(meetingId, roomId, "alice", "we decided to ship friday", 0.8),
			scoredHitFor(meetingId, roomId, "bob", "ok, friday works", 0.5),
		},
	}

	classifier := &fakeClassifier{profile: &classify.QueryProfile{
		Type:            classify.TypeComprehensive,
		SummaryPriority: classify.PriorityHigh,
		Threshold:       0.25,
		TopK:            30,
		ContextCap:      30,
	}}
	svc := NewRetrievalService(&fakeRepoFactory{uow: uow}, &fakeEmbeddingProvider{}, classifier, discardLogger())

	result := svc.GetContext(context.Background(), roomId, "summarize the planning", "")

	assert.Len(t, result.Historical, 3)
	assert.Equal(t, store.SourceSummary, result.Historical[0].Source)
	assert.Contains(t, result.Historical[0].Text, "Ship on Friday")
	// summary inherited the meeting's best hit similarity
	assert.Equal(t, 0.8, result.Historical[0].Similarity)
	assert.Equal(t, store.SourceTranscript, result.Historical[1].Source)
	assert.Equal(t, "we decided to ship friday", result.Historical[1].Text)
}

func TestGetContextHonorsContextCap(t *testing.T) {
	roomId := uuid.New()
	meetingId := uuid.New()

	uow := newFakeUnitOfWork()
	uow.rooms.room = &entity.Room{Id: roomId}
	uow.meetings.add(&entity.Meeting{Id: meetingId, RoomId: roomId, StartedAt: time.Now()})
	uow.embeddings.searchResults = [][]*contract.ScoredTranscriptEmbedding{
		{
			scoredHitFor(meetingId, roomId, "alice", "point one", 0.9),
			scoredHitFor(meetingId, roomId, "bob", "point two", 0.8),
			scoredHitFor(meetingId, roomId, "carol", "point three", 0.7),
		},
	}

	classifier := &fakeClassifier{profile: &classify.QueryProfile{
		Type:            classify.TypeTargeted,
		SummaryPriority: classify.PriorityMedium,
		Threshold:       0.35,
		TopK:            20,
		ContextCap:      2,
	}}
	svc := NewRetrievalService(&fakeRepoFactory{uow: uow}, &fakeEmbeddingProvider{}, classifier, discardLogger())

	result := svc.GetContext(context.Background(), roomId, "what was discussed", "")

	assert.Len(t, result.Historical, 2)
	assert.Equal(t, "point one", result.Historical[0].Text)
	assert.Equal(t, "point two", result.Historical[1].Text)
}

func TestGetContextLiveTranscriptWithoutIndex(t *testing.T) {
	roomId := uuid.New()

	uow := newFakeUnitOfWork()
	uow.rooms.room = &entity.Room{Id: roomId}

	svc := NewRetrievalService(&fakeRepoFactory{uow: uow}, &fakeEmbeddingProvider{}, &fakeClassifier{}, discardLogger())

	result := svc.GetContext(context.Background(), roomId, "what was just said", "alice: the demo is live\nbob: looks great")

	assert.Empty(t, result.Historical)
	assert.Len(t, result.Current, 2)
	assert.Equal(t, "alice", result.Current[0].Speaker)
	assert.True(t, result.UsedContext)
}

func TestGetRoomStats(t *testing.T) {
	roomId := uuid.New()

	uow := newFakeUnitOfWork()
	uow.meetings.add(&entity.Meeting{Id: uuid.New(), RoomId: roomId, Participants: []string{"alice", "bob"}})
	uow.meetings.add(&entity.Meeting{Id: uuid.New(), RoomId: roomId, Participants: []string{"alice"}})
	uow.embeddings.stored = []*entity.TranscriptEmbedding{
		{Id: uuid.New(), RoomId: roomId},
		{Id: uuid.New(), RoomId: roomId},
		{Id: uuid.New(), RoomId: roomId},
	}

	svc := NewRetrievalService(&fakeRepoFactory{uow: uow}, &fakeEmbeddingProvider{}, &fakeClassifier{}, discardLogger())

	stats := svc.GetRoomStats(context.Background(), roomId)

	assert.Equal(t, 2, stats.MeetingCount)
	assert.Equal(t, 3, stats.TranscriptCount)
	assert.Equal(t, []string{"alice", "bob"}, stats.FrequentParticipants)
}
