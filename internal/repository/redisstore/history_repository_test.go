package redisstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ai-meeting-be/pkg/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func setupRepo(t *testing.T) (*HistoryRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewHistoryRepository(rdb), mr
}

func TestAppendAndHistory(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	err := repo.Append(ctx, "room-1", store.ChatTurn{Role: store.RoleUser, Content: "hi", CreatedAt: time.Now()})
	assert.NoError(t, err)
	err = repo.Append(ctx, "room-1", store.ChatTurn{Role: store.RoleAssistant, Content: "hello", CreatedAt: time.Now()})
	assert.NoError(t, err)

	turns, err := repo.History(ctx, "room-1")
	assert.NoError(t, err)
	assert.Len(t, turns, 2)
	assert.Equal(t, store.RoleUser, turns[0].Role)
	assert.Equal(t, "hi", turns[0].Content)
	assert.Equal(t, "hello", turns[1].Content)
}

func TestAppendTrimsToHistoryLimit(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	for i := 0; i < store.HistoryLimit+5; i++ {
		err := repo.Append(ctx, "room-1", store.ChatTurn{
			Role:    store.RoleUser,
			Content: fmt.Sprintf("turn %d", i),
		})
		assert.NoError(t, err)
	}

	turns, err := repo.History(ctx, "room-1")
	assert.NoError(t, err)
	assert.Len(t, turns, store.HistoryLimit)
	// oldest turns were dropped
	assert.Equal(t, "turn 5", turns[0].Content)
	assert.Equal(t, fmt.Sprintf("turn %d", store.HistoryLimit+4), turns[len(turns)-1].Content)
}

func TestAppendSetsExpiry(t *testing.T) {
	repo, mr := setupRepo(t)
	ctx := context.Background()

	err := repo.Append(ctx, "room-1", store.ChatTurn{Role: store.RoleUser, Content: "hi"})
	assert.NoError(t, err)

	ttl := mr.TTL(historyKey("room-1"))
	assert.Equal(t, historyTTL, ttl)
}

func TestHistorySkipsCorruptEntries(t *testing.T) {
	repo, mr := setupRepo(t)
	ctx := context.Background()

	err := repo.Append(ctx, "room-1", store.ChatTurn{Role: store.RoleUser, Content: "good"})
	assert.NoError(t, err)
	mr.Lpush(historyKey("room-1"), "not json{")

	turns, err := repo.History(ctx, "room-1")
	assert.NoError(t, err)
	assert.Len(t, turns, 1)
	assert.Equal(t, "good", turns[0].Content)
}

func TestHistoryEmptyRoom(t *testing.T) {
	repo, _ := setupRepo(t)

	turns, err := repo.History(context.Background(), "never-used")
	assert.NoError(t, err)
	assert.Empty(t, turns)
}

func TestClear(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	err := repo.Append(ctx, "room-1", store.ChatTurn{Role: store.RoleUser, Content: "hi"})
	assert.NoError(t, err)

	err = repo.Clear(ctx, "room-1")
	assert.NoError(t, err)

	turns, err := repo.History(ctx, "room-1")
	assert.NoError(t, err)
	assert.Empty(t, turns)
}

func TestHistoryIsolatedPerRoom(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	assert.NoError(t, repo.Append(ctx, "room-a", store.ChatTurn{Role: store.RoleUser, Content: "a"}))
	assert.NoError(t, repo.Append(ctx, "room-b", store.ChatTurn{Role: store.RoleUser, Content: "b"}))

	turnsA, _ := repo.History(ctx, "room-a")
	turnsB, _ := repo.History(ctx, "room-b")
	assert.Len(t, turnsA, 1)
	assert.Len(t, turnsB, 1)
	assert.Equal(t, "a", turnsA[0].Content)
	assert.Equal(t, "b", turnsB[0].Content)
}
