package memory

import (
	"context"
	"time"

	"ai-meeting-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// HistoryRepository is the in-process ConversationStore, used for
// single-instance runs and tests. State is lost on restart, which is
// acceptable because history is a cache, not a system of record.
type HistoryRepository struct {
	cache *cache.Cache
}

func NewHistoryRepository() *HistoryRepository {
	// 24h default expiration, purge sweep every 10 minutes
	c := cache.New(24*time.Hour, 10*time.Minute)
	return &HistoryRepository{
		cache: c,
	}
}

func (r *HistoryRepository) Append(ctx context.Context, roomId string, turn store.ChatTurn) error {
	turns, _ := r.History(ctx, roomId)
	turns = append(turns, turn)
	if len(turns) > store.HistoryLimit {
		turns = turns[len(turns)-store.HistoryLimit:]
	}
	r.cache.Set(roomId, turns, cache.DefaultExpiration)
	return nil
}

func (r *HistoryRepository) History(ctx context.Context, roomId string) ([]store.ChatTurn, error) {
	if x, found := r.cache.Get(roomId); found {
		return x.([]store.ChatTurn), nil
	}
	return nil, nil
}

func (r *HistoryRepository) Clear(ctx context.Context, roomId string) error {
	r.cache.Delete(roomId)
	return nil
}
