package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-meeting-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const historyTTL = 24 * time.Hour

// HistoryRepository keeps per-room conversation history in Redis so chat
// context survives process restarts and horizontal scaling. Entries expire
// after 24h of room inactivity.
type HistoryRepository struct {
	rdb *redis.Client
}

func NewHistoryRepository(rdb *redis.Client) *HistoryRepository {
	return &HistoryRepository{rdb: rdb}
}

func historyKey(roomId string) string {
	return fmt.Sprintf("chat:history:%s", roomId)
}

func (r *HistoryRepository) Append(ctx context.Context, roomId string, turn store.ChatTurn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return err
	}

	key := historyKey(roomId)
	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -int64(store.HistoryLimit), -1)
	pipe.Expire(ctx, key, historyTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *HistoryRepository) History(ctx context.Context, roomId string) ([]store.ChatTurn, error) {
	raw, err := r.rdb.LRange(ctx, historyKey(roomId), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	turns := make([]store.ChatTurn, 0, len(raw))
	for _, item := range raw {
		var turn store.ChatTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			continue // skip corrupt entries rather than failing the read
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (r *HistoryRepository) Clear(ctx context.Context, roomId string) error {
	return r.rdb.Del(ctx, historyKey(roomId)).Err()
}
