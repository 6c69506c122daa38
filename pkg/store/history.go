package store

import (
	"context"
	"time"
)

// Chat roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// HistoryLimit caps the per-room conversation ledger.
const HistoryLimit = 20

// ChatTurn is one prior turn in a room's conversation.
type ChatTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationStore keeps the per-room chat ledger. Implementations are
// caches, not systems of record: losing entries on restart is acceptable.
// Implementations trim to the most recent HistoryLimit turns on append.
type ConversationStore interface {
	Append(ctx context.Context, roomId string, turn ChatTurn) error
	History(ctx context.Context, roomId string) ([]ChatTurn, error)
	Clear(ctx context.Context, roomId string) error
}
