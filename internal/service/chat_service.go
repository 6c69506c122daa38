package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"ai-meeting-be/internal/dto"
	"ai-meeting-be/internal/entity"
	"ai-meeting-be/internal/pkg/logger"
	"ai-meeting-be/internal/repository/specification"
	"ai-meeting-be/internal/repository/unitofwork"
	"ai-meeting-be/pkg/llm"
	"ai-meeting-be/pkg/rag/prompt"
	"ai-meeting-be/pkg/store"
)

// WebSearchPrefix opts a single message into web-augmented answering.
const WebSearchPrefix = "/web "

// EventSink receives stream events in order. Returning an error aborts
// the turn (client gone).
type EventSink func(event dto.StreamEvent) error

type IChatService interface {
	// StreamAnswer runs one grounded chat turn. The sink always receives
	// exactly one terminal event (complete or error); text already emitted
	// is never retracted.
	StreamAnswer(ctx context.Context, req *dto.ChatRequest, sink EventSink) error
}

type chatService struct {
	uowFactory       unitofwork.RepositoryFactory
	retrievalService IRetrievalService
	historyStore     store.ConversationStore
	llmProvider      llm.LLMProvider
	models           []string // primary first, then fallbacks
	logger           logger.ILogger

	// per-room serialization of chat turns; concurrent turns for the same
	// room would interleave history appends. Entries are refcounted and
	// removed once the last waiter releases, so the map only holds rooms
	// with a turn in flight.
	locksMu   sync.Mutex
	roomLocks map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	retrievalService IRetrievalService,
	historyStore store.ConversationStore,
	llmProvider llm.LLMProvider,
	models []string,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:       uowFactory,
		retrievalService: retrievalService,
		historyStore:     historyStore,
		llmProvider:      llmProvider,
		models:           models,
		logger:           log,
		roomLocks:        make(map[string]*roomLock),
	}
}

func (s *chatService) StreamAnswer(ctx context.Context, req *dto.ChatRequest, sink EventSink) error {
	unlock := s.lockRoom(req.RoomId.String())
	defer unlock()

	message := req.Message
	webSearch := strings.HasPrefix(message, WebSearchPrefix)
	if webSearch {
		message = strings.TrimPrefix(message, WebSearchPrefix)
	}

	roomKey := req.RoomId.String()
	if err := s.historyStore.Append(ctx, roomKey, store.ChatTurn{
		Role:      store.RoleUser,
		Content:   message,
		CreatedAt: time.Now(),
	}); err != nil {
		s.logger.Warn("chat", "History append failed", map[string]interface{}{"room": roomKey, "error": err.Error()})
	}

	if err := sink(dto.StreamEvent{Type: dto.EventMetadata, Model: s.primaryModel()}); err != nil {
		return err
	}

	retrieval := s.retrievalService.GetContext(ctx, req.RoomId, message, req.LiveTranscript)
	stats := contextStats(retrieval)

	if err := sink(dto.StreamEvent{Type: dto.EventContext, Stats: stats}); err != nil {
		return err
	}

	room := s.resolveRoom(ctx, req)
	roomStats := s.retrievalService.GetRoomStats(ctx, req.RoomId)
	systemPrompt := prompt.NewSystemBuilder(room, roomStats, retrieval).Build()

	history, err := s.historyStore.History(ctx, roomKey)
	if err != nil {
		s.logger.Warn("chat", "History load failed", map[string]interface{}{"room": roomKey, "error": err.Error()})
	}

	messages := buildMessages(systemPrompt, history, message)

	result, err := s.streamWithFallback(ctx, messages, webSearch, sink)
	if err != nil {
		return sink(dto.StreamEvent{
			Type:      dto.EventError,
			Error:     err.Error(),
			Retryable: llm.IsTransient(err),
		})
	}

	if err := s.historyStore.Append(ctx, roomKey, store.ChatTurn{
		Role:      store.RoleAssistant,
		Content:   result.Text,
		CreatedAt: time.Now(),
	}); err != nil {
		s.logger.Warn("chat", "History append failed", map[string]interface{}{"room": roomKey, "error": err.Error()})
	}

	return sink(dto.StreamEvent{
		Type:      dto.EventComplete,
		Stats:     stats,
		Citations: mapCitations(result.Citations),
	})
}

// streamWithFallback tries each configured model in order. Once any text has
// reached the client the current attempt becomes final: switching models
// mid-answer would duplicate or contradict text already sent.
func (s *chatService) streamWithFallback(ctx context.Context, messages []llm.Message, webSearch bool, sink EventSink) (*llm.StreamResult, error) {
	pacing := backoff.NewExponentialBackOff()
	pacing.InitialInterval = 500 * time.Millisecond
	pacing.MaxInterval = 5 * time.Second

	var lastErr error
	for attempt, model := range s.models {
		if attempt > 0 {
			if err := sink(dto.StreamEvent{Type: dto.EventRetry, Model: model, Attempt: attempt + 1}); err != nil {
				return nil, err
			}
			select {
			case <-time.After(pacing.NextBackOff()):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		emitted := false
		onDelta := func(delta string) error {
			emitted = true
			return sink(dto.StreamEvent{Type: dto.EventText, Text: delta})
		}

		options := []llm.Option{llm.WithModel(model)}
		if webSearch {
			options = append(options, llm.WithWebSearch(true))
		}

		result, err := s.llmProvider.ChatStream(ctx, messages, onDelta, options...)
		if err == nil {
			return result, nil
		}

		s.logger.Warn("chat", "Model attempt failed", map[string]interface{}{"model": model, "attempt": attempt + 1, "error": err.Error()})
		lastErr = err

		if emitted {
			// Partial text is already on the wire; no further fallback.
			return nil, err
		}
	}

	return nil, lastErr
}

func (s *chatService) lockRoom(roomKey string) func() {
	s.locksMu.Lock()
	lock := s.roomLocks[roomKey]
	if lock == nil {
		lock = &roomLock{}
		s.roomLocks[roomKey] = lock
	}
	lock.refs++
	s.locksMu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.locksMu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.roomLocks, roomKey)
		}
		s.locksMu.Unlock()
	}
}

func (s *chatService) primaryModel() string {
	if len(s.models) > 0 {
		return s.models[0]
	}
	return ""
}

func (s *chatService) resolveRoom(ctx context.Context, req *dto.ChatRequest) *entity.Room {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	room, err := uow.RoomRepository().FindOne(ctx, specification.ByID{ID: req.RoomId})
	if err != nil || room == nil {
		return &entity.Room{Id: req.RoomId, Title: "this room"}
	}
	return room
}

func buildMessages(systemPrompt string, history []store.ChatTurn, message string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})

	for _, turn := range history {
		// The current user message is already the last history entry.
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	if len(history) == 0 || history[len(history)-1].Content != message {
		messages = append(messages, llm.Message{Role: "user", Content: message})
	}
	return messages
}

func mapCitations(citations []llm.Citation) []dto.Citation {
	if len(citations) == 0 {
		return nil
	}
	out := make([]dto.Citation, len(citations))
	for i, c := range citations {
		out[i] = dto.Citation{Title: c.Title, URL: c.URL}
	}
	return out
}

func contextStats(retrieval *store.RetrievalContext) *dto.ContextStats {
	stats := &dto.ContextStats{
		UsedContext: retrieval.UsedContext,
		QueryType:   retrieval.QueryType,
		LiveCount:   len(retrieval.Current),
	}
	for _, item := range retrieval.Historical {
		if item.Source == store.SourceSummary {
			stats.SummaryCount++
		} else {
			stats.TranscriptCount++
		}
	}
	return stats
}
