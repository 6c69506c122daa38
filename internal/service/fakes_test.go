package service

import (
	"context"

	"ai-meeting-be/internal/entity"
	"ai-meeting-be/internal/repository/contract"
	"ai-meeting-be/internal/repository/specification"
	"ai-meeting-be/internal/repository/unitofwork"
	"ai-meeting-be/pkg/embedding"
	"ai-meeting-be/pkg/llm"
	"ai-meeting-be/pkg/rag/classify"
	"ai-meeting-be/pkg/rag/prompt"
	"ai-meeting-be/pkg/store"

	"github.com/google/uuid"
)

// --- unit of work ---

type fakeRepoFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeRepoFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type fakeUnitOfWork struct {
	rooms      *fakeRoomRepo
	meetings   *fakeMeetingRepo
	tasks      *fakeTaskRepo
	embeddings *fakeEmbeddingRepo

	begun      int
	committed  int
	rolledBack int
}

func newFakeUnitOfWork() *fakeUnitOfWork {
	return &fakeUnitOfWork{
		rooms:      &fakeRoomRepo{},
		meetings:   &fakeMeetingRepo{byId: map[uuid.UUID]*entity.Meeting{}},
		tasks:      &fakeTaskRepo{},
		embeddings: &fakeEmbeddingRepo{},
	}
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { u.begun++; return nil }
func (u *fakeUnitOfWork) Commit() error                   { u.committed++; return nil }
func (u *fakeUnitOfWork) Rollback() error                 { u.rolledBack++; return nil }

func (u *fakeUnitOfWork) RoomRepository() contract.RoomRepository       { return u.rooms }
func (u *fakeUnitOfWork) MeetingRepository() contract.MeetingRepository { return u.meetings }
func (u *fakeUnitOfWork) TaskRepository() contract.TaskRepository       { return u.tasks }
func (u *fakeUnitOfWork) TranscriptEmbeddingRepository() contract.TranscriptEmbeddingRepository {
	return u.embeddings
}

// --- rooms ---

type fakeRoomRepo struct {
	room    *entity.Room
	findErr error
}

func (r *fakeRoomRepo) Create(ctx context.Context, room *entity.Room) error { return nil }
func (r *fakeRoomRepo) Update(ctx context.Context, room *entity.Room) error { return nil }

func (r *fakeRoomRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Room, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, s := range specs {
		if byID, ok := s.(specification.ByID); ok {
			if r.room != nil && r.room.Id == byID.ID {
				return r.room, nil
			}
			return nil, nil
		}
	}
	return r.room, nil
}

func (r *fakeRoomRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Room, error) {
	if r.room == nil {
		return nil, nil
	}
	return []*entity.Room{r.room}, nil
}

func (r *fakeRoomRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	if r.room == nil {
		return 0, nil
	}
	return 1, nil
}

// --- meetings ---

type fakeMeetingRepo struct {
	byId        map[uuid.UUID]*entity.Meeting
	transitions []string // "from->to" in the order they succeeded
	updates     int
	updateErr   error
	findErr     error
}

func (r *fakeMeetingRepo) add(m *entity.Meeting) { r.byId[m.Id] = m }

func (r *fakeMeetingRepo) Create(ctx context.Context, meeting *entity.Meeting) error {
	r.byId[meeting.Id] = meeting
	return nil
}

func (r *fakeMeetingRepo) Update(ctx context.Context, meeting *entity.Meeting) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updates++
	// The gorm implementation round-trips the row through the model and
	// writes the whole struct back through the pointer; mirror that so a
	// caller updating a meeting another goroutine is reading trips the
	// race detector.
	saved := *meeting
	r.byId[meeting.Id] = &saved
	*meeting = saved
	return nil
}

func (r *fakeMeetingRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Meeting, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, s := range specs {
		if byID, ok := s.(specification.ByID); ok {
			return r.byId[byID.ID], nil
		}
	}
	return nil, nil
}

func (r *fakeMeetingRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Meeting, error) {
	return r.FindAllLean(ctx, specs...)
}

func (r *fakeMeetingRepo) FindAllLean(ctx context.Context, specs ...specification.Specification) ([]*entity.Meeting, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []*entity.Meeting
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.ByIDs:
			for _, id := range spec.IDs {
				if m, ok := r.byId[id]; ok {
					out = append(out, m)
				}
			}
			return out, nil
		case specification.ByRoomID:
			for _, m := range r.byId {
				if m.RoomId == spec.RoomID {
					out = append(out, m)
				}
			}
			return out, nil
		}
	}
	for _, m := range r.byId {
		out = append(out, m)
	}
	return out, nil
}

func (r *fakeMeetingRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	meetings, err := r.FindAllLean(ctx, specs...)
	return int64(len(meetings)), err
}

func (r *fakeMeetingRepo) TransitionStatus(ctx context.Context, meetingId uuid.UUID, from, to string) (bool, error) {
	m, ok := r.byId[meetingId]
	if !ok || m.ProcessingStatus != from {
		return false, nil
	}
	m.ProcessingStatus = to
	r.transitions = append(r.transitions, from+"->"+to)
	return true, nil
}

// --- tasks ---

type fakeTaskRepo struct {
	created []*entity.Task
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *entity.Task) error {
	r.created = append(r.created, task)
	return nil
}

func (r *fakeTaskRepo) CreateBulk(ctx context.Context, tasks []*entity.Task) error {
	r.created = append(r.created, tasks...)
	return nil
}

func (r *fakeTaskRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Task, error) {
	return r.created, nil
}

func (r *fakeTaskRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.created)), nil
}

// --- transcript embeddings ---

type searchCall struct {
	topK      int
	threshold float64
}

type fakeEmbeddingRepo struct {
	stored []*entity.TranscriptEmbedding

	// searchResults are popped one per SearchSimilarWithScore call; once
	// exhausted, searches return nothing.
	searchResults [][]*contract.ScoredTranscriptEmbedding
	searchCalls   []searchCall
	searchErr     error
}

func (r *fakeEmbeddingRepo) CreateBulk(ctx context.Context, embeddings []*entity.TranscriptEmbedding) error {
	r.stored = append(r.stored, embeddings...)
	return nil
}

func (r *fakeEmbeddingRepo) DeleteByMeetingId(ctx context.Context, meetingId uuid.UUID) error {
	kept := r.stored[:0]
	for _, e := range r.stored {
		if e.MeetingId != meetingId {
			kept = append(kept, e)
		}
	}
	r.stored = kept
	return nil
}

func (r *fakeEmbeddingRepo) CountByMeetingId(ctx context.Context, meetingId uuid.UUID) (int64, error) {
	var n int64
	for _, e := range r.stored {
		if e.MeetingId == meetingId {
			n++
		}
	}
	return n, nil
}

func (r *fakeEmbeddingRepo) CountByRoomId(ctx context.Context, roomId uuid.UUID) (int64, error) {
	var n int64
	for _, e := range r.stored {
		if e.RoomId == roomId {
			n++
		}
	}
	return n, nil
}

func (r *fakeEmbeddingRepo) SearchSimilarWithScore(ctx context.Context, vector []float32, topK int, roomId uuid.UUID, threshold float64) ([]*contract.ScoredTranscriptEmbedding, error) {
	r.searchCalls = append(r.searchCalls, searchCall{topK: topK, threshold: threshold})
	if r.searchErr != nil {
		return nil, r.searchErr
	}
	if len(r.searchResults) == 0 {
		return nil, nil
	}
	hits := r.searchResults[0]
	r.searchResults = r.searchResults[1:]
	return hits, nil
}

// --- embedding provider ---

type fakeEmbeddingProvider struct {
	batchCalls  [][]string
	queryCalls  int
	generateErr error
	batchErr    error
}

func (p *fakeEmbeddingProvider) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	p.queryCalls++
	if p.generateErr != nil {
		return nil, p.generateErr
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

func (p *fakeEmbeddingProvider) GenerateBatch(texts []string, taskType string) ([][]float32, error) {
	p.batchCalls = append(p.batchCalls, texts)
	if p.batchErr != nil {
		return nil, p.batchErr
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i), 0.5}
	}
	return vectors, nil
}

// --- classifier ---

type fakeClassifier struct {
	profile *classify.QueryProfile
}

func (c *fakeClassifier) Classify(ctx context.Context, query string) *classify.QueryProfile {
	if c.profile != nil {
		return c.profile
	}
	return &classify.QueryProfile{
		Type:            classify.TypeTargeted,
		SummaryPriority: classify.PriorityMedium,
		Threshold:       0.35,
		TopK:            20,
		ContextCap:      20,
	}
}

// --- llm provider ---

// llmScript is one scripted model call: deltas are streamed through onDelta
// before text (on success) or err (on failure) is returned.
type llmScript struct {
	deltas    []string
	text      string
	citations []llm.Citation
	err       error
}

type fakeLLMProvider struct {
	scripts   []llmScript
	calls     int
	models    []string // model option observed per call
	webSearch []bool   // web-search option observed per call
	prompts   []string
}

func (p *fakeLLMProvider) next() llmScript {
	if len(p.scripts) == 0 {
		return llmScript{}
	}
	idx := p.calls - 1
	if idx >= len(p.scripts) {
		idx = len(p.scripts) - 1
	}
	return p.scripts[idx]
}

func (p *fakeLLMProvider) record(options ...llm.Option) {
	p.calls++
	opts := &llm.Options{}
	for _, o := range options {
		o(opts)
	}
	p.models = append(p.models, opts.Model)
	p.webSearch = append(p.webSearch, opts.WebSearch)
}

func (p *fakeLLMProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	p.record(options...)
	s := p.next()
	return s.text, s.err
}

func (p *fakeLLMProvider) Generate(ctx context.Context, promptText string, options ...llm.Option) (string, error) {
	p.record(options...)
	p.prompts = append(p.prompts, promptText)
	s := p.next()
	return s.text, s.err
}

func (p *fakeLLMProvider) ChatStream(ctx context.Context, history []llm.Message, onDelta llm.StreamHandler, options ...llm.Option) (*llm.StreamResult, error) {
	p.record(options...)
	s := p.next()
	for _, delta := range s.deltas {
		if err := onDelta(delta); err != nil {
			return &llm.StreamResult{}, err
		}
	}
	if s.err != nil {
		return &llm.StreamResult{}, s.err
	}
	return &llm.StreamResult{Text: s.text, Citations: s.citations}, nil
}

// --- email ---

type fakeEmailService struct {
	recipients [][]string
	sendErr    error
}

func (s *fakeEmailService) SendMeetingSummary(toEmails []string, roomName string, meeting *entity.Meeting) error {
	s.recipients = append(s.recipients, toEmails)
	return s.sendErr
}

// --- retrieval (for chat tests) ---

type fakeRetrievalService struct {
	context *store.RetrievalContext
	stats   prompt.RoomStats
}

func (s *fakeRetrievalService) GetContext(ctx context.Context, roomId uuid.UUID, query string, liveTranscript string) *store.RetrievalContext {
	if s.context != nil {
		return s.context
	}
	return &store.RetrievalContext{}
}

func (s *fakeRetrievalService) GetRoomStats(ctx context.Context, roomId uuid.UUID) prompt.RoomStats {
	return s.stats
}

// --- logger ---

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error {
	return nil
}
