package service

import (
	"context"
	"log"
	"sort"
	"strings"

	"ai-meeting-be/internal/entity"
	"ai-meeting-be/internal/repository/specification"
	"ai-meeting-be/internal/repository/unitofwork"
	"ai-meeting-be/pkg/embedding"
	"ai-meeting-be/pkg/rag/classify"
	"ai-meeting-be/pkg/rag/prompt"
	"ai-meeting-be/pkg/store"
	"ai-meeting-be/pkg/utils"

	"github.com/google/uuid"
)

// FallbackThreshold and FallbackTopK are the fixed retry parameters used when
// the adaptive threshold yields zero hits.
const (
	FallbackThreshold = 0.2
	FallbackTopK      = 10
)

type IRetrievalService interface {
	// GetContext builds the grounding context for a query. It never fails:
	// a missing room, empty index, or provider error degrades to an empty
	// context with UsedContext=false.
	GetContext(ctx context.Context, roomId uuid.UUID, query string, liveTranscript string) *store.RetrievalContext

	// GetRoomStats aggregates meeting counts and frequent participants for
	// the system prompt. Best-effort: errors yield zero stats.
	GetRoomStats(ctx context.Context, roomId uuid.UUID) prompt.RoomStats
}

type retrievalService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	classifier        classify.Classifier
	logger            *log.Logger
}

func NewRetrievalService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	classifier classify.Classifier,
	logger *log.Logger,
) IRetrievalService {
	return &retrievalService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		classifier:        classifier,
		logger:            logger,
	}
}

// rankedItem pairs a context item with its ranking inputs.
type rankedItem struct {
	item   store.TranscriptContext
	weight int // summary-vs-transcript bias from the query profile
}

func (s *retrievalService) GetContext(ctx context.Context, roomId uuid.UUID, query string, liveTranscript string) *store.RetrievalContext {
	result := &store.RetrievalContext{}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	room, err := uow.RoomRepository().FindOne(ctx, specification.ByID{ID: roomId})
	if err != nil {
		s.logger.Printf("[WARN] Room lookup failed for %s: %v", roomId, err)
		return result
	}
	if room == nil {
		s.logger.Printf("[RETRIEVAL] Room %s not found, returning empty context", roomId)
		return result
	}

	profile := s.classifier.Classify(ctx, query)
	result.QueryType = profile.Type

	hits := s.searchIndex(ctx, uow, roomId, query, profile)

	if len(hits) > 0 {
		meetings := s.fetchMeetings(ctx, uow, hits)
		result.Historical = s.mergeAndRank(hits, meetings, profile)
	}

	if liveTranscript != "" {
		result.Current = toCurrentContext(utils.ParseLiveTranscript(liveTranscript))
	}

	result.UsedContext = len(result.Historical) > 0 || len(result.Current) > 0

	s.logger.Printf("[RETRIEVAL] type=%s historical=%d current=%d used=%v",
		profile.Type, len(result.Historical), len(result.Current), result.UsedContext)

	return result
}

// searchIndex queries the vector index with the adaptive threshold and, on an
// empty result, retries exactly once at the fixed fallback threshold.
func (s *retrievalService) searchIndex(ctx context.Context, uow unitofwork.UnitOfWork, roomId uuid.UUID, query string, profile *classify.QueryProfile) []*scoredHit {
	res, err := s.embeddingProvider.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		s.logger.Printf("[WARN] Query embedding failed: %v", err)
		return nil
	}
	vector := res.Embedding.Values

	hits, err := uow.TranscriptEmbeddingRepository().SearchSimilarWithScore(ctx, vector, profile.TopK, roomId, profile.Threshold)
	if err != nil {
		s.logger.Printf("[WARN] Vector search failed: %v", err)
		return nil
	}

	if len(hits) == 0 && profile.Threshold > FallbackThreshold {
		topK := profile.TopK
		if topK > FallbackTopK {
			topK = FallbackTopK
		}
		s.logger.Printf("[RETRIEVAL] Zero hits at threshold %.2f, retrying at %.2f", profile.Threshold, FallbackThreshold)
		hits, err = uow.TranscriptEmbeddingRepository().SearchSimilarWithScore(ctx, vector, topK, roomId, FallbackThreshold)
		if err != nil {
			s.logger.Printf("[WARN] Fallback vector search failed: %v", err)
			return nil
		}
	}

	out := make([]*scoredHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, &scoredHit{embedding: h.Embedding, similarity: h.Similarity})
	}
	return out
}

type scoredHit struct {
	embedding  *entity.TranscriptEmbedding
	similarity float64
}

// fetchMeetings loads every referenced meeting in one batched, lean read.
func (s *retrievalService) fetchMeetings(ctx context.Context, uow unitofwork.UnitOfWork, hits []*scoredHit) map[uuid.UUID]*entity.Meeting {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, h := range hits {
		if !seen[h.embedding.MeetingId] {
			seen[h.embedding.MeetingId] = true
			ids = append(ids, h.embedding.MeetingId)
		}
	}

	meetings, err := uow.MeetingRepository().FindAllLean(ctx, specification.ByIDs{IDs: ids})
	if err != nil {
		s.logger.Printf("[WARN] Batched meeting fetch failed: %v", err)
		return nil
	}

	byId := make(map[uuid.UUID]*entity.Meeting, len(meetings))
	for _, m := range meetings {
		byId[m.Id] = m
	}
	return byId
}

// mergeAndRank combines transcript hits with their meetings' summaries into a
// single list ordered by the profile's summary priority, then similarity,
// then recency, truncated to the profile's context cap.
func (s *retrievalService) mergeAndRank(hits []*scoredHit, meetings map[uuid.UUID]*entity.Meeting, profile *classify.QueryProfile) []store.TranscriptContext {
	summaryWeight := 0
	switch profile.SummaryPriority {
	case classify.PriorityHigh:
		summaryWeight = 1
	case classify.PriorityLow:
		summaryWeight = -1
	}

	// Best similarity per meeting carries over to its summary item so a
	// summary ranks near the hits that surfaced it.
	bestByMeeting := make(map[uuid.UUID]float64)
	ranked := make([]rankedItem, 0, len(hits)+len(meetings))

	for _, h := range hits {
		e := h.embedding
		if h.similarity > bestByMeeting[e.MeetingId] {
			bestByMeeting[e.MeetingId] = h.similarity
		}
		ranked = append(ranked, rankedItem{
			weight: 0,
			item: store.TranscriptContext{
				Speaker:     e.Speaker,
				Text:        e.Text,
				Timestamp:   e.Timestamp,
				MeetingId:   e.MeetingId.String(),
				MeetingType: e.MeetingType,
				MeetingDate: e.MeetingDate,
				Similarity:  h.similarity,
				Source:      store.SourceTranscript,
			},
		})
	}

	for id, meeting := range meetings {
		if meeting == nil || meeting.Summary == nil {
			continue
		}
		text := renderSummary(meeting.Summary, profile.SummaryPriority == classify.PriorityHigh)
		if text == "" {
			continue
		}
		ranked = append(ranked, rankedItem{
			weight: summaryWeight,
			item: store.TranscriptContext{
				Speaker:     "summary",
				Text:        text,
				Timestamp:   meeting.StartedAt,
				MeetingId:   id.String(),
				MeetingType: meeting.Type,
				MeetingDate: meeting.StartedAt,
				Similarity:  bestByMeeting[id],
				Source:      store.SourceSummary,
			},
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].weight != ranked[j].weight {
			return ranked[i].weight > ranked[j].weight
		}
		if ranked[i].item.Similarity != ranked[j].item.Similarity {
			return ranked[i].item.Similarity > ranked[j].item.Similarity
		}
		return ranked[i].item.MeetingDate.After(ranked[j].item.MeetingDate)
	})

	if len(ranked) > profile.ContextCap {
		ranked = ranked[:profile.ContextCap]
	}

	out := make([]store.TranscriptContext, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.item)
	}
	return out
}

// renderSummary flattens a structured summary into prompt text. Structured
// sections are only expanded when summaries carry high priority.
func renderSummary(summary *entity.MeetingSummary, expandSections bool) string {
	var b strings.Builder
	if summary.Title != "" {
		b.WriteString(summary.Title)
		b.WriteString("\n")
	}
	b.WriteString(summary.Overview)
	if expandSections {
		for _, section := range summary.Sections {
			b.WriteString("\n")
			b.WriteString(section.Topic)
			b.WriteString(":")
			for _, point := range section.Points {
				b.WriteString("\n- ")
				b.WriteString(point)
			}
		}
		for _, decision := range summary.Decisions {
			b.WriteString("\nDecision: ")
			b.WriteString(decision)
		}
	}
	return strings.TrimSpace(b.String())
}

func toCurrentContext(entries []entity.TranscriptEntry) []store.TranscriptContext {
	out := make([]store.TranscriptContext, 0, len(entries))
	for _, entry := range entries {
		out = append(out, store.TranscriptContext{
			Speaker:   entry.Speaker,
			Text:      entry.Text,
			Timestamp: entry.Timestamp,
			Source:    store.SourceTranscript,
		})
	}
	return out
}

func (s *retrievalService) GetRoomStats(ctx context.Context, roomId uuid.UUID) prompt.RoomStats {
	stats := prompt.RoomStats{}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	meetingCount, err := uow.MeetingRepository().Count(ctx, specification.ByRoomID{RoomID: roomId})
	if err != nil {
		s.logger.Printf("[WARN] Meeting count failed for room %s: %v", roomId, err)
		return stats
	}
	stats.MeetingCount = int(meetingCount)

	transcriptCount, err := uow.TranscriptEmbeddingRepository().CountByRoomId(ctx, roomId)
	if err != nil {
		s.logger.Printf("[WARN] Transcript count failed for room %s: %v", roomId, err)
	}
	stats.TranscriptCount = int(transcriptCount)

	meetings, err := uow.MeetingRepository().FindAllLean(ctx, specification.ByRoomID{RoomID: roomId})
	if err != nil {
		s.logger.Printf("[WARN] Meeting fetch failed for room %s: %v", roomId, err)
		return stats
	}
	stats.FrequentParticipants = frequentParticipants(meetings, 5)

	return stats
}

// frequentParticipants returns the top-n participants by appearance count
// across meetings, most frequent first.
func frequentParticipants(meetings []*entity.Meeting, n int) []string {
	counts := make(map[string]int)
	for _, m := range meetings {
		for _, p := range m.Participants {
			if p != "" {
				counts[p]++
			}
		}
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	if len(names) > n {
		names = names[:n]
	}
	return names
}
