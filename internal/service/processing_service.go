package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"ai-meeting-be/internal/dto"
	"ai-meeting-be/internal/entity"
	"ai-meeting-be/internal/pkg/mailer"
	"ai-meeting-be/internal/repository/specification"
	"ai-meeting-be/internal/repository/unitofwork"
	"ai-meeting-be/pkg/events"
	"ai-meeting-be/pkg/llm"
	pktNats "ai-meeting-be/pkg/nats"

	"github.com/google/uuid"
)

// Summary timeout scales with meeting length: long transcripts get a longer
// model budget, capped so a runaway meeting cannot hold the pipeline.
const (
	summaryBaseTimeout = 60 * time.Second
	summaryMaxTimeout  = 5 * time.Minute
)

type IProcessingService interface {
	// ProcessImmediately drives an ended meeting to a terminal status.
	// It returns an error only when validation fails (meeting not found);
	// past that point every failure is absorbed into the meeting record so
	// the pipeline always terminates.
	ProcessImmediately(ctx context.Context, msg *dto.MeetingEndedMessage) error

	Status(ctx context.Context, meetingId uuid.UUID) (*dto.MeetingStatusResponse, error)
}

type processingService struct {
	uowFactory     unitofwork.RepositoryFactory
	ingestion      IIngestionService
	llmProvider    llm.LLMProvider
	emailService   mailer.IEmailService
	eventPublisher *pktNats.Publisher
}

func NewProcessingService(
	uowFactory unitofwork.RepositoryFactory,
	ingestion IIngestionService,
	llmProvider llm.LLMProvider,
	emailService mailer.IEmailService,
	eventPublisher *pktNats.Publisher,
) IProcessingService {
	return &processingService{
		uowFactory:     uowFactory,
		ingestion:      ingestion,
		llmProvider:    llmProvider,
		emailService:   emailService,
		eventPublisher: eventPublisher,
	}
}

func (s *processingService) ProcessImmediately(ctx context.Context, msg *dto.MeetingEndedMessage) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	meetingRepo := uow.MeetingRepository()

	// 1. Validate. Fail fast without touching state.
	meeting, err := meetingRepo.FindOne(ctx, specification.ByID{ID: msg.MeetingId})
	if err != nil {
		return fmt.Errorf("failed to load meeting %s: %w", msg.MeetingId, err)
	}
	if meeting == nil {
		return fmt.Errorf("meeting %s not found", msg.MeetingId)
	}

	// Claim the meeting. When several participants leave at once every
	// trigger races here; exactly one CAS wins and the rest bail out.
	claimed, err := meetingRepo.TransitionStatus(ctx, meeting.Id, entity.ProcessingStatusPending, entity.ProcessingStatusInProgress)
	if err != nil {
		return fmt.Errorf("failed to claim meeting %s: %w", meeting.Id, err)
	}
	if !claimed {
		log.Printf("[INFO] Meeting %s already claimed (status is not pending), skipping", meeting.Id)
		return nil
	}
	meeting.ProcessingStatus = entity.ProcessingStatusInProgress

	// 2. Store transcripts. Empty meetings complete right away.
	if len(msg.Transcripts) == 0 {
		log.Printf("[INFO] Meeting %s ended with no transcripts", meeting.Id)
		s.completeMeeting(ctx, uow, meeting, "nothing to process: no transcripts recorded")
		return nil
	}

	if err := s.storeTranscripts(ctx, uow, meeting, msg); err != nil {
		log.Printf("[ERROR] Transcript storage failed for meeting %s: %v", meeting.Id, err)
		s.failMeeting(ctx, uow, meeting, err)
		return nil
	}

	// 3. Summarize. A model outage degrades to the fallback summary.
	s.summarize(ctx, uow, meeting)

	// 4. Notify and extract tasks concurrently. Neither blocks the other,
	// and neither writes the meeting; notify reports the send time so the
	// single write below happens after both goroutines are done.
	var wg sync.WaitGroup
	var notifiedAt *time.Time
	wg.Add(2)
	go func() {
		defer wg.Done()
		notifiedAt = s.notify(ctx, meeting)
	}()
	go func() {
		defer wg.Done()
		s.extractTasks(ctx, meeting)
	}()
	wg.Wait()
	meeting.NotifiedAt = notifiedAt

	// 5. Done.
	s.completeMeeting(ctx, uow, meeting, "")
	return nil
}

// storeTranscripts dedupes, indexes, and records the transcripts on the
// meeting. An embedding failure is recorded but does not stop the pipeline;
// only a document-store write failure is unrecoverable here.
func (s *processingService) storeTranscripts(ctx context.Context, uow unitofwork.UnitOfWork, meeting *entity.Meeting, msg *dto.MeetingEndedMessage) error {
	indexed, err := s.ingestion.IndexTranscripts(ctx, meeting, msg.Transcripts)

	now := time.Now()
	meeting.Transcripts = msg.Transcripts
	meeting.TranscriptCount = len(msg.Transcripts)
	meeting.EndedAt = &msg.EndedAt
	meeting.Participants = participantNames(msg.Participants)

	if err != nil {
		log.Printf("[ERROR] Embedding failed for meeting %s: %v", meeting.Id, err)
		meeting.HasEmbeddings = false
		meeting.EmbeddingError = err.Error()
	} else {
		meeting.HasEmbeddings = indexed > 0
		meeting.EmbeddingError = ""
		meeting.EmbeddedAt = &now
	}

	if err := uow.MeetingRepository().Update(ctx, meeting); err != nil {
		return fmt.Errorf("failed to persist transcripts: %w", err)
	}
	return nil
}

func (s *processingService) summarize(ctx context.Context, uow unitofwork.UnitOfWork, meeting *entity.Meeting) {
	timeout := summaryTimeout(len(meeting.Transcripts))
	llmCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	summary, err := s.generateSummary(llmCtx, meeting)
	if err != nil {
		log.Printf("[WARN] Summary generation failed for meeting %s, using fallback: %v", meeting.Id, err)
		summary = fallbackSummary(meeting)
	}

	now := time.Now()
	meeting.Summary = summary
	meeting.SummarizedAt = &now
	if summary.Title != "" {
		meeting.Title = summary.Title
	}

	if err := uow.MeetingRepository().Update(ctx, meeting); err != nil {
		log.Printf("[ERROR] Failed to persist summary for meeting %s: %v", meeting.Id, err)
	}

	moved, err := uow.MeetingRepository().TransitionStatus(ctx, meeting.Id, entity.ProcessingStatusInProgress, entity.ProcessingStatusSummaryCompleted)
	if err != nil || !moved {
		log.Printf("[WARN] Status transition to summary_completed failed for meeting %s (moved=%v, err=%v)", meeting.Id, moved, err)
		return
	}
	meeting.ProcessingStatus = entity.ProcessingStatusSummaryCompleted
}

func (s *processingService) generateSummary(ctx context.Context, meeting *entity.Meeting) (*entity.MeetingSummary, error) {
	prompt := buildSummaryPrompt(meeting)

	response, err := s.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		return nil, err
	}

	jsonContent := extractJSONObject(response)
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON object in summary response")
	}

	var summary entity.MeetingSummary
	if err := json.Unmarshal([]byte(jsonContent), &summary); err != nil {
		return nil, fmt.Errorf("summary unmarshal failed: %w", err)
	}
	if summary.Overview == "" {
		return nil, fmt.Errorf("summary response missing overview")
	}

	return &summary, nil
}

// notify emails the room roster with the summary and returns the send time,
// or nil when nothing was sent. Failure is logged only. It must not write the
// meeting: it runs alongside extractTasks, which reads the same struct.
func (s *processingService) notify(ctx context.Context, meeting *entity.Meeting) *time.Time {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	room, err := uow.RoomRepository().FindOne(ctx, specification.ByID{ID: meeting.RoomId})
	if err != nil || room == nil {
		log.Printf("[WARN] Cannot resolve room %s for notification (err=%v)", meeting.RoomId, err)
		return nil
	}

	recipients := make([]string, 0, len(room.Roster))
	for _, member := range room.Roster {
		if member.Email != "" {
			recipients = append(recipients, member.Email)
		}
	}
	if len(recipients) == 0 {
		log.Printf("[INFO] Room %s has no email recipients, skipping notification", room.Id)
		return nil
	}

	if err := s.emailService.SendMeetingSummary(recipients, room.Title, meeting); err != nil {
		log.Printf("[ERROR] Summary email failed for meeting %s: %v", meeting.Id, err)
		return nil
	}

	now := time.Now()
	return &now
}

// extractTasks turns the summary's action items into Task records.
// Failure is logged only.
func (s *processingService) extractTasks(ctx context.Context, meeting *entity.Meeting) {
	if meeting.Summary == nil || len(meeting.Summary.ActionItems) == 0 {
		return
	}

	tasks := make([]*entity.Task, 0, len(meeting.Summary.ActionItems))
	now := time.Now()
	for _, item := range meeting.Summary.ActionItems {
		if strings.TrimSpace(item.Description) == "" {
			continue
		}
		tasks = append(tasks, &entity.Task{
			Id:          uuid.New(),
			RoomId:      meeting.RoomId,
			MeetingId:   meeting.Id,
			Description: item.Description,
			Assignee:    item.Assignee,
			DueHint:     item.DueHint,
			Status:      entity.TaskStatusOpen,
			CreatedAt:   now,
		})
	}
	if len(tasks) == 0 {
		return
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.TaskRepository().CreateBulk(ctx, tasks); err != nil {
		log.Printf("[ERROR] Task creation failed for meeting %s: %v", meeting.Id, err)
		return
	}
	log.Printf("[INFO] Created %d tasks from meeting %s", len(tasks), meeting.Id)
}

// completeMeeting moves the meeting to completed from whichever non-terminal
// status it currently holds and publishes the processed event.
func (s *processingService) completeMeeting(ctx context.Context, uow unitofwork.UnitOfWork, meeting *entity.Meeting, reason string) {
	moved, err := uow.MeetingRepository().TransitionStatus(ctx, meeting.Id, meeting.ProcessingStatus, entity.ProcessingStatusCompleted)
	if err != nil || !moved {
		log.Printf("[WARN] Completion transition failed for meeting %s (moved=%v, err=%v)", meeting.Id, moved, err)
		return
	}
	meeting.ProcessingStatus = entity.ProcessingStatusCompleted

	now := time.Now()
	meeting.CompletedAt = &now
	if reason != "" {
		meeting.ProcessingError = reason
	}
	if err := uow.MeetingRepository().Update(ctx, meeting); err != nil {
		log.Printf("[ERROR] Failed to persist completion for meeting %s: %v", meeting.Id, err)
	}

	s.publishProcessed(ctx, meeting)
	log.Printf("[SUCCESS] Meeting %s processed (transcripts=%d)", meeting.Id, meeting.TranscriptCount)
}

// failMeeting records an unrecoverable error and moves the meeting to failed.
func (s *processingService) failMeeting(ctx context.Context, uow unitofwork.UnitOfWork, meeting *entity.Meeting, cause error) {
	moved, err := uow.MeetingRepository().TransitionStatus(ctx, meeting.Id, meeting.ProcessingStatus, entity.ProcessingStatusFailed)
	if err != nil || !moved {
		log.Printf("[WARN] Failure transition failed for meeting %s (moved=%v, err=%v)", meeting.Id, moved, err)
		return
	}
	meeting.ProcessingStatus = entity.ProcessingStatusFailed

	meeting.ProcessingError = cause.Error()
	if err := uow.MeetingRepository().Update(ctx, meeting); err != nil {
		log.Printf("[ERROR] Failed to persist failure for meeting %s: %v", meeting.Id, err)
	}

	s.publishProcessed(ctx, meeting)
}

func (s *processingService) publishProcessed(ctx context.Context, meeting *entity.Meeting) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.NewMeetingProcessed(meeting.Id.String(), meeting.RoomId.String(), meeting.ProcessingStatus, meeting.TranscriptCount)
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		log.Printf("[WARN] Failed to publish processed event for meeting %s: %v", meeting.Id, err)
	}
}

func (s *processingService) Status(ctx context.Context, meetingId uuid.UUID) (*dto.MeetingStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	meeting, err := uow.MeetingRepository().FindOne(ctx, specification.ByID{ID: meetingId})
	if err != nil {
		return nil, err
	}
	if meeting == nil {
		return nil, fmt.Errorf("meeting %s not found", meetingId)
	}

	return &dto.MeetingStatusResponse{
		MeetingId:        meeting.Id,
		ProcessingStatus: meeting.ProcessingStatus,
		ProcessingError:  meeting.ProcessingError,
		TranscriptCount:  meeting.TranscriptCount,
		HasEmbeddings:    meeting.HasEmbeddings,
		EmbeddingError:   meeting.EmbeddingError,
		EmbeddedAt:       meeting.EmbeddedAt,
		SummarizedAt:     meeting.SummarizedAt,
		NotifiedAt:       meeting.NotifiedAt,
		CompletedAt:      meeting.CompletedAt,
	}, nil
}

func summaryTimeout(transcriptCount int) time.Duration {
	timeout := summaryBaseTimeout + time.Duration(transcriptCount)*time.Second/2
	if timeout > summaryMaxTimeout {
		timeout = summaryMaxTimeout
	}
	return timeout
}

func participantNames(participants []entity.Participant) []string {
	names := make([]string, 0, len(participants))
	for _, p := range participants {
		if p.Name != "" {
			names = append(names, p.Name)
		} else if p.Email != "" {
			names = append(names, p.Email)
		}
	}
	return names
}

func buildSummaryPrompt(meeting *entity.Meeting) string {
	var b strings.Builder

	b.WriteString("<task>\n")
	b.WriteString("Summarize the meeting transcript below into structured JSON.\n")
	b.WriteString("</task>\n\n")

	b.WriteString("<transcript>\n")
	for _, entry := range meeting.Transcripts {
		b.WriteString(entry.Speaker)
		b.WriteString(": ")
		b.WriteString(entry.Text)
		b.WriteString("\n")
	}
	b.WriteString("</transcript>\n\n")

	b.WriteString("<output_format>\n")
	b.WriteString("Respond with ONLY valid JSON:\n")
	b.WriteString(`{"title": "short meeting title", "overview": "2-3 sentence prose summary", ` +
		`"sections": [{"topic": "...", "points": ["..."]}], ` +
		`"action_items": [{"description": "...", "assignee": "...", "due_hint": "..."}], ` +
		`"decisions": ["..."]}`)
	b.WriteString("\n</output_format>")

	return b.String()
}

// fallbackSummary is the deterministic substitute used when the model is
// unavailable, so the pipeline never stalls on an outage.
func fallbackSummary(meeting *entity.Meeting) *entity.MeetingSummary {
	speakers := make(map[string]bool)
	for _, entry := range meeting.Transcripts {
		if entry.Speaker != "" {
			speakers[entry.Speaker] = true
		}
	}

	return &entity.MeetingSummary{
		Title: fmt.Sprintf("%s meeting on %s", meeting.RoomName, meeting.StartedAt.Format("Jan 2, 2006")),
		Overview: fmt.Sprintf("This meeting recorded %d transcript entries from %d speakers. "+
			"An automatic summary could not be generated; the full transcript is available.",
			len(meeting.Transcripts), len(speakers)),
		Sections: []entity.SummarySection{
			{Topic: "Discussion", Points: []string{"See full transcript for details."}},
		},
		Fallback: true,
	}
}

func extractJSONObject(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
