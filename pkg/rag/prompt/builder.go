package prompt

import (
	"fmt"
	"sort"
	"strings"

	"ai-meeting-be/internal/entity"
	"ai-meeting-be/pkg/store"
)

// RoomStats summarizes the room's meeting history for the system prompt.
type RoomStats struct {
	MeetingCount         int
	TranscriptCount      int
	FrequentParticipants []string
}

// SystemBuilder composes the system prompt for a grounded chat turn.
type SystemBuilder struct {
	room      *entity.Room
	stats     RoomStats
	retrieval *store.RetrievalContext
}

func NewSystemBuilder(room *entity.Room, stats RoomStats, retrieval *store.RetrievalContext) *SystemBuilder {
	return &SystemBuilder{
		room:      room,
		stats:     stats,
		retrieval: retrieval,
	}
}

// Build renders the full system prompt: behavior, room statistics, retrieved
// context (summaries first, then transcripts grouped per meeting, most recent
// first), and the live transcript when one was supplied.
func (b *SystemBuilder) Build() string {
	var prompt strings.Builder

	b.writeRole(&prompt)
	b.writeRoomStats(&prompt)
	b.writeSummaries(&prompt)
	b.writeTranscripts(&prompt)
	b.writeLiveTranscript(&prompt)
	b.writeGuidelines(&prompt)

	return prompt.String()
}

func (b *SystemBuilder) writeRole(prompt *strings.Builder) {
	prompt.WriteString("<role>\n")
	prompt.WriteString("You are a meeting assistant for the room \"")
	prompt.WriteString(b.room.Title)
	prompt.WriteString("\". You answer questions about what was discussed, decided, and assigned across this room's meetings.\n")
	prompt.WriteString("</role>\n\n")
}

func (b *SystemBuilder) writeRoomStats(prompt *strings.Builder) {
	prompt.WriteString("<room_statistics>\n")
	prompt.WriteString(fmt.Sprintf("Meetings held: %d\n", b.stats.MeetingCount))
	prompt.WriteString(fmt.Sprintf("Transcript entries indexed: %d\n", b.stats.TranscriptCount))
	if len(b.stats.FrequentParticipants) > 0 {
		prompt.WriteString("Frequent participants: ")
		prompt.WriteString(strings.Join(b.stats.FrequentParticipants, ", "))
		prompt.WriteString("\n")
	}
	prompt.WriteString("</room_statistics>\n\n")
}

func (b *SystemBuilder) writeSummaries(prompt *strings.Builder) {
	summaries := filterBySource(b.retrieval.Historical, store.SourceSummary)
	if len(summaries) == 0 {
		return
	}

	prompt.WriteString("<meeting_summaries>\n")
	for _, item := range summaries {
		prompt.WriteString(fmt.Sprintf("[%s meeting, %s]\n", item.MeetingType, item.MeetingDate.Format("2006-01-02")))
		prompt.WriteString(item.Text)
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("</meeting_summaries>\n\n")
}

func (b *SystemBuilder) writeTranscripts(prompt *strings.Builder) {
	transcripts := filterBySource(b.retrieval.Historical, store.SourceTranscript)
	if len(transcripts) == 0 {
		return
	}

	groups := groupByMeeting(transcripts)

	prompt.WriteString("<transcript_excerpts>\n")
	for _, group := range groups {
		first := group[0]
		prompt.WriteString(fmt.Sprintf("--- %s meeting, %s ---\n", first.MeetingType, first.MeetingDate.Format("2006-01-02")))
		for _, item := range group {
			prompt.WriteString(fmt.Sprintf("[%s] %s: %s\n", item.Timestamp.Format("15:04"), item.Speaker, item.Text))
		}
		prompt.WriteString("\n")
	}
	prompt.WriteString("</transcript_excerpts>\n\n")
}

func (b *SystemBuilder) writeLiveTranscript(prompt *strings.Builder) {
	if len(b.retrieval.Current) == 0 {
		return
	}

	prompt.WriteString("<live_meeting>\n")
	prompt.WriteString("A meeting is happening right now. This is its transcript so far:\n")
	for _, item := range b.retrieval.Current {
		prompt.WriteString(fmt.Sprintf("%s: %s\n", item.Speaker, item.Text))
	}
	prompt.WriteString("</live_meeting>\n\n")
}

func (b *SystemBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Ground every claim in the material above; never invent meetings, speakers, or decisions\n")
	prompt.WriteString("2. When quoting a transcript, attribute it to its speaker and meeting date\n")
	prompt.WriteString("3. Prefer summaries for broad questions and transcript excerpts for exact details\n")
	if len(b.retrieval.Current) > 0 {
		prompt.WriteString("4. Questions about \"this meeting\" or \"right now\" refer to the live transcript\n")
	}
	if !b.retrieval.UsedContext {
		prompt.WriteString("No meeting context matched this question. Say so honestly and suggest what the user could ask instead.\n")
	}
	prompt.WriteString("</guidelines>")
}

func filterBySource(items []store.TranscriptContext, source string) []store.TranscriptContext {
	var out []store.TranscriptContext
	for _, item := range items {
		if item.Source == source {
			out = append(out, item)
		}
	}
	return out
}

// groupByMeeting buckets transcript hits per meeting and orders the groups
// most recent meeting first, entries within a group chronologically.
func groupByMeeting(items []store.TranscriptContext) [][]store.TranscriptContext {
	byMeeting := make(map[string][]store.TranscriptContext)
	var order []string
	for _, item := range items {
		if _, ok := byMeeting[item.MeetingId]; !ok {
			order = append(order, item.MeetingId)
		}
		byMeeting[item.MeetingId] = append(byMeeting[item.MeetingId], item)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return byMeeting[order[i]][0].MeetingDate.After(byMeeting[order[j]][0].MeetingDate)
	})

	groups := make([][]store.TranscriptContext, 0, len(order))
	for _, meetingId := range order {
		group := byMeeting[meetingId]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Timestamp.Before(group[j].Timestamp)
		})
		groups = append(groups, group)
	}
	return groups
}
