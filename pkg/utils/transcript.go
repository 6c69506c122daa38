package utils

import (
	"strings"
	"time"
	"unicode"

	"ai-meeting-be/internal/entity"
)

// DedupeWindow is how close two identical utterances from the same speaker
// must be to count as ASR duplicates.
const DedupeWindow = 5 * time.Second

// NormalizeText lowercases, trims, collapses runs of whitespace, and strips
// trailing punctuation so near-identical ASR outputs compare equal.
func NormalizeText(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.Join(strings.Fields(text), " ")
	text = strings.TrimRightFunc(text, func(r rune) bool {
		return unicode.IsPunct(r)
	})
	return text
}

// DeduplicateTranscripts drops entries whose speaker and normalized text match
// a previous entry within DedupeWindow. Order is preserved; the first
// occurrence wins.
func DeduplicateTranscripts(entries []entity.TranscriptEntry) []entity.TranscriptEntry {
	if len(entries) <= 1 {
		return entries
	}

	type lastSeen struct {
		timestamp time.Time
	}

	seen := make(map[string]lastSeen)
	out := make([]entity.TranscriptEntry, 0, len(entries))

	for _, entry := range entries {
		key := entry.Speaker + "|" + NormalizeText(entry.Text)
		if prev, ok := seen[key]; ok {
			delta := entry.Timestamp.Sub(prev.timestamp)
			if delta < 0 {
				delta = -delta
			}
			if delta <= DedupeWindow {
				seen[key] = lastSeen{timestamp: entry.Timestamp}
				continue
			}
		}
		seen[key] = lastSeen{timestamp: entry.Timestamp}
		out = append(out, entry)
	}

	return out
}

// ParseLiveTranscript parses a raw "Speaker: text" buffer, one utterance per
// line. Lines without a speaker prefix are attributed to "Unknown"; blank
// lines are skipped.
func ParseLiveTranscript(raw string) []entity.TranscriptEntry {
	var entries []entity.TranscriptEntry

	now := time.Now()
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		speaker := "Unknown"
		text := line
		if idx := strings.Index(line, ":"); idx > 0 {
			candidate := strings.TrimSpace(line[:idx])
			rest := strings.TrimSpace(line[idx+1:])
			// A speaker label is short and has no sentence punctuation.
			if rest != "" && len(candidate) <= 64 && !strings.ContainsAny(candidate, ".!?") {
				speaker = candidate
				text = rest
			}
		}

		entries = append(entries, entity.TranscriptEntry{
			Speaker:   speaker,
			Text:      text,
			Timestamp: now,
		})
	}

	return entries
}
