package classify

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"ai-meeting-be/pkg/llm"
)

func TestHeuristicClassifierQueryTypes(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantType string
	}{
		{"recap request", "Can you summarize last week's meetings?", TypeComprehensive},
		{"catch me up", "catch me up on everything", TypeComprehensive},
		{"overview", "give me an overview of the project so far", TypeComprehensive},
		{"topic question", "what was discussed about the database migration", TypeTargeted},
		{"exact date", "when are we shipping?", TypeSpecific},
		{"exact owner", "who owns the migration task", TypeSpecific},
		{"short factual", "ship date?", TypeSpecific},
		{"did-we check", "did we agree on the budget", TypeSpecific},
		{"default targeted", "tell me more about the onboarding flow changes discussed recently", TypeTargeted},
	}

	c := NewHeuristicClassifier()
	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := c.Classify(ctx, tt.query)
			if profile.Type != tt.wantType {
				t.Errorf("Classify(%q).Type = %q, want %q", tt.query, profile.Type, tt.wantType)
			}
		})
	}
}

func TestHeuristicClassifierProfiles(t *testing.T) {
	c := NewHeuristicClassifier()
	ctx := context.Background()

	tests := []struct {
		name          string
		query         string
		wantThreshold float64
		wantTopK      int
		wantCap       int
		wantPriority  string
	}{
		{"comprehensive widens search", "summarize everything", 0.25, 30, 30, PriorityHigh},
		{"targeted is the middle ground", "what was said about the roadmap", 0.35, 20, 20, PriorityMedium},
		{"specific narrows and trusts transcripts", "when are we shipping?", 0.5, 15, 15, PriorityLow},
		{"decision cue raises summary priority", "what decisions came out of the planning discussions", 0.35, 20, 20, PriorityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := c.Classify(ctx, tt.query)
			if p.Threshold != tt.wantThreshold {
				t.Errorf("Threshold = %v, want %v", p.Threshold, tt.wantThreshold)
			}
			if p.TopK != tt.wantTopK {
				t.Errorf("TopK = %d, want %d", p.TopK, tt.wantTopK)
			}
			if p.ContextCap != tt.wantCap {
				t.Errorf("ContextCap = %d, want %d", p.ContextCap, tt.wantCap)
			}
			if p.SummaryPriority != tt.wantPriority {
				t.Errorf("SummaryPriority = %q, want %q", p.SummaryPriority, tt.wantPriority)
			}
		})
	}
}

// stubLLM returns a canned response or error for Generate.
type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.response, s.err
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.response, s.err
}

func (s *stubLLM) ChatStream(ctx context.Context, history []llm.Message, onDelta llm.StreamHandler, options ...llm.Option) (*llm.StreamResult, error) {
	return &llm.StreamResult{Text: s.response}, s.err
}

func TestLLMClassifierParsesResponse(t *testing.T) {
	provider := &stubLLM{response: `Sure: {"type": "comprehensive", "summary_priority": "high"}`}
	c := NewLLMClassifier(provider, log.New(os.Stderr, "", 0))

	p := c.Classify(context.Background(), "recap please")
	if p.Type != TypeComprehensive {
		t.Errorf("Type = %q, want %q", p.Type, TypeComprehensive)
	}
	if p.Threshold != 0.25 {
		t.Errorf("Threshold = %v, want 0.25", p.Threshold)
	}
}

func TestLLMClassifierFallsBackOnError(t *testing.T) {
	provider := &stubLLM{err: errors.New("model unavailable")}
	c := NewLLMClassifier(provider, log.New(os.Stderr, "", 0))

	p := c.Classify(context.Background(), "when are we shipping?")
	if p.Type != TypeSpecific {
		t.Errorf("fallback Type = %q, want %q", p.Type, TypeSpecific)
	}
}

func TestLLMClassifierFallsBackOnGarbage(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"no JSON at all", "I think this is a broad question"},
		{"invalid JSON", `{"type": comprehensive}`},
		{"unknown type", `{"type": "philosophical", "summary_priority": "high"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewLLMClassifier(&stubLLM{response: tt.response}, log.New(os.Stderr, "", 0))
			p := c.Classify(context.Background(), "summarize everything")
			// heuristic path resolves this query as comprehensive
			if p.Type != TypeComprehensive {
				t.Errorf("fallback Type = %q, want %q", p.Type, TypeComprehensive)
			}
		})
	}
}

func TestLLMClassifierNilProviderUsesHeuristic(t *testing.T) {
	c := NewLLMClassifier(nil, log.New(os.Stderr, "", 0))
	p := c.Classify(context.Background(), "who owns the migration task")
	if p.Type != TypeSpecific {
		t.Errorf("Type = %q, want %q", p.Type, TypeSpecific)
	}
}
