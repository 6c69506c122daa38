package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"ai-meeting-be/pkg/llm"
)

// Query types drive retrieval breadth
const (
	TypeComprehensive = "comprehensive" // broad recap across meetings
	TypeTargeted      = "targeted"      // topic-specific
	TypeSpecific      = "specific"      // exact fact lookup
)

// Summary priorities decide how meeting summaries rank against transcripts
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Classifier resolves a retrieval plan for a query. Implementations must
// never fail: classification always produces a usable profile.
type Classifier interface {
	Classify(ctx context.Context, query string) *QueryProfile
}

// QueryProfile is a resolved retrieval plan for one query.
type QueryProfile struct {
	Type            string  `json:"type"`
	SummaryPriority string  `json:"summary_priority"`
	Threshold       float64 `json:"threshold"` // adaptive similarity cutoff, 0.2-0.5
	TopK            int     `json:"top_k"`
	ContextCap      int     `json:"context_cap"`
}

// profileFor maps a query type to its retrieval parameters.
func profileFor(queryType, priority string) *QueryProfile {
	switch queryType {
	case TypeComprehensive:
		return &QueryProfile{Type: queryType, SummaryPriority: priority, Threshold: 0.25, TopK: 30, ContextCap: 30}
	case TypeSpecific:
		return &QueryProfile{Type: queryType, SummaryPriority: priority, Threshold: 0.5, TopK: 15, ContextCap: 15}
	default:
		return &QueryProfile{Type: TypeTargeted, SummaryPriority: priority, Threshold: 0.35, TopK: 20, ContextCap: 20}
	}
}

// --- Heuristic classifier ---

// comprehensive cues: the user wants a recap of everything
var comprehensiveCues = []string{
	"summary", "summarize", "summarise", "recap", "overview",
	"what happened", "catch me up", "everything", "all meetings",
	"overall", "so far", "in general", "big picture",
}

// specific cues: the user wants one exact fact
var specificCues = []string{
	"when ", "when?", "who ", "who?", "what time", "what date",
	"how much", "how many", "exact", "specifically",
	"did we", "did anyone", "was it", "which day",
}

// summary-leaning cues independent of breadth
var summaryPriorityCues = []string{
	"decision", "decided", "action item", "takeaway", "conclusion", "outcome",
}

// HeuristicClassifier resolves a QueryProfile from keyword cues alone. It is
// deterministic and complete; the LLM classifier is only an accelerator on
// top of it.
type HeuristicClassifier struct{}

func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

func (c *HeuristicClassifier) Classify(ctx context.Context, query string) *QueryProfile {
	q := strings.ToLower(strings.TrimSpace(query))

	queryType := TypeTargeted
	if containsAny(q, comprehensiveCues) {
		queryType = TypeComprehensive
	} else if containsAny(q, specificCues) || isShortFactual(q) {
		queryType = TypeSpecific
	}

	priority := PriorityMedium
	switch {
	case queryType == TypeComprehensive || containsAny(q, summaryPriorityCues):
		priority = PriorityHigh
	case queryType == TypeSpecific:
		priority = PriorityLow
	}

	return profileFor(queryType, priority)
}

func containsAny(q string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(q, cue) {
			return true
		}
	}
	return false
}

// isShortFactual treats terse question-mark queries as exact-fact lookups.
func isShortFactual(q string) bool {
	return strings.HasSuffix(q, "?") && len(strings.Fields(q)) <= 5
}

// --- LLM classifier with heuristic fallback ---

// LLMClassifier asks a model to classify the query and falls back to the
// heuristic path on any failure, so classification never blocks retrieval.
type LLMClassifier struct {
	llmProvider llm.LLMProvider
	heuristic   *HeuristicClassifier
	logger      *log.Logger
}

func NewLLMClassifier(llmProvider llm.LLMProvider, logger *log.Logger) *LLMClassifier {
	return &LLMClassifier{
		llmProvider: llmProvider,
		heuristic:   NewHeuristicClassifier(),
		logger:      logger,
	}
}

func (c *LLMClassifier) Classify(ctx context.Context, query string) *QueryProfile {
	if c.llmProvider == nil {
		return c.heuristic.Classify(ctx, query)
	}

	prompt := c.buildPrompt(query)

	response, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		c.logger.Printf("[WARN] LLM classification failed, using heuristic: %v", err)
		return c.heuristic.Classify(ctx, query)
	}

	profile, err := c.parseProfile(response)
	if err != nil {
		c.logger.Printf("[WARN] Classification parsing failed, using heuristic: %v", err)
		return c.heuristic.Classify(ctx, query)
	}

	c.logger.Printf("[CLASSIFY] %s (priority: %s, threshold: %.2f, topK: %d)",
		profile.Type, profile.SummaryPriority, profile.Threshold, profile.TopK)

	return profile
}

func (c *LLMClassifier) buildPrompt(query string) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You classify questions about meeting history. You do NOT answer them.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<user_query>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</user_query>\n\n")

	prompt.WriteString("<definitions>\n")
	prompt.WriteString("comprehensive: broad recap across meetings ('catch me up', 'summarize last week')\n")
	prompt.WriteString("targeted: about one topic ('what did we say about the launch?')\n")
	prompt.WriteString("specific: one exact fact ('when are we shipping?', 'who owns the migration?')\n")
	prompt.WriteString("summary_priority: high when summaries/decisions matter most, low when raw quotes do\n")
	prompt.WriteString("</definitions>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\"type\": \"comprehensive|targeted|specific\", \"summary_priority\": \"high|medium|low\"}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func (c *LLMClassifier) parseProfile(response string) (*QueryProfile, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var parsed struct {
		Type            string `json:"type"`
		SummaryPriority string `json:"summary_priority"`
	}
	if err := json.Unmarshal([]byte(jsonContent), &parsed); err != nil {
		return nil, fmt.Errorf("JSON unmarshal failed: %w", err)
	}

	parsed.Type = strings.ToLower(parsed.Type)
	parsed.SummaryPriority = strings.ToLower(parsed.SummaryPriority)

	switch parsed.Type {
	case TypeComprehensive, TypeTargeted, TypeSpecific:
	default:
		return nil, fmt.Errorf("unknown query type %q", parsed.Type)
	}

	switch parsed.SummaryPriority {
	case PriorityHigh, PriorityMedium, PriorityLow:
	default:
		parsed.SummaryPriority = PriorityMedium
	}

	return profileFor(parsed.Type, parsed.SummaryPriority), nil
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
