package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// StreamHandler receives incremental text deltas during a streaming call.
// Returning an error aborts the stream.
type StreamHandler func(delta string) error

// Citation points at a web source the model grounded its answer on.
type Citation struct {
	Title string
	URL   string
}

// StreamResult is the outcome of a streaming call: the accumulated text plus
// any grounding citations the provider reported for the answer.
type StreamResult struct {
	Text      string
	Citations []Citation
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
	WebSearch   bool   // Ask the provider to ground with web search, if supported
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithWebSearch(enabled bool) Option {
	return func(o *Options) {
		o.WebSearch = enabled
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)

	// ChatStream sends a chat history and delivers the answer incrementally
	// through onDelta. The result carries the full accumulated text; it is
	// non-nil even on error so callers can see partial output.
	ChatStream(ctx context.Context, history []Message, onDelta StreamHandler, options ...Option) (*StreamResult, error)
}
