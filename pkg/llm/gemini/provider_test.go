package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-meeting-be/pkg/llm"
)

func sseServer(t *testing.T, lines []string, capture *geminiRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Fatalf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			w.Write([]byte(line + "\n\n"))
		}
	}))
}

func testProvider(baseURL string) *GeminiProvider {
	provider := NewGeminiProvider("test-key", "gemini-2.0-flash")
	provider.BaseURL = baseURL
	return provider
}

func TestChatStreamAccumulatesDeltas(t *testing.T) {
	srv := sseServer(t, []string{
		`data: {"candidates":[{"content":{"parts":[{"text":"Hello"}]}}]}`,
		`data: {"candidates":[{"content":{"parts":[{"text":" world"}]}}]}`,
		`data: [DONE]`,
	}, nil)
	defer srv.Close()

	var deltas []string
	result, err := testProvider(srv.URL).ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, func(delta string) error {
		deltas = append(deltas, delta)
		return nil
	})

	if err != nil {
		t.Fatalf("ChatStream returned error: %v", err)
	}
	if result.Text != "Hello world" {
		t.Errorf("text = %q, want %q", result.Text, "Hello world")
	}
	if len(deltas) != 2 {
		t.Errorf("deltas = %v, want 2 entries", deltas)
	}
	if len(result.Citations) != 0 {
		t.Errorf("citations = %v, want none without grounding", result.Citations)
	}
}

func TestChatStreamCollectsGroundingCitations(t *testing.T) {
	srv := sseServer(t, []string{
		`data: {"candidates":[{"content":{"parts":[{"text":"Grounded"}]},"groundingMetadata":{"groundingChunks":[{"web":{"uri":"https://example.com/a","title":"Source A"}}]}}]}`,
		`data: {"candidates":[{"content":{"parts":[{"text":" answer"}]},"groundingMetadata":{"groundingChunks":[{"web":{"uri":"https://example.com/a","title":"Source A"}},{"web":{"uri":"https://example.com/b","title":"Source B"}},{}]}}]}`,
	}, nil)
	defer srv.Close()

	result, err := testProvider(srv.URL).ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, func(string) error {
		return nil
	}, llm.WithWebSearch(true))

	if err != nil {
		t.Fatalf("ChatStream returned error: %v", err)
	}
	if result.Text != "Grounded answer" {
		t.Errorf("text = %q, want %q", result.Text, "Grounded answer")
	}
	want := []llm.Citation{
		{Title: "Source A", URL: "https://example.com/a"},
		{Title: "Source B", URL: "https://example.com/b"},
	}
	if len(result.Citations) != len(want) {
		t.Fatalf("citations = %v, want %v", result.Citations, want)
	}
	for i, c := range want {
		if result.Citations[i] != c {
			t.Errorf("citations[%d] = %v, want %v", i, result.Citations[i], c)
		}
	}
}

func TestChatStreamWebSearchRequestsTool(t *testing.T) {
	var captured geminiRequest
	srv := sseServer(t, []string{
		`data: {"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`,
	}, &captured)
	defer srv.Close()

	_, err := testProvider(srv.URL).ChatStream(context.Background(), []llm.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
	}, func(string) error { return nil }, llm.WithWebSearch(true))

	if err != nil {
		t.Fatalf("ChatStream returned error: %v", err)
	}
	if len(captured.Tools) != 1 || captured.Tools[0].GoogleSearch == nil {
		t.Errorf("tools = %+v, want the google_search tool", captured.Tools)
	}
	if captured.SystemInstruction == nil {
		t.Error("system prompt not sent as system_instruction")
	}
	if len(captured.Contents) != 1 {
		t.Errorf("contents = %+v, want the user turn only", captured.Contents)
	}
}
