package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func collectStream(t *testing.T, ch <-chan StreamChunk) (string, []GroundingSource, error) {
	t.Helper()
	var text strings.Builder
	var sources []GroundingSource
	for chunk := range ch {
		if chunk.Err != nil {
			return text.String(), sources, chunk.Err
		}
		text.WriteString(chunk.Text)
		sources = append(sources, chunk.GroundingSources...)
	}
	return text.String(), sources, nil
}

func TestStreamMessage_MockMode(t *testing.T) {
	client := NewGeminiClient("mock", "")

	ch, err := client.StreamMessage(context.Background(), &ChatRequest{Model: "any"})
	if err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}

	text, _, streamErr := collectStream(t, ch)
	if streamErr != nil {
		t.Fatalf("Mock stream returned error = %v", streamErr)
	}
	if text == "" {
		t.Error("Mock stream should produce text")
	}
}

func TestStreamMessage_RequiresAPIKey(t *testing.T) {
	client := NewGeminiClient("", "")

	if _, err := client.StreamMessage(context.Background(), &ChatRequest{Model: "any"}); err == nil {
		t.Error("StreamMessage() without an API key should fail")
	}
}

func TestStreamMessage_ParsesSSE(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("API key header = %q, want test-key", got)
		}
		fmt.Fprintln(w, `data: {"candidates":[{"content":{"parts":[{"text":"Hello "}]}}]}`)
		fmt.Fprintln(w, ``)
		fmt.Fprintln(w, `data: {"candidates":[{"content":{"parts":[{"text":"world"}]},"groundingMetadata":{"groundingChunks":[{"web":{"uri":"https://example.com","title":"Example"}}]}}]}`)
		fmt.Fprintln(w, ``)
		fmt.Fprintln(w, `data: [DONE]`)
	}))
	defer server.Close()

	client := NewGeminiClient("test-key", server.URL)
	ch, err := client.StreamMessage(context.Background(), &ChatRequest{Model: "gemini-test"})
	if err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}

	text, sources, streamErr := collectStream(t, ch)
	if streamErr != nil {
		t.Fatalf("Stream returned error = %v", streamErr)
	}
	if text != "Hello world" {
		t.Errorf("Streamed text = %q, want Hello world", text)
	}
	if len(sources) != 1 || sources[0].URI != "https://example.com" {
		t.Errorf("Grounding sources = %+v, want example.com entry", sources)
	}
}

func TestStreamMessage_SurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `data: {"candidates":[{"content":{"parts":[{"text":"partial"}]}}]}`)
		fmt.Fprintln(w, ``)
		fmt.Fprintln(w, `data: {"error":{"message":"quota exhausted","code":429}}`)
	}))
	defer server.Close()

	client := NewGeminiClient("test-key", server.URL)
	ch, err := client.StreamMessage(context.Background(), &ChatRequest{Model: "gemini-test"})
	if err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}

	text, _, streamErr := collectStream(t, ch)
	if streamErr == nil {
		t.Fatal("Stream should surface the API error")
	}
	var se *StreamError
	if !errors.As(streamErr, &se) {
		t.Errorf("Stream error type = %T, want *StreamError", streamErr)
	}
	// Text received before the failure stays available to the caller.
	if text != "partial" {
		t.Errorf("Partial text before error = %q, want partial", text)
	}
}

func TestStreamMessage_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewGeminiClient("test-key", server.URL)
	_, err := client.StreamMessage(context.Background(), &ChatRequest{Model: "gemini-test"})
	if err == nil {
		t.Fatal("StreamMessage() should fail on non-200 status")
	}
	var se *StreamError
	if !errors.As(err, &se) {
		t.Errorf("Error type = %T, want *StreamError", err)
	}
}

func TestStreamMessage_ErrorChunkAfterCancelTerminates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `data: {"error":{"message":"server overloaded","code":503}}`)
	}))
	defer server.Close()

	client := NewGeminiClient("test-key", server.URL)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := client.StreamMessage(ctx, &ChatRequest{Model: "gemini-test"})
	if err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}

	// Cancel before consuming anything: the stream must still wind down and
	// close the channel instead of blocking on the error send.
	cancel()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("Stream did not terminate after cancellation")
		}
	}
}

func TestStreamMessage_ContextCancel(t *testing.T) {
	client := NewGeminiClient("mock", "")
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := client.StreamMessage(ctx, &ChatRequest{Model: "any"})
	if err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}

	cancel()
	// The stream must terminate; draining must not hang.
	for range ch {
	}
}
