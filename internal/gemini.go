package internal

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// StreamChunk is one increment of a streamed model response. Err, when
// non-nil, terminates the stream; any text received before it is kept by the
// caller as a complete, if truncated, model turn.
type StreamChunk struct {
	Text             string
	GroundingSources []GroundingSource
	Err              error
}

// ChatRequest carries everything the remote model needs for one exchange.
type ChatRequest struct {
	Model             string
	SystemInstruction string
	Temperature       float64
	UseSearch         bool
	History           []Content
	Parts             []Part
}

// ModelClient is the boundary to the hosted model. StreamMessage returns a
// channel of incremental chunks; the channel is closed on completion.
// Cancellation is the caller's context; there is no separate protocol.
type ModelClient interface {
	StreamMessage(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error)
}

// GeminiClient talks to the hosted Gemini API over HTTP with server-sent
// event streaming.
type GeminiClient struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

// NewGeminiClient creates a client. An empty baseURL selects the public
// endpoint. APIKey "mock" switches to a canned local stream for offline use.
func NewGeminiClient(apiKey, baseURL string) *GeminiClient {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	return &GeminiClient{
		APIKey:  apiKey,
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 120 * time.Second},
	}
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type wireTool struct {
	GoogleSearch struct{} `json:"googleSearch"`
}

type generateRequest struct {
	SystemInstruction *Content         `json:"systemInstruction,omitempty"`
	Contents          []Content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	Tools             []wireTool       `json:"tools,omitempty"`
}

type generateChunk struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		GroundingMetadata *struct {
			GroundingChunks []struct {
				Web struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// StreamMessage sends the history plus the new message parts and streams
// incremental output. Failures are reported as a terminal StreamError chunk,
// never retried here.
func (c *GeminiClient) StreamMessage(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	if c.APIKey == "mock" {
		return c.mockStream(ctx, req)
	}
	if c.APIKey == "" {
		return nil, errors.New("api key is required")
	}

	contents := append(append([]Content{}, req.History...), Content{Role: RoleUser, Parts: req.Parts})
	body := generateRequest{
		Contents:         contents,
		GenerationConfig: generationConfig{Temperature: req.Temperature},
	}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &Content{Parts: []Part{{Text: req.SystemInstruction}}}
	}
	if req.UseSearch {
		body.Tools = []wireTool{{}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.BaseURL, req.Model)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := c.HTTP.Do(request)
	if err != nil {
		return nil, &StreamError{Model: req.Model, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StreamError{Model: req.Model, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "" || data == "[DONE]" {
				continue
			}

			var chunk generateChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				LogDebug("Skipping undecodable stream chunk: %v", err)
				continue
			}
			if chunk.Error != nil {
				select {
				case out <- StreamChunk{Err: &StreamError{Model: req.Model, Err: fmt.Errorf("%s (code %d)", chunk.Error.Message, chunk.Error.Code)}}:
				case <-ctx.Done():
				}
				return
			}
			for _, candidate := range chunk.Candidates {
				var sources []GroundingSource
				if candidate.GroundingMetadata != nil {
					for _, gc := range candidate.GroundingMetadata.GroundingChunks {
						if gc.Web.URI != "" {
							sources = append(sources, GroundingSource{URI: gc.Web.URI, Title: gc.Web.Title})
						}
					}
				}
				for _, part := range candidate.Content.Parts {
					select {
					case out <- StreamChunk{Text: part.Text, GroundingSources: sources}:
						sources = nil
					case <-ctx.Done():
						return
					}
				}
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			select {
			case out <- StreamChunk{Err: &StreamError{Model: req.Model, Err: err}}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func (c *GeminiClient) mockStream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	words := []string{"VORTEX ", "mock ", "response ", "online."}
	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		for _, word := range words {
			select {
			case out <- StreamChunk{Text: word}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
