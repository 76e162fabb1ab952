package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxLineSize bounds a single NDJSON line from the backend.
const maxLineSize = 1 << 20

// LLMProvider defines the interface for interacting with a language model backend.
type LLMProvider interface {
	ChatStream(ctx context.Context, req *ChatRequest) (Stream, error)
	ListModels(ctx context.Context) (*ListModelsResponse, error)
	Ping(ctx context.Context) error
}

// Stream is a finite, non-restartable sequence of text fragments.
// Recv returns io.EOF once the backend has finished cleanly.
type Stream interface {
	Recv() (string, error)
	Close() error
}

type ollamaProvider struct {
	client *http.Client
	url    string
}

func NewOllamaProvider(url string) LLMProvider {
	return &ollamaProvider{
		client: &http.Client{},
		url:    strings.TrimRight(url, "/"),
	}
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RequestOptions are the sampling parameters forwarded to Ollama.
type RequestOptions struct {
	Temperature float64 `json:"temperature"`
	NumCtx      int     `json:"num_ctx"`
}

type ChatRequest struct {
	Model    string          `json:"model"`
	Messages []Message       `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *RequestOptions `json:"options,omitempty"`
}

type Model struct {
	Name       string `json:"name"`
	Model      string `json:"model"`
	ModifiedAt string `json:"modified_at"`
	Size       int64  `json:"size"`
	Digest     string `json:"digest"`
}

type ListModelsResponse struct {
	Models []Model `json:"models"`
}

func (p *ollamaProvider) ChatStream(ctx context.Context, req *ChatRequest) (Stream, error) {
	req.Stream = true
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, fmt.Errorf("api returned non-200 status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &ollamaStream{body: resp.Body, scanner: scanner}, nil
}

type ollamaStreamChunk struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
	Error   string  `json:"error"`
}

// ollamaStream pulls one NDJSON line per Recv straight off the response body.
type ollamaStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
	err     error
}

func (s *ollamaStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	if s.err != nil {
		return "", s.err
	}

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ollamaStreamChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return "", s.fail(fmt.Errorf("could not decode stream chunk: %w", err))
		}
		if chunk.Error != "" {
			return "", s.fail(fmt.Errorf("backend reported error: %s", chunk.Error))
		}
		if chunk.Message.Content != "" {
			if chunk.Done {
				s.done = true
			}
			return chunk.Message.Content, nil
		}
		if chunk.Done {
			s.done = true
			return "", io.EOF
		}
	}

	if err := s.scanner.Err(); err != nil {
		return "", s.fail(fmt.Errorf("stream read failed: %w", err))
	}
	return "", s.fail(io.ErrUnexpectedEOF)
}

func (s *ollamaStream) fail(err error) error {
	s.err = err
	return err
}

func (s *ollamaStream) Close() error {
	return s.body.Close()
}

func (p *ollamaProvider) ListModels(ctx context.Context) (*ListModelsResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api returned non-200 status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var models ListModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, fmt.Errorf("could not decode model list: %w", err)
	}
	return &models, nil
}

// Ping checks that the Ollama server answers on its root endpoint.
func (p *ollamaProvider) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api returned non-200 status %d", resp.StatusCode)
	}
	return nil
}

// readErrorBody extracts Ollama's {"error": "..."} message, falling back to the raw body.
func readErrorBody(r io.Reader) string {
	bodyBytes, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(bodyBytes, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(bodyBytes))
}
