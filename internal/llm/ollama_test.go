package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain reads a stream until it ends, returning every fragment and the terminal error.
func drain(s Stream) ([]string, error) {
	var fragments []string
	for {
		f, err := s.Recv()
		if err != nil {
			return fragments, err
		}
		fragments = append(fragments, f)
	}
}

// TestOllamaProvider_ChatStream verifies that the request sent to /api/chat
// carries the model, messages and options, and that NDJSON chunks come back as
// fragments in order.
//
// TECHNIQUE: an httptest server stands in for the Ollama API so the client is
// exercised over real HTTP without a running model.
func TestOllamaProvider_ChatStream(t *testing.T) {
	var captured ChatRequest
	var capturedPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = io.WriteString(w, `{"message":{"role":"assistant","content":"Fever "},"done":false}`+"\n")
		_, _ = io.WriteString(w, "\n")
		_, _ = io.WriteString(w, `{"message":{"role":"assistant","content":"is "},"done":false}`+"\n")
		_, _ = io.WriteString(w, `{"message":{"role":"assistant","content":"caused by..."},"done":false}`+"\n")
		_, _ = io.WriteString(w, `{"message":{"role":"assistant","content":""},"done":true,"eval_count":3}`+"\n")
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL + "/")
	req := &ChatRequest{
		Model: "medllama2:latest",
		Messages: []Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "What causes a fever?"},
		},
		Options: &RequestOptions{Temperature: 0.5, NumCtx: 4096},
	}

	stream, err := provider.ChatStream(context.Background(), req)
	require.NoError(t, err)
	defer stream.Close()

	fragments, err := drain(stream)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"Fever ", "is ", "caused by..."}, fragments)

	// A finished stream stays finished.
	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, "/api/chat", capturedPath)
	assert.True(t, captured.Stream)
	assert.Equal(t, "medllama2:latest", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "user", captured.Messages[1].Role)
	require.NotNil(t, captured.Options)
	assert.Equal(t, 0.5, captured.Options.Temperature)
	assert.Equal(t, 4096, captured.Options.NumCtx)
}

func TestOllamaProvider_ChatStream_Failures(t *testing.T) {
	ctx := context.Background()
	newReq := func() *ChatRequest { return &ChatRequest{Model: "m"} }

	t.Run("Non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"model 'm' not found"}`)
		}))
		defer server.Close()

		stream, err := NewOllamaProvider(server.URL).ChatStream(ctx, newReq())
		assert.Nil(t, stream)
		assert.ErrorContains(t, err, "404")
		assert.ErrorContains(t, err, "model 'm' not found")
	})

	t.Run("Unreachable backend", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := NewOllamaProvider(url).ChatStream(ctx, newReq())
		assert.ErrorContains(t, err, "request failed")
	})

	t.Run("Error line mid-stream", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"message":{"content":"partial"},"done":false}`+"\n")
			_, _ = io.WriteString(w, `{"error":"out of memory"}`+"\n")
		}))
		defer server.Close()

		stream, err := NewOllamaProvider(server.URL).ChatStream(ctx, newReq())
		require.NoError(t, err)
		defer stream.Close()

		fragments, err := drain(stream)
		assert.Equal(t, []string{"partial"}, fragments)
		assert.ErrorContains(t, err, "out of memory")

		// The failure is sticky.
		_, again := stream.Recv()
		assert.Equal(t, err, again)
	})

	t.Run("Malformed line", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "not json\n")
		}))
		defer server.Close()

		stream, err := NewOllamaProvider(server.URL).ChatStream(ctx, newReq())
		require.NoError(t, err)
		defer stream.Close()

		_, err = stream.Recv()
		assert.ErrorContains(t, err, "could not decode stream chunk")
	})

	t.Run("Body ends before done", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"message":{"content":"cut "},"done":false}`+"\n")
		}))
		defer server.Close()

		stream, err := NewOllamaProvider(server.URL).ChatStream(ctx, newReq())
		require.NoError(t, err)
		defer stream.Close()

		fragments, err := drain(stream)
		assert.Equal(t, []string{"cut "}, fragments)
		assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	})
}

func TestOllamaProvider_ListModelsAndPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			_, _ = io.WriteString(w, "Ollama is running")
		case "/api/tags":
			assert.Equal(t, http.MethodGet, r.Method)
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"models":[{"name":"medllama2:latest","size":3825819519}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL)
	ctx := context.Background()

	t.Run("ListModels", func(t *testing.T) {
		models, err := provider.ListModels(ctx)
		require.NoError(t, err)
		require.Len(t, models.Models, 1)
		assert.Equal(t, "medllama2:latest", models.Models[0].Name)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, provider.Ping(ctx))
	})
}
