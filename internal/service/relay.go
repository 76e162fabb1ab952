package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	app_errors "medchat/internal/errors"
	"medchat/internal/llm"
	"medchat/internal/model"
	"medchat/internal/session"
)

const (
	SystemInstruction = "You are a helpful AI assistant. Respond in a clear and concise manner."
	Temperature       = 0.5
	ContextWindow     = 4096

	// StatelessTurns keeps each backend request to the system instruction and
	// the newest question. The page shows a running conversation, but the model
	// never sees earlier turns. Flipping this sends the transcript as well.
	StatelessTurns = true
)

// Display is the live region a streaming answer is written into.
type Display interface {
	Render(update model.DisplayUpdate) error
}

// TurnResult describes a completed question/answer cycle.
type TurnResult struct {
	Skipped       bool
	ModelID       string
	UserTurn      *model.Turn
	AssistantTurn *model.Turn
	Fragments     int
}

// Relay drives one backend request per submitted question and streams the
// answer into a Display, recording both turns in the session's store.
type Relay struct {
	llm llm.LLMProvider
}

func NewRelay(provider llm.LLMProvider) *Relay {
	return &Relay{llm: provider}
}

// HandleTurn processes one submission for sess.
//
// Whitespace-only text is ignored. An empty label means the session's current
// selection. The user turn is recorded before the backend is called; the
// assistant turn only once the backend has finished cleanly. Backend failures
// are rendered to display and returned wrapped in ErrBackendUnavailable (no
// fragment arrived) or ErrStreamInterrupted.
func (r *Relay) HandleTurn(
	ctx context.Context,
	sess *session.Session,
	text, label string,
	display Display,
) (*TurnResult, error) {
	// Once started, a turn runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	out := &displayWriter{display: display, sessionID: sess.ID}

	if strings.TrimSpace(text) == "" {
		out.render(model.DisplayUpdate{Done: true, Skipped: true})
		return &TurnResult{Skipped: true}, nil
	}

	if label == "" {
		label = sess.Selection.Current()
	}
	modelID, err := sess.Selection.Table().Resolve(label)
	if err != nil {
		slog.Warn("Rejected turn with unknown model selection", "session_id", sess.ID, "label", label)
		out.render(model.DisplayUpdate{Done: true, Error: UserMessage(err)})
		return nil, err
	}
	if err := sess.Selection.Set(label); err != nil {
		return nil, err
	}

	history := sess.Store.All()
	userTurn := newTurn(model.RoleUser, text)
	sess.Store.Append(userTurn)
	result := &TurnResult{ModelID: modelID, UserTurn: &userTurn}

	req := buildRequest(modelID, text, history)
	stream, err := r.llm.ChatStream(ctx, req)
	if err != nil {
		err = fmt.Errorf("%w: %v", app_errors.ErrBackendUnavailable, err)
		slog.Warn("Could not reach model backend", "session_id", sess.ID, "model", modelID, "error", err)
		out.render(model.DisplayUpdate{Done: true, Error: UserMessage(err)})
		return nil, err
	}
	defer func() {
		if cErr := stream.Close(); cErr != nil {
			slog.Debug("Failed to close backend stream", "error", cErr)
		}
	}()

	var buffer strings.Builder
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			kind := app_errors.ErrBackendUnavailable
			if result.Fragments > 0 {
				kind = app_errors.ErrStreamInterrupted
			}
			err = fmt.Errorf("%w: %v", kind, err)
			slog.Warn("Model stream failed",
				"session_id", sess.ID, "model", modelID, "fragments", result.Fragments, "error", err)
			out.render(model.DisplayUpdate{
				Content:     buffer.String(),
				Done:        true,
				Interrupted: result.Fragments > 0,
				Error:       UserMessage(err),
			})
			return nil, err
		}

		result.Fragments++
		buffer.WriteString(fragment)
		out.render(model.DisplayUpdate{Content: buffer.String() + model.Cursor})
	}

	answer := buffer.String()
	out.render(model.DisplayUpdate{Content: answer, Done: true})

	assistantTurn := newTurn(model.RoleAssistant, answer)
	sess.Store.Append(assistantTurn)
	result.AssistantTurn = &assistantTurn

	slog.Info("Turn completed",
		"session_id", sess.ID, "model", modelID, "fragments", result.Fragments, "answer_chars", len(answer))
	return result, nil
}

// buildRequest applies the fixed prompt template. history is the transcript
// before the current question and is only used when StatelessTurns is off.
func buildRequest(modelID, userText string, history []model.Turn) *llm.ChatRequest {
	messages := []llm.Message{{Role: "system", Content: SystemInstruction}}
	if !StatelessTurns {
		for _, turn := range history {
			messages = append(messages, llm.Message{Role: string(turn.Role), Content: turn.Content})
		}
	}
	messages = append(messages, llm.Message{Role: string(model.RoleUser), Content: userText})

	return &llm.ChatRequest{
		Model:    modelID,
		Messages: messages,
		Options:  &llm.RequestOptions{Temperature: Temperature, NumCtx: ContextWindow},
	}
}

func newTurn(role model.Role, content string) model.Turn {
	return model.Turn{ID: uuid.NewString(), Role: role, Content: content, Timestamp: time.Now().UTC()}
}

// UserMessage turns a relay error into text fit for the chat page.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, app_errors.ErrConfiguration):
		return "The selected model size is not available. Please choose one of the offered options."
	case errors.Is(err, app_errors.ErrBackendUnavailable):
		return "The medical assistant is unavailable right now. Make sure the model server is running, then ask again."
	case errors.Is(err, app_errors.ErrStreamInterrupted):
		return "The answer was interrupted before it finished. Please ask again."
	case errors.Is(err, app_errors.ErrConflict):
		return "Please wait for the current answer to finish."
	default:
		return "Something went wrong while answering. Please try again."
	}
}

// displayWriter keeps the stream going when the display stops accepting
// updates; only the first failure is logged.
type displayWriter struct {
	display   Display
	sessionID string
	failed    bool
}

func (w *displayWriter) render(update model.DisplayUpdate) {
	if w.failed {
		return
	}
	if err := w.display.Render(update); err != nil {
		w.failed = true
		slog.Info("Display stopped accepting updates, finishing turn without it",
			"session_id", w.sessionID, "error", err)
	}
}
