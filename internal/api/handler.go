package api

import (
	"errors"
	"log/slog"
	"net/http"

	app_errors "medchat/internal/errors"
	"medchat/internal/interfaces"
	"medchat/internal/model"
	"medchat/internal/service"
	"medchat/internal/session"
)

type ChatHandler struct {
	service  interfaces.ChatService
	sessions *session.Manager
}

func NewChatHandler(svc interfaces.ChatService, sessions *session.Manager) *ChatHandler {
	return &ChatHandler{service: svc, sessions: sessions}
}

// CreateMessageRequest is the body of a question submission. Empty content is
// accepted and ignored; an empty label means the session's current selection.
type CreateMessageRequest struct {
	Content    string `json:"content" validate:"max=8000" example:"What causes a fever?"`
	ModelLabel string `json:"model_label" validate:"max=64" example:"1.5B Parameters"`
}

// HistoryResponse is the caller's transcript and current model selection.
type HistoryResponse struct {
	SelectedLabel string       `json:"selected_label"`
	Turns         []model.Turn `json:"turns"`
}

// HandleStreamMessage godoc
// @Summary      Ask a question
// @Description  Submits a question and streams the answer as display updates. Each event carries the full answer so far; errors arrive as `event: error`.
// @Tags         Chat
// @Accept       json
// @Produce      text/event-stream
// @Param        message  body  CreateMessageRequest  true  "Question"
// @Success      200  {object}  model.DisplayUpdate  "Stream of display updates"
// @Failure      409  {object}  ErrorResponse  "An answer is still streaming for this session"
// @Router       /chat/messages [post]
func (h *ChatHandler) HandleStreamMessage(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Resolve(w, r)

	// Refused before the stream opens so the caller gets a plain 409.
	if err := sess.BeginTurn(); err != nil {
		respondWithError(w, err)
		return
	}
	defer sess.EndTurn()

	setStreamHeaders(w)

	var req CreateMessageRequest
	if err := decodeBody(w, r, &req); err != nil {
		slog.Error("Error decoding request body", "error", err)
		if isBodyTooLarge(err) {
			sendStreamError(w, "Request body too large")
		} else {
			sendStreamError(w, "Invalid request body")
		}
		return
	}
	if err := validateRequest(&req); err != nil {
		sendStreamError(w, err.Error())
		return
	}

	result, err := h.service.HandleTurn(r.Context(), sess, req.Content, req.ModelLabel, newStreamDisplay(w))
	switch {
	case err == nil && result != nil && result.Skipped:
		slog.Debug("Ignored empty submission", "session_id", sess.ID)
	case err == nil:
		slog.Info("Finished streaming response.", "session_id", sess.ID)
	case errors.Is(err, app_errors.ErrConfiguration),
		errors.Is(err, app_errors.ErrBackendUnavailable),
		errors.Is(err, app_errors.ErrStreamInterrupted):
		// Already shown to the user by the relay.
		slog.Info("Turn ended without an answer", "session_id", sess.ID, "error", err)
	default:
		slog.Error("Unexpected error handling turn", "session_id", sess.ID, "error", err)
		sendStreamError(w, service.UserMessage(err))
	}
}

// GetHistory godoc
// @Summary      Get transcript
// @Description  Returns the caller's conversation in submission order.
// @Tags         Chat
// @Produce      json
// @Success      200  {object}  HistoryResponse
// @Router       /chat/history [get]
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Resolve(w, r)
	respondWithJSON(w, http.StatusOK, HistoryResponse{
		SelectedLabel: sess.Selection.Current(),
		Turns:         sess.Store.All(),
	})
}
