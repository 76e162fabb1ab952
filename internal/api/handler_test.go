package api_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"medchat/internal/api"
	"medchat/internal/catalog"
	app_errors "medchat/internal/errors"
	"medchat/internal/interfaces/mocks"
	"medchat/internal/model"
	"medchat/internal/service"
	"medchat/internal/session"
)

func setupChatHandler(t *testing.T) (*api.ChatHandler, *mocks.MockChatService, *session.Manager) {
	mockChatSvc := mocks.NewMockChatService(t)
	sessions := session.NewManager(catalog.DefaultTable, time.Minute)
	handler := api.NewChatHandler(mockChatSvc, sessions)
	return handler, mockChatSvc, sessions
}

// existingSession creates a session the way a first page load would and
// returns it together with its cookie.
func existingSession(t *testing.T, sessions *session.Manager) (*session.Session, *http.Cookie) {
	t.Helper()
	rr := httptest.NewRecorder()
	sess := sessions.Resolve(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	return sess, cookies[0]
}

func TestChatHandler_HandleStreamMessage(t *testing.T) {
	t.Run("Success - Updates are streamed", func(t *testing.T) {
		handler, mockChatSvc, _ := setupChatHandler(t)
		reqBody := `{"content": "What causes a fever?", "model_label": "1.5B Parameters"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages", strings.NewReader(reqBody))
		rr := httptest.NewRecorder()

		mockChatSvc.On("HandleTurn", mock.Anything, mock.Anything, "What causes a fever?", "1.5B Parameters", mock.Anything).
			Run(func(args mock.Arguments) {
				display := args.Get(4).(service.Display)
				assert.NoError(t, display.Render(model.DisplayUpdate{Content: "Fever" + model.Cursor}))
				assert.NoError(t, display.Render(model.DisplayUpdate{Content: "Fever is **common**", Done: true}))
			}).
			Return(&service.TurnResult{Fragments: 2}, nil).Once()

		handler.HandleStreamMessage(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
		body := rr.Body.String()
		assert.Equal(t, 2, strings.Count(body, "data: "))
		assert.Contains(t, body, `"content":"Fever▌"`)
		// encoding/json escapes the rendered markup.
		assert.Contains(t, body, `\u003cstrong\u003ecommon\u003c/strong\u003e`)
		assert.NotContains(t, body, "event: error")
	})

	t.Run("Relay errors are not sent twice", func(t *testing.T) {
		handler, mockChatSvc, _ := setupChatHandler(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages", strings.NewReader(`{"content": "hello"}`))
		rr := httptest.NewRecorder()

		mockChatSvc.On("HandleTurn", mock.Anything, mock.Anything, "hello", "", mock.Anything).
			Run(func(args mock.Arguments) {
				display := args.Get(4).(service.Display)
				_ = display.Render(model.DisplayUpdate{Done: true, Error: "unavailable"})
			}).
			Return(nil, app_errors.ErrBackendUnavailable).Once()

		handler.HandleStreamMessage(rr, req)

		assert.Equal(t, 1, strings.Count(rr.Body.String(), "event: error"))
	})

	t.Run("Unexpected errors reach the stream", func(t *testing.T) {
		handler, mockChatSvc, _ := setupChatHandler(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages", strings.NewReader(`{"content": "hello"}`))
		rr := httptest.NewRecorder()

		mockChatSvc.On("HandleTurn", mock.Anything, mock.Anything, "hello", "", mock.Anything).
			Return(nil, errors.New("boom")).Once()

		handler.HandleStreamMessage(rr, req)

		assert.Contains(t, rr.Body.String(), "event: error")
		assert.Contains(t, rr.Body.String(), "Something went wrong")
	})

	t.Run("Failure - Invalid JSON", func(t *testing.T) {
		handler, _, _ := setupChatHandler(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages", strings.NewReader(`{"content":`))
		rr := httptest.NewRecorder()

		handler.HandleStreamMessage(rr, req)

		// For streaming endpoints, errors are sent over the stream itself.
		assert.Contains(t, rr.Body.String(), "Invalid request body")
	})

	t.Run("Failure - Validation Error", func(t *testing.T) {
		handler, _, _ := setupChatHandler(t)
		payload, err := json.Marshal(api.CreateMessageRequest{Content: strings.Repeat("a", 8001)})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages", strings.NewReader(string(payload)))
		rr := httptest.NewRecorder()

		handler.HandleStreamMessage(rr, req)

		assert.Contains(t, rr.Body.String(), "'content' must be at most 8000 characters")
	})

	t.Run("Failure - Body too large", func(t *testing.T) {
		handler, _, _ := setupChatHandler(t)
		reqBody := `{"content": "` + strings.Repeat("a", 128<<10) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages", strings.NewReader(reqBody))
		rr := httptest.NewRecorder()

		handler.HandleStreamMessage(rr, req)

		assert.Contains(t, rr.Body.String(), "event: error")
		assert.Contains(t, rr.Body.String(), "Request body too large")
	})

	t.Run("Failure - Answer still streaming", func(t *testing.T) {
		handler, _, sessions := setupChatHandler(t)
		sess, cookie := existingSession(t, sessions)
		require.NoError(t, sess.BeginTurn())
		defer sess.EndTurn()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages", strings.NewReader(`{"content": "again"}`))
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()

		handler.HandleStreamMessage(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.NotEqual(t, "text/event-stream", rr.Header().Get("Content-Type"))
		var resp api.ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Contains(t, resp.Error, "wait for the current answer")
	})

	t.Run("Session is released after the turn", func(t *testing.T) {
		handler, mockChatSvc, sessions := setupChatHandler(t)
		sess, cookie := existingSession(t, sessions)
		mockChatSvc.On("HandleTurn", mock.Anything, sess, "hi", "", mock.Anything).
			Return(&service.TurnResult{}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages", strings.NewReader(`{"content": "hi"}`))
		req.AddCookie(cookie)
		handler.HandleStreamMessage(httptest.NewRecorder(), req)

		assert.NoError(t, sess.BeginTurn())
		sess.EndTurn()
	})
}

func TestChatHandler_GetHistory(t *testing.T) {
	t.Run("New session", func(t *testing.T) {
		handler, _, _ := setupChatHandler(t)
		rr := httptest.NewRecorder()

		handler.GetHistory(rr, httptest.NewRequest(http.MethodGet, "/api/v1/chat/history", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, rr.Result().Cookies(), 1)
		assert.Equal(t, session.CookieName, rr.Result().Cookies()[0].Name)

		var resp api.HistoryResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "1.5B Parameters", resp.SelectedLabel)
		assert.Empty(t, resp.Turns)
	})

	t.Run("Existing transcript", func(t *testing.T) {
		handler, _, sessions := setupChatHandler(t)
		sess, cookie := existingSession(t, sessions)
		sess.Store.Append(model.Turn{ID: "1", Role: model.RoleUser, Content: "What causes a fever?"})
		sess.Store.Append(model.Turn{ID: "2", Role: model.RoleAssistant, Content: "Fever is common."})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/history", nil)
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()

		handler.GetHistory(rr, req)

		var resp api.HistoryResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Turns, 2)
		assert.Equal(t, model.RoleUser, resp.Turns[0].Role)
		assert.Equal(t, "Fever is common.", resp.Turns[1].Content)
	})
}
