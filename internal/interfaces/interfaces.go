package interfaces

import (
	"context"

	"medchat/internal/service"
	"medchat/internal/session"
)

// This file defines the service contracts the API layer depends on, so handlers
// can be tested against mocks instead of a live backend.

// ChatService drives one question/answer cycle for a session.
type ChatService interface {
	HandleTurn(ctx context.Context, sess *session.Session, text, label string, display service.Display) (*service.TurnResult, error)
}

// ModelService reports the selectable model sizes.
type ModelService interface {
	List(ctx context.Context) *service.ModelCatalog
}
