package api

import (
	"io/fs"
	"net/http"
	"time"

	// Registers the generated API definitions with swag.
	_ "medchat/docs"
	"medchat/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter creates and configures a chi router with all of the application's routes.
func NewRouter(chatHandler *ChatHandler, modelHandler *ModelHandler, pageHandler *PageHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/swagger/*", httpSwagger.WrapHandler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/chat/history", chatHandler.GetHistory)
			r.Get("/models", modelHandler.HandleListModels)
			r.Put("/models/selection", modelHandler.HandleUpdateSelection)
		})

		// Streaming routes hold the connection open for as long as the model
		// keeps generating, so they get no timeout.
		r.Group(func(r chi.Router) {
			r.Post("/chat/messages", chatHandler.HandleStreamMessage)
		})
	})

	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	r.Get("/", pageHandler.ServeIndex)

	return r
}
