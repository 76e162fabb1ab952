package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"medchat/internal/api"
	"medchat/internal/catalog"
	"medchat/internal/config"
	"medchat/internal/llm"
	"medchat/internal/service"
	"medchat/internal/session"
)

// App holds the wired server and the state it shares across requests.
type App struct {
	Config   *config.Config
	Server   *http.Server
	Sessions *session.Manager
	LLM      llm.LLMProvider
}

// NewApp wires every component for cfg without starting anything.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg.OllamaURL == "" {
		return nil, fmt.Errorf("OLLAMA_URL must be set")
	}

	table := catalog.DefaultTable
	ollamaProvider := llm.NewOllamaProvider(cfg.OllamaURL)
	sessions := session.NewManager(table, cfg.SessionIdleTimeout)

	relay := service.NewRelay(ollamaProvider)
	modelService := service.NewModelService(ollamaProvider, table)

	chatHandler := api.NewChatHandler(relay, sessions)
	modelHandler := api.NewModelHandler(modelService, sessions)
	pageHandler := api.NewPageHandler(sessions, table)
	router := api.NewRouter(chatHandler, modelHandler, pageHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for streaming endpoints
		IdleTimeout:       120 * time.Second,
	}

	return &App{Config: cfg, Server: server, Sessions: sessions, LLM: ollamaProvider}, nil
}

func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	setupLogger(cfg.LogLevel)

	logConfigSource()

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	waitForOllama(ctx, app.LLM, cfg.OllamaURL, cfg.OllamaWaitTimeout)
	go app.Sessions.StartGC(ctx)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", cfg.AppPort)
		serverErr <- app.Server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			return 1
		}
	case <-ctx.Done():
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
			return 1
		}
	}

	return 0
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

func setupLogger(logLevel string) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// waitForOllama polls the backend until it answers or timeout passes. The
// server starts either way; questions asked while the backend is down get a
// "model backend unavailable" answer.
func waitForOllama(ctx context.Context, provider llm.LLMProvider, ollamaURL string, timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	slog.Info("Waiting for Ollama to be ready...", "url", ollamaURL)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		err := provider.Ping(pingCtx)
		pingCancel()
		if err == nil {
			slog.Info("Ollama is ready.")
			return true
		}
		slog.Debug("Ollama not ready yet, retrying in 1 second...", "url", ollamaURL, "error", err)

		select {
		case <-ctx.Done():
			slog.Warn("Ollama did not become ready, starting anyway", "url", ollamaURL, "timeout", timeout)
			return false
		case <-time.After(time.Second):
		}
	}
}
