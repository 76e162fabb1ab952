package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	app_errors "medchat/internal/errors"
	"medchat/internal/model"
	"medchat/internal/service"
)

// This file contains shared DTOs for API responses and helpers for sending
// consistent HTTP and Server-Sent Events (SSE) responses.

// ErrorResponse defines the standard JSON structure for error messages.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse defines a generic success response for operations that don't
// return a resource.
type StatusResponse struct {
	Status string `json:"status"`
}

// respondWithError maps business-layer errors to HTTP status codes and writes
// a standard JSON error response. Backend failures never reach it; the relay
// reports those inside the answer stream.
func respondWithError(w http.ResponseWriter, err error) {
	var statusCode int
	var message string

	switch {
	case errors.Is(err, app_errors.ErrValidation):
		statusCode = http.StatusBadRequest
		// Validation messages are already descriptive and user-friendly.
		message = err.Error()
	case errors.Is(err, app_errors.ErrConfiguration):
		statusCode = http.StatusBadRequest
		message = service.UserMessage(err)
	case errors.Is(err, app_errors.ErrConflict):
		statusCode = http.StatusConflict
		message = service.UserMessage(err)
	default:
		statusCode = http.StatusInternalServerError
		message = "An unexpected internal server error occurred."
	}

	slog.Warn("Responding with error", "status_code", statusCode, "client_message", message, "internal_error", err)

	respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// maxRequestBodyBytes caps every JSON request body. It leaves room for the
// longest accepted question once JSON-escaped.
const maxRequestBodyBytes = 64 << 10

// decodeBody reads a bounded JSON body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// respondWithJSON marshals payload and writes it with the given status code.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func setStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// sendStreamError sends a terminal error update over an SSE stream, shaped like
// any other display update so the page can show it in the answer region.
func sendStreamError(w http.ResponseWriter, message string) {
	slog.Warn("Sending stream error to client", "message", message)
	if err := writeStreamEventNamed(w, "error", model.DisplayUpdate{Done: true, Error: message}); err != nil {
		slog.Warn("Failed to write stream error, client might have disconnected", "error", err)
	}
}

// writeStreamEvent marshals data as an unnamed SSE event. A write error means
// the client has gone away.
func writeStreamEvent(w http.ResponseWriter, data interface{}) error {
	return writeStreamEventNamed(w, "", data)
}

func writeStreamEventNamed(w http.ResponseWriter, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Error("Failed to marshal stream data to JSON", "error", err)
		// The stream is still usable; only this payload was bad.
		return nil
	}

	if event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
			return fmt.Errorf("failed to write event name to stream: %w", err)
		}
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", string(jsonData)); err != nil {
		return fmt.Errorf("failed to write data to stream: %w", err)
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}
