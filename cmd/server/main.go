package main

import (
	"os"

	"medchat/internal/app"
)

// @title           Medical Chatbot API
// @version         1.0
// @description     Streams answers to medical questions from a local Ollama model into a per-session chat transcript.
// @BasePath        /api/v1
func main() {
	os.Exit(app.Run())
}
