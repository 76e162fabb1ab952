package model

import "time"

// Role tags the speaker of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Cursor is appended to the live display while an answer is still streaming.
const Cursor = "▌"

// Turn is one finalized utterance in a conversation.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// DisplayUpdate is the structure for a single update of the live answer region.
// Content always holds the full text to show, not a delta.
type DisplayUpdate struct {
	Content     string `json:"content"`
	Done        bool   `json:"done"`
	Skipped     bool   `json:"skipped,omitempty"`
	Interrupted bool   `json:"interrupted,omitempty"`
	Error       string `json:"error,omitempty"`
	HTML        string `json:"html,omitempty"` // Rendered markdown, final updates only.
}
