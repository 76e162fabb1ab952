// Package catalog maps the model sizes offered on the page to backend model
// identifiers, and tracks which size a session currently has selected.
package catalog

import (
	"fmt"
	"sync"

	app_errors "medchat/internal/errors"
)

// Option is one selectable entry of the model table.
type Option struct {
	Label   string `json:"label"`
	ModelID string `json:"model_id"`
}

// Table is the closed, ordered set of selectable models. The first entry is the default.
type Table []Option

// DefaultTable is compiled in; labels and identifiers are not user-editable.
var DefaultTable = Table{
	{Label: "1.5B Parameters", ModelID: "medllama2:latest"},
	{Label: "7B Parameters", ModelID: "ALIENTELLIGENCE/doctorai:latest"},
}

// Resolve returns the backend model identifier for label.
func (t Table) Resolve(label string) (string, error) {
	for _, opt := range t {
		if opt.Label == label {
			return opt.ModelID, nil
		}
	}
	return "", fmt.Errorf("%w: %q is not an offered model size", app_errors.ErrConfiguration, label)
}

func (t Table) Labels() []string {
	labels := make([]string, len(t))
	for i, opt := range t {
		labels[i] = opt.Label
	}
	return labels
}

func (t Table) Default() string {
	if len(t) == 0 {
		return ""
	}
	return t[0].Label
}

// Selection is the per-session choice of model size.
type Selection struct {
	mu    sync.RWMutex
	table Table
	label string
}

func NewSelection(table Table) *Selection {
	return &Selection{table: table, label: table.Default()}
}

func (s *Selection) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.label
}

// Set changes the selected label. An unknown label leaves the selection untouched.
func (s *Selection) Set(label string) error {
	if _, err := s.table.Resolve(label); err != nil {
		return err
	}
	s.mu.Lock()
	s.label = label
	s.mu.Unlock()
	return nil
}

func (s *Selection) Table() Table {
	return s.table
}
