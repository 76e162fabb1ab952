package service

import (
	"context"
	"log/slog"

	"medchat/internal/catalog"
	"medchat/internal/llm"
)

// ModelStatus is one selectable model size and whether the backend has it installed.
type ModelStatus struct {
	Label     string `json:"label"`
	ModelID   string `json:"model_id"`
	Installed bool   `json:"installed"`
}

// ModelCatalog is the model table as seen from the running backend.
type ModelCatalog struct {
	BackendReachable bool          `json:"backend_reachable"`
	Models           []ModelStatus `json:"models"`
}

// ModelService reports on the compiled-in model table. It never changes what
// the backend has installed.
type ModelService struct {
	llm   llm.LLMProvider
	table catalog.Table
}

// NewModelService creates a new ModelService.
func NewModelService(llmProvider llm.LLMProvider, table catalog.Table) *ModelService {
	return &ModelService{llm: llmProvider, table: table}
}

// List returns every offered model size. When the backend cannot be asked,
// all entries are reported as not installed.
func (s *ModelService) List(ctx context.Context) *ModelCatalog {
	out := &ModelCatalog{Models: make([]ModelStatus, len(s.table))}
	for i, opt := range s.table {
		out.Models[i] = ModelStatus{Label: opt.Label, ModelID: opt.ModelID}
	}

	installed, err := s.llm.ListModels(ctx)
	if err != nil {
		slog.Warn("Could not list backend models", "error", err)
		return out
	}
	out.BackendReachable = true

	names := make(map[string]struct{}, len(installed.Models))
	for _, m := range installed.Models {
		names[m.Name] = struct{}{}
		if m.Model != "" {
			names[m.Model] = struct{}{}
		}
	}
	for i := range out.Models {
		_, out.Models[i].Installed = names[out.Models[i].ModelID]
	}
	return out
}
