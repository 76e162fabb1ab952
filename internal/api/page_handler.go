package api

import (
	"html/template"
	"log/slog"
	"net/http"

	"medchat/internal/catalog"
	"medchat/internal/model"
	"medchat/internal/render"
	"medchat/internal/session"
	"medchat/web"
)

var pageTemplate = template.Must(template.ParseFS(web.Templates, "templates/index.html"))

var quickGuide = []string{
	"Pick model size",
	"Enter medical query",
	"Send & get insights",
}

// PageHandler renders the chat page for the caller's session.
type PageHandler struct {
	sessions *session.Manager
	table    catalog.Table
}

func NewPageHandler(sessions *session.Manager, table catalog.Table) *PageHandler {
	return &PageHandler{sessions: sessions, table: table}
}

type pageTurn struct {
	Role model.Role
	HTML template.HTML
}

type pageData struct {
	Models   catalog.Table
	Selected string
	Guide    []string
	Turns    []pageTurn
}

func (h *PageHandler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Resolve(w, r)

	turns := sess.Store.All()
	data := pageData{
		Models:   h.table,
		Selected: sess.Selection.Current(),
		Guide:    quickGuide,
		Turns:    make([]pageTurn, len(turns)),
	}
	for i, t := range turns {
		data.Turns[i] = pageTurn{Role: t.Role, HTML: render.Markdown(t.Content)}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		slog.Error("Failed to render chat page", "error", err)
	}
}
