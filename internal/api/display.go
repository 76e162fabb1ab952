package api

import (
	"net/http"

	"medchat/internal/model"
	"medchat/internal/render"
)

// streamDisplay writes relay updates to the client as SSE events. Completed
// answers also carry their rendered markdown so the page can swap it in.
type streamDisplay struct {
	w http.ResponseWriter
}

func newStreamDisplay(w http.ResponseWriter) *streamDisplay {
	return &streamDisplay{w: w}
}

func (d *streamDisplay) Render(update model.DisplayUpdate) error {
	if update.Error != "" {
		return writeStreamEventNamed(d.w, "error", update)
	}
	if update.Done && !update.Skipped {
		update.HTML = string(render.Markdown(update.Content))
	}
	return writeStreamEvent(d.w, update)
}
