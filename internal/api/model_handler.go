package api

import (
	"net/http"

	"medchat/internal/interfaces"
	"medchat/internal/service"
	"medchat/internal/session"
)

// ModelHandler serves the model size choice.
type ModelHandler struct {
	service  interfaces.ModelService
	sessions *session.Manager
}

func NewModelHandler(svc interfaces.ModelService, sessions *session.Manager) *ModelHandler {
	return &ModelHandler{service: svc, sessions: sessions}
}

// ModelListResponse is the model table plus the caller's current choice.
type ModelListResponse struct {
	*service.ModelCatalog
	Selected string `json:"selected"`
}

// UpdateSelectionRequest changes the caller's model size.
type UpdateSelectionRequest struct {
	Label string `json:"label" validate:"required,max=64" example:"7B Parameters"`
}

// HandleListModels godoc
// @Summary      List model sizes
// @Description  Lists the offered model sizes, whether the local backend has each installed, and the caller's selection.
// @Tags         Models
// @Produce      json
// @Success      200  {object}  ModelListResponse
// @Router       /models [get]
func (h *ModelHandler) HandleListModels(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Resolve(w, r)
	respondWithJSON(w, http.StatusOK, ModelListResponse{
		ModelCatalog: h.service.List(r.Context()),
		Selected:     sess.Selection.Current(),
	})
}

// HandleUpdateSelection godoc
// @Summary      Select model size
// @Description  Changes the model size used for the caller's next questions. Earlier turns are unaffected.
// @Tags         Models
// @Accept       json
// @Produce      json
// @Param        selection  body  UpdateSelectionRequest  true  "Model size label"
// @Success      200  {object}  StatusResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      413  {object}  ErrorResponse
// @Router       /models/selection [put]
func (h *ModelHandler) HandleUpdateSelection(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Resolve(w, r)

	var req UpdateSelectionRequest
	if err := decodeBody(w, r, &req); err != nil {
		if isBodyTooLarge(err) {
			respondWithJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Request body too large"})
			return
		}
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload"})
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := sess.Selection.Set(req.Label); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}
