package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/schema"

	service "github.com/okian/playmedia/internal/app"
	"github.com/okian/playmedia/internal/domain/model"
	"github.com/okian/playmedia/internal/domain/types"
)

var pageDecoder = schema.NewDecoder()

func init() {
	pageDecoder.IgnoreUnknownKeys(true)
}

type openResponse struct {
	ID string `json:"id"`
}

type toggleRequest struct {
	ID string `json:"id"`
}

// SessionsHandler serves the picker session routes.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleOpen handles POST /sessions.
func (h *SessionsHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	var req service.OpenRequest
	if err := readJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	kind, err := model.ParseKind(string(req.Kind))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	req.Kind = kind

	id, err := h.deps.Open(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, openResponse{ID: id})
}

// HandleView handles GET /sessions/{id}?offset=&limit=.
func (h *SessionsHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	var page types.Page
	if err := pageDecoder.Decode(&page, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	h.writeView(w, r.PathValue("id"), page)
}

// HandleSetFacets handles PUT /sessions/{id}/facets with a key to value map.
func (h *SessionsHandler) HandleSetFacets(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var values map[string]string
	if err := readJSON(r, &values); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.deps.SetFacets(id, values); err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeView(w, id, types.Page{})
}

// HandleResetFacets handles DELETE /sessions/{id}/facets.
func (h *SessionsHandler) HandleResetFacets(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.deps.ResetFacets(id); err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeView(w, id, types.Page{})
}

// HandleToggle handles POST /sessions/{id}/toggle.
func (h *SessionsHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := readJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing id", ErrBadRequest))
		return
	}
	res, err := h.deps.Toggle(r.PathValue("id"), req.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleRefresh handles POST /sessions/{id}/refresh.
func (h *SessionsHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.deps.Refresh(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeView(w, id, types.Page{})
}

// HandleCommit handles POST /sessions/{id}/commit.
func (h *SessionsHandler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Commit(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleCancel handles DELETE /sessions/{id}.
func (h *SessionsHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Cancel(r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionsHandler) writeView(w http.ResponseWriter, id string, page types.Page) {
	view, err := h.deps.View(id, page)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
