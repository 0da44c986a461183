package api

import (
	"net/http"

	"github.com/okian/playmedia/internal/adapters/repository"
	"github.com/okian/playmedia/internal/domain/model"
)

// FieldsHandler exposes the parent form fields pickers read and write.
type FieldsHandler struct {
	deps Dependencies
}

// NewFieldsHandler creates a new fields handler.
func NewFieldsHandler(deps Dependencies) *FieldsHandler {
	return &FieldsHandler{deps: deps}
}

func fieldRef(r *http.Request) repository.FieldRef {
	return repository.FieldRef{
		ContentType: r.PathValue("contentType"),
		ContentID:   r.PathValue("contentID"),
		Key:         r.PathValue("key"),
	}
}

// HandleGet handles GET /fields/{contentType}/{contentID}/{key}.
func (h *FieldsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	forms := h.deps.Forms()
	if forms == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", nil)
		return
	}
	value, err := forms.Field(r.Context(), fieldRef(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, value)
}

// HandlePut handles PUT /fields/{contentType}/{contentID}/{key}. The body is
// the complete new value.
func (h *FieldsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	forms := h.deps.Forms()
	if forms == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", nil)
		return
	}
	var value model.Collection
	if err := readJSON(r, &value); err != nil {
		writeServiceError(w, err)
		return
	}
	ref := fieldRef(r)
	if err := forms.Set(r.Context(), ref, value); err != nil {
		writeServiceError(w, err)
		return
	}
	stored, err := forms.Field(r.Context(), ref)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}
