package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/scholar-stream/internal/listing"
	"github.com/sakif/scholar-stream/internal/model"
	"github.com/sakif/scholar-stream/internal/service"
)

// ScholarshipHandler serves the public listing and the Admin scholarship routes.
type ScholarshipHandler struct {
	svc      *service.ScholarshipService
	maxLimit int
	logger   *slog.Logger
}

// NewScholarshipHandler creates a ScholarshipHandler. maxLimit clamps the
// page size of the listing; zero means listing.DefaultMaxLimit.
func NewScholarshipHandler(svc *service.ScholarshipService, maxLimit int, logger *slog.Logger) *ScholarshipHandler {
	return &ScholarshipHandler{svc: svc, maxLimit: maxLimit, logger: logger}
}

// HandleList serves the filtered, sorted, paginated listing.
//
// HTTP: GET /scholarships?search=&category=&subject=&country=&sortBy=fee|date&order=asc|desc&page=&limit=
//
// RESPONSE FORMAT:
//
//	{"data":[...],"page":2,"totalPages":3,"total":20}
func (h *ScholarshipHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := listing.Parse(r.URL.Query(), h.maxLimit)

	page, err := h.svc.List(r.Context(), q)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HTTP: GET /scholarship/{id}
func (h *ScholarshipHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	s, err := h.svc.Get(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// HTTP: POST /add-scholarship
func (h *ScholarshipHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var in model.Scholarship
	if err := decodeJSON(w, r, &in); err != nil {
		WriteError(w, r, err)
		return
	}

	s, err := h.svc.Create(r.Context(), caller, in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.Inserted(s.ID))
}

// HTTP: PATCH /scholarship/{id}
func (h *ScholarshipHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var patch model.ScholarshipPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.svc.Update(r.Context(), id, patch); err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Updated())
}

// HTTP: DELETE /scholarship/{id}
func (h *ScholarshipHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Deleted())
}
