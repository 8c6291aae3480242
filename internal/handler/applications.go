package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/scholar-stream/internal/model"
	"github.com/sakif/scholar-stream/internal/service"
)

// ApplicationHandler serves the applicant and moderator application routes.
type ApplicationHandler struct {
	svc    *service.ApplicationService
	logger *slog.Logger
}

func NewApplicationHandler(svc *service.ApplicationService, logger *slog.Logger) *ApplicationHandler {
	return &ApplicationHandler{svc: svc, logger: logger}
}

// applicationRequest is the POST /applications body. Status, payment status
// and the scholarship snapshot are set server-side.
type applicationRequest struct {
	ScholarshipID string `json:"scholarshipId"`
	UserName      string `json:"userName"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
}

// HTTP: POST /applications
func (h *ApplicationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var body applicationRequest
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}

	app, err := h.svc.Create(r.Context(), caller, service.ApplicationInput(body))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.Inserted(app.ID))
}

// HTTP: GET /applications?email=
func (h *ApplicationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	apps, err := h.svc.ListByApplicant(r.Context(), caller, r.URL.Query().Get("email"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// HTTP: GET /applications/{id}
func (h *ApplicationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	app, err := h.svc.Get(r.Context(), caller, id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// HTTP: PATCH /applications/payment/{id}
func (h *ApplicationHandler) HandleMarkPaid(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.svc.MarkPaid(r.Context(), caller, id); err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Updated())
}

// HandleDelete removes the caller's own pending application.
//
// HTTP: DELETE /applications/{id}
// Any other status answers 403 and leaves the record unchanged.
func (h *ApplicationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), caller, id); err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Deleted())
}

// HTTP: GET /moderator/applications?status=
func (h *ApplicationHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	apps, err := h.svc.ListAll(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// HTTP: PATCH /applications/status/{id}
// REQUEST BODY: {"status": "processing"}
func (h *ApplicationHandler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.svc.SetStatus(r.Context(), id, body.Status); err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Updated())
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
}

// HTTP: PATCH /applications/feedback/{id}
func (h *ApplicationHandler) HandleSetFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var body feedbackRequest
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.svc.SetFeedback(r.Context(), id, body.Feedback); err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Updated())
}

// HandleReject sets the status to rejected. The body is optional.
//
// HTTP: PATCH /applications/reject/{id}
func (h *ApplicationHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var body feedbackRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &body); err != nil {
			WriteError(w, r, err)
			return
		}
	}
	if err := h.svc.Reject(r.Context(), id, body.Feedback); err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Updated())
}
