package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/scholar-stream/internal/model"
	"github.com/sakif/scholar-stream/internal/service"
)

// ReviewHandler serves the review routes.
type ReviewHandler struct {
	svc    *service.ReviewService
	logger *slog.Logger
}

func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{svc: svc, logger: logger}
}

// reviewRequest is the POST /reviews body. Reviewer email comes from the
// token, never from the body.
type reviewRequest struct {
	ScholarshipID string `json:"scholarshipId"`
	ReviewerName  string `json:"reviewerName"`
	ReviewerImage string `json:"reviewerImage"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
}

// HandleListByScholarship lists the reviews of one scholarship.
//
// HTTP: GET /reviews/{id}   (id is the scholarship id)
func (h *ReviewHandler) HandleListByScholarship(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	reviews, err := h.svc.ListByScholarship(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// HTTP: POST /reviews
func (h *ReviewHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var body reviewRequest
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}

	review, err := h.svc.Create(r.Context(), caller, service.ReviewInput(body))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.Inserted(review.ID))
}

// HTTP: GET /my-reviews?email=
func (h *ReviewHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	reviews, err := h.svc.ListByReviewer(r.Context(), caller, r.URL.Query().Get("email"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// HTTP: GET /moderator/reviews
func (h *ReviewHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.svc.ListAll(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// HTTP: PATCH /reviews/{id}
// REQUEST BODY: {"rating": 4, "comment": "..."}
func (h *ReviewHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
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
	var patch model.ReviewPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.svc.Update(r.Context(), caller, id, patch); err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Updated())
}

// HTTP: DELETE /reviews/{id}
func (h *ReviewHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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
