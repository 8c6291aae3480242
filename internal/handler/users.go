package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/scholar-stream/internal/model"
	"github.com/sakif/scholar-stream/internal/service"
)

// UserHandler serves the /users routes.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// existingUserResponse is returned when a sign-in posts a known email.
type existingUserResponse struct {
	Message    string  `json:"message"`
	InsertedID *string `json:"insertedId"`
}

// HandleCreate registers a user on first sign-in.
//
// HTTP: POST /users
// A known email answers 200 {"message":"user already exists","insertedId":null}
// and writes nothing.
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.User
	if err := decodeJSON(w, r, &in); err != nil {
		WriteError(w, r, err)
		return
	}

	u, created, err := h.svc.Create(r.Context(), in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if !created {
		writeJSON(w, http.StatusOK, existingUserResponse{Message: "user already exists"})
		return
	}
	writeJSON(w, http.StatusCreated, model.Inserted(u.ID))
}

// HTTP: GET /users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleUpdateProfile changes the caller's own name and photo.
//
// HTTP: PATCH /users
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var patch model.UserProfilePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.svc.UpdateProfile(r.Context(), caller, patch); err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Updated())
}

type roleResponse struct {
	Role model.Role `json:"role"`
}

// HTTP: GET /users/{email}/role
func (h *UserHandler) HandleGetRole(w http.ResponseWriter, r *http.Request) {
	email, err := pathID(r, "email")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	role, err := h.svc.RoleOf(r.Context(), email)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roleResponse{Role: role})
}

// HTTP: PATCH /users/role/{id}
// REQUEST BODY: {"role": "Moderator"}
func (h *UserHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var body struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.svc.UpdateRole(r.Context(), id, body.Role); err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Updated())
}

// HTTP: DELETE /users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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
