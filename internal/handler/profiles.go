package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/school-portal/internal/auth"
	"github.com/Shivanand-hulikatti/school-portal/internal/logger"
	"github.com/Shivanand-hulikatti/school-portal/internal/model"
	"github.com/Shivanand-hulikatti/school-portal/internal/service"
)

// ProfileService manages the caller's parent-portal profile.
type ProfileService interface {
	Profile(ctx context.Context, actor *auth.Principal) (*service.Profile, error)
	UpdateUser(ctx context.Context, actor *auth.Principal, req model.UserProfileRequest) (*model.UserProfile, error)
	UpdateFamily(ctx context.Context, actor *auth.Principal, req model.FamilyRequest) (*model.Family, error)
	CreateStudent(ctx context.Context, actor *auth.Principal, req model.StudentRequest) (*model.Student, error)
	UpdateStudent(ctx context.Context, actor *auth.Principal, id string, req model.StudentRequest) (*model.Student, error)
	DeleteStudent(ctx context.Context, actor *auth.Principal, id string) error
}

// ProfileHandler serves /profile.
type ProfileHandler struct {
	svc ProfileService
	base
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(svc ProfileService, log logger.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, base: base{log: log}}
}

// GetProfile handles GET /profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Profile(r.Context(), principal(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateUser handles PUT /profile/user
func (h *ProfileHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req model.UserProfileRequest
	if !h.bind(w, r, &req) {
		return
	}
	user, err := h.svc.UpdateUser(r.Context(), principal(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

// UpdateFamily handles PUT /profile/family
func (h *ProfileHandler) UpdateFamily(w http.ResponseWriter, r *http.Request) {
	var req model.FamilyRequest
	if !h.bind(w, r, &req) {
		return
	}
	family, err := h.svc.UpdateFamily(r.Context(), principal(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "family": family})
}

// CreateStudent handles POST /profile/students
func (h *ProfileHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req model.StudentRequest
	if !h.bind(w, r, &req) {
		return
	}
	student, err := h.svc.CreateStudent(r.Context(), principal(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"student": student})
}

// UpdateStudent handles PUT /profile/students/{id}
func (h *ProfileHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	var req model.StudentRequest
	if !h.bind(w, r, &req) {
		return
	}
	student, err := h.svc.UpdateStudent(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"student": student})
}

// DeleteStudent handles DELETE /profile/students/{id}
func (h *ProfileHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteStudent(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
