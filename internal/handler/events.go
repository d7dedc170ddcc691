package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/school-portal/internal/auth"
	"github.com/Shivanand-hulikatti/school-portal/internal/capacity"
	"github.com/Shivanand-hulikatti/school-portal/internal/logger"
	"github.com/Shivanand-hulikatti/school-portal/internal/model"
	"github.com/Shivanand-hulikatti/school-portal/internal/service"
)

// EventService is the event and registration behaviour the handlers use.
type EventService interface {
	CreateEvent(ctx context.Context, actor *auth.Principal, req model.CreateEventRequest) (*model.Event, error)
	ListEvents(ctx context.Context, f model.EventFilter) ([]model.Event, error)
	GetEvent(ctx context.Context, actor *auth.Principal, id string) (*service.EventDetail, error)
	Availability(ctx context.Context, actor *auth.Principal, id string) (capacity.Occupancy, error)
	UpdateEvent(ctx context.Context, actor *auth.Principal, id string, req model.UpdateEventRequest) (*model.Event, error)
	DeleteEvent(ctx context.Context, actor *auth.Principal, id string) error
	Register(ctx context.Context, actor *auth.Principal, eventID string, req model.RegisterRequest) (*model.Registration, error)
	ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error)
	MyRegistrations(ctx context.Context, actor *auth.Principal) ([]model.Registration, error)
	CancelRegistration(ctx context.Context, actor *auth.Principal, id string) (*model.Registration, error)
}

// EventHandler holds the HTTP handlers for events and registrations.
type EventHandler struct {
	svc EventService
	base
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc EventService, log logger.Logger) *EventHandler {
	return &EventHandler{svc: svc, base: base{log: log}}
}

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if !h.bind(w, r, &req) {
		return
	}
	event, err := h.svc.CreateEvent(r.Context(), principal(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events?type=&startDate=&endDate=
// Dates are YYYY-MM-DD; endDate covers the whole day.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.EventFilter{Type: q.Get("type")}
	if v := q.Get("startDate"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
			return
		}
		filter.StartFrom = &t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "endDate must be YYYY-MM-DD")
			return
		}
		t = t.Add(24*time.Hour - time.Nanosecond)
		filter.StartTo = &t
	}

	events, err := h.svc.ListEvents(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Availability handles GET /events/{id}/availability
func (h *EventHandler) Availability(w http.ResponseWriter, r *http.Request) {
	occ, err := h.svc.Availability(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, occ)
}

// UpdateEvent handles PUT /events/{id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateEventRequest
	if !h.bind(w, r, &req) {
		return
	}
	event, err := h.svc.UpdateEvent(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /events/{id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEvent(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Register handles POST /events/{id}/register
// An empty body registers one attendee.
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reg, err := h.svc.Register(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// ListRegistrations handles GET /events/{id}/registrations
func (h *EventHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.svc.ListRegistrations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, regs)
}

// MyRegistrations handles GET /portal/registrations
func (h *EventHandler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.svc.MyRegistrations(r.Context(), principal(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, regs)
}

// CancelRegistration handles POST /registrations/{id}/cancel
func (h *EventHandler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	reg, err := h.svc.CancelRegistration(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}
