package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/school-portal/internal/auth"
	"github.com/Shivanand-hulikatti/school-portal/internal/logger"
	"github.com/Shivanand-hulikatti/school-portal/internal/model"
	"github.com/Shivanand-hulikatti/school-portal/internal/service"
)

// BookingService schedules campus tours.
type BookingService interface {
	Book(ctx context.Context, req model.BookingRequest) (*model.Booking, error)
}

// FormService manages dynamic forms.
type FormService interface {
	CreateForm(ctx context.Context, actor *auth.Principal, req model.CreateFormRequest) (*model.Form, error)
	GetForm(ctx context.Context, slug string) (*model.Form, error)
	Submit(ctx context.Context, slug string, req model.SubmitFormRequest) (*model.FormSubmission, error)
}

// CRMService is the admissions back-office.
type CRMService interface {
	ListContacts(ctx context.Context, f model.ContactFilter) ([]model.Contact, error)
	CreateContact(ctx context.Context, actor *auth.Principal, req model.ContactRequest) (*model.Contact, error)
	GetContact(ctx context.Context, id string) (*service.ContactDetail, error)
	UpdateContact(ctx context.Context, actor *auth.Principal, id string, req model.ContactUpdateRequest) (*model.Contact, error)
	AddNote(ctx context.Context, actor *auth.Principal, contactID string, req model.NoteRequest) (*model.Note, error)
}

// AdmissionsHandler serves tour bookings, forms and the CRM.
type AdmissionsHandler struct {
	bookings BookingService
	forms    FormService
	crm      CRMService
	base
}

// NewAdmissionsHandler constructs an AdmissionsHandler.
func NewAdmissionsHandler(bookings BookingService, forms FormService, crm CRMService, log logger.Logger) *AdmissionsHandler {
	return &AdmissionsHandler{bookings: bookings, forms: forms, crm: crm, base: base{log: log}}
}

// Book handles POST /bookings
func (h *AdmissionsHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req model.BookingRequest
	if !h.bind(w, r, &req) {
		return
	}
	booking, err := h.bookings.Book(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "booking": booking})
}

// CreateForm handles POST /forms
func (h *AdmissionsHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	var req model.CreateFormRequest
	if !h.bind(w, r, &req) {
		return
	}
	form, err := h.forms.CreateForm(r.Context(), principal(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, form)
}

// GetForm handles GET /forms/{slug}
func (h *AdmissionsHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.forms.GetForm(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// SubmitForm handles POST /forms/{slug}/submit
func (h *AdmissionsHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitFormRequest
	if !h.bind(w, r, &req) {
		return
	}
	sub, err := h.forms.Submit(r.Context(), chi.URLParam(r, "slug"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "submission": sub})
}

// ListContacts handles GET /crm/contacts?status=&source=&search=&tags=a,b
func (h *AdmissionsHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ContactFilter{
		Status: q.Get("status"),
		Source: q.Get("source"),
		Search: q.Get("search"),
	}
	for _, tag := range strings.Split(q.Get("tags"), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			filter.Tags = append(filter.Tags, tag)
		}
	}

	contacts, err := h.crm.ListContacts(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
}

// CreateContact handles POST /crm/contacts
func (h *AdmissionsHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req model.ContactRequest
	if !h.bind(w, r, &req) {
		return
	}
	contact, err := h.crm.CreateContact(r.Context(), principal(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

// GetContact handles GET /crm/contacts/{id}
func (h *AdmissionsHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	detail, err := h.crm.GetContact(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// UpdateContact handles PUT /crm/contacts/{id}
func (h *AdmissionsHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var req model.ContactUpdateRequest
	if !h.bind(w, r, &req) {
		return
	}
	contact, err := h.crm.UpdateContact(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// AddNote handles POST /crm/contacts/{id}/notes
func (h *AdmissionsHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req model.NoteRequest
	if !h.bind(w, r, &req) {
		return
	}
	note, err := h.crm.AddNote(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}
