package service

import (
	"context"
	"strings"

	"github.com/Shivanand-hulikatti/school-portal/internal/auth"
	"github.com/Shivanand-hulikatti/school-portal/internal/model"
)

// ContactStore persists CRM contacts, interactions and notes.
type ContactStore interface {
	Create(ctx context.Context, c *model.Contact) (*model.Contact, error)
	List(ctx context.Context, f model.ContactFilter) ([]model.Contact, error)
	GetByID(ctx context.Context, id string) (*model.Contact, error)
	Update(ctx context.Context, c *model.Contact) error
	Interactions(ctx context.Context, contactID string) ([]model.Interaction, error)
	AddNote(ctx context.Context, n *model.Note) (*model.Note, error)
	Notes(ctx context.Context, contactID string) ([]model.Note, error)
}

// ContactDetail is a contact with its history.
type ContactDetail struct {
	Contact      *model.Contact      `json:"contact"`
	Interactions []model.Interaction `json:"interactions"`
	Notes        []model.Note        `json:"notes"`
}

// CRMService backs the admissions back-office.
type CRMService struct {
	contacts ContactStore
	Common
}

// NewCRMService constructs a CRMService.
func NewCRMService(contacts ContactStore, common Common) *CRMService {
	return &CRMService{contacts: contacts, Common: common.withDefaults()}
}

// ListContacts returns contacts matching f.
func (s *CRMService) ListContacts(ctx context.Context, f model.ContactFilter) ([]model.Contact, error) {
	f.Search = strings.TrimSpace(f.Search)
	contacts, err := s.contacts.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	return contacts, nil
}

// CreateContact adds a contact by hand.
func (s *CRMService) CreateContact(ctx context.Context, actor *auth.Principal, req model.ContactRequest) (*model.Contact, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.Validator.Struct(req); err != nil {
		return nil, err
	}
	status := model.ContactStatus(req.Status)
	if status == "" {
		status = model.ContactLead
	}
	contact, err := s.contacts.Create(ctx, &model.Contact{
		Email:         req.Email,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Phone:         req.Phone,
		Status:        status,
		Source:        req.Source,
		GradeInterest: req.GradeInterest,
		Tags:          req.Tags,
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "crm_contact.create", "crm_contacts", contact.ID, map[string]any{
		"email":  contact.Email,
		"status": contact.Status,
	})
	return contact, nil
}

// GetContact returns a contact with its interactions and notes, newest first.
func (s *CRMService) GetContact(ctx context.Context, id string) (*ContactDetail, error) {
	contact, err := s.contacts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	interactions, err := s.contacts.Interactions(ctx, contact.ID)
	if err != nil {
		return nil, err
	}
	notes, err := s.contacts.Notes(ctx, contact.ID)
	if err != nil {
		return nil, err
	}
	if interactions == nil {
		interactions = []model.Interaction{}
	}
	if notes == nil {
		notes = []model.Note{}
	}
	return &ContactDetail{Contact: contact, Interactions: interactions, Notes: notes}, nil
}

// UpdateContact applies the non-nil fields of req.
func (s *CRMService) UpdateContact(ctx context.Context, actor *auth.Principal, id string, req model.ContactUpdateRequest) (*model.Contact, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.Validator.Struct(req); err != nil {
		return nil, err
	}
	contact, err := s.contacts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if req.FirstName != nil {
		contact.FirstName = req.FirstName
		changes["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		contact.LastName = req.LastName
		changes["last_name"] = *req.LastName
	}
	if req.Phone != nil {
		contact.Phone = req.Phone
		changes["phone"] = *req.Phone
	}
	if req.Status != nil {
		contact.Status = model.ContactStatus(*req.Status)
		changes["status"] = *req.Status
	}
	if req.GradeInterest != nil {
		contact.GradeInterest = req.GradeInterest
		changes["grade_interest"] = *req.GradeInterest
	}
	if req.Tags != nil {
		contact.Tags = *req.Tags
		changes["tags"] = *req.Tags
	}
	if req.OptedOut != nil {
		contact.OptedOut = *req.OptedOut
		changes["opted_out"] = *req.OptedOut
	}

	if err := s.contacts.Update(ctx, contact); err != nil {
		return nil, err
	}
	s.record(ctx, actor, "crm_contact.update", "crm_contacts", contact.ID, changes)
	return contact, nil
}

// AddNote attaches a staff note to a contact.
func (s *CRMService) AddNote(ctx context.Context, actor *auth.Principal, contactID string, req model.NoteRequest) (*model.Note, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	req.Note = strings.TrimSpace(req.Note)
	if err := s.Validator.Struct(req); err != nil {
		return nil, err
	}
	if _, err := s.contacts.GetByID(ctx, contactID); err != nil {
		return nil, err
	}
	return s.contacts.AddNote(ctx, &model.Note{
		ContactID: contactID,
		Body:      req.Note,
		CreatedBy: actor.UserID,
	})
}
