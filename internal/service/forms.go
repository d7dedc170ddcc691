package service

import (
	"context"
	"strings"

	"github.com/Shivanand-hulikatti/school-portal/internal/apperr"
	"github.com/Shivanand-hulikatti/school-portal/internal/auth"
	"github.com/Shivanand-hulikatti/school-portal/internal/crm"
	"github.com/Shivanand-hulikatti/school-portal/internal/logger"
	"github.com/Shivanand-hulikatti/school-portal/internal/model"
)

// FormStore persists dynamic forms and their submissions.
type FormStore interface {
	Create(ctx context.Context, f *model.Form) (*model.Form, error)
	GetActiveBySlug(ctx context.Context, slug string) (*model.Form, error)
	CreateSubmission(ctx context.Context, s *model.FormSubmission) (*model.FormSubmission, error)
}

// ContactFinder resolves the CRM contact behind a submission.
type ContactFinder interface {
	FindOrCreate(ctx context.Context, c *model.Contact) (*model.Contact, error)
}

// FormService manages admin-defined forms and public submissions.
type FormService struct {
	forms    FormStore
	contacts ContactFinder
	Common
}

// NewFormService constructs a FormService.
func NewFormService(forms FormStore, contacts ContactFinder, common Common) *FormService {
	return &FormService{forms: forms, contacts: contacts, Common: common.withDefaults()}
}

// CreateForm stores a new form definition.
func (s *FormService) CreateForm(ctx context.Context, actor *auth.Principal, req model.CreateFormRequest) (*model.Form, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	if err := s.Validator.Struct(req); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(req.Schema.Fields))
	for i, f := range req.Schema.Fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return nil, apperr.Invalid("field %d has no name", i+1)
		}
		if seen[name] {
			return nil, apperr.Invalid("field %q is defined twice", name)
		}
		seen[name] = true
		req.Schema.Fields[i].Name = name
	}

	form, err := s.forms.Create(ctx, &model.Form{
		Slug:     req.Slug,
		Title:    strings.TrimSpace(req.Title),
		Schema:   req.Schema,
		IsActive: req.IsActive,
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "form.create", "forms", form.ID, map[string]any{"slug": form.Slug})
	return form, nil
}

// GetForm returns an active form by slug.
func (s *FormService) GetForm(ctx context.Context, slug string) (*model.Form, error) {
	return s.forms.GetActiveBySlug(ctx, strings.ToLower(slug))
}

// Submit checks the answers against the form's required fields, links the
// submission to a CRM contact when an email is given, and stores it.
func (s *FormService) Submit(ctx context.Context, slug string, req model.SubmitFormRequest) (*model.FormSubmission, error) {
	form, err := s.forms.GetActiveBySlug(ctx, strings.ToLower(slug))
	if err != nil {
		return nil, err
	}
	if req.Data == nil {
		return nil, apperr.Invalid("data is required")
	}
	for _, f := range form.Schema.Fields {
		if f.Required && blank(req.Data[f.Name]) {
			label := f.Label
			if label == "" {
				label = f.Name
			}
			return nil, apperr.Invalid("Field %q is required", label)
		}
	}

	var contactID *string
	if email := strings.ToLower(strings.TrimSpace(stringField(req.Data, "email"))); email != "" {
		contact, err := s.contacts.FindOrCreate(ctx, &model.Contact{
			Email:     email,
			FirstName: optional(stringField(req.Data, "first_name", "firstName")),
			LastName:  optional(stringField(req.Data, "last_name", "lastName")),
			Phone:     optional(stringField(req.Data, "phone")),
			Status:    model.ContactLead,
			Source:    "form_" + form.Slug,
		})
		if err != nil {
			s.Log.Error("crm contact lookup failed", err, logger.Fields{"form": form.Slug})
		} else {
			contactID = &contact.ID
		}
		s.track(ctx, email, crm.FormSubmission, map[string]any{
			"form_slug":  form.Slug,
			"form_title": form.Title,
		})
	}

	return s.forms.CreateSubmission(ctx, &model.FormSubmission{
		FormID:    form.ID,
		Data:      req.Data,
		ContactID: contactID,
	})
}

// blank reports whether a submitted value counts as missing.
func blank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case bool:
		return !x
	case []any:
		return len(x) == 0
	default:
		return false
	}
}

// stringField returns the first of keys holding a non-empty string.
func stringField(data map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := data[k].(string); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
