package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Shivanand-hulikatti/school-portal/internal/auth"
	"github.com/Shivanand-hulikatti/school-portal/internal/capacity"
	"github.com/Shivanand-hulikatti/school-portal/internal/model"
	"github.com/Shivanand-hulikatti/school-portal/internal/payment"
	"github.com/Shivanand-hulikatti/school-portal/internal/service"
)

type mockEvents struct{ mock.Mock }

func (m *mockEvents) CreateEvent(ctx context.Context, actor *auth.Principal, req model.CreateEventRequest) (*model.Event, error) {
	args := m.Called(ctx, actor, req)
	e, _ := args.Get(0).(*model.Event)
	return e, args.Error(1)
}

func (m *mockEvents) ListEvents(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	args := m.Called(ctx, f)
	e, _ := args.Get(0).([]model.Event)
	return e, args.Error(1)
}

func (m *mockEvents) GetEvent(ctx context.Context, actor *auth.Principal, id string) (*service.EventDetail, error) {
	args := m.Called(ctx, actor, id)
	e, _ := args.Get(0).(*service.EventDetail)
	return e, args.Error(1)
}

func (m *mockEvents) Availability(ctx context.Context, actor *auth.Principal, id string) (capacity.Occupancy, error) {
	args := m.Called(ctx, actor, id)
	o, _ := args.Get(0).(capacity.Occupancy)
	return o, args.Error(1)
}

func (m *mockEvents) UpdateEvent(ctx context.Context, actor *auth.Principal, id string, req model.UpdateEventRequest) (*model.Event, error) {
	args := m.Called(ctx, actor, id, req)
	e, _ := args.Get(0).(*model.Event)
	return e, args.Error(1)
}

func (m *mockEvents) DeleteEvent(ctx context.Context, actor *auth.Principal, id string) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *mockEvents) Register(ctx context.Context, actor *auth.Principal, eventID string, req model.RegisterRequest) (*model.Registration, error) {
	args := m.Called(ctx, actor, eventID, req)
	r, _ := args.Get(0).(*model.Registration)
	return r, args.Error(1)
}

func (m *mockEvents) ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error) {
	args := m.Called(ctx, eventID)
	r, _ := args.Get(0).([]model.Registration)
	return r, args.Error(1)
}

func (m *mockEvents) MyRegistrations(ctx context.Context, actor *auth.Principal) ([]model.Registration, error) {
	args := m.Called(ctx, actor)
	r, _ := args.Get(0).([]model.Registration)
	return r, args.Error(1)
}

func (m *mockEvents) CancelRegistration(ctx context.Context, actor *auth.Principal, id string) (*model.Registration, error) {
	args := m.Called(ctx, actor, id)
	r, _ := args.Get(0).(*model.Registration)
	return r, args.Error(1)
}

type mockPayments struct{ mock.Mock }

func (m *mockPayments) CreateIntent(ctx context.Context, actor *auth.Principal, registrationID string) (*payment.Intent, error) {
	args := m.Called(ctx, actor, registrationID)
	i, _ := args.Get(0).(*payment.Intent)
	return i, args.Error(1)
}

func (m *mockPayments) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	return m.Called(ctx, payload, signature).Error(0)
}

type mockBookings struct{ mock.Mock }

func (m *mockBookings) Book(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	args := m.Called(ctx, req)
	b, _ := args.Get(0).(*model.Booking)
	return b, args.Error(1)
}

type mockForms struct{ mock.Mock }

func (m *mockForms) CreateForm(ctx context.Context, actor *auth.Principal, req model.CreateFormRequest) (*model.Form, error) {
	args := m.Called(ctx, actor, req)
	f, _ := args.Get(0).(*model.Form)
	return f, args.Error(1)
}

func (m *mockForms) GetForm(ctx context.Context, slug string) (*model.Form, error) {
	args := m.Called(ctx, slug)
	f, _ := args.Get(0).(*model.Form)
	return f, args.Error(1)
}

func (m *mockForms) Submit(ctx context.Context, slug string, req model.SubmitFormRequest) (*model.FormSubmission, error) {
	args := m.Called(ctx, slug, req)
	s, _ := args.Get(0).(*model.FormSubmission)
	return s, args.Error(1)
}

type mockCRM struct{ mock.Mock }

func (m *mockCRM) ListContacts(ctx context.Context, f model.ContactFilter) ([]model.Contact, error) {
	args := m.Called(ctx, f)
	c, _ := args.Get(0).([]model.Contact)
	return c, args.Error(1)
}

func (m *mockCRM) CreateContact(ctx context.Context, actor *auth.Principal, req model.ContactRequest) (*model.Contact, error) {
	args := m.Called(ctx, actor, req)
	c, _ := args.Get(0).(*model.Contact)
	return c, args.Error(1)
}

func (m *mockCRM) GetContact(ctx context.Context, id string) (*service.ContactDetail, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*service.ContactDetail)
	return c, args.Error(1)
}

func (m *mockCRM) UpdateContact(ctx context.Context, actor *auth.Principal, id string, req model.ContactUpdateRequest) (*model.Contact, error) {
	args := m.Called(ctx, actor, id, req)
	c, _ := args.Get(0).(*model.Contact)
	return c, args.Error(1)
}

func (m *mockCRM) AddNote(ctx context.Context, actor *auth.Principal, contactID string, req model.NoteRequest) (*model.Note, error) {
	args := m.Called(ctx, actor, contactID, req)
	n, _ := args.Get(0).(*model.Note)
	return n, args.Error(1)
}

type mockProfiles struct{ mock.Mock }

func (m *mockProfiles) Profile(ctx context.Context, actor *auth.Principal) (*service.Profile, error) {
	args := m.Called(ctx, actor)
	p, _ := args.Get(0).(*service.Profile)
	return p, args.Error(1)
}

func (m *mockProfiles) UpdateUser(ctx context.Context, actor *auth.Principal, req model.UserProfileRequest) (*model.UserProfile, error) {
	args := m.Called(ctx, actor, req)
	u, _ := args.Get(0).(*model.UserProfile)
	return u, args.Error(1)
}

func (m *mockProfiles) UpdateFamily(ctx context.Context, actor *auth.Principal, req model.FamilyRequest) (*model.Family, error) {
	args := m.Called(ctx, actor, req)
	f, _ := args.Get(0).(*model.Family)
	return f, args.Error(1)
}

func (m *mockProfiles) CreateStudent(ctx context.Context, actor *auth.Principal, req model.StudentRequest) (*model.Student, error) {
	args := m.Called(ctx, actor, req)
	s, _ := args.Get(0).(*model.Student)
	return s, args.Error(1)
}

func (m *mockProfiles) UpdateStudent(ctx context.Context, actor *auth.Principal, id string, req model.StudentRequest) (*model.Student, error) {
	args := m.Called(ctx, actor, id, req)
	s, _ := args.Get(0).(*model.Student)
	return s, args.Error(1)
}

func (m *mockProfiles) DeleteStudent(ctx context.Context, actor *auth.Principal, id string) error {
	return m.Called(ctx, actor, id).Error(0)
}
