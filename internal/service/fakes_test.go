package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Shivanand-hulikatti/school-portal/internal/apperr"
	"github.com/Shivanand-hulikatti/school-portal/internal/crm"
	"github.com/Shivanand-hulikatti/school-portal/internal/model"
	"github.com/Shivanand-hulikatti/school-portal/internal/notify"
	"github.com/Shivanand-hulikatti/school-portal/internal/payment"
	"github.com/Shivanand-hulikatti/school-portal/internal/repository"
)

// memStore keeps events and registrations in memory. Admit holds a single
// lock for the whole decision, like the row lock taken by the real store.
type memStore struct {
	mu     sync.Mutex
	seq    int
	events map[string]*model.Event
	regs   map[string]*model.Registration
}

func newMemStore(events ...*model.Event) *memStore {
	s := &memStore{events: map[string]*model.Event{}, regs: map[string]*model.Registration{}}
	for _, e := range events {
		s.events[e.ID] = e
	}
	return s
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memStore) Create(_ context.Context, e *model.Event) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.events {
		if existing.Slug == e.Slug {
			return nil, apperr.Conflict("slug taken")
		}
	}
	e.ID = s.nextID("evt")
	cp := *e
	s.events[e.ID] = &cp
	return e, nil
}

func (s *memStore) ListPublished(_ context.Context, f model.EventFilter) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Event
	for _, e := range s.events {
		if e.IsPublished && (f.Type == "" || f.Type == e.Type) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, apperr.NotFound("event")
	}
	cp := *e
	return &cp, nil
}

func (s *memStore) Update(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; !ok {
		return apperr.NotFound("event")
	}
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return apperr.NotFound("event")
	}
	delete(s.events, id)
	return nil
}

// registrations returns a RegistrationStore view of the same data.
func (s *memStore) registrations() *memRegistrations { return (*memRegistrations)(s) }

type memRegistrations memStore

func (r *memRegistrations) Admit(_ context.Context, eventID string, decide repository.AdmitFunc) (*model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[eventID]
	if !ok {
		return nil, apperr.NotFound("event")
	}
	active := r.activeLocked(eventID)
	reg, err := decide(e, active)
	if err != nil {
		return nil, err
	}
	reg.ID = (*memStore)(r).nextID("reg")
	reg.EventID = eventID
	reg.CreatedAt = time.Now()
	cp := *reg
	r.regs[reg.ID] = &cp
	return reg, nil
}

func (r *memRegistrations) activeLocked(eventID string) []model.Registration {
	var out []model.Registration
	for _, reg := range r.regs {
		if reg.EventID == eventID && reg.Status.Counts() {
			out = append(out, *reg)
		}
	}
	return out
}

func (r *memRegistrations) ActiveByEvent(_ context.Context, eventID string) ([]model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeLocked(eventID), nil
}

func (r *memRegistrations) ListByEvent(_ context.Context, eventID string) ([]model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Registration
	for _, reg := range r.regs {
		if reg.EventID == eventID {
			out = append(out, *reg)
		}
	}
	return out, nil
}

func (r *memRegistrations) ListByUser(_ context.Context, userID string) ([]model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Registration
	for _, reg := range r.regs {
		if reg.UserID == userID {
			out = append(out, *reg)
		}
	}
	return out, nil
}

func (r *memRegistrations) GetByID(_ context.Context, id string) (*model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	if !ok {
		return nil, apperr.NotFound("registration")
	}
	cp := *reg
	return &cp, nil
}

func (r *memRegistrations) Cancel(_ context.Context, id string) (*model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	if !ok || reg.Status == model.RegistrationCancelled {
		return nil, apperr.Conflict("registration is already cancelled")
	}
	reg.Status = model.RegistrationCancelled
	cp := *reg
	return &cp, nil
}

func (r *memRegistrations) SetPaymentIntent(_ context.Context, id, paymentIntentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	if !ok || reg.Status != model.RegistrationPending {
		return apperr.Conflict("registration is not awaiting payment")
	}
	reg.PaymentIntentID = &paymentIntentID
	return nil
}

func (r *memRegistrations) MarkPaid(_ context.Context, paymentIntentID string) (*model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.regs {
		if reg.PaymentIntentID != nil && *reg.PaymentIntentID == paymentIntentID && reg.Status == model.RegistrationPending {
			reg.Status = model.RegistrationPaid
			cp := *reg
			return &cp, nil
		}
	}
	return nil, nil
}

// seed stores a registration directly.
func (s *memStore) seed(reg model.Registration) *model.Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reg.ID == "" {
		reg.ID = s.nextID("reg")
	}
	s.regs[reg.ID] = &reg
	return &reg
}

type mockAudit struct{ mock.Mock }

func (m *mockAudit) Record(ctx context.Context, e *model.AuditEntry) error {
	return m.Called(ctx, e).Error(0)
}

type mockTracker struct{ mock.Mock }

func (m *mockTracker) Track(ctx context.Context, email string, typ crm.InteractionType, details map[string]any) (*model.Contact, error) {
	args := m.Called(ctx, email, typ, details)
	c, _ := args.Get(0).(*model.Contact)
	return c, args.Error(1)
}

func (m *mockTracker) UpsertFromBooking(ctx context.Context, email, name string, phone *string) (*model.Contact, error) {
	args := m.Called(ctx, email, name, phone)
	c, _ := args.Get(0).(*model.Contact)
	return c, args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, msg notify.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type mockGateway struct{ mock.Mock }

func (m *mockGateway) CreateIntent(ctx context.Context, registrationID string, amountCents int64, email string) (*payment.Intent, error) {
	args := m.Called(ctx, registrationID, amountCents, email)
	i, _ := args.Get(0).(*payment.Intent)
	return i, args.Error(1)
}

func (m *mockGateway) ParseWebhook(payload []byte, signature string) (*payment.Succeeded, error) {
	args := m.Called(payload, signature)
	s, _ := args.Get(0).(*payment.Succeeded)
	return s, args.Error(1)
}

// Mocks whose store methods echo their input return it when the
// expectation is set up with Return(nil, nil).

type mockBookingStore struct{ mock.Mock }

func (m *mockBookingStore) Create(ctx context.Context, b *model.Booking) (*model.Booking, error) {
	args := m.Called(ctx, b)
	if fn, ok := args.Get(0).(func(context.Context, *model.Booking) *model.Booking); ok {
		return fn(ctx, b), args.Error(1)
	}
	out, _ := args.Get(0).(*model.Booking)
	return out, args.Error(1)
}

type mockFormStore struct{ mock.Mock }

func (m *mockFormStore) Create(ctx context.Context, f *model.Form) (*model.Form, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil && args.Error(1) == nil {
		return f, nil
	}
	out, _ := args.Get(0).(*model.Form)
	return out, args.Error(1)
}

func (m *mockFormStore) GetActiveBySlug(ctx context.Context, slug string) (*model.Form, error) {
	args := m.Called(ctx, slug)
	out, _ := args.Get(0).(*model.Form)
	return out, args.Error(1)
}

func (m *mockFormStore) CreateSubmission(ctx context.Context, s *model.FormSubmission) (*model.FormSubmission, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil && args.Error(1) == nil {
		return s, nil
	}
	out, _ := args.Get(0).(*model.FormSubmission)
	return out, args.Error(1)
}

type mockContacts struct{ mock.Mock }

func (m *mockContacts) FindOrCreate(ctx context.Context, c *model.Contact) (*model.Contact, error) {
	args := m.Called(ctx, c)
	out, _ := args.Get(0).(*model.Contact)
	return out, args.Error(1)
}

func (m *mockContacts) Create(ctx context.Context, c *model.Contact) (*model.Contact, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil && args.Error(1) == nil {
		return c, nil
	}
	out, _ := args.Get(0).(*model.Contact)
	return out, args.Error(1)
}

func (m *mockContacts) List(ctx context.Context, f model.ContactFilter) ([]model.Contact, error) {
	args := m.Called(ctx, f)
	out, _ := args.Get(0).([]model.Contact)
	return out, args.Error(1)
}

func (m *mockContacts) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*model.Contact)
	return out, args.Error(1)
}

func (m *mockContacts) Update(ctx context.Context, c *model.Contact) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockContacts) Interactions(ctx context.Context, contactID string) ([]model.Interaction, error) {
	args := m.Called(ctx, contactID)
	out, _ := args.Get(0).([]model.Interaction)
	return out, args.Error(1)
}

func (m *mockContacts) AddNote(ctx context.Context, n *model.Note) (*model.Note, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil && args.Error(1) == nil {
		return n, nil
	}
	out, _ := args.Get(0).(*model.Note)
	return out, args.Error(1)
}

func (m *mockContacts) Notes(ctx context.Context, contactID string) ([]model.Note, error) {
	args := m.Called(ctx, contactID)
	out, _ := args.Get(0).([]model.Note)
	return out, args.Error(1)
}

// memProfiles keeps users, families and students in memory.
type memProfiles struct {
	mu       sync.Mutex
	seq      int
	users    map[string]*model.UserProfile
	families map[string]*model.Family
	students map[string]*model.Student
}

func newMemProfiles() *memProfiles {
	return &memProfiles{
		users:    map[string]*model.UserProfile{},
		families: map[string]*model.Family{},
		students: map[string]*model.Student{},
	}
}

func (p *memProfiles) nextID(prefix string) string {
	p.seq++
	return fmt.Sprintf("%s-%d", prefix, p.seq)
}

// addFamily stores a family for userID with the named students.
func (p *memProfiles) addFamily(userID string, names ...string) (*model.Family, []model.Student) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f := &model.Family{ID: p.nextID("fam"), PrimaryUserID: userID}
	p.families[f.ID] = f
	var out []model.Student
	for _, n := range names {
		st := &model.Student{ID: p.nextID("stu"), FamilyID: f.ID, Name: n, DOB: "2016-04-01"}
		p.students[st.ID] = st
		out = append(out, *st)
	}
	return f, out
}

func (p *memProfiles) GetUser(_ context.Context, id string) (*model.UserProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	cp := *u
	return &cp, nil
}

func (p *memProfiles) UpsertUser(_ context.Context, u *model.UserProfile) (*model.UserProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := *u
	p.users[u.ID] = &cp
	return u, nil
}

func (p *memProfiles) FamilyByUser(_ context.Context, userID string) (*model.Family, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, f := range p.families {
		if f.HasMember(userID) {
			cp := *f
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("family")
}

func (p *memProfiles) CreateFamily(_ context.Context, f *model.Family) (*model.Family, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f.ID = p.nextID("fam")
	cp := *f
	p.families[f.ID] = &cp
	return f, nil
}

func (p *memProfiles) UpdateFamily(_ context.Context, f *model.Family) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.families[f.ID]; !ok {
		return apperr.NotFound("family")
	}
	cp := *f
	p.families[f.ID] = &cp
	return nil
}

func (p *memProfiles) Students(_ context.Context, familyID string) ([]model.Student, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []model.Student
	for _, st := range p.students {
		if st.FamilyID == familyID {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (p *memProfiles) Student(_ context.Context, id string) (*model.Student, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.students[id]
	if !ok {
		return nil, apperr.NotFound("student")
	}
	cp := *st
	return &cp, nil
}

func (p *memProfiles) CreateStudent(_ context.Context, st *model.Student) (*model.Student, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st.ID = p.nextID("stu")
	cp := *st
	p.students[st.ID] = &cp
	return st, nil
}

func (p *memProfiles) UpdateStudent(_ context.Context, st *model.Student) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.students[st.ID]; !ok {
		return apperr.NotFound("student")
	}
	cp := *st
	p.students[st.ID] = &cp
	return nil
}

func (p *memProfiles) DeleteStudent(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.students[id]; !ok {
		return apperr.NotFound("student")
	}
	delete(p.students, id)
	return nil
}
