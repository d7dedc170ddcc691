package crm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/school-portal/internal/apperr"
	"github.com/Shivanand-hulikatti/school-portal/internal/model"
)

// memStore is a map-backed Store.
type memStore struct {
	contacts     map[string]*model.Contact
	interactions []model.Interaction
	nextID       int
}

func newMemStore() *memStore {
	return &memStore{contacts: map[string]*model.Contact{}}
}

func (s *memStore) FindOrCreate(_ context.Context, c *model.Contact) (*model.Contact, error) {
	if existing, ok := s.contacts[c.Email]; ok {
		cp := *existing
		return &cp, nil
	}
	s.nextID++
	stored := *c
	stored.ID = string(rune('a' + s.nextID))
	s.contacts[c.Email] = &stored
	cp := stored
	return &cp, nil
}

func (s *memStore) UpsertProspect(_ context.Context, c *model.Contact) (*model.Contact, error) {
	existing, ok := s.contacts[c.Email]
	if !ok {
		s.nextID++
		stored := *c
		stored.ID = string(rune('a' + s.nextID))
		s.contacts[c.Email] = &stored
		cp := stored
		return &cp, nil
	}
	existing.FirstName, existing.LastName, existing.Phone = c.FirstName, c.LastName, c.Phone
	if existing.Status == model.ContactLead {
		existing.Status = model.ContactProspect
	}
	cp := *existing
	return &cp, nil
}

func (s *memStore) AddInteraction(_ context.Context, in *model.Interaction) error {
	s.interactions = append(s.interactions, *in)
	return nil
}

func (s *memStore) AddScore(_ context.Context, contactID string, delta int) (int, error) {
	for _, c := range s.contacts {
		if c.ID == contactID {
			c.EngagementScore += delta
			return c.EngagementScore, nil
		}
	}
	return 0, apperr.NotFound("contact")
}

func TestScoreIncrement(t *testing.T) {
	tests := map[InteractionType]int{
		FormSubmission:    10,
		TourBooking:       20,
		EventRegistration: 15,
		EmailOpen:         2,
		PageVisit:         1,
		"newsletter":      1,
	}
	for typ, want := range tests {
		assert.Equal(t, want, ScoreIncrement(typ), string(typ))
	}
}

func TestAccumulate_NeverDecreases(t *testing.T) {
	seq := []InteractionType{PageVisit, EmailOpen, "unknown", FormSubmission, TourBooking, EventRegistration, PageVisit}
	score := 0
	for _, typ := range seq {
		next := Accumulate(score, typ)
		assert.Greater(t, next, score)
		score = next
	}
	assert.Equal(t, 1+2+1+10+20+15+1, score)
}

func TestTracker_Track_FreshContact(t *testing.T) {
	store := newMemStore()
	tr := NewTracker(store)
	ctx := context.Background()

	c, err := tr.Track(ctx, "Parent@Example.com ", FormSubmission, map[string]any{"form_slug": "enquiry"})
	require.NoError(t, err)
	assert.Equal(t, 10, c.EngagementScore)
	assert.Equal(t, model.ContactLead, c.Status)
	assert.Equal(t, "form_submission", c.Source)

	c, err = tr.Track(ctx, "parent@example.com", TourBooking, nil)
	require.NoError(t, err)
	assert.Equal(t, 30, c.EngagementScore)

	assert.Len(t, store.contacts, 1, "same email must resolve to one contact")
	require.Len(t, store.interactions, 2)
	assert.Equal(t, "tour_booking", store.interactions[1].Type)
	assert.NotNil(t, store.interactions[1].Details)
}

func TestTracker_Track_RequiresEmail(t *testing.T) {
	tr := NewTracker(newMemStore())
	_, err := tr.Track(context.Background(), "  ", PageVisit, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindOrCreate(ctx context.Context, c *model.Contact) (*model.Contact, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contact), args.Error(1)
}

func (m *mockStore) UpsertProspect(ctx context.Context, c *model.Contact) (*model.Contact, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contact), args.Error(1)
}

func (m *mockStore) AddInteraction(ctx context.Context, in *model.Interaction) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockStore) AddScore(ctx context.Context, contactID string, delta int) (int, error) {
	args := m.Called(ctx, contactID, delta)
	return args.Int(0), args.Error(1)
}

func TestTracker_Track_InteractionFailureSkipsScore(t *testing.T) {
	store := new(mockStore)
	store.On("FindOrCreate", mock.Anything, mock.Anything).Return(&model.Contact{ID: "c1", Email: "a@b.co"}, nil)
	store.On("AddInteraction", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	_, err := NewTracker(store).Track(context.Background(), "a@b.co", EmailOpen, nil)
	require.Error(t, err)
	store.AssertNotCalled(t, "AddScore", mock.Anything, mock.Anything, mock.Anything)
}

func TestTracker_UpsertFromBooking_SplitsName(t *testing.T) {
	store := new(mockStore)
	store.On("UpsertProspect", mock.Anything, mock.MatchedBy(func(c *model.Contact) bool {
		return c.Email == "jo@example.com" &&
			*c.FirstName == "Jo" && *c.LastName == "Ann Smith" &&
			c.Status == model.ContactProspect && c.Source == "tour_booking"
	})).Return(&model.Contact{ID: "c1"}, nil)

	_, err := NewTracker(store).UpsertFromBooking(context.Background(), "JO@example.com", "Jo  Ann Smith", nil)
	require.NoError(t, err)
	store.AssertExpectations(t)
}
