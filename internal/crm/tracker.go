package crm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/school-portal/internal/apperr"
	"github.com/Shivanand-hulikatti/school-portal/internal/model"
)

// Store is the persistence the tracker needs.
type Store interface {
	// FindOrCreate returns the contact with c.Email, inserting c when none exists.
	FindOrCreate(ctx context.Context, c *model.Contact) (*model.Contact, error)
	// UpsertProspect creates or refreshes the contact with the booking details.
	UpsertProspect(ctx context.Context, c *model.Contact) (*model.Contact, error)
	AddInteraction(ctx context.Context, in *model.Interaction) error
	// AddScore adds delta to the stored score and returns the new total.
	AddScore(ctx context.Context, contactID string, delta int) (int, error)
}

// Tracker records interactions against contacts.
type Tracker struct {
	store Store
	now   func() time.Time
}

// NewTracker constructs a Tracker.
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Track finds or creates the contact for email, appends the interaction and
// bumps the engagement score. The returned contact carries the new score.
func (t *Tracker) Track(ctx context.Context, email string, typ InteractionType, details map[string]any) (*model.Contact, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, apperr.Invalid("email is required")
	}

	contact, err := t.store.FindOrCreate(ctx, &model.Contact{
		Email:  email,
		Status: model.ContactLead,
		Source: string(typ),
	})
	if err != nil {
		return nil, fmt.Errorf("find contact: %w", err)
	}

	if details == nil {
		details = map[string]any{}
	}
	if err := t.store.AddInteraction(ctx, &model.Interaction{
		ContactID:  contact.ID,
		Type:       string(typ),
		Details:    details,
		OccurredAt: t.now(),
	}); err != nil {
		return nil, fmt.Errorf("record interaction: %w", err)
	}

	score, err := t.store.AddScore(ctx, contact.ID, ScoreIncrement(typ))
	if err != nil {
		return nil, fmt.Errorf("update engagement score: %w", err)
	}
	contact.EngagementScore = score
	return contact, nil
}

// UpsertFromBooking marks the family behind a tour booking as a prospect.
func (t *Tracker) UpsertFromBooking(ctx context.Context, email, name string, phone *string) (*model.Contact, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, apperr.Invalid("email is required")
	}
	first, last := splitName(name)
	return t.store.UpsertProspect(ctx, &model.Contact{
		Email:     email,
		FirstName: first,
		LastName:  last,
		Phone:     phone,
		Status:    model.ContactProspect,
		Source:    string(TourBooking),
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func splitName(name string) (first, last *string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return nil, nil
	}
	f := parts[0]
	if len(parts) == 1 {
		return &f, nil
	}
	l := strings.Join(parts[1:], " ")
	return &f, &l
}
