// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"

	"github.com/Shivanand-hulikatti/school-portal/internal/apperr"
	"github.com/Shivanand-hulikatti/school-portal/internal/auth"
	"github.com/Shivanand-hulikatti/school-portal/internal/crm"
	"github.com/Shivanand-hulikatti/school-portal/internal/logger"
	"github.com/Shivanand-hulikatti/school-portal/internal/model"
	"github.com/Shivanand-hulikatti/school-portal/internal/notify"
	"github.com/Shivanand-hulikatti/school-portal/internal/repository"
	"github.com/Shivanand-hulikatti/school-portal/internal/telemetry"
	"github.com/Shivanand-hulikatti/school-portal/internal/validate"
)

// EventStore persists events.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) (*model.Event, error)
	ListPublished(ctx context.Context, f model.EventFilter) ([]model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	Delete(ctx context.Context, id string) error
}

// RegistrationStore persists registrations. Admit must run the decision and
// the insert atomically with respect to other admissions for the same event.
type RegistrationStore interface {
	Admit(ctx context.Context, eventID string, decide repository.AdmitFunc) (*model.Registration, error)
	ActiveByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
	ListByUser(ctx context.Context, userID string) ([]model.Registration, error)
	GetByID(ctx context.Context, id string) (*model.Registration, error)
	Cancel(ctx context.Context, id string) (*model.Registration, error)
	SetPaymentIntent(ctx context.Context, id, paymentIntentID string) error
	MarkPaid(ctx context.Context, paymentIntentID string) (*model.Registration, error)
}

// StudentDirectory resolves students and the family a parent belongs to.
type StudentDirectory interface {
	FamilyByUser(ctx context.Context, userID string) (*model.Family, error)
	Student(ctx context.Context, id string) (*model.Student, error)
}

// ProfileStore persists parent profiles, families and students.
// Implemented by *repository.ProfileRepository.
type ProfileStore interface {
	StudentDirectory
	GetUser(ctx context.Context, id string) (*model.UserProfile, error)
	UpsertUser(ctx context.Context, u *model.UserProfile) (*model.UserProfile, error)
	CreateFamily(ctx context.Context, f *model.Family) (*model.Family, error)
	UpdateFamily(ctx context.Context, f *model.Family) error
	Students(ctx context.Context, familyID string) ([]model.Student, error)
	CreateStudent(ctx context.Context, st *model.Student) (*model.Student, error)
	UpdateStudent(ctx context.Context, st *model.Student) error
	DeleteStudent(ctx context.Context, id string) error
}

// AuditLog records administrative changes.
type AuditLog interface {
	Record(ctx context.Context, e *model.AuditEntry) error
}

// Tracker records CRM interactions. Implemented by *crm.Tracker.
type Tracker interface {
	Track(ctx context.Context, email string, typ crm.InteractionType, details map[string]any) (*model.Contact, error)
	UpsertFromBooking(ctx context.Context, email, name string, phone *string) (*model.Contact, error)
}

// Common carries the collaborators every service shares. Zero values are
// replaced with working defaults.
type Common struct {
	Log       logger.Logger
	Validator *validate.Validator
	Audit     AuditLog
	Tracker   Tracker
	Publisher notify.Publisher
	Metrics   *telemetry.Metrics
	// Currency is reported with amounts in notifications.
	Currency string
}

func (c Common) withDefaults() Common {
	if c.Log == nil {
		c.Log = logger.Nop{}
	}
	if c.Validator == nil {
		c.Validator = validate.New()
	}
	if c.Audit == nil {
		c.Audit = discardAudit{}
	}
	if c.Publisher == nil {
		c.Publisher = notify.Nop{}
	}
	return c
}

type discardAudit struct{}

func (discardAudit) Record(context.Context, *model.AuditEntry) error { return nil }

// record writes an audit entry. A failed write is logged and does not undo
// the change it describes.
func (c Common) record(ctx context.Context, actor *auth.Principal, action, table, id string, changes map[string]any) {
	entry := &model.AuditEntry{
		ActorID:     actor.UserID,
		Action:      action,
		TargetTable: table,
		TargetID:    id,
		Changes:     changes,
	}
	if err := c.Audit.Record(ctx, entry); err != nil {
		c.Log.Error("audit log write failed", err, logger.Fields{"action": action, "target_id": id})
	}
}

// track records a CRM interaction without failing the caller.
func (c Common) track(ctx context.Context, email string, typ crm.InteractionType, details map[string]any) {
	if c.Tracker == nil || email == "" {
		return
	}
	if _, err := c.Tracker.Track(ctx, email, typ, details); err != nil {
		c.Log.Error("crm tracking failed", err, logger.Fields{"type": typ})
		return
	}
	c.Metrics.InteractionTracked(ctx, string(typ))
}

// publish sends a notification without failing the caller.
func (c Common) publish(ctx context.Context, msg notify.Message) {
	if err := c.Publisher.Publish(ctx, msg); err != nil {
		c.Log.Error("publish notification failed", err, logger.Fields{"kind": msg.Kind, "reference_id": msg.ReferenceID})
	}
}

func requireActor(actor *auth.Principal) error {
	if actor == nil {
		return apperr.ErrUnauthorized
	}
	return nil
}
