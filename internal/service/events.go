package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Shivanand-hulikatti/school-portal/internal/apperr"
	"github.com/Shivanand-hulikatti/school-portal/internal/auth"
	"github.com/Shivanand-hulikatti/school-portal/internal/capacity"
	"github.com/Shivanand-hulikatti/school-portal/internal/crm"
	"github.com/Shivanand-hulikatti/school-portal/internal/model"
	"github.com/Shivanand-hulikatti/school-portal/internal/notify"
)

// EventDetail is an event together with its current occupancy.
type EventDetail struct {
	model.Event
	RegisteredCount int  `json:"registeredCount"`
	AvailableSpots  *int `json:"availableSpots"`
	IsFull          bool `json:"isFull"`
}

// EventService orchestrates event-related business operations.
type EventService struct {
	events        EventStore
	registrations RegistrationStore
	students      StudentDirectory
	Common
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(events EventStore, registrations RegistrationStore, students StudentDirectory, common Common) *EventService {
	return &EventService{events: events, registrations: registrations, students: students, Common: common.withDefaults()}
}

// CreateEvent validates the request and stores the event.
func (s *EventService) CreateEvent(ctx context.Context, actor *auth.Principal, req model.CreateEventRequest) (*model.Event, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	if err := s.Validator.Struct(req); err != nil {
		return nil, err
	}

	event, err := s.events.Create(ctx, &model.Event{
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Location:    req.Location,
		Capacity:    req.Capacity,
		PriceCents:  req.PriceCents,
		StartAt:     req.StartAt.UTC(),
		EndAt:       req.EndAt.UTC(),
		IsPublished: req.IsPublished,
		CreatedBy:   actor.UserID,
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "event.create", "events", event.ID, map[string]any{"slug": event.Slug, "title": event.Title})
	return event, nil
}

// ListEvents returns published events matching f.
func (s *EventService) ListEvents(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	events, err := s.events.ListPublished(ctx, f)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

// GetEvent returns an event with its occupancy. Unpublished events are
// visible to staff only.
func (s *EventService) GetEvent(ctx context.Context, actor *auth.Principal, id string) (*EventDetail, error) {
	event, err := s.visibleEvent(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	occ, err := s.occupancy(ctx, event)
	if err != nil {
		return nil, err
	}
	return &EventDetail{
		Event:           *event,
		RegisteredCount: occ.RegisteredCount,
		AvailableSpots:  occ.AvailableSpots,
		IsFull:          occ.IsFull,
	}, nil
}

// Availability returns the occupancy of an event.
func (s *EventService) Availability(ctx context.Context, actor *auth.Principal, id string) (capacity.Occupancy, error) {
	event, err := s.visibleEvent(ctx, actor, id)
	if err != nil {
		return capacity.Occupancy{}, err
	}
	return s.occupancy(ctx, event)
}

func (s *EventService) visibleEvent(ctx context.Context, actor *auth.Principal, id string) (*model.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visible(event, actor) {
		return nil, apperr.NotFound("event")
	}
	return event, nil
}

func visible(event *model.Event, actor *auth.Principal) bool {
	return event.IsPublished || actor.IsStaff()
}

func (s *EventService) occupancy(ctx context.Context, event *model.Event) (capacity.Occupancy, error) {
	regs, err := s.registrations.ActiveByEvent(ctx, event.ID)
	if err != nil {
		return capacity.Occupancy{}, err
	}
	return capacity.Calculate(event.Capacity, regs), nil
}

// UpdateEvent applies the non-nil fields of req.
func (s *EventService) UpdateEvent(ctx context.Context, actor *auth.Principal, id string, req model.UpdateEventRequest) (*model.Event, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.Validator.Struct(req); err != nil {
		return nil, err
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
		changes["title"] = event.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
		changes["description"] = event.Description
	}
	if req.Type != nil {
		event.Type = *req.Type
		changes["type"] = event.Type
	}
	if req.Location != nil {
		event.Location = *req.Location
		changes["location"] = event.Location
	}
	if req.Capacity != nil {
		event.Capacity = req.Capacity
		changes["capacity"] = *req.Capacity
	}
	if req.PriceCents != nil {
		event.PriceCents = *req.PriceCents
		changes["price_cents"] = event.PriceCents
	}
	if req.StartAt != nil {
		event.StartAt = req.StartAt.UTC()
		changes["start_at"] = event.StartAt
	}
	if req.EndAt != nil {
		event.EndAt = req.EndAt.UTC()
		changes["end_at"] = event.EndAt
	}
	if req.IsPublished != nil {
		event.IsPublished = *req.IsPublished
		changes["is_published"] = event.IsPublished
	}
	if !event.EndAt.After(event.StartAt) {
		return nil, apperr.Invalid("end_at must be after start_at")
	}

	if err := s.events.Update(ctx, event); err != nil {
		return nil, err
	}
	s.record(ctx, actor, "event.update", "events", event.ID, changes)
	return event, nil
}

// DeleteEvent removes an event and its registrations.
func (s *EventService) DeleteEvent(ctx context.Context, actor *auth.Principal, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actor, "event.delete", "events", id, nil)
	return nil
}

// Register admits the caller to an event. The capacity check and the insert
// happen atomically in the store, so concurrent requests for the last seats
// cannot over-admit.
func (s *EventService) Register(ctx context.Context, actor *auth.Principal, eventID string, req model.RegisterRequest) (*model.Registration, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if req.StudentID != nil && strings.TrimSpace(*req.StudentID) == "" {
		req.StudentID = nil
	}
	if err := s.Validator.Struct(req); err != nil {
		return nil, err
	}
	qty := 1
	switch {
	case req.Quantity != nil:
		qty = *req.Quantity
	case req.Qty != nil:
		qty = *req.Qty
	}
	if qty <= 0 || qty > capacity.MaxQuantity {
		return nil, apperr.Invalid("quantity must be between 1 and %d", capacity.MaxQuantity)
	}
	if req.StudentID != nil {
		if err := s.checkStudent(ctx, actor, *req.StudentID); err != nil {
			return nil, err
		}
	}

	var event model.Event
	reg, err := s.registrations.Admit(ctx, eventID, func(ev *model.Event, active []model.Registration) (*model.Registration, error) {
		if !visible(ev, actor) {
			return nil, apperr.NotFound("event")
		}
		if _, err := capacity.Admit(ev.Capacity, active, qty); err != nil {
			return nil, err
		}
		total, err := capacity.Total(ev.PriceCents, qty)
		if err != nil {
			return nil, err
		}
		event = *ev
		return &model.Registration{
			UserID:     actor.UserID,
			UserEmail:  actor.Email,
			StudentID:  req.StudentID,
			Quantity:   qty,
			TotalCents: total,
			Status:     capacity.InitialStatus(total),
		}, nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrEventFull) {
			s.Metrics.RegistrationRejected(ctx, "full")
		}
		return nil, err
	}
	s.Metrics.RegistrationAdmitted(ctx, event.Type, reg.Quantity)

	s.track(ctx, actor.Email, crm.EventRegistration, map[string]any{
		"event_id":        event.ID,
		"event_title":     event.Title,
		"registration_id": reg.ID,
	})
	s.publish(ctx, notify.Message{
		Kind:        notify.RegistrationConfirmed,
		Email:       actor.Email,
		ReferenceID: reg.ID,
		Title:       event.Title,
		StartAt:     event.StartAt,
		Quantity:    reg.Quantity,
		TotalCents:  reg.TotalCents,
		Currency:    s.Currency,
	})
	return reg, nil
}

// checkStudent makes sure a parent only registers students of their own
// family. Staff may register any student.
func (s *EventService) checkStudent(ctx context.Context, actor *auth.Principal, studentID string) error {
	if s.students == nil {
		return apperr.Invalid("student registration is not available")
	}
	student, err := s.students.Student(ctx, studentID)
	if err != nil {
		return err
	}
	if actor.IsStaff() {
		return nil
	}
	family, err := s.students.FamilyByUser(ctx, actor.UserID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if family == nil || family.ID != student.FamilyID {
		return apperr.Forbidden("student does not belong to your family")
	}
	return nil
}

// ListRegistrations returns all registrations for an event.
func (s *EventService) ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	regs, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	return regs, nil
}

// MyRegistrations returns the caller's registrations.
func (s *EventService) MyRegistrations(ctx context.Context, actor *auth.Principal) ([]model.Registration, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	regs, err := s.registrations.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	return regs, nil
}

// CancelRegistration frees the seats held by a registration. Only the
// registrant or staff may cancel.
func (s *EventService) CancelRegistration(ctx context.Context, actor *auth.Principal, id string) (*model.Registration, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	reg, err := s.registrations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	owner := reg.UserID == actor.UserID
	if !owner && !actor.IsStaff() {
		return nil, apperr.Forbidden("you cannot cancel this registration")
	}

	cancelled, err := s.registrations.Cancel(ctx, reg.ID)
	if err != nil {
		return nil, err
	}
	if !owner {
		s.record(ctx, actor, "registration.cancel", "registrations", reg.ID, map[string]any{"status": cancelled.Status})
	}

	msg := notify.Message{Kind: notify.RegistrationCancelled, Email: reg.UserEmail, ReferenceID: reg.ID}
	if event, err := s.events.GetByID(ctx, reg.EventID); err == nil {
		msg.Title, msg.StartAt = event.Title, event.StartAt
	}
	s.publish(ctx, msg)
	return cancelled, nil
}
