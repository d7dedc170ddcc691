// Package notify publishes confirmation messages to RabbitMQ and turns them
// into emails on the consuming side.
package notify

import (
	"context"
	"time"
)

// Kind identifies a notification and doubles as its routing key.
type Kind string

const (
	RegistrationConfirmed Kind = "registration.confirmed"
	RegistrationPaid      Kind = "registration.paid"
	RegistrationCancelled Kind = "registration.cancelled"
	BookingRequested      Kind = "booking.requested"
)

// Message is the body published for every notification.
type Message struct {
	Kind        Kind      `json:"kind"`
	Email       string    `json:"email"`
	Name        string    `json:"name,omitempty"`
	ReferenceID string    `json:"reference_id"`
	Title       string    `json:"title,omitempty"`
	StartAt     time.Time `json:"start_at"`
	Quantity    int       `json:"qty,omitempty"`
	TotalCents  int64     `json:"total_cents,omitempty"`
	Currency    string    `json:"currency,omitempty"`
}

// Publisher sends notifications.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Nop drops every message. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Message) error { return nil }
