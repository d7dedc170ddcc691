package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics are the domain counters recorded by the services. A nil *Metrics
// records nothing.
type Metrics struct {
	admitted     metric.Int64Counter
	rejected     metric.Int64Counter
	interactions metric.Int64Counter
	rateLimited  metric.Int64Counter
}

// NewMetrics registers the counters on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	admitted, err := meter.Int64Counter("portal.registrations.admitted",
		metric.WithDescription("Attendees admitted to events"), metric.WithUnit("{attendee}"))
	if err != nil {
		return nil, err
	}
	rejected, err := meter.Int64Counter("portal.registrations.rejected",
		metric.WithDescription("Registration attempts refused"))
	if err != nil {
		return nil, err
	}
	interactions, err := meter.Int64Counter("portal.crm.interactions",
		metric.WithDescription("CRM interactions recorded"))
	if err != nil {
		return nil, err
	}
	rateLimited, err := meter.Int64Counter("portal.http.rate_limited",
		metric.WithDescription("Requests refused by the rate limiter"))
	if err != nil {
		return nil, err
	}
	return &Metrics{admitted: admitted, rejected: rejected, interactions: interactions, rateLimited: rateLimited}, nil
}

func (m *Metrics) RegistrationAdmitted(ctx context.Context, eventType string, qty int) {
	if m == nil {
		return
	}
	m.admitted.Add(ctx, int64(qty), metric.WithAttributes(attribute.String("event.type", eventType)))
}

func (m *Metrics) RegistrationRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) InteractionTracked(ctx context.Context, typ string) {
	if m == nil {
		return
	}
	m.interactions.Add(ctx, 1, metric.WithAttributes(attribute.String("interaction.type", typ)))
}

func (m *Metrics) RateLimited(ctx context.Context, path string) {
	if m == nil {
		return
	}
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(attribute.String("http.route", path)))
}
