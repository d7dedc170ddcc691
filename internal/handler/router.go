package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"github.com/Shivanand-hulikatti/school-portal/internal/logger"
	"github.com/Shivanand-hulikatti/school-portal/internal/policy"
	"github.com/Shivanand-hulikatti/school-portal/internal/ratelimit"
	"github.com/Shivanand-hulikatti/school-portal/internal/telemetry"
)

// Config is everything the router is assembled from.
type Config struct {
	Log        logger.Logger
	Verifier   TokenVerifier
	Authorizer Authorizer
	Limiter    ratelimit.Limiter
	Metrics    *telemetry.Metrics
	Tracer     trace.Tracer
	CORSOrigin string

	Events   EventService
	Payments PaymentService
	Bookings BookingService
	Forms    FormService
	CRM      CRMService
	Profiles ProfileService
}

// NewRouter builds the portal's HTTP API.
func NewRouter(cfg Config) http.Handler {
	log := cfg.Log
	if log == nil {
		log = logger.Nop{}
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer()
	}
	origin := cfg.CORSOrigin
	if origin == "" {
		origin = "*"
	}

	events := NewEventHandler(cfg.Events, log)
	payments := NewPaymentHandler(cfg.Payments, log)
	admissions := NewAdmissionsHandler(cfg.Bookings, cfg.Forms, cfg.CRM, log)
	profiles := NewProfileHandler(cfg.Profiles, log)

	staff := func(action string) func(http.Handler) http.Handler {
		return Authorize(cfg.Authorizer, log, action)
	}
	limit := RateLimit(cfg.Limiter, cfg.Metrics, log)

	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(telemetry.Middleware(tracer))
	r.Use(Logger(log))
	r.Use(CORS(origin))
	r.Use(Authenticate(cfg.Verifier))

	r.Get("/health", HealthCheck)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", events.ListEvents)
		r.Get("/{id}", events.GetEvent)
		r.Get("/{id}/availability", events.Availability)
		r.With(RequireAuth, limit).Post("/{id}/register", events.Register)
		r.With(staff(policy.ReadRegistrations)).Get("/{id}/registrations", events.ListRegistrations)

		r.Group(func(r chi.Router) {
			r.Use(staff(policy.ManageEvents))
			r.Post("/", events.CreateEvent)
			r.Put("/{id}", events.UpdateEvent)
			r.Delete("/{id}", events.DeleteEvent)
		})
	})

	r.With(RequireAuth).Get("/portal/registrations", events.MyRegistrations)

	r.Route("/profile", func(r chi.Router) {
		r.Use(RequireAuth)
		r.Get("/", profiles.GetProfile)
		r.Put("/user", profiles.UpdateUser)
		r.Put("/family", profiles.UpdateFamily)
		r.Post("/students", profiles.CreateStudent)
		r.Put("/students/{id}", profiles.UpdateStudent)
		r.Delete("/students/{id}", profiles.DeleteStudent)
	})

	r.Route("/registrations/{id}", func(r chi.Router) {
		r.Use(RequireAuth)
		r.Post("/cancel", events.CancelRegistration)
		r.Post("/payment-intent", payments.CreateIntent)
	})

	r.Post("/webhooks/stripe", payments.StripeWebhook)

	r.With(limit).Post("/bookings", admissions.Book)

	r.Route("/forms", func(r chi.Router) {
		r.With(staff(policy.ManageForms)).Post("/", admissions.CreateForm)
		r.Get("/{slug}", admissions.GetForm)
		r.With(limit).Post("/{slug}/submit", admissions.SubmitForm)
	})

	r.Route("/crm/contacts", func(r chi.Router) {
		r.Use(staff(policy.ManageCRM))
		r.Get("/", admissions.ListContacts)
		r.Post("/", admissions.CreateContact)
		r.Get("/{id}", admissions.GetContact)
		r.Put("/{id}", admissions.UpdateContact)
		r.Post("/{id}/notes", admissions.AddNote)
	})

	return r
}
