// Package model defines the core domain types for the school portal.
package model

import "time"

// Event represents a school-hosted activity families can register for.
// A nil Capacity means attendance is unlimited.
type Event struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Location    string    `json:"location"`
	Capacity    *int      `json:"capacity"`
	PriceCents  int64     `json:"price_cents"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	IsPublished bool      `json:"is_published"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventFilter narrows the public event listing.
type EventFilter struct {
	Type      string
	StartFrom *time.Time
	StartTo   *time.Time
}

// RegistrationStatus is the lifecycle state of a Registration.
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationPaid      RegistrationStatus = "paid"
	RegistrationWaitlist  RegistrationStatus = "waitlist"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

// Counts reports whether a registration in this status occupies seats.
func (s RegistrationStatus) Counts() bool {
	return s == RegistrationPending || s == RegistrationPaid
}

// Registration is a request to attend an Event for Quantity attendees.
type Registration struct {
	ID              string             `json:"id"`
	EventID         string             `json:"event_id"`
	UserID          string             `json:"user_id"`
	UserEmail       string             `json:"user_email"`
	StudentID       *string            `json:"student_id,omitempty"`
	Quantity        int                `json:"qty"`
	TotalCents      int64              `json:"total_cents"`
	Status          RegistrationStatus `json:"status"`
	PaymentIntentID *string            `json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// UserProfile is the portal's record of a signed-in parent or staff member.
// ID is the identity provider's subject.
type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Family groups the parents and students of one household.
type Family struct {
	ID              string    `json:"id"`
	PrimaryUserID   string    `json:"primary_user_id"`
	SecondaryUserID *string   `json:"secondary_user_id"`
	Address         *string   `json:"address"`
	Phone           *string   `json:"phone"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasMember reports whether userID is one of the family's parents.
func (f *Family) HasMember(userID string) bool {
	if f == nil || userID == "" {
		return false
	}
	return f.PrimaryUserID == userID || (f.SecondaryUserID != nil && *f.SecondaryUserID == userID)
}

// Student is a child enrolled (or enrolling) through a Family.
// DOB is a calendar date in YYYY-MM-DD form.
type Student struct {
	ID        string    `json:"id"`
	FamilyID  string    `json:"family_id"`
	Name      string    `json:"name"`
	DOB       string    `json:"dob"`
	Grade     *string   `json:"grade"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContactStatus is the CRM lifecycle stage of a family.
type ContactStatus string

const (
	ContactLead     ContactStatus = "lead"
	ContactProspect ContactStatus = "prospect"
	ContactEnrolled ContactStatus = "enrolled"
	ContactAlumni   ContactStatus = "alumni"
)

// Contact is a CRM record tracking a prospective or current family.
type Contact struct {
	ID              string        `json:"id"`
	Email           string        `json:"email"`
	FirstName       *string       `json:"first_name"`
	LastName        *string       `json:"last_name"`
	Phone           *string       `json:"phone"`
	Status          ContactStatus `json:"status"`
	Source          string        `json:"source"`
	GradeInterest   *string       `json:"grade_interest"`
	Tags            []string      `json:"tags"`
	OptedOut        bool          `json:"opted_out"`
	EngagementScore int           `json:"engagement_score"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// ContactFilter narrows the CRM contact listing.
type ContactFilter struct {
	Status string
	Source string
	Search string
	Tags   []string
}

// Interaction is an immutable record of something a Contact did.
type Interaction struct {
	ID         string         `json:"id"`
	ContactID  string         `json:"contact_id"`
	Type       string         `json:"type"`
	Details    map[string]any `json:"details"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Note is a free-text staff note attached to a Contact.
type Note struct {
	ID        string    `json:"id"`
	ContactID string    `json:"contact_id"`
	Body      string    `json:"note"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Booking is a scheduled campus tour.
type Booking struct {
	ID         string    `json:"id"`
	CalendarID string    `json:"calendar_id"`
	Name       string    `json:"booking_name"`
	Email      string    `json:"email"`
	Phone      *string   `json:"phone"`
	StartAt    time.Time `json:"start_at"`
	EndAt      time.Time `json:"end_at"`
	Status     string    `json:"status"`
	Notes      *string   `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
}

// FormField describes one input of a dynamic form.
type FormField struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// FormSchema is the field layout stored with a Form.
type FormSchema struct {
	Fields []FormField `json:"fields"`
}

// Form is an admin-defined dynamic form (enquiry, application, ...).
type Form struct {
	ID        string     `json:"id"`
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Schema    FormSchema `json:"schema"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
}

// FormSubmission is one set of answers to a Form.
type FormSubmission struct {
	ID        string         `json:"id"`
	FormID    string         `json:"form_id"`
	Data      map[string]any `json:"data"`
	ContactID *string        `json:"contact_id"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditEntry records an administrative change.
type AuditEntry struct {
	ID          string         `json:"id"`
	ActorID     string         `json:"actor_id"`
	Action      string         `json:"action"`
	TargetTable string         `json:"target_table"`
	TargetID    string         `json:"target_id"`
	Changes     map[string]any `json:"changes"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FullResponse is returned when an event has no room for the requested quantity.
type FullResponse struct {
	Error    string `json:"error"`
	Waitlist bool   `json:"waitlist"`
}
