package model

import "time"

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Slug        string    `json:"slug" validate:"required,min=3,max=120"`
	Title       string    `json:"title" validate:"required,min=3,max=200"`
	Description string    `json:"description" validate:"max=10000"`
	Type        string    `json:"type" validate:"required,max=50"`
	Location    string    `json:"location" validate:"max=200"`
	Capacity    *int      `json:"capacity" validate:"omitempty,min=1,max=100000"`
	PriceCents  int64     `json:"price_cents" validate:"min=0,max=100000000"`
	StartAt     time.Time `json:"start_at" validate:"required"`
	EndAt       time.Time `json:"end_at" validate:"required,gtfield=StartAt"`
	IsPublished bool      `json:"is_published"`
}

// UpdateEventRequest is the partial payload for an administrative edit.
// Nil fields are left untouched.
type UpdateEventRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=3,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=10000"`
	Type        *string    `json:"type" validate:"omitempty,max=50"`
	Location    *string    `json:"location" validate:"omitempty,max=200"`
	Capacity    *int       `json:"capacity" validate:"omitempty,min=1,max=100000"`
	PriceCents  *int64     `json:"price_cents" validate:"omitempty,min=0,max=100000000"`
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
	IsPublished *bool      `json:"is_published"`
}

// RegisterRequest is the payload for registering for an event.
// A missing quantity means one attendee. Qty is the older spelling.
// StudentID, when set, must name a student of the caller's family.
type RegisterRequest struct {
	Quantity  *int    `json:"quantity" validate:"omitempty,min=1,max=1000"`
	Qty       *int    `json:"qty" validate:"omitempty,min=1,max=1000"`
	StudentID *string `json:"student_id" validate:"omitempty,max=64"`
}

// UserProfileRequest updates the caller's display name.
type UserProfileRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// FamilyRequest updates the caller's household details.
type FamilyRequest struct {
	Address *string `json:"address" validate:"omitempty,max=500"`
	Phone   *string `json:"phone" validate:"omitempty,max=40"`
}

// StudentRequest creates or replaces a student record.
type StudentRequest struct {
	Name  string  `json:"name" validate:"required,max=200"`
	DOB   string  `json:"dob" validate:"required,datetime=2006-01-02"`
	Grade *string `json:"grade" validate:"omitempty,max=20"`
}

// BookingRequest is the payload for scheduling a campus tour.
type BookingRequest struct {
	Name  string  `json:"name" validate:"required,max=200"`
	Email string  `json:"email" validate:"required,email"`
	Phone *string `json:"phone" validate:"omitempty,max=40"`
	Date  string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time  string  `json:"time" validate:"required,datetime=15:04"`
	Notes *string `json:"notes" validate:"omitempty,max=2000"`
}

// ContactRequest is the payload for creating a CRM contact.
type ContactRequest struct {
	Email         string   `json:"email" validate:"required,email"`
	FirstName     *string  `json:"first_name" validate:"omitempty,max=100"`
	LastName      *string  `json:"last_name" validate:"omitempty,max=100"`
	Phone         *string  `json:"phone" validate:"omitempty,max=40"`
	Status        string   `json:"status" validate:"omitempty,oneof=lead prospect enrolled alumni"`
	Source        string   `json:"source" validate:"max=100"`
	GradeInterest *string  `json:"grade_interest" validate:"omitempty,max=50"`
	Tags          []string `json:"tags" validate:"omitempty,dive,min=1,max=50"`
}

// ContactUpdateRequest is the partial payload for editing a CRM contact.
type ContactUpdateRequest struct {
	FirstName     *string   `json:"first_name" validate:"omitempty,max=100"`
	LastName      *string   `json:"last_name" validate:"omitempty,max=100"`
	Phone         *string   `json:"phone" validate:"omitempty,max=40"`
	Status        *string   `json:"status" validate:"omitempty,oneof=lead prospect enrolled alumni"`
	GradeInterest *string   `json:"grade_interest" validate:"omitempty,max=50"`
	Tags          *[]string `json:"tags" validate:"omitempty,dive,min=1,max=50"`
	OptedOut      *bool     `json:"opted_out"`
}

// NoteRequest is the payload for adding a staff note to a contact.
type NoteRequest struct {
	Note string `json:"note" validate:"required,max=5000"`
}

// CreateFormRequest is the payload for defining a dynamic form.
type CreateFormRequest struct {
	Slug     string     `json:"slug" validate:"required,min=3,max=120"`
	Title    string     `json:"title" validate:"required,max=200"`
	Schema   FormSchema `json:"schema"`
	IsActive bool       `json:"is_active"`
}

// SubmitFormRequest carries the answers to a dynamic form.
type SubmitFormRequest struct {
	Data map[string]any `json:"data"`
}
