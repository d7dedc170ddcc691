// Package crm tracks family engagement: it keeps one contact per email and
// folds every interaction into that contact's engagement score.
package crm

// InteractionType tags what a contact did.
type InteractionType string

const (
	FormSubmission    InteractionType = "form_submission"
	TourBooking       InteractionType = "tour_booking"
	EventRegistration InteractionType = "event_registration"
	EmailOpen         InteractionType = "email_open"
	PageVisit         InteractionType = "page_visit"
)

var increments = map[InteractionType]int{
	FormSubmission:    10,
	TourBooking:       20,
	EventRegistration: 15,
	EmailOpen:         2,
	PageVisit:         1,
}

// ScoreIncrement is the number of points an interaction is worth.
// Unrecognised types are worth one point.
func ScoreIncrement(t InteractionType) int {
	if n, ok := increments[t]; ok {
		return n
	}
	return 1
}

// Accumulate folds one interaction into a running score.
func Accumulate(current int, t InteractionType) int {
	return current + ScoreIncrement(t)
}
