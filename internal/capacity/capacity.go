// Package capacity implements event occupancy accounting and the admission
// rule applied when a new registration is created.
package capacity

import (
	"math"

	"github.com/Shivanand-hulikatti/school-portal/internal/apperr"
	"github.com/Shivanand-hulikatti/school-portal/internal/model"
)

// MaxQuantity is the most attendees a single registration may hold.
const MaxQuantity = 1000

// Occupancy is the derived seat usage of an event.
// Capacity and AvailableSpots are nil for events without a limit.
type Occupancy struct {
	Capacity        *int `json:"capacity"`
	RegisteredCount int  `json:"registeredCount"`
	AvailableSpots  *int `json:"availableSpots"`
	IsFull          bool `json:"isFull"`
}

// Registered sums the quantities of registrations that hold seats.
func Registered(regs []model.Registration) int {
	total := 0
	for _, r := range regs {
		if r.Status.Counts() {
			total += r.Quantity
		}
	}
	return total
}

// Calculate derives occupancy from a capacity and the event's registrations.
func Calculate(capacity *int, regs []model.Registration) Occupancy {
	return occupancy(capacity, Registered(regs))
}

func occupancy(capacity *int, registered int) Occupancy {
	occ := Occupancy{Capacity: capacity, RegisteredCount: registered}
	if capacity == nil {
		return occ
	}
	available := *capacity - registered
	if available < 0 {
		available = 0
	}
	occ.AvailableSpots = &available
	occ.IsFull = registered >= *capacity
	return occ
}

// Admit decides whether qty more attendees fit. On success it returns the
// occupancy the event will have once the registration is stored.
func Admit(capacity *int, regs []model.Registration, qty int) (Occupancy, error) {
	if qty <= 0 {
		return Occupancy{}, apperr.Invalid("quantity must be a positive integer")
	}
	registered := Registered(regs)
	if capacity != nil && qty > *capacity-registered {
		return occupancy(capacity, registered), apperr.ErrEventFull
	}
	if qty > MaxQuantity {
		return Occupancy{}, apperr.Invalid("quantity must be at most %d", MaxQuantity)
	}
	return occupancy(capacity, registered+qty), nil
}

// Total is the price of qty attendees at priceCents each.
func Total(priceCents int64, qty int) (int64, error) {
	if priceCents < 0 || qty < 0 {
		return 0, apperr.Invalid("price and quantity must not be negative")
	}
	if qty > 0 && priceCents > math.MaxInt64/int64(qty) {
		return 0, apperr.Invalid("total price is too large")
	}
	return priceCents * int64(qty), nil
}

// InitialStatus is the status of a freshly admitted registration: free
// registrations are settled immediately, paid ones wait for payment.
func InitialStatus(totalCents int64) model.RegistrationStatus {
	if totalCents == 0 {
		return model.RegistrationPaid
	}
	return model.RegistrationPending
}
