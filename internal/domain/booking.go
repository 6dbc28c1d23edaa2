package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusActive    BookingStatus = "active"
	BookingStatusStarted   BookingStatus = "started"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusActive, BookingStatusStarted,
		BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are permitted.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// CanTransitionTo encodes the forward-only lifecycle: active -> started ->
// completed, with cancellation allowed from active or started.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingStatusActive:
		return next == BookingStatusStarted || next == BookingStatusCancelled
	case BookingStatusStarted:
		return next == BookingStatusCompleted || next == BookingStatusCancelled
	}
	return false
}

// Booking is the committed, priced engagement created exactly once when a
// pending request is accepted. A freshly accepted request always yields an
// active booking; acceptance is itself the confirmation event.
type Booking struct {
	ID                 string
	CustomerID         string
	TherapistID        string
	TimeslotFrom       time.Time
	TimeslotTo         time.Time
	Services           Basket
	Subtotal           decimal.Decimal
	CouponCode         *string
	CouponDiscount     decimal.Decimal
	Total              decimal.Decimal
	Status             BookingStatus
	CancellationReason string
	Latitude           decimal.Decimal
	Longitude          decimal.Decimal
	Distance           decimal.Decimal
	CreatedAt          time.Time
	StartedAt          *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
}

// IsParty reports whether the given user is one of the two bound parties.
func (b *Booking) IsParty(userID string) bool {
	return b.CustomerID == userID || b.TherapistID == userID
}
