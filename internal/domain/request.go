package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusExpired   RequestStatus = "expired"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// RequestTTL is the fixed window a therapist has to answer a pending request.
const RequestTTL = 2 * time.Minute

type RespondAction string

const (
	ActionAccept RespondAction = "accept"
	ActionReject RespondAction = "reject"
)

// PendingRequest is a time-bounded proposal from a customer to one specific
// therapist. Once it leaves pending it is never mutated again.
type PendingRequest struct {
	ID           string
	CustomerID   string
	CustomerName string
	TherapistID  string
	Status       RequestStatus
	Services     Basket
	CouponCode   string
	TimeslotFrom time.Time
	TimeslotTo   time.Time
	Latitude     decimal.Decimal
	Longitude    decimal.Decimal
	Distance     decimal.Decimal
	CreatedAt    time.Time
}

// ExpiredAt reports whether the request has outlived its TTL at the given
// instant.
func (r *PendingRequest) ExpiredAt(now time.Time) bool {
	return now.Sub(r.CreatedAt) > RequestTTL
}
