package kafka

import "time"

// Event types published on the notifications topic.
const (
	EventRequestCreated   = "booking_request"
	EventRequestAccepted  = "booking_accepted"
	EventRequestRejected  = "booking_rejected"
	EventRequestExpired   = "booking_request_expired"
	EventBookingStarted   = "booking_started"
	EventBookingCompleted = "booking_completed"
	EventBookingCancelled = "booking_cancelled"
)

// LifecycleEvent is the advisory payload published after a request or
// booking transition. Delivery is best-effort; the core transition has
// already committed by the time this is produced.
type LifecycleEvent struct {
	Type        string            `json:"type"`
	RecipientID string            `json:"recipient_id"`
	RequestID   string            `json:"request_id,omitempty"`
	BookingID   string            `json:"booking_id,omitempty"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}
