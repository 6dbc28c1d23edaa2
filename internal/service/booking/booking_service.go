package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/luxtouch/spadispatch/internal/domain"
	"github.com/luxtouch/spadispatch/internal/kafka"
	"github.com/luxtouch/spadispatch/internal/repository"
)

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingUseCase interface {
	GetBooking(ctx context.Context, userID, bookingID string) (*domain.Booking, error)
	ListBookings(ctx context.Context, userID string, role domain.Role, filter repository.BookingFilter) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, userID, bookingID string, next domain.BookingStatus, reason string) (*domain.Booking, error)
}

type BookingService struct {
	bookings           repository.BookingRepository
	producer           Producer
	notificationsTopic string
	log                *zap.Logger
}

func NewBookingService(bookings repository.BookingRepository, producer Producer, notificationsTopic string, log *zap.Logger) *BookingService {
	return &BookingService{
		bookings:           bookings,
		producer:           producer,
		notificationsTopic: notificationsTopic,
		log:                log,
	}
}

func (s *BookingService) GetBooking(ctx context.Context, userID, bookingID string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsParty(userID) {
		return nil, domain.ErrForbidden
	}
	return booking, nil
}

// ListBookings scopes the listing to the caller's side of the engagement.
func (s *BookingService) ListBookings(ctx context.Context, userID string, role domain.Role, filter repository.BookingFilter) ([]domain.Booking, error) {
	if role == domain.RoleCustomer {
		filter.CustomerID = userID
	} else {
		filter.TherapistID = userID
	}
	return s.bookings.List(ctx, filter)
}

// UpdateStatus drives the booking lifecycle: active -> started -> completed,
// with cancellation allowed from active or started. Terminal bookings are
// frozen. The transition lands via a conditional update so two parties
// racing each other resolve to one winner.
func (s *BookingService) UpdateStatus(ctx context.Context, userID, bookingID string, next domain.BookingStatus, reason string) (*domain.Booking, error) {
	if !next.Valid() {
		return nil, domain.Validationf("invalid status %q", next)
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsParty(userID) {
		return nil, domain.ErrForbidden
	}
	if booking.Status.Terminal() {
		return nil, domain.Validationf("cannot update status of %s booking", booking.Status)
	}
	if !booking.Status.CanTransitionTo(next) {
		return nil, domain.Validationf("cannot move booking from %s to %s", booking.Status, next)
	}

	updated, err := s.bookings.UpdateStatusIf(ctx, bookingID, booking.Status, next, reason)
	if err != nil {
		return nil, err
	}

	s.notifyCounterpart(ctx, userID, updated)
	return updated, nil
}

func (s *BookingService) notifyCounterpart(ctx context.Context, actorID string, booking *domain.Booking) {
	if s.producer == nil || s.notificationsTopic == "" {
		return
	}

	recipient := booking.CustomerID
	if actorID == booking.CustomerID {
		recipient = booking.TherapistID
	}

	var eventType, title, body string
	switch booking.Status {
	case domain.BookingStatusStarted:
		eventType, title, body = kafka.EventBookingStarted, "Session Started", "Your booking session has started"
	case domain.BookingStatusCompleted:
		eventType, title, body = kafka.EventBookingCompleted, "Session Completed", "Your booking session has been completed"
	case domain.BookingStatusCancelled:
		eventType, title, body = kafka.EventBookingCancelled, "Booking Cancelled", "Your booking has been cancelled"
	default:
		return
	}

	event := kafka.LifecycleEvent{
		Type:        eventType,
		RecipientID: recipient,
		BookingID:   booking.ID,
		Title:       title,
		Body:        body,
		Data:        map[string]string{"booking_id": booking.ID, "status": string(booking.Status)},
		OccurredAt:  time.Now().UTC(),
	}
	if err := s.producer.Publish(ctx, s.notificationsTopic, recipient, event); err != nil {
		s.log.Warn("publish booking event", zap.String("type", eventType), zap.Error(err))
	}
}

var _ BookingUseCase = (*BookingService)(nil)
