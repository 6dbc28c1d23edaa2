package request

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/luxtouch/spadispatch/internal/domain"
	"github.com/luxtouch/spadispatch/internal/kafka"
	"github.com/luxtouch/spadispatch/internal/pricing"
	"github.com/luxtouch/spadispatch/internal/repository"
)

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CreateRequestInput struct {
	TherapistID  string
	Services     map[string]int
	CouponCode   string
	TimeslotFrom time.Time
	TimeslotTo   time.Time
	Latitude     decimal.Decimal
	Longitude    decimal.Decimal
	Distance     decimal.Decimal
}

// CreateResult reports the created request, or the already-pending one when
// the same tuple was submitted twice.
type CreateResult struct {
	Request       *domain.PendingRequest
	AlreadyExists bool
}

// RespondResult is the outcome of a therapist's answer. Booking is set only
// when the action was accept and this caller won the transition.
type RespondResult struct {
	Accepted bool
	Request  *domain.PendingRequest
	Booking  *domain.Booking
}

// RequestDetail is a pending request with its basket priced against the
// therapist's current price list.
type RequestDetail struct {
	Request *domain.PendingRequest
	Quote   pricing.Quote
}

type CouponValidation struct {
	Coupon     *domain.Coupon
	Discount   decimal.Decimal
	FinalTotal decimal.Decimal
}

type RequestUseCase interface {
	CreateRequest(ctx context.Context, customerID, customerName string, input CreateRequestInput) (*CreateResult, error)
	Respond(ctx context.Context, therapistID, requestID string, action domain.RespondAction) (*RespondResult, error)
	CancelRequest(ctx context.Context, customerID, requestID string) (*domain.PendingRequest, error)
	GetRequest(ctx context.Context, userID string, requestID string) (*RequestDetail, error)
	ListRequests(ctx context.Context, userID string, role domain.Role, status domain.RequestStatus) ([]domain.PendingRequest, error)
	ExpirePendingRequests(ctx context.Context) ([]domain.PendingRequest, error)
	Quote(ctx context.Context, therapistID string, services map[string]int, couponCode string) (*pricing.Quote, error)
	ValidateCoupon(ctx context.Context, code string, amount decimal.Decimal) (*CouponValidation, error)
}

type RequestService struct {
	requests           repository.PendingRequestRepository
	bookings           repository.BookingRepository
	coupons            repository.CouponRepository
	therapists         repository.TherapistRepository
	producer           Producer
	notificationsTopic string
	log                *zap.Logger
}

func NewRequestService(
	requests repository.PendingRequestRepository,
	bookings repository.BookingRepository,
	coupons repository.CouponRepository,
	therapists repository.TherapistRepository,
	producer Producer,
	notificationsTopic string,
	log *zap.Logger,
) *RequestService {
	return &RequestService{
		requests:           requests,
		bookings:           bookings,
		coupons:            coupons,
		therapists:         therapists,
		producer:           producer,
		notificationsTopic: notificationsTopic,
		log:                log,
	}
}

// CreateRequest opens a pending request addressed to one therapist. An
// identical still-pending tuple short-circuits to the existing request, so a
// duplicate tap cannot double-book.
func (s *RequestService) CreateRequest(ctx context.Context, customerID, customerName string, input CreateRequestInput) (*CreateResult, error) {
	if input.TherapistID == "" {
		return nil, domain.Validationf("therapist id is required")
	}
	if len(input.Services) == 0 {
		return nil, domain.Validationf("at least one service is required")
	}
	if input.TimeslotFrom.IsZero() || input.TimeslotTo.IsZero() {
		return nil, domain.Validationf("timeslot is required")
	}
	if !input.TimeslotTo.After(input.TimeslotFrom) {
		return nil, domain.Validationf("timeslot_to must be after timeslot_from")
	}

	req := &domain.PendingRequest{
		ID:           uuid.NewString(),
		CustomerID:   customerID,
		CustomerName: customerName,
		TherapistID:  input.TherapistID,
		Status:       domain.RequestStatusPending,
		Services:     domain.NormalizeBasket(input.Services),
		CouponCode:   domain.NormalizeCouponCode(input.CouponCode),
		TimeslotFrom: input.TimeslotFrom.UTC(),
		TimeslotTo:   input.TimeslotTo.UTC(),
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		Distance:     input.Distance,
	}

	existing, err := s.requests.FindPendingDuplicate(ctx, req)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &CreateResult{Request: existing, AlreadyExists: true}, nil
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.LifecycleEvent{
		Type:        kafka.EventRequestCreated,
		RecipientID: req.TherapistID,
		RequestID:   req.ID,
		Title:       "New Booking Request",
		Body:        fmt.Sprintf("New request from %s", customerName),
		Data:        map[string]string{"request_id": req.ID},
	})
	return &CreateResult{Request: req}, nil
}

// Respond resolves a pending request with accept or reject. A request past
// its TTL is forced to expired instead of honoring the action; a lost race
// on the conditional update surfaces as domain.ErrConflict so exactly one
// responder ever wins.
func (s *RequestService) Respond(ctx context.Context, therapistID, requestID string, action domain.RespondAction) (*RespondResult, error) {
	if action != domain.ActionAccept && action != domain.ActionReject {
		return nil, domain.Validationf("invalid action %q", action)
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.TherapistID != therapistID {
		return nil, domain.ErrNotFound
	}
	if req.Status != domain.RequestStatusPending {
		return nil, domain.ErrConflict
	}

	now := time.Now().UTC()
	if req.ExpiredAt(now) {
		ok, err := s.requests.UpdateStatusIfPending(ctx, req.ID, domain.RequestStatusExpired)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrConflict
		}
		req.Status = domain.RequestStatusExpired
		return nil, domain.ErrRequestExpired
	}

	if action == domain.ActionReject {
		return s.reject(ctx, req)
	}
	return s.accept(ctx, req, now)
}

func (s *RequestService) reject(ctx context.Context, req *domain.PendingRequest) (*RespondResult, error) {
	ok, err := s.requests.UpdateStatusIfPending(ctx, req.ID, domain.RequestStatusRejected)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrConflict
	}
	req.Status = domain.RequestStatusRejected

	s.publish(ctx, kafka.LifecycleEvent{
		Type:        kafka.EventRequestRejected,
		RecipientID: req.CustomerID,
		RequestID:   req.ID,
		Title:       "Booking Request Declined",
		Body:        "Your therapist is currently busy",
		Data:        map[string]string{"request_id": req.ID},
	})
	return &RespondResult{Accepted: false, Request: req}, nil
}

// accept prices the frozen basket against the therapist's current price
// list, then commits the accepted transition, the coupon increment and the
// booking insert as one storage transaction. An infrastructure failure while
// loading prices aborts the accept and leaves the request pending for a
// retry; unresolvable basket lines simply price to zero.
func (s *RequestService) accept(ctx context.Context, req *domain.PendingRequest, now time.Time) (*RespondResult, error) {
	prices, err := s.therapists.GetPriceList(ctx, req.TherapistID)
	if err != nil {
		return nil, err
	}

	coupon, err := s.loadCoupon(ctx, req.CouponCode)
	if err != nil {
		return nil, err
	}

	quote := pricing.Compute(req.Services, prices, coupon, now)

	booking := &domain.Booking{
		ID:             uuid.NewString(),
		CustomerID:     req.CustomerID,
		TherapistID:    req.TherapistID,
		TimeslotFrom:   req.TimeslotFrom,
		TimeslotTo:     req.TimeslotTo,
		Services:       req.Services,
		Subtotal:       quote.Subtotal,
		CouponDiscount: quote.Discount,
		Total:          quote.Total,
		Status:         domain.BookingStatusActive,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		Distance:       req.Distance,
	}
	if quote.CouponApplied {
		code := coupon.Code
		booking.CouponCode = &code
	}

	if err := s.bookings.CreateOnAccept(ctx, req.ID, booking); err != nil {
		return nil, err
	}
	req.Status = domain.RequestStatusAccepted

	s.publish(ctx, kafka.LifecycleEvent{
		Type:        kafka.EventRequestAccepted,
		RecipientID: req.CustomerID,
		RequestID:   req.ID,
		BookingID:   booking.ID,
		Title:       "Booking Confirmed",
		Body:        "Your booking request has been accepted",
		Data:        map[string]string{"booking_id": booking.ID},
	})
	return &RespondResult{Accepted: true, Request: req, Booking: booking}, nil
}

// CancelRequest lets the owning customer withdraw a request that is still
// pending.
func (s *RequestService) CancelRequest(ctx context.Context, customerID, requestID string) (*domain.PendingRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CustomerID != customerID {
		return nil, domain.ErrNotFound
	}
	if req.Status != domain.RequestStatusPending {
		return nil, domain.Validationf("only pending requests can be cancelled")
	}

	ok, err := s.requests.UpdateStatusIfPending(ctx, req.ID, domain.RequestStatusCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrConflict
	}
	req.Status = domain.RequestStatusCancelled
	return req, nil
}

// GetRequest returns one request, visible to either bound party, with its
// basket priced against the therapist's current price list.
func (s *RequestService) GetRequest(ctx context.Context, userID string, requestID string) (*RequestDetail, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CustomerID != userID && req.TherapistID != userID {
		return nil, domain.ErrNotFound
	}

	// Lazy expiry on read.
	if req.Status == domain.RequestStatusPending && req.ExpiredAt(time.Now().UTC()) {
		if ok, err := s.requests.UpdateStatusIfPending(ctx, req.ID, domain.RequestStatusExpired); err == nil && ok {
			req.Status = domain.RequestStatusExpired
		}
	}

	prices, err := s.therapists.GetPriceList(ctx, req.TherapistID)
	if err != nil {
		return nil, err
	}
	subtotal, lines := pricing.Subtotal(req.Services, prices)
	return &RequestDetail{
		Request: req,
		Quote:   pricing.Quote{Lines: lines, Subtotal: subtotal, Discount: decimal.Zero, Total: subtotal},
	}, nil
}

// ListRequests returns the caller's requests, customer or therapist scoped,
// expiring stale pending rows first so clients never see an actionable
// request that is already past its TTL.
func (s *RequestService) ListRequests(ctx context.Context, userID string, role domain.Role, status domain.RequestStatus) ([]domain.PendingRequest, error) {
	if _, err := s.ExpirePendingRequests(ctx); err != nil {
		s.log.Warn("lazy expiry sweep failed", zap.Error(err))
	}
	return s.requests.ListForUser(ctx, userID, role, status)
}

// ExpirePendingRequests moves every pending request past its TTL to expired
// and notifies the customers. Safe to run concurrently with Respond; both
// sides use the same conditional update keyed on the pending status.
func (s *RequestService) ExpirePendingRequests(ctx context.Context) ([]domain.PendingRequest, error) {
	cutoff := time.Now().UTC().Add(-domain.RequestTTL)
	expired, err := s.requests.ExpirePendingBefore(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	for i := range expired {
		req := &expired[i]
		s.publish(ctx, kafka.LifecycleEvent{
			Type:        kafka.EventRequestExpired,
			RecipientID: req.CustomerID,
			RequestID:   req.ID,
			Title:       "Booking Request Expired",
			Body:        "Your booking request was not answered in time",
			Data:        map[string]string{"request_id": req.ID},
		})
	}
	return expired, nil
}

// Quote prices a basket against a therapist's current price list without
// any state change. Commit on accept runs the identical computation, so the
// totals always agree.
func (s *RequestService) Quote(ctx context.Context, therapistID string, services map[string]int, couponCode string) (*pricing.Quote, error) {
	if therapistID == "" {
		return nil, domain.Validationf("therapist id is required")
	}
	if len(services) == 0 {
		return nil, domain.Validationf("at least one service is required")
	}

	prices, err := s.therapists.GetPriceList(ctx, therapistID)
	if err != nil {
		return nil, err
	}
	coupon, err := s.loadCoupon(ctx, domain.NormalizeCouponCode(couponCode))
	if err != nil {
		return nil, err
	}

	quote := pricing.Compute(domain.NormalizeBasket(services), prices, coupon, time.Now().UTC())
	return &quote, nil
}

// ValidateCoupon checks a coupon against an order amount without consuming
// a use.
func (s *RequestService) ValidateCoupon(ctx context.Context, code string, amount decimal.Decimal) (*CouponValidation, error) {
	coupon, err := s.coupons.GetByCode(ctx, domain.NormalizeCouponCode(code))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Validationf("invalid coupon code")
		}
		return nil, err
	}
	if !coupon.IsValid(time.Now().UTC()) {
		return nil, domain.Validationf("this coupon is not valid or has expired")
	}
	if !coupon.CanApplyTo(amount) {
		return nil, domain.Validationf("minimum order amount is %s", coupon.MinOrder.String())
	}

	discount := coupon.Discount(amount)
	return &CouponValidation{
		Coupon:     coupon,
		Discount:   discount,
		FinalTotal: amount.Sub(discount),
	}, nil
}

func (s *RequestService) loadCoupon(ctx context.Context, code string) (*domain.Coupon, error) {
	if code == "" {
		return nil, nil
	}
	coupon, err := s.coupons.GetByCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		// Unknown code quotes as no discount rather than failing the flow.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *RequestService) publish(ctx context.Context, event kafka.LifecycleEvent) {
	if s.producer == nil || s.notificationsTopic == "" {
		return
	}
	event.OccurredAt = time.Now().UTC()
	if err := s.producer.Publish(ctx, s.notificationsTopic, event.RecipientID, event); err != nil {
		s.log.Warn("publish lifecycle event", zap.String("type", event.Type), zap.Error(err))
	}
}

var _ RequestUseCase = (*RequestService)(nil)
