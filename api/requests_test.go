package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/luxtouch/spadispatch/internal/domain"
	"github.com/luxtouch/spadispatch/internal/pricing"
	"github.com/luxtouch/spadispatch/internal/service/request"
)

// MockRequestUseCase is a mock implementation of request.RequestUseCase
type MockRequestUseCase struct {
	mock.Mock
}

func (m *MockRequestUseCase) CreateRequest(ctx context.Context, customerID, customerName string, input request.CreateRequestInput) (*request.CreateResult, error) {
	args := m.Called(ctx, customerID, customerName, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*request.CreateResult), args.Error(1)
}

func (m *MockRequestUseCase) Respond(ctx context.Context, therapistID, requestID string, action domain.RespondAction) (*request.RespondResult, error) {
	args := m.Called(ctx, therapistID, requestID, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*request.RespondResult), args.Error(1)
}

func (m *MockRequestUseCase) CancelRequest(ctx context.Context, customerID, requestID string) (*domain.PendingRequest, error) {
	args := m.Called(ctx, customerID, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PendingRequest), args.Error(1)
}

func (m *MockRequestUseCase) GetRequest(ctx context.Context, userID string, requestID string) (*request.RequestDetail, error) {
	args := m.Called(ctx, userID, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*request.RequestDetail), args.Error(1)
}

func (m *MockRequestUseCase) ListRequests(ctx context.Context, userID string, role domain.Role, status domain.RequestStatus) ([]domain.PendingRequest, error) {
	args := m.Called(ctx, userID, role, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PendingRequest), args.Error(1)
}

func (m *MockRequestUseCase) ExpirePendingRequests(ctx context.Context) ([]domain.PendingRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PendingRequest), args.Error(1)
}

func (m *MockRequestUseCase) Quote(ctx context.Context, therapistID string, services map[string]int, couponCode string) (*pricing.Quote, error) {
	args := m.Called(ctx, therapistID, services, couponCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.Quote), args.Error(1)
}

func (m *MockRequestUseCase) ValidateCoupon(ctx context.Context, code string, amount decimal.Decimal) (*request.CouponValidation, error) {
	args := m.Called(ctx, code, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*request.CouponValidation), args.Error(1)
}

func testContext(t *testing.T, p Principal, method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	c.Request = httptest.NewRequest(method, path, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(principalKey, p)
	return c, w
}

func TestRequestHandler_create_Sent(t *testing.T) {
	mockService := &MockRequestUseCase{}
	handler := NewRequestHandler(mockService)

	from := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	body := gin.H{
		"id":            "ther-1",
		"services":      map[string]int{"thai": 1},
		"timeslot_from": from.Format(time.RFC3339),
		"timeslot_to":   from.Add(time.Hour).Format(time.RFC3339),
	}
	c, w := testContext(t, Principal{UserID: "cust-1", Name: "Alice", Role: domain.RoleCustomer}, "POST", "/requests/", body)

	created := &domain.PendingRequest{ID: "req-1", Status: domain.RequestStatusPending}
	mockService.On("CreateRequest", c.Request.Context(), "cust-1", "Alice", mock.AnythingOfType("request.CreateRequestInput")).
		Return(&request.CreateResult{Request: created}, nil).Once()

	handler.create(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "sent", response["status"])
	assert.Equal(t, "req-1", response["pending_booking_id"])

	mockService.AssertExpectations(t)
}

func TestRequestHandler_create_AlreadyExists(t *testing.T) {
	mockService := &MockRequestUseCase{}
	handler := NewRequestHandler(mockService)

	from := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	body := gin.H{
		"id":            "ther-1",
		"services":      map[string]int{"thai": 1},
		"timeslot_from": from.Format(time.RFC3339),
		"timeslot_to":   from.Add(time.Hour).Format(time.RFC3339),
	}
	c, w := testContext(t, Principal{UserID: "cust-1", Name: "Alice", Role: domain.RoleCustomer}, "POST", "/requests/", body)

	existing := &domain.PendingRequest{ID: "req-1", Status: domain.RequestStatusPending}
	mockService.On("CreateRequest", c.Request.Context(), "cust-1", "Alice", mock.Anything).
		Return(&request.CreateResult{Request: existing, AlreadyExists: true}, nil).Once()

	handler.create(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "already_exists", response["status"])
	assert.Equal(t, "req-1", response["pending_booking_id"])
}

func TestRequestHandler_create_MissingBody(t *testing.T) {
	mockService := &MockRequestUseCase{}
	handler := NewRequestHandler(mockService)

	c, w := testContext(t, Principal{UserID: "cust-1", Role: domain.RoleCustomer}, "POST", "/requests/", gin.H{})

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CreateRequest")
}

func TestRequestHandler_respond_Accepted(t *testing.T) {
	mockService := &MockRequestUseCase{}
	handler := NewRequestHandler(mockService)

	body := gin.H{"id": "req-1", "action": "accept"}
	c, w := testContext(t, Principal{UserID: "ther-1", Role: domain.RoleTherapist}, "POST", "/requests/respond", body)

	result := &request.RespondResult{
		Accepted: true,
		Request:  &domain.PendingRequest{ID: "req-1", Status: domain.RequestStatusAccepted},
		Booking:  &domain.Booking{ID: "bk-1", Status: domain.BookingStatusActive},
	}
	mockService.On("Respond", c.Request.Context(), "ther-1", "req-1", domain.ActionAccept).Return(result, nil).Once()

	handler.respond(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["accepted"])
	assert.Equal(t, "bk-1", response["booking_id"])

	mockService.AssertExpectations(t)
}

func TestRequestHandler_respond_Rejected(t *testing.T) {
	mockService := &MockRequestUseCase{}
	handler := NewRequestHandler(mockService)

	body := gin.H{"id": "req-1", "action": "reject"}
	c, w := testContext(t, Principal{UserID: "ther-1", Role: domain.RoleTherapist}, "POST", "/requests/respond", body)

	result := &request.RespondResult{
		Accepted: false,
		Request:  &domain.PendingRequest{ID: "req-1", Status: domain.RequestStatusRejected},
	}
	mockService.On("Respond", c.Request.Context(), "ther-1", "req-1", domain.ActionReject).Return(result, nil).Once()

	handler.respond(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, false, response["accepted"])
	assert.Equal(t, "Therapist is currently busy.", response["message"])
}

func TestRequestHandler_respond_Conflict(t *testing.T) {
	mockService := &MockRequestUseCase{}
	handler := NewRequestHandler(mockService)

	body := gin.H{"id": "req-1", "action": "accept"}
	c, w := testContext(t, Principal{UserID: "ther-1", Role: domain.RoleTherapist}, "POST", "/requests/respond", body)

	mockService.On("Respond", c.Request.Context(), "ther-1", "req-1", domain.ActionAccept).
		Return(nil, domain.ErrConflict).Once()

	handler.respond(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRequestHandler_respond_Expired(t *testing.T) {
	mockService := &MockRequestUseCase{}
	handler := NewRequestHandler(mockService)

	body := gin.H{"id": "req-1", "action": "accept"}
	c, w := testContext(t, Principal{UserID: "ther-1", Role: domain.RoleTherapist}, "POST", "/requests/respond", body)

	mockService.On("Respond", c.Request.Context(), "ther-1", "req-1", domain.ActionAccept).
		Return(nil, domain.ErrRequestExpired).Once()

	handler.respond(c)

	assert.Equal(t, http.StatusGone, w.Code)
}

func TestRequestHandler_cancel(t *testing.T) {
	mockService := &MockRequestUseCase{}
	handler := NewRequestHandler(mockService)

	body := gin.H{"id": "req-1"}
	c, w := testContext(t, Principal{UserID: "cust-1", Role: domain.RoleCustomer}, "PATCH", "/requests/cancel", body)

	cancelled := &domain.PendingRequest{ID: "req-1", CustomerID: "cust-1", Status: domain.RequestStatusCancelled}
	mockService.On("CancelRequest", c.Request.Context(), "cust-1", "req-1").Return(cancelled, nil).Once()

	handler.cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response requestResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, string(domain.RequestStatusCancelled), response.Status)
}

func TestRequestHandler_get(t *testing.T) {
	mockService := &MockRequestUseCase{}
	handler := NewRequestHandler(mockService)

	c, w := testContext(t, Principal{UserID: "cust-1", Role: domain.RoleCustomer}, "GET", "/requests/req-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}

	detail := &request.RequestDetail{
		Request: &domain.PendingRequest{
			ID:         "req-1",
			CustomerID: "cust-1",
			Status:     domain.RequestStatusPending,
			Services:   domain.Basket{domain.ServiceThai: 1},
		},
		Quote: pricing.Quote{
			Lines: []pricing.Line{{
				Service:   domain.ServiceThai,
				Quantity:  1,
				UnitPrice: decimal.NewFromInt(80),
				LineTotal: decimal.NewFromInt(80),
			}},
			Subtotal: decimal.NewFromInt(80),
			Total:    decimal.NewFromInt(80),
		},
	}
	mockService.On("GetRequest", c.Request.Context(), "cust-1", "req-1").Return(detail, nil).Once()

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "req-1", response["id"])
	assert.Equal(t, "80", response["total_amount"])
	assert.Len(t, response["services_with_pricing"], 1)
}

func TestRequestHandler_get_NotFound(t *testing.T) {
	mockService := &MockRequestUseCase{}
	handler := NewRequestHandler(mockService)

	c, w := testContext(t, Principal{UserID: "cust-1", Role: domain.RoleCustomer}, "GET", "/requests/nope", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}

	mockService.On("GetRequest", c.Request.Context(), "cust-1", "nope").Return(nil, domain.ErrNotFound).Once()

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestHandler_list(t *testing.T) {
	mockService := &MockRequestUseCase{}
	handler := NewRequestHandler(mockService)

	c, w := testContext(t, Principal{UserID: "ther-1", Role: domain.RoleTherapist}, "GET", "/requests/?status=pending", nil)

	requests := []domain.PendingRequest{
		{ID: "req-1", TherapistID: "ther-1", Status: domain.RequestStatusPending},
	}
	mockService.On("ListRequests", c.Request.Context(), "ther-1", domain.RoleTherapist, domain.RequestStatusPending).
		Return(requests, nil).Once()

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []requestResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response, 1)
	assert.Equal(t, "req-1", response[0].ID)
}
