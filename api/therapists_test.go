package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/luxtouch/spadispatch/internal/domain"
	"github.com/luxtouch/spadispatch/internal/service/search"
)

// MockSearchUseCase is a mock implementation of search.SearchUseCase
type MockSearchUseCase struct {
	mock.Mock
}

func (m *MockSearchUseCase) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]search.Result), args.Error(1)
}

func TestTherapistSearchHandler_search(t *testing.T) {
	mockService := &MockSearchUseCase{}
	handler := NewTherapistSearchHandler(mockService, 10)

	c, w := testContext(t, Principal{UserID: "cust-1", Role: domain.RoleCustomer},
		"GET", "/therapists/search?latitude=13.7563&longitude=100.5018&services=thai,foot", nil)

	results := []search.Result{{
		Therapist: domain.TherapistProfile{
			ID:   "ther-1",
			Name: "Nok",
			Location: domain.Location{
				TherapistID: "ther-1",
				Address:     "123 Sukhumvit Rd",
				Latitude:    decimal.NewNullDecimal(decimal.NewFromFloat(13.7663)),
				Longitude:   decimal.NewNullDecimal(decimal.NewFromFloat(100.5018)),
			},
			Services: domain.PriceList{domain.ServiceThai: decimal.NewFromInt(80)},
		},
		DistanceKm: 1.11,
	}}
	expectedQuery := search.Query{
		Latitude:  13.7563,
		Longitude: 100.5018,
		RadiusKm:  10,
		Services:  []domain.ServiceKey{domain.ServiceThai, domain.ServiceFoot},
	}
	mockService.On("Search", c.Request.Context(), expectedQuery).Return(results, nil).Once()

	handler.search(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []searchResultResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response, 1)
	assert.Equal(t, "ther-1", response[0].ID)
	assert.Equal(t, 1.11, response[0].Distance)
	assert.Equal(t, "80", response[0].Services["thai"])
	assert.Equal(t, "13.766300", response[0].Address.Coordinates.Latitude)

	mockService.AssertExpectations(t)
}

func TestTherapistSearchHandler_search_MissingCoordinates(t *testing.T) {
	mockService := &MockSearchUseCase{}
	handler := NewTherapistSearchHandler(mockService, 10)

	c, w := testContext(t, Principal{UserID: "cust-1", Role: domain.RoleCustomer},
		"GET", "/therapists/search?latitude=13.7563", nil)

	handler.search(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Search")
}

func TestTherapistSearchHandler_search_BadRadius(t *testing.T) {
	mockService := &MockSearchUseCase{}
	handler := NewTherapistSearchHandler(mockService, 10)

	c, w := testContext(t, Principal{UserID: "cust-1", Role: domain.RoleCustomer},
		"GET", "/therapists/search?latitude=13.7563&longitude=100.5018&radius=close", nil)

	handler.search(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Search")
}
