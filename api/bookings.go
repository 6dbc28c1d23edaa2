package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/luxtouch/spadispatch/internal/domain"
	"github.com/luxtouch/spadispatch/internal/repository"
	"github.com/luxtouch/spadispatch/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:id", h.get)
	router.PATCH("/:id/status", h.updateStatus)
}

type bookingResponse struct {
	ID                 string          `json:"id"`
	CustomerID         string          `json:"customer_id"`
	TherapistID        string          `json:"therapist_id"`
	TimeslotFrom       string          `json:"time_slot_from"`
	TimeslotTo         string          `json:"time_slot_to"`
	Services           map[string]int  `json:"services"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	CouponCode         *string         `json:"coupon_code"`
	CouponDiscount     decimal.Decimal `json:"coupon_discount"`
	Total              decimal.Decimal `json:"total"`
	Status             string          `json:"status"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	Latitude           decimal.Decimal `json:"latitude"`
	Longitude          decimal.Decimal `json:"longitude"`
	Distance           decimal.Decimal `json:"distance"`
	CreatedAt          string          `json:"created_at"`
	StartedAt          *string         `json:"started_at"`
	CompletedAt        *string         `json:"completed_at"`
	CancelledAt        *string         `json:"cancelled_at"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	services := make(map[string]int, len(b.Services))
	for key, qty := range b.Services {
		services[string(key)] = qty
	}
	formatted := func(t *time.Time) *string {
		if t == nil {
			return nil
		}
		s := t.UTC().Format(time.RFC3339)
		return &s
	}
	return bookingResponse{
		ID:                 b.ID,
		CustomerID:         b.CustomerID,
		TherapistID:        b.TherapistID,
		TimeslotFrom:       b.TimeslotFrom.UTC().Format(time.RFC3339),
		TimeslotTo:         b.TimeslotTo.UTC().Format(time.RFC3339),
		Services:           services,
		Subtotal:           b.Subtotal,
		CouponCode:         b.CouponCode,
		CouponDiscount:     b.CouponDiscount,
		Total:              b.Total,
		Status:             string(b.Status),
		CancellationReason: b.CancellationReason,
		Latitude:           b.Latitude,
		Longitude:          b.Longitude,
		Distance:           b.Distance,
		CreatedAt:          b.CreatedAt.UTC().Format(time.RFC3339),
		StartedAt:          formatted(b.StartedAt),
		CompletedAt:        formatted(b.CompletedAt),
		CancelledAt:        formatted(b.CancelledAt),
	}
}

func (h *BookingHandler) list(c *gin.Context) {
	p, _ := principalFrom(c)

	filter := repository.BookingFilter{
		Status: domain.BookingStatus(c.Query("status")),
	}
	if raw := c.Query("distance"); raw != "" {
		max, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid numeric value for distance"})
			return
		}
		filter.MaxDistance = &max
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), p.UserID, p.Role, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		response = append(response, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, response)
}

func (h *BookingHandler) get(c *gin.Context) {
	p, _ := principalFrom(c)

	b, err := h.service.GetBooking(c.Request.Context(), p.UserID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

type updateStatusBody struct {
	Status             string `json:"status" binding:"required"`
	CancellationReason string `json:"cancellation_reason"`
}

func (h *BookingHandler) updateStatus(c *gin.Context) {
	p, _ := principalFrom(c)

	var body updateStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.service.UpdateStatus(c.Request.Context(), p.UserID, c.Param("id"),
		domain.BookingStatus(body.Status), body.CancellationReason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Booking status updated successfully",
		"booking_id": b.ID,
		"status":     string(b.Status),
	})
}
