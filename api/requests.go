package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/luxtouch/spadispatch/internal/domain"
	"github.com/luxtouch/spadispatch/internal/pricing"
	"github.com/luxtouch/spadispatch/internal/service/request"
)

type RequestHandler struct {
	service request.RequestUseCase
}

func NewRequestHandler(service request.RequestUseCase) *RequestHandler {
	return &RequestHandler{service: service}
}

func (h *RequestHandler) Register(router *gin.RouterGroup) {
	router.POST("/", RequireRole(domain.RoleCustomer), h.create)
	router.POST("/respond", RequireRole(domain.RoleTherapist), h.respond)
	router.PATCH("/cancel", RequireRole(domain.RoleCustomer), h.cancel)
	router.GET("/", h.list)
	router.GET("/:id", h.get)
}

type createRequestBody struct {
	TherapistID  string          `json:"id" binding:"required"`
	Services     map[string]int  `json:"services" binding:"required"`
	CouponCode   string          `json:"coupon_code"`
	TimeslotFrom time.Time       `json:"timeslot_from" binding:"required"`
	TimeslotTo   time.Time       `json:"timeslot_to" binding:"required"`
	Latitude     decimal.Decimal `json:"latitude"`
	Longitude    decimal.Decimal `json:"longitude"`
	Distance     decimal.Decimal `json:"distance"`
}

type requestResponse struct {
	ID           string          `json:"id"`
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	TherapistID  string          `json:"therapist_id"`
	Status       string          `json:"status"`
	Services     map[string]int  `json:"services"`
	CouponCode   string          `json:"coupon_code,omitempty"`
	TimeslotFrom string          `json:"timeslot_from"`
	TimeslotTo   string          `json:"timeslot_to"`
	Latitude     decimal.Decimal `json:"latitude"`
	Longitude    decimal.Decimal `json:"longitude"`
	Distance     decimal.Decimal `json:"distance"`
	CreatedAt    string          `json:"created_at"`
}

func toRequestResponse(req *domain.PendingRequest) requestResponse {
	services := make(map[string]int, len(req.Services))
	for key, qty := range req.Services {
		services[string(key)] = qty
	}
	return requestResponse{
		ID:           req.ID,
		CustomerID:   req.CustomerID,
		CustomerName: req.CustomerName,
		TherapistID:  req.TherapistID,
		Status:       string(req.Status),
		Services:     services,
		CouponCode:   req.CouponCode,
		TimeslotFrom: req.TimeslotFrom.UTC().Format(time.RFC3339),
		TimeslotTo:   req.TimeslotTo.UTC().Format(time.RFC3339),
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Distance:     req.Distance,
		CreatedAt:    req.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *RequestHandler) create(c *gin.Context) {
	p, _ := principalFrom(c)

	var body createRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.CreateRequest(c.Request.Context(), p.UserID, p.Name, request.CreateRequestInput{
		TherapistID:  body.TherapistID,
		Services:     body.Services,
		CouponCode:   body.CouponCode,
		TimeslotFrom: body.TimeslotFrom,
		TimeslotTo:   body.TimeslotTo,
		Latitude:     body.Latitude,
		Longitude:    body.Longitude,
		Distance:     body.Distance,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if result.AlreadyExists {
		c.JSON(http.StatusOK, gin.H{
			"status":             "already_exists",
			"pending_booking_id": result.Request.ID,
			"message":            "A pending booking request with these exact details already exists.",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":             "sent",
		"pending_booking_id": result.Request.ID,
	})
}

type respondBody struct {
	ID     string `json:"id" binding:"required"`
	Action string `json:"action" binding:"required"`
}

func (h *RequestHandler) respond(c *gin.Context) {
	p, _ := principalFrom(c)

	var body respondBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Respond(c.Request.Context(), p.UserID, body.ID, domain.RespondAction(body.Action))
	if err != nil {
		respondError(c, err)
		return
	}

	if !result.Accepted {
		c.JSON(http.StatusOK, gin.H{
			"accepted": false,
			"message":  "Therapist is currently busy.",
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"accepted":   true,
		"message":    "Your booking has been placed.",
		"booking_id": result.Booking.ID,
	})
}

type cancelBody struct {
	ID string `json:"id" binding:"required"`
}

func (h *RequestHandler) cancel(c *gin.Context) {
	p, _ := principalFrom(c)

	var body cancelBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.service.CancelRequest(c.Request.Context(), p.UserID, body.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRequestResponse(req))
}

func (h *RequestHandler) list(c *gin.Context) {
	p, _ := principalFrom(c)

	status := domain.RequestStatus(c.Query("status"))
	requests, err := h.service.ListRequests(c.Request.Context(), p.UserID, p.Role, status)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]requestResponse, 0, len(requests))
	for i := range requests {
		response = append(response, toRequestResponse(&requests[i]))
	}
	c.JSON(http.StatusOK, response)
}

type requestDetailResponse struct {
	requestResponse
	ServicesWithPricing []pricing.Line  `json:"services_with_pricing"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
}

func (h *RequestHandler) get(c *gin.Context) {
	p, _ := principalFrom(c)

	detail, err := h.service.GetRequest(c.Request.Context(), p.UserID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, requestDetailResponse{
		requestResponse:     toRequestResponse(detail.Request),
		ServicesWithPricing: detail.Quote.Lines,
		TotalAmount:         detail.Quote.Subtotal,
	})
}
