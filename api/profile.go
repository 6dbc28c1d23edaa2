package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/luxtouch/spadispatch/internal/domain"
	"github.com/luxtouch/spadispatch/internal/service/therapist"
)

// TokenRegistry is the write path of the push-token registry.
type TokenRegistry interface {
	Save(ctx context.Context, userID, token string) error
}

// ProfileHandler covers therapist self-service (location, availability,
// price list) and device-token registration for both roles.
type ProfileHandler struct {
	service therapist.TherapistUseCase
	tokens  TokenRegistry
}

func NewProfileHandler(service therapist.TherapistUseCase, tokens TokenRegistry) *ProfileHandler {
	return &ProfileHandler{service: service, tokens: tokens}
}

func (h *ProfileHandler) Register(router *gin.RouterGroup) {
	t := router.Group("/therapist", RequireRole(domain.RoleTherapist))
	t.GET("/location", h.getLocation)
	t.PUT("/location", h.saveLocation)
	t.PATCH("/availability", h.setAvailability)
	t.GET("/services", h.getPriceList)
	t.PUT("/services", h.savePriceList)

	router.POST("/notifications/token", h.registerToken)
}

type locationBody struct {
	Address         string           `json:"address"`
	ServiceRadiusKm decimal.Decimal  `json:"service_radius"`
	Latitude        *decimal.Decimal `json:"latitude"`
	Longitude       *decimal.Decimal `json:"longitude"`
}

type locationResponse struct {
	Address         string          `json:"address"`
	ServiceRadiusKm decimal.Decimal `json:"service_radius"`
	Latitude        *string         `json:"latitude"`
	Longitude       *string         `json:"longitude"`
}

func toLocationResponse(loc *domain.Location) locationResponse {
	resp := locationResponse{
		Address:         loc.Address,
		ServiceRadiusKm: loc.ServiceRadiusKm,
	}
	if loc.Latitude.Valid {
		lat := loc.Latitude.Decimal.StringFixed(6)
		resp.Latitude = &lat
	}
	if loc.Longitude.Valid {
		lon := loc.Longitude.Decimal.StringFixed(6)
		resp.Longitude = &lon
	}
	return resp
}

func (h *ProfileHandler) getLocation(c *gin.Context) {
	p, _ := principalFrom(c)

	loc, err := h.service.GetLocation(c.Request.Context(), p.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLocationResponse(loc))
}

func (h *ProfileHandler) saveLocation(c *gin.Context) {
	p, _ := principalFrom(c)

	var body locationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loc := &domain.Location{
		TherapistID:     p.UserID,
		Address:         body.Address,
		ServiceRadiusKm: body.ServiceRadiusKm,
	}
	if body.Latitude != nil {
		loc.Latitude = decimal.NullDecimal{Decimal: *body.Latitude, Valid: true}
	}
	if body.Longitude != nil {
		loc.Longitude = decimal.NullDecimal{Decimal: *body.Longitude, Valid: true}
	}

	if err := h.service.SaveLocation(c.Request.Context(), loc); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLocationResponse(loc))
}

type availabilityBody struct {
	Status string `json:"status" binding:"required"`
}

func (h *ProfileHandler) setAvailability(c *gin.Context) {
	p, _ := principalFrom(c)

	var body availabilityBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.SetAvailability(c.Request.Context(), p.UserID, domain.Availability(body.Status)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": body.Status})
}

func (h *ProfileHandler) getPriceList(c *gin.Context) {
	p, _ := principalFrom(c)

	prices, err := h.service.GetPriceList(c.Request.Context(), p.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": prices})
}

type priceListBody struct {
	Services map[string]string `json:"services" binding:"required"`
}

func (h *ProfileHandler) savePriceList(c *gin.Context) {
	p, _ := principalFrom(c)

	var body priceListBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prices, err := h.service.SavePriceList(c.Request.Context(), p.UserID, body.Services)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": prices})
}

type tokenBody struct {
	Token string `json:"token" binding:"required"`
}

func (h *ProfileHandler) registerToken(c *gin.Context) {
	p, _ := principalFrom(c)

	var body tokenBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.tokens.Save(c.Request.Context(), p.UserID, body.Token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
