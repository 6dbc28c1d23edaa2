package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/luxtouch/spadispatch/internal/service/request"
)

// PricingHandler exposes the no-state-change side of the pricing engine:
// quotes and coupon validation.
type PricingHandler struct {
	service request.RequestUseCase
}

func NewPricingHandler(service request.RequestUseCase) *PricingHandler {
	return &PricingHandler{service: service}
}

func (h *PricingHandler) Register(router *gin.RouterGroup) {
	router.POST("/quote", h.quote)
	router.POST("/coupons/validate", h.validateCoupon)
}

type quoteBody struct {
	TherapistID string         `json:"therapist_id" binding:"required"`
	Services    map[string]int `json:"services" binding:"required"`
	CouponCode  string         `json:"coupon_code"`
}

func (h *PricingHandler) quote(c *gin.Context) {
	var body quoteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quote, err := h.service.Quote(c.Request.Context(), body.TherapistID, body.Services, body.CouponCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

type validateCouponBody struct {
	CouponCode  string          `json:"coupon_code" binding:"required"`
	OrderAmount decimal.Decimal `json:"order_amount" binding:"required"`
}

func (h *PricingHandler) validateCoupon(c *gin.Context) {
	var body validateCouponBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.ValidateCoupon(c.Request.Context(), body.CouponCode, body.OrderAmount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"coupon": gin.H{
			"code":           result.Coupon.Code,
			"name":           result.Coupon.Name,
			"description":    result.Coupon.Description,
			"discount_type":  string(result.Coupon.DiscountType),
			"discount_value": result.Coupon.DiscountValue,
			"valid_until":    result.Coupon.ValidUntil.UTC().Format(time.RFC3339),
		},
		"original_amount": body.OrderAmount,
		"discount_amount": result.Discount,
		"final_total":     result.FinalTotal,
	})
}
