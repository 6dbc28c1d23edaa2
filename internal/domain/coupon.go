package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is a reusable discount rule. used_count moves only on the accept
// transition of a request, never on quote or validate calls.
type Coupon struct {
	ID            string
	Code          string
	Name          string
	Description   string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	MinOrder      decimal.Decimal
	MaxDiscount   decimal.NullDecimal
	UsageLimit    *int
	UsedCount     int
	IsActive      bool
	ValidFrom     time.Time
	ValidUntil    time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NormalizeCouponCode brings a client-supplied code to its stored form.
func NormalizeCouponCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// IsValid reports whether the coupon can be applied at the given instant:
// active, inside the validity window, and under its usage limit.
func (c *Coupon) IsValid(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return false
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return false
	}
	return true
}

// CanApplyTo reports whether the order amount meets the minimum.
func (c *Coupon) CanApplyTo(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(c.MinOrder)
}

// Discount computes the discount for the given amount. The result is clamped
// to the maximum discount cap when set and never exceeds the amount itself.
func (c *Coupon) Discount(amount decimal.Decimal) decimal.Decimal {
	if !c.CanApplyTo(amount) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	if c.DiscountType == DiscountPercentage {
		discount = amount.Mul(c.DiscountValue).Div(decimal.NewFromInt(100))
	} else {
		discount = c.DiscountValue
	}

	if c.MaxDiscount.Valid && discount.GreaterThan(c.MaxDiscount.Decimal) {
		discount = c.MaxDiscount.Decimal
	}
	if discount.GreaterThan(amount) {
		discount = amount
	}
	return discount
}
