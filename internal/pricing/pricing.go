// Package pricing resolves a service basket against a therapist's price list
// and an optional coupon. The same computation backs the quote endpoint and
// the commit on accept, so both always agree on the totals.
package pricing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luxtouch/spadispatch/internal/domain"
)

// Line is one priced basket entry.
type Line struct {
	Service   domain.ServiceKey `json:"service_name"`
	Quantity  int               `json:"quantity"`
	UnitPrice decimal.Decimal   `json:"price_per_unit"`
	LineTotal decimal.Decimal   `json:"total_price"`
}

// Quote is the deterministic result of pricing a basket.
type Quote struct {
	Lines         []Line          `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	CouponApplied bool            `json:"coupon_applied"`
}

// UnitPrice resolves the price of a single service key: exact match first,
// then the space/underscore variant, falling back to zero. Unresolvable lines
// are not rejected; permissive quoting keeps the flow moving.
func UnitPrice(prices domain.PriceList, key domain.ServiceKey) decimal.Decimal {
	if price, ok := prices[key]; ok {
		return price
	}
	alt := domain.ServiceKey(strings.ReplaceAll(string(key), " ", "_"))
	if price, ok := prices[alt]; ok {
		return price
	}
	alt = domain.ServiceKey(strings.ReplaceAll(string(key), "_", " "))
	if price, ok := prices[alt]; ok {
		return price
	}
	return decimal.Zero
}

// Subtotal prices a basket against a price list. A zero or negative quantity
// is read as one unit of interest.
func Subtotal(basket domain.Basket, prices domain.PriceList) (decimal.Decimal, []Line) {
	subtotal := decimal.Zero
	lines := make([]Line, 0, len(basket))
	for key, qty := range basket {
		if qty <= 0 {
			qty = 1
		}
		unit := UnitPrice(prices, key)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(qty)))
		subtotal = subtotal.Add(lineTotal)
		lines = append(lines, Line{Service: key, Quantity: qty, UnitPrice: unit, LineTotal: lineTotal})
	}
	return subtotal, lines
}

// Compute prices the basket and applies the coupon when it is currently
// valid and the subtotal meets the minimum order amount. A nil coupon means
// no discount.
func Compute(basket domain.Basket, prices domain.PriceList, coupon *domain.Coupon, now time.Time) Quote {
	subtotal, lines := Subtotal(basket, prices)

	quote := Quote{
		Lines:    lines,
		Subtotal: subtotal,
		Discount: decimal.Zero,
		Total:    subtotal,
	}

	if coupon == nil || !coupon.IsValid(now) || !coupon.CanApplyTo(subtotal) {
		return quote
	}

	quote.Discount = coupon.Discount(subtotal)
	quote.Total = subtotal.Sub(quote.Discount)
	quote.CouponApplied = true
	return quote
}
