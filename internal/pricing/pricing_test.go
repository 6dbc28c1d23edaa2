package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/luxtouch/spadispatch/internal/domain"
)

func percentCoupon(code string, value, minOrder int64) *domain.Coupon {
	return &domain.Coupon{
		Code:          code,
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(value),
		MinOrder:      decimal.NewFromInt(minOrder),
		IsActive:      true,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
	}
}

func TestUnitPrice_ExactMatch(t *testing.T) {
	prices := domain.PriceList{domain.ServiceThai: decimal.NewFromInt(80)}

	assert.True(t, UnitPrice(prices, domain.ServiceThai).Equal(decimal.NewFromInt(80)))
}

func TestUnitPrice_SpaceUnderscoreVariants(t *testing.T) {
	prices := domain.PriceList{domain.ServiceFourHandsOil: decimal.NewFromInt(150)}
	assert.True(t, UnitPrice(prices, "4 hands oil").Equal(decimal.NewFromInt(150)))

	spaced := domain.PriceList{"4 hands oil": decimal.NewFromInt(150)}
	assert.True(t, UnitPrice(spaced, domain.ServiceFourHandsOil).Equal(decimal.NewFromInt(150)))
}

func TestUnitPrice_UnknownKeyIsZero(t *testing.T) {
	prices := domain.PriceList{domain.ServiceThai: decimal.NewFromInt(80)}

	assert.True(t, UnitPrice(prices, "hot_stone").IsZero())
}

func TestSubtotal_ZeroQuantityCountsAsOne(t *testing.T) {
	prices := domain.PriceList{domain.ServiceFoot: decimal.NewFromInt(40)}
	basket := domain.Basket{domain.ServiceFoot: 0}

	subtotal, lines := Subtotal(basket, prices)

	assert.True(t, subtotal.Equal(decimal.NewFromInt(40)))
	assert.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestSubtotal_MultipleLines(t *testing.T) {
	prices := domain.PriceList{
		domain.ServiceThai: decimal.NewFromInt(80),
		domain.ServiceFoot: decimal.NewFromInt(40),
	}
	basket := domain.Basket{
		domain.ServiceThai: 2,
		domain.ServiceFoot: 1,
	}

	subtotal, lines := Subtotal(basket, prices)

	assert.True(t, subtotal.Equal(decimal.NewFromInt(200)))
	assert.Len(t, lines, 2)
}

func TestCompute_PercentageCoupon(t *testing.T) {
	prices := domain.PriceList{domain.ServiceThai: decimal.NewFromInt(80)}
	basket := domain.Basket{domain.ServiceThai: 1}
	coupon := percentCoupon("SAVE10", 10, 50)

	quote := Compute(basket, prices, coupon, time.Now())

	assert.True(t, quote.Subtotal.Equal(decimal.NewFromInt(80)))
	assert.True(t, quote.Discount.Equal(decimal.NewFromInt(8)))
	assert.True(t, quote.Total.Equal(decimal.NewFromInt(72)))
	assert.True(t, quote.CouponApplied)
}

func TestCompute_BelowMinimumOrder(t *testing.T) {
	prices := domain.PriceList{domain.ServiceFoot: decimal.NewFromInt(40)}
	basket := domain.Basket{domain.ServiceFoot: 1}
	coupon := percentCoupon("SAVE10", 10, 50)

	quote := Compute(basket, prices, coupon, time.Now())

	assert.True(t, quote.Discount.IsZero())
	assert.True(t, quote.Total.Equal(decimal.NewFromInt(40)))
	assert.False(t, quote.CouponApplied)
}

func TestCompute_FixedCouponWithCap(t *testing.T) {
	prices := domain.PriceList{domain.ServiceOil: decimal.NewFromInt(100)}
	basket := domain.Basket{domain.ServiceOil: 1}
	coupon := &domain.Coupon{
		Code:          "FLAT20",
		DiscountType:  domain.DiscountFixed,
		DiscountValue: decimal.NewFromInt(20),
		MaxDiscount:   decimal.NewNullDecimal(decimal.NewFromInt(15)),
		IsActive:      true,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
	}

	quote := Compute(basket, prices, coupon, time.Now())

	assert.True(t, quote.Discount.Equal(decimal.NewFromInt(15)))
	assert.True(t, quote.Total.Equal(decimal.NewFromInt(85)))
}

func TestCompute_DiscountNeverExceedsSubtotal(t *testing.T) {
	prices := domain.PriceList{domain.ServiceFoot: decimal.NewFromInt(10)}
	basket := domain.Basket{domain.ServiceFoot: 1}
	coupon := &domain.Coupon{
		Code:          "FLAT50",
		DiscountType:  domain.DiscountFixed,
		DiscountValue: decimal.NewFromInt(50),
		IsActive:      true,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
	}

	quote := Compute(basket, prices, coupon, time.Now())

	assert.True(t, quote.Discount.Equal(decimal.NewFromInt(10)))
	assert.True(t, quote.Total.IsZero())
}

func TestCompute_ExpiredCouponIgnored(t *testing.T) {
	prices := domain.PriceList{domain.ServiceThai: decimal.NewFromInt(80)}
	basket := domain.Basket{domain.ServiceThai: 1}
	coupon := percentCoupon("OLD", 10, 0)
	coupon.ValidUntil = time.Now().Add(-time.Minute)

	quote := Compute(basket, prices, coupon, time.Now())

	assert.True(t, quote.Discount.IsZero())
	assert.True(t, quote.Total.Equal(decimal.NewFromInt(80)))
	assert.False(t, quote.CouponApplied)
}

func TestCompute_NilCoupon(t *testing.T) {
	prices := domain.PriceList{domain.ServiceThai: decimal.NewFromInt(80)}
	basket := domain.Basket{domain.ServiceThai: 1}

	quote := Compute(basket, prices, nil, time.Now())

	assert.True(t, quote.Discount.IsZero())
	assert.True(t, quote.Total.Equal(quote.Subtotal))
	assert.False(t, quote.CouponApplied)
}
