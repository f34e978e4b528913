package service

import (
	"testing"
	"time"

	"storefront-orders/config"
	"storefront-orders/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPricing(t *testing.T) *Pricing {
	t.Helper()
	p, err := NewPricing(config.BusinessConfig{
		FreeShippingThreshold: "500",
		ShippingFlatRate:      "50",
		TaxRate:               "0.18",
	})
	require.NoError(t, err)
	return p
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

func TestSubtotal(t *testing.T) {
	p := newTestPricing(t)

	subtotal := p.Subtotal([]PricedItem{
		{Price: dec("199.50"), Quantity: 2},
		{Price: dec("101.00"), Quantity: 1},
	})
	assert.Equal(t, "500.00", subtotal.StringFixed(2))

	assert.True(t, p.Subtotal(nil).IsZero())
}

func TestComputeTotalsAboveFreeShippingThreshold(t *testing.T) {
	p := newTestPricing(t)

	totals := p.ComputeTotals([]PricedItem{{Price: dec("600"), Quantity: 1}}, nil)

	assert.Equal(t, "600.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", totals.Shipping.StringFixed(2))
	assert.Equal(t, "108.00", totals.Tax.StringFixed(2))
	assert.Equal(t, "0.00", totals.Discount.StringFixed(2))
	assert.Equal(t, "708.00", totals.Total.StringFixed(2))
}

func TestComputeTotalsBelowFreeShippingThreshold(t *testing.T) {
	p := newTestPricing(t)

	totals := p.ComputeTotals([]PricedItem{{Price: dec("200"), Quantity: 2}}, nil)

	assert.Equal(t, "400.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "50.00", totals.Shipping.StringFixed(2))
	assert.Equal(t, "72.00", totals.Tax.StringFixed(2))
	assert.Equal(t, "522.00", totals.Total.StringFixed(2))
}

func TestComputeTotalsThresholdIsExclusive(t *testing.T) {
	p := newTestPricing(t)

	// A subtotal of exactly 500 still pays shipping; free shipping starts
	// strictly above the threshold.
	totals := p.ComputeTotals([]PricedItem{{Price: dec("500"), Quantity: 1}}, nil)
	assert.Equal(t, "50.00", totals.Shipping.StringFixed(2))

	totals = p.ComputeTotals([]PricedItem{{Price: dec("500.01"), Quantity: 1}}, nil)
	assert.Equal(t, "0.00", totals.Shipping.StringFixed(2))
}

func TestComputeTotalsPercentageCoupon(t *testing.T) {
	p := newTestPricing(t)

	coupon := &models.Coupon{
		Code:              "SAVE10",
		Type:              models.CouponPercentage,
		Value:             dec("10"),
		MaxDiscountAmount: nullDec("100"),
	}

	// 10% of 2000 is 200, capped at 100.
	totals := p.ComputeTotals([]PricedItem{{Price: dec("2000"), Quantity: 1}}, coupon)
	assert.Equal(t, "100.00", totals.Discount.StringFixed(2))
	// 2000 + 0 shipping + 360 tax - 100
	assert.Equal(t, "2260.00", totals.Total.StringFixed(2))

	// Under the cap the raw percentage applies.
	totals = p.ComputeTotals([]PricedItem{{Price: dec("600"), Quantity: 1}}, coupon)
	assert.Equal(t, "60.00", totals.Discount.StringFixed(2))
	assert.Equal(t, "648.00", totals.Total.StringFixed(2))
}

func TestComputeTotalsPercentageCouponWithoutCap(t *testing.T) {
	p := newTestPricing(t)

	coupon := &models.Coupon{
		Code:  "SAVE25",
		Type:  models.CouponPercentage,
		Value: dec("25"),
	}

	totals := p.ComputeTotals([]PricedItem{{Price: dec("2000"), Quantity: 1}}, coupon)
	assert.Equal(t, "500.00", totals.Discount.StringFixed(2))
}

func TestComputeTotalsFixedAmountCoupon(t *testing.T) {
	p := newTestPricing(t)

	coupon := &models.Coupon{
		Code:  "FLAT150",
		Type:  models.CouponFixedAmount,
		Value: dec("150"),
	}

	totals := p.ComputeTotals([]PricedItem{{Price: dec("400"), Quantity: 1}}, coupon)
	assert.Equal(t, "150.00", totals.Discount.StringFixed(2))
	// 400 + 50 shipping + 72 tax - 150
	assert.Equal(t, "372.00", totals.Total.StringFixed(2))
}

func TestComputeTotalsFreeShippingCoupon(t *testing.T) {
	p := newTestPricing(t)

	coupon := &models.Coupon{
		Code: "SHIPFREE",
		Type: models.CouponFreeShipping,
	}

	// Below the threshold the coupon discounts the full flat rate.
	totals := p.ComputeTotals([]PricedItem{{Price: dec("400"), Quantity: 1}}, coupon)
	assert.Equal(t, "50.00", totals.Discount.StringFixed(2))
	assert.Equal(t, "472.00", totals.Total.StringFixed(2))

	// Above the threshold shipping is already zero, so the coupon is worth
	// nothing rather than going negative.
	totals = p.ComputeTotals([]PricedItem{{Price: dec("600"), Quantity: 1}}, coupon)
	assert.Equal(t, "0.00", totals.Discount.StringFixed(2))
	assert.Equal(t, "708.00", totals.Total.StringFixed(2))
}

func TestComputeTotalsClampsAtZero(t *testing.T) {
	p := newTestPricing(t)

	coupon := &models.Coupon{
		Code:  "BIGFLAT",
		Type:  models.CouponFixedAmount,
		Value: dec("1000"),
	}

	totals := p.ComputeTotals([]PricedItem{{Price: dec("100"), Quantity: 1}}, coupon)
	assert.Equal(t, "0.00", totals.Total.StringFixed(2))
	// The breakdown still records the full coupon value.
	assert.Equal(t, "1000.00", totals.Discount.StringFixed(2))
}

func TestValidateCouponExpired(t *testing.T) {
	p := newTestPricing(t)

	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	coupon := &models.Coupon{
		Code:      "OLD",
		Type:      models.CouponPercentage,
		Value:     dec("10"),
		ExpiresAt: &expiry,
	}

	err := p.ValidateCoupon(coupon, dec("1000"), expiry.Add(time.Second))
	var couponErr *models.CouponNotApplicableError
	assert.ErrorAs(t, err, &couponErr)
	assert.Equal(t, "OLD", couponErr.Code)

	// The expiry instant itself is still valid.
	assert.NoError(t, p.ValidateCoupon(coupon, dec("1000"), expiry))
}

func TestValidateCouponMinOrderAmount(t *testing.T) {
	p := newTestPricing(t)

	coupon := &models.Coupon{
		Code:           "MIN500",
		Type:           models.CouponFixedAmount,
		Value:          dec("50"),
		MinOrderAmount: nullDec("500"),
	}
	now := time.Now()

	var couponErr *models.CouponNotApplicableError
	assert.ErrorAs(t, p.ValidateCoupon(coupon, dec("499.99"), now), &couponErr)

	assert.NoError(t, p.ValidateCoupon(coupon, dec("500"), now))
	assert.NoError(t, p.ValidateCoupon(coupon, dec("800"), now))
}

func TestNewPricingRejectsBadConfig(t *testing.T) {
	_, err := NewPricing(config.BusinessConfig{
		FreeShippingThreshold: "not-a-number",
		ShippingFlatRate:      "50",
		TaxRate:               "0.18",
	})
	assert.Error(t, err)
}
