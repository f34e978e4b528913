package service

import (
	"fmt"
	"time"

	"storefront-orders/config"
	"storefront-orders/internal/models"

	"github.com/shopspring/decimal"
)

// Pricing computes order totals. All methods are pure; rates come from
// configuration, never literals in the calculation path.
type Pricing struct {
	freeShippingThreshold decimal.Decimal
	shippingFlatRate      decimal.Decimal
	taxRate               decimal.Decimal
}

// NewPricing parses the configured pricing constants.
func NewPricing(cfg config.BusinessConfig) (*Pricing, error) {
	threshold, err := decimal.NewFromString(cfg.FreeShippingThreshold)
	if err != nil {
		return nil, fmt.Errorf("parse free shipping threshold: %w", err)
	}
	flatRate, err := decimal.NewFromString(cfg.ShippingFlatRate)
	if err != nil {
		return nil, fmt.Errorf("parse shipping flat rate: %w", err)
	}
	taxRate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return nil, fmt.Errorf("parse tax rate: %w", err)
	}
	return &Pricing{
		freeShippingThreshold: threshold,
		shippingFlatRate:      flatRate,
		taxRate:               taxRate,
	}, nil
}

// PricedItem is a cart line as the pricing engine sees it.
type PricedItem struct {
	Price    decimal.Decimal
	Quantity int
}

// Totals is the full price breakdown of an order.
// Total = Subtotal + Shipping + Tax - Discount, clamped at zero.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// ValidateCoupon rejects a coupon before pricing runs: expiry and minimum
// order amount are checked here, so ComputeTotals only ever sees an
// applicable coupon.
func (p *Pricing) ValidateCoupon(coupon *models.Coupon, subtotal decimal.Decimal, now time.Time) error {
	if coupon.Expired(now) {
		return &models.CouponNotApplicableError{Code: coupon.Code, Reason: "coupon expired"}
	}
	if coupon.MinOrderAmount.Valid && subtotal.LessThan(coupon.MinOrderAmount.Decimal) {
		return &models.CouponNotApplicableError{
			Code:   coupon.Code,
			Reason: fmt.Sprintf("order subtotal below minimum of %s", coupon.MinOrderAmount.Decimal),
		}
	}
	return nil
}

// Subtotal sums price x quantity over the cart.
func (p *Pricing) Subtotal(items []PricedItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal.Round(2)
}

// ComputeTotals computes the full breakdown for a cart and an optional,
// already-validated coupon.
func (p *Pricing) ComputeTotals(items []PricedItem, coupon *models.Coupon) Totals {
	subtotal := p.Subtotal(items)

	shipping := p.shippingFlatRate
	if subtotal.GreaterThan(p.freeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(p.taxRate).Round(2)

	discount := decimal.Zero
	if coupon != nil {
		switch coupon.Type {
		case models.CouponPercentage:
			discount = subtotal.Mul(coupon.Value).Div(decimal.NewFromInt(100)).Round(2)
			if coupon.MaxDiscountAmount.Valid && discount.GreaterThan(coupon.MaxDiscountAmount.Decimal) {
				discount = coupon.MaxDiscountAmount.Decimal
			}
		case models.CouponFixedAmount:
			discount = coupon.Value
		case models.CouponFreeShipping:
			discount = shipping
		}
	}

	total := subtotal.Add(shipping).Add(tax).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Discount: discount,
		Total:    total,
	}
}
