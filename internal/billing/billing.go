// Package billing computes bills from cart lines and tenant tax settings.
//
// CalculateBill is pure and has no error channel: malformed numeric input
// (negative, NaN, infinite, over-large discount) is clamped to a safe
// value rather than rejected, so checkout never stalls on bad input.
// Upstream validation is the caller's concern.
package billing

import (
	"math"

	"github.com/shopspring/decimal"
)

// TaxMode selects how the tax rate is applied to the cart.
type TaxMode string

const (
	// TaxInclusive: quoted prices already contain tax; it is carved out.
	TaxInclusive TaxMode = "inclusive"
	// TaxExclusive: tax is added on top of the discounted gross.
	TaxExclusive TaxMode = "exclusive"
)

// NormalizeMode maps any string to a usable tax mode. Unknown values fall
// back to inclusive, the documented default.
func NormalizeMode(s string) TaxMode {
	if TaxMode(s) == TaxExclusive {
		return TaxExclusive
	}
	return TaxInclusive
}

// LineItem is one cart line: unit price times quantity.
type LineItem struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// Quote is the result of a bill computation. All monetary fields are
// rounded half-up to 2 decimal places. NetPayable is set only in
// inclusive mode. TaxPartA and TaxPartB are the two jurisdictional halves
// of TaxAmount and always sum exactly to it.
type Quote struct {
	GrossTotal   decimal.Decimal
	Discount     decimal.Decimal
	TaxableValue decimal.Decimal
	NetPayable   *decimal.Decimal
	TaxAmount    decimal.Decimal
	TaxPartA     decimal.Decimal
	TaxPartB     decimal.Decimal
	Total        decimal.Decimal
	TaxRate      decimal.Decimal
	TaxMode      TaxMode
}

var hundred = decimal.NewFromInt(100)
var two = decimal.NewFromInt(2)

// CalculateBill computes taxable value, tax split, and totals for a cart.
//
// Exclusive mode: Taxable = Gross − Discount, Tax = Taxable·rate/100,
// Total = Taxable + Tax. Inclusive mode: NetPayable = Gross − Discount,
// Taxable = NetPayable·100/(100+rate), Tax = NetPayable − Taxable,
// Total = NetPayable.
func CalculateBill(items []LineItem, discount, taxRate float64, mode TaxMode) Quote {
	mode = NormalizeMode(string(mode))

	gross := decimal.Zero
	for _, item := range items {
		gross = gross.Add(sanitize(item.Price).Mul(sanitize(item.Quantity)))
	}

	disc := sanitize(discount)
	if disc.GreaterThan(gross) {
		disc = gross
	}
	rate := sanitize(taxRate)

	var taxable, tax, total decimal.Decimal
	var netPayable *decimal.Decimal

	switch mode {
	case TaxExclusive:
		taxable = gross.Sub(disc)
		tax = taxable.Mul(rate).Div(hundred)
		total = taxable.Add(tax)
	default:
		net := gross.Sub(disc)
		taxable = net.Mul(hundred).Div(hundred.Add(rate))
		tax = net.Sub(taxable)
		total = net
		rounded := round2(net)
		netPayable = &rounded
	}

	taxRounded := round2(tax)
	// The first half rounds half-up; the second is the remainder against
	// the rounded total, so the halves always sum exactly to TaxAmount
	// even when an odd cent forces an asymmetric split.
	partA := round2(taxRounded.Div(two))
	partB := taxRounded.Sub(partA)

	return Quote{
		GrossTotal:   round2(gross),
		Discount:     round2(disc),
		TaxableValue: round2(taxable),
		NetPayable:   netPayable,
		TaxAmount:    taxRounded,
		TaxPartA:     partA,
		TaxPartB:     partB,
		Total:        round2(total),
		TaxRate:      rate,
		TaxMode:      mode,
	}
}

// sanitize normalizes a numeric input: NaN, infinities, and negatives all
// become 0.
func sanitize(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// round2 rounds half-up to 2 decimal places. decimal.Round is half away
// from zero, which coincides with half-up for the non-negative values
// this engine produces.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
