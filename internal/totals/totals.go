package totals

import (
	"github.com/shopspring/decimal"

	"github.com/pacioli-dev/pacioli/internal/model"
)

// Places is the currency's minor-unit precision.
const Places = 2

// Totals is the financial summary of a document.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Compute returns subtotal, tax and total for items under the given tax regime.
// VAT is added on top of the subtotal; withholding tax is deducted from it.
func Compute(items []model.LineItem, rate decimal.Decimal, taxType model.TaxType) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Total())
	}
	subtotal = Round(subtotal)

	tax := Round(subtotal.Mul(rate))

	total := subtotal.Add(tax)
	if taxType == model.TaxWithholding {
		total = subtotal.Sub(tax)
	}

	return Totals{Subtotal: subtotal, Tax: tax, Total: total}
}

// Round rounds half-up to the currency precision. Amounts are never negative
// here, so decimal's half-away-from-zero rounding is half-up.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}
