package cart

import (
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/club-pos/internal/pos/domain"
)

// Fee is a charge computed on top of the item subtotal.
type Fee interface {
	Name() string
	Amount(subtotal decimal.Decimal) decimal.Decimal
}

type FeeLine = domain.Charge

type Totals struct {
	ItemCount  int             `json:"itemCount"`
	SubTotal   decimal.Decimal `json:"subTotal"`
	Fees       []FeeLine       `json:"fees,omitempty"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// PercentFee charges Rate percent of the subtotal, rounded to two places.
type PercentFee struct {
	Label string
	Rate  decimal.Decimal
}

func (f PercentFee) Name() string { return f.Label }

func (f PercentFee) Amount(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(f.Rate).Div(decimal.NewFromInt(100)).Round(2)
}

// FlatFee charges a fixed amount on any non-empty cart.
type FlatFee struct {
	Label string
	Value decimal.Decimal
}

func (f FlatFee) Name() string { return f.Label }

func (f FlatFee) Amount(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	return f.Value
}

// Tax and DeliveryFee build the two fee slots the app shows on the cart
// summary. Both are zero unless configured.
func Tax(ratePercent decimal.Decimal) Fee {
	return PercentFee{Label: "tax", Rate: ratePercent}
}

func DeliveryFee(amount decimal.Decimal) Fee {
	return FlatFee{Label: "delivery", Value: amount}
}
