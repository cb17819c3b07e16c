package order

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/fast-pizza/internal/domain/cart"
)

// PrioritySurcharge is the share of the cart total added for priority
// orders.
var PrioritySurcharge = decimal.RequireFromString("0.2")

// Pricing is the displayed price breakdown of a cart.
type Pricing struct {
	Cart     decimal.Decimal
	Priority decimal.Decimal
	Total    decimal.Decimal
}

// PriceCart computes the cart total and, when priority is set, the 20%
// surcharge. Amounts are rounded to cents.
func PriceCart(items []cart.Item, priority bool) Pricing {
	total := cart.Total(items)
	surcharge := decimal.Zero
	if priority {
		surcharge = total.Mul(PrioritySurcharge)
	}
	return Pricing{
		Cart:     total.Round(2),
		Priority: surcharge.Round(2),
		Total:    total.Add(surcharge).Round(2),
	}
}
