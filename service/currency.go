package service

import (
	"github.com/shopspring/decimal"
)

// CurrencyConverter converts amounts between supported currencies
type CurrencyConverter interface {
	Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

// FixedRateConverter converts through an injected rate table keyed
// "FROM/TO". Tests pin exact expected outputs by supplying the table.
type FixedRateConverter struct {
	rates map[string]decimal.Decimal
}

// NewFixedRateConverter creates a converter over a fixed rate table
func NewFixedRateConverter(rates map[string]decimal.Decimal) *FixedRateConverter {
	return &FixedRateConverter{rates: rates}
}

func (c *FixedRateConverter) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}

	rate, ok := c.rates[from+"/"+to]
	if !ok {
		return decimal.Zero, NewValidationError("no exchange rate configured for %s/%s", from, to)
	}

	return amount.Mul(rate).Round(2), nil
}
