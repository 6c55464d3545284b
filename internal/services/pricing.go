package services

import (
	"github.com/shopspring/decimal"
)

var currencySymbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// Price is the storefront view of the fixed product price.
type Price struct {
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

// Pricing returns the configured price with a display string such as "₹199" or "₹199.50".
func (s *OrderService) Pricing(name string) Price {
	return Price{
		Name:     name,
		Amount:   s.cfg.Amount,
		Currency: s.cfg.Currency,
		Display:  FormatPrice(s.cfg.Amount, s.cfg.Currency),
	}
}

// FormatPrice renders minor units (paise, cents) as a major-unit price.
func FormatPrice(minor int64, currency string) string {
	d := decimal.New(minor, -2)
	var num string
	if d.Equal(d.Truncate(0)) {
		num = d.StringFixed(0)
	} else {
		num = d.StringFixed(2)
	}
	if sym, ok := currencySymbols[currency]; ok {
		return sym + num
	}
	return currency + " " + num
}
