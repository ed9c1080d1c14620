package aggregate

import (
	"github.com/shopspring/decimal"

	"fintracker/internal/core"
)

// valuationMarkup is the fixed illustrative growth applied to every holding.
var valuationMarkup = decimal.RequireFromString("1.15")

// Valuation is the illustrative current value of an investment.
func Valuation(inv core.Investment) decimal.Decimal {
	return inv.Amount.Mul(valuationMarkup).Round(2)
}

// Portfolio totals the user's investments.
type Portfolio struct {
	Invested     decimal.Decimal
	CurrentValue decimal.Decimal
	Gain         decimal.Decimal
	ByType       map[core.InvestmentType]decimal.Decimal
}

// SummarizePortfolio totals invested amounts and their valuations, with
// invested amounts broken down by type.
func SummarizePortfolio(investments []core.Investment) Portfolio {
	p := Portfolio{ByType: make(map[core.InvestmentType]decimal.Decimal)}
	for _, inv := range investments {
		p.Invested = p.Invested.Add(inv.Amount)
		p.CurrentValue = p.CurrentValue.Add(Valuation(inv))
		p.ByType[inv.Type] = p.ByType[inv.Type].Add(inv.Amount)
	}
	p.Gain = p.CurrentValue.Sub(p.Invested)
	return p
}
