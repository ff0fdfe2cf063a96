package insights

import (
	"time"

	"github.com/shopspring/decimal"
)

// Policy is the threshold table driving the rules. Thresholds live in one
// place as explicit configuration with a single canonical default set
// rather than constants baked into each rule.
type Policy struct {
	// TrailingWindowDays is the length of the window used for cash-flow
	// and trend comparisons.
	TrailingWindowDays int

	// MinTransactions guards the cash-flow rule against sparse data: when
	// fewer dated transactions fall inside the trailing window, the rule
	// evaluates all records instead.
	MinTransactions int

	// LowSavingsRate and HealthySavingsRate bound the savings-rate bands
	// (net / income) for the cash-flow rule.
	LowSavingsRate     decimal.Decimal
	HealthySavingsRate decimal.Decimal

	// SpendingRisePct and SpendingFallPct are percentage-change thresholds
	// for the window-over-window spending trend.
	SpendingRisePct decimal.Decimal
	SpendingFallPct decimal.Decimal

	// ConcentrationShare is the single-category share of expense spend
	// above which a concentration finding fires.
	ConcentrationShare decimal.Decimal

	// UnpaidVolume is the count of unpaid invoices that triggers the
	// "many unpaid" finding when none are overdue.
	UnpaidVolume int

	// TaxUnderfundedRatio and TaxFundedRatio bound the funded-ratio bands
	// for the tax rule. TaxNoiseCutoffMonth suppresses the underfunded
	// warning early in the year.
	TaxUnderfundedRatio decimal.Decimal
	TaxFundedRatio      decimal.Decimal
	TaxNoiseCutoffMonth time.Month

	// EmitPositive controls whether rules emit a positive finding when
	// their negative condition does not hold.
	EmitPositive bool
}

// DefaultPolicy returns the canonical threshold set.
func DefaultPolicy() Policy {
	return Policy{
		TrailingWindowDays:  30,
		MinTransactions:     3,
		LowSavingsRate:      decimal.RequireFromString("0.10"),
		HealthySavingsRate:  decimal.RequireFromString("0.20"),
		SpendingRisePct:     decimal.NewFromInt(25),
		SpendingFallPct:     decimal.NewFromInt(20),
		ConcentrationShare:  decimal.RequireFromString("0.45"),
		UnpaidVolume:        5,
		TaxUnderfundedRatio: decimal.RequireFromString("0.60"),
		TaxFundedRatio:      decimal.RequireFromString("0.80"),
		TaxNoiseCutoffMonth: time.March,
		EmitPositive:        true,
	}
}
