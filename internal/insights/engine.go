// Package insights derives human-readable financial findings from the
// recorded transactions, invoices, and tax payments.
//
// Generate is a pure function: it never mutates its inputs, performs no
// I/O, and returns a value for any input, however malformed. Each rule
// inspects the slice of records it cares about and appends at most one
// finding; the concatenated findings are then stably sorted by priority.
package insights

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

// Priorities order findings for display. Severity drives the ordering;
// ties keep rule evaluation order because the sort is stable.
const (
	priorityNegativeCashflow = 100
	priorityOverdueInvoices  = 90
	prioritySpendingRise     = 80
	priorityTaxUnderfunded   = 75
	priorityLowSavings       = 70
	priorityUnpaidVolume     = 60
	priorityConcentration    = 40
	prioritySpendingDrop     = 15
	priorityTaxFunded        = 12
	priorityHealthyCashflow  = 10
)

// Input carries the read-only records the rules inspect.
type Input struct {
	Transactions []core.Transaction
	Invoices     []core.Invoice
	TaxPayments  []core.TaxPayment
	Settings     core.Settings
}

var hundred = decimal.NewFromInt(100)

// Generate runs every rule against the input and returns the prioritized
// findings. The same input and the same now produce identical output,
// including IDs, so dismissals keyed on those IDs survive regeneration.
func Generate(now time.Time, in Input, p Policy) []core.Insight {
	today := core.DateOnly(now)
	currency := in.Settings.CurrencySymbol
	if currency == "" {
		currency = core.DefaultSettings().CurrencySymbol
	}

	var out []core.Insight
	appendIf := func(ins *core.Insight) {
		if ins != nil {
			out = append(out, *ins)
		}
	}

	appendIf(cashflowRule(today, in.Transactions, currency, p))
	appendIf(spendingTrendRule(today, in.Transactions, currency, p))
	appendIf(concentrationRule(today, in.Transactions, p))
	appendIf(invoiceRule(today, in.Invoices, currency, p))
	appendIf(taxRule(today, in.Transactions, in.TaxPayments, in.Settings, currency, p))

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// inWindow reports whether a date string parses and falls inside
// (today-days, today], day granularity.
func inWindow(date string, today time.Time, days int) bool {
	d, ok := core.ParseDate(date)
	if !ok {
		return false
	}
	start := today.AddDate(0, 0, -days)
	return d.After(start) && !d.After(today)
}

// inPriorWindow reports whether a date falls inside the window of the same
// length immediately preceding the trailing one.
func inPriorWindow(date string, today time.Time, days int) bool {
	d, ok := core.ParseDate(date)
	if !ok {
		return false
	}
	start := today.AddDate(0, 0, -2*days)
	end := today.AddDate(0, 0, -days)
	return d.After(start) && !d.After(end)
}

func monthBucket(today time.Time) string {
	return today.Format("2006-01")
}

func cashflowRule(today time.Time, txs []core.Transaction, currency string, p Policy) *core.Insight {
	scoped := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if inWindow(t.Date, today, p.TrailingWindowDays) {
			scoped = append(scoped, t)
		}
	}
	// Sparse data: fall back to the full history rather than staying quiet
	// on a brand-new ledger.
	if len(scoped) < p.MinTransactions {
		scoped = txs
	}
	if len(scoped) == 0 {
		return nil
	}

	income, expenses := decimal.Zero, decimal.Zero
	for _, t := range scoped {
		switch t.Type {
		case core.Income:
			income = income.Add(t.Amount.Decimal)
		case core.Expense:
			expenses = expenses.Add(t.Amount.Decimal)
		}
	}
	if income.IsZero() && expenses.IsZero() {
		return nil
	}

	net := income.Sub(expenses)
	bucket := monthBucket(today)
	if net.IsNegative() {
		return &core.Insight{
			ID:       "cashflow-negative-" + bucket,
			Type:     core.InsightAlert,
			Category: core.CategoryCashflow,
			Title:    "Negative cash flow",
			Message: fmt.Sprintf("Expenses exceed income by %s%s over the last %d days.",
				currency, net.Neg().StringFixed(2), p.TrailingWindowDays),
			Recommendation: "Review recent expenses and consider deferring non-essential spending.",
			Priority:       priorityNegativeCashflow,
		}
	}
	if income.IsPositive() {
		rate := net.Div(income)
		if rate.LessThan(p.LowSavingsRate) {
			return &core.Insight{
				ID:       "cashflow-low-savings-" + bucket,
				Type:     core.InsightWarning,
				Category: core.CategoryCashflow,
				Title:    "Low savings rate",
				Message: fmt.Sprintf("Only %s%% of income is left after expenses.",
					rate.Mul(hundred).StringFixed(1)),
				Recommendation: "Aim to keep at least 10% of income as a buffer.",
				Priority:       priorityLowSavings,
			}
		}
		if p.EmitPositive && rate.GreaterThanOrEqual(p.HealthySavingsRate) {
			return &core.Insight{
				ID:       "cashflow-healthy-" + bucket,
				Type:     core.InsightPositive,
				Category: core.CategoryCashflow,
				Title:    "Healthy cash flow",
				Message: fmt.Sprintf("You kept %s%% of income over the last %d days.",
					rate.Mul(hundred).StringFixed(1), p.TrailingWindowDays),
				Priority: priorityHealthyCashflow,
			}
		}
	}
	return nil
}

func spendingTrendRule(today time.Time, txs []core.Transaction, currency string, p Policy) *core.Insight {
	curr, prev := decimal.Zero, decimal.Zero
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		switch {
		case inWindow(t.Date, today, p.TrailingWindowDays):
			curr = curr.Add(t.Amount.Decimal)
		case inPriorWindow(t.Date, today, p.TrailingWindowDays):
			prev = prev.Add(t.Amount.Decimal)
		}
	}
	if !prev.IsPositive() {
		return nil
	}

	changePct := curr.Sub(prev).Div(prev).Mul(hundred)
	bucket := monthBucket(today)
	if changePct.GreaterThanOrEqual(p.SpendingRisePct) {
		return &core.Insight{
			ID:       "spending-rise-" + bucket,
			Type:     core.InsightWarning,
			Category: core.CategorySpending,
			Title:    "Spending is up",
			Message: fmt.Sprintf("Spending is up %s%% compared to the previous %d days (%s%s vs %s%s).",
				changePct.StringFixed(1), p.TrailingWindowDays,
				currency, curr.StringFixed(2), currency, prev.StringFixed(2)),
			Recommendation: "Check the largest recent expenses for one-offs you can avoid repeating.",
			Priority:       prioritySpendingRise,
		}
	}
	if p.EmitPositive && changePct.Neg().GreaterThanOrEqual(p.SpendingFallPct) {
		return &core.Insight{
			ID:       "spending-drop-" + bucket,
			Type:     core.InsightPositive,
			Category: core.CategorySpending,
			Title:    "Spending is down",
			Message: fmt.Sprintf("Spending is down %s%% compared to the previous %d days.",
				changePct.Neg().StringFixed(1), p.TrailingWindowDays),
			Priority: prioritySpendingDrop,
		}
	}
	return nil
}

func concentrationRule(today time.Time, txs []core.Transaction, p Policy) *core.Insight {
	totals := map[string]decimal.Decimal{}
	order := make([]string, 0)
	total := decimal.Zero
	for _, t := range txs {
		if t.Type != core.Expense || !inWindow(t.Date, today, p.TrailingWindowDays) {
			continue
		}
		cat := t.CategoryOrDefault()
		if _, seen := totals[cat]; !seen {
			order = append(order, cat)
		}
		totals[cat] = totals[cat].Add(t.Amount.Decimal)
		total = total.Add(t.Amount.Decimal)
	}
	if !total.IsPositive() {
		return nil
	}

	// First-seen order breaks ties deterministically.
	topCat, topAmt := "", decimal.Zero
	for _, cat := range order {
		if totals[cat].GreaterThan(topAmt) {
			topCat, topAmt = cat, totals[cat]
		}
	}
	share := topAmt.Div(total)
	if !share.GreaterThan(p.ConcentrationShare) {
		return nil
	}
	return &core.Insight{
		ID:       "patterns-concentration-" + slugify(topCat) + "-" + monthBucket(today),
		Type:     core.InsightInfo,
		Category: core.CategoryPatterns,
		Title:    "Spending is concentrated",
		Message: fmt.Sprintf("%s accounts for %s%% of spending in the last %d days.",
			topCat, share.Mul(hundred).StringFixed(1), p.TrailingWindowDays),
		Priority: priorityConcentration,
	}
}

func invoiceRule(today time.Time, invoices []core.Invoice, currency string, p Policy) *core.Insight {
	// An invoice is overdue once its due date is strictly before yesterday,
	// i.e. at least one full day past due.
	cutoff := today.AddDate(0, 0, -1)

	var (
		overdueCount int
		overdueTotal = decimal.Zero
		earliestDue  time.Time
		unpaidCount  int
	)
	for _, inv := range invoices {
		if inv.Status != core.InvoiceUnpaid {
			continue
		}
		unpaidCount++
		due, ok := core.ParseDate(inv.DueDate)
		if !ok || !due.Before(cutoff) {
			continue
		}
		overdueCount++
		overdueTotal = overdueTotal.Add(inv.Amount.Decimal)
		if earliestDue.IsZero() || due.Before(earliestDue) {
			earliestDue = due
		}
	}

	if overdueCount > 0 {
		noun := "invoices are"
		if overdueCount == 1 {
			noun = "invoice is"
		}
		return &core.Insight{
			// Keyed by the earliest due date so the ID holds steady while
			// the same invoices stay outstanding.
			ID:       "invoices-overdue-" + core.FormatDate(earliestDue),
			Type:     core.InsightAlert,
			Category: core.CategoryInvoices,
			Title:    "Overdue invoices",
			Message: fmt.Sprintf("%d %s overdue, totaling %s%s.",
				overdueCount, noun, currency, overdueTotal.StringFixed(2)),
			Recommendation: "Send payment reminders to the affected clients.",
			Priority:       priorityOverdueInvoices,
		}
	}
	if unpaidCount >= p.UnpaidVolume {
		return &core.Insight{
			ID:       "invoices-unpaid-" + monthBucket(today),
			Type:     core.InsightWarning,
			Category: core.CategoryInvoices,
			Title:    "Many unpaid invoices",
			Message:  fmt.Sprintf("%d invoices are awaiting payment.", unpaidCount),
			Priority: priorityUnpaidVolume,
		}
	}
	return nil
}

func taxRule(today time.Time, txs []core.Transaction, payments []core.TaxPayment, settings core.Settings, currency string, p Policy) *core.Insight {
	year := today.Year()
	ytdIncome := decimal.Zero
	for _, t := range txs {
		if t.Type != core.Income {
			continue
		}
		if d, ok := core.ParseDate(t.Date); ok && d.Year() == year {
			ytdIncome = ytdIncome.Add(t.Amount.Decimal)
		}
	}
	ytdPaid := decimal.Zero
	for _, tp := range payments {
		if d, ok := core.ParseDate(tp.Date); ok && d.Year() == year {
			ytdPaid = ytdPaid.Add(tp.Amount.Decimal)
		}
	}

	combinedRate := settings.TaxRate.Decimal.Add(settings.StateTaxRate.Decimal)
	if !ytdIncome.IsPositive() || !combinedRate.IsPositive() {
		return nil
	}
	estimated := ytdIncome.Mul(combinedRate).Div(hundred)
	funded := ytdPaid.Div(estimated)
	yearTag := today.Format("2006")

	if funded.LessThan(p.TaxUnderfundedRatio) && today.Month() >= p.TaxNoiseCutoffMonth {
		return &core.Insight{
			ID:       "tax-underfunded-" + yearTag,
			Type:     core.InsightWarning,
			Category: core.CategoryTax,
			Title:    "Tax payments are behind",
			Message: fmt.Sprintf("Estimated tax owed so far is %s%s, but only %s%s has been set aside.",
				currency, estimated.StringFixed(2), currency, ytdPaid.StringFixed(2)),
			Recommendation: "Schedule an estimated tax payment to avoid penalties.",
			Priority:       priorityTaxUnderfunded,
		}
	}
	if p.EmitPositive && funded.GreaterThanOrEqual(p.TaxFundedRatio) && ytdPaid.IsPositive() {
		return &core.Insight{
			ID:       "tax-funded-" + yearTag,
			Type:     core.InsightPositive,
			Category: core.CategoryTax,
			Title:    "Taxes are on track",
			Message: fmt.Sprintf("Tax payments cover %s%% of the estimated liability.",
				funded.Mul(hundred).StringFixed(1)),
			Priority: priorityTaxFunded,
		}
	}
	return nil
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
