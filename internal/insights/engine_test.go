package insights

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"finsight/internal/core"
)

// now: mid July keeps the tax rule past its early-year cutoff and gives a
// clean 30-day window of (2025-06-15, 2025-07-15].
var testNow = time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

func tx(typ core.TransactionType, amount, category, date string) core.Transaction {
	return core.Transaction{
		Type:     typ,
		Amount:   core.ParseAmount(amount),
		Category: category,
		Date:     date,
	}
}

func findByPrefix(t *testing.T, out []core.Insight, prefix string) *core.Insight {
	t.Helper()
	for i := range out {
		if strings.HasPrefix(out[i].ID, prefix) {
			return &out[i]
		}
	}
	return nil
}

func TestNegativeCashflowIsHighestPriority(t *testing.T) {
	in := Input{
		Transactions: []core.Transaction{
			tx(core.Income, "1000", "", "2025-07-01"),
			tx(core.Expense, "1200", "Rent", "2025-07-02"),
			tx(core.Expense, "300", "Software", "2025-07-03"),
		},
	}
	out := Generate(testNow, in, DefaultPolicy())

	ins := findByPrefix(t, out, "cashflow-negative-")
	if ins == nil {
		t.Fatal("expected a negative cashflow finding")
	}
	if ins.Type != core.InsightAlert {
		t.Errorf("type = %s, want alert", ins.Type)
	}
	if ins.ID != "cashflow-negative-2025-07" {
		t.Errorf("ID = %s", ins.ID)
	}
	if !strings.Contains(ins.Message, "$500.00") {
		t.Errorf("message = %q, want it to contain $500.00", ins.Message)
	}
	if out[0].ID != ins.ID {
		t.Errorf("negative cashflow should sort first, got %s", out[0].ID)
	}
}

func TestLowSavingsRate(t *testing.T) {
	in := Input{
		Transactions: []core.Transaction{
			tx(core.Income, "1000", "", "2025-07-01"),
			tx(core.Expense, "950", "Rent", "2025-07-02"),
			tx(core.Expense, "0", "Misc", "2025-07-03"),
		},
	}
	out := Generate(testNow, in, DefaultPolicy())

	ins := findByPrefix(t, out, "cashflow-low-savings-")
	if ins == nil {
		t.Fatal("expected a low savings finding")
	}
	if ins.Type != core.InsightWarning {
		t.Errorf("type = %s, want warning", ins.Type)
	}
	if !strings.Contains(ins.Message, "5.0%") {
		t.Errorf("message = %q, want 5.0%%", ins.Message)
	}
}

func TestHealthyCashflowRespectsEmitPositive(t *testing.T) {
	in := Input{
		Transactions: []core.Transaction{
			tx(core.Income, "1000", "", "2025-07-01"),
			tx(core.Expense, "600", "Rent", "2025-07-02"),
			tx(core.Expense, "100", "Misc", "2025-07-03"),
		},
	}

	out := Generate(testNow, in, DefaultPolicy())
	if findByPrefix(t, out, "cashflow-healthy-") == nil {
		t.Fatal("expected a healthy cashflow finding")
	}

	quiet := DefaultPolicy()
	quiet.EmitPositive = false
	out = Generate(testNow, in, quiet)
	if findByPrefix(t, out, "cashflow-healthy-") != nil {
		t.Error("positive finding emitted despite EmitPositive=false")
	}
}

func TestSparseWindowFallsBackToAllRecords(t *testing.T) {
	// Only one transaction inside the window, but the older history shows
	// a deficit: the rule must widen to all records instead of going quiet.
	in := Input{
		Transactions: []core.Transaction{
			tx(core.Expense, "50", "Misc", "2025-07-01"),
			tx(core.Income, "100", "", "2024-01-10"),
			tx(core.Expense, "500", "Rent", "2024-01-15"),
		},
	}
	out := Generate(testNow, in, DefaultPolicy())
	if findByPrefix(t, out, "cashflow-negative-") == nil {
		t.Error("expected fallback to full history to produce a deficit finding")
	}
}

func TestSpendingRisePercentage(t *testing.T) {
	in := Input{
		Transactions: []core.Transaction{
			tx(core.Expense, "125", "Rent", "2025-07-01"), // trailing window
			tx(core.Expense, "100", "Rent", "2025-06-10"), // prior window
		},
	}
	out := Generate(testNow, in, DefaultPolicy())

	ins := findByPrefix(t, out, "spending-rise-")
	if ins == nil {
		t.Fatal("expected a spending rise finding at exactly +25%")
	}
	if !strings.Contains(ins.Message, "25.0%") {
		t.Errorf("message = %q, want 25.0%%", ins.Message)
	}
}

func TestSpendingRiseBelowThresholdIsQuiet(t *testing.T) {
	in := Input{
		Transactions: []core.Transaction{
			tx(core.Expense, "124", "Rent", "2025-07-01"),
			tx(core.Expense, "100", "Rent", "2025-06-10"),
		},
	}
	out := Generate(testNow, in, DefaultPolicy())
	if findByPrefix(t, out, "spending-rise-") != nil {
		t.Error("rise finding fired below the 25% threshold")
	}
}

func TestSpendingDropIsPositive(t *testing.T) {
	in := Input{
		Transactions: []core.Transaction{
			tx(core.Expense, "70", "Rent", "2025-07-01"),
			tx(core.Expense, "100", "Rent", "2025-06-10"),
		},
	}
	out := Generate(testNow, in, DefaultPolicy())

	ins := findByPrefix(t, out, "spending-drop-")
	if ins == nil {
		t.Fatal("expected a spending drop finding at -30%")
	}
	if ins.Type != core.InsightPositive {
		t.Errorf("type = %s, want positive", ins.Type)
	}
}

func TestNoPriorSpendingMeansNoTrend(t *testing.T) {
	in := Input{
		Transactions: []core.Transaction{
			tx(core.Expense, "125", "Rent", "2025-07-01"),
		},
	}
	out := Generate(testNow, in, DefaultPolicy())
	if findByPrefix(t, out, "spending-rise-") != nil || findByPrefix(t, out, "spending-drop-") != nil {
		t.Error("trend finding fired with an empty prior window")
	}
}

func TestConcentration(t *testing.T) {
	in := Input{
		Transactions: []core.Transaction{
			tx(core.Expense, "50", "Software", "2025-07-01"),
			tx(core.Expense, "40", "Travel", "2025-07-02"),
		},
	}
	out := Generate(testNow, in, DefaultPolicy())

	ins := findByPrefix(t, out, "patterns-concentration-")
	if ins == nil {
		t.Fatal("expected a concentration finding at 55.6% share")
	}
	if ins.ID != "patterns-concentration-software-2025-07" {
		t.Errorf("ID = %s", ins.ID)
	}
	if !strings.Contains(ins.Message, "Software") {
		t.Errorf("message = %q", ins.Message)
	}
}

func TestConcentrationUsesDefaultCategory(t *testing.T) {
	in := Input{
		Transactions: []core.Transaction{
			tx(core.Expense, "90", "", "2025-07-01"),
			tx(core.Expense, "10", "Travel", "2025-07-02"),
		},
	}
	out := Generate(testNow, in, DefaultPolicy())

	ins := findByPrefix(t, out, "patterns-concentration-")
	if ins == nil {
		t.Fatal("expected a concentration finding")
	}
	if !strings.Contains(ins.Message, core.DefaultCategory) {
		t.Errorf("message = %q, want %s", ins.Message, core.DefaultCategory)
	}
}

func TestOverdueInvoiceBoundary(t *testing.T) {
	// Overdue means at least one full day past due: with today at
	// 2025-07-15, a due date of 2025-07-13 is overdue and 2025-07-14 is not.
	tests := []struct {
		name    string
		due     string
		status  core.InvoiceStatus
		overdue bool
	}{
		{"one full day past due", "2025-07-13", core.InvoiceUnpaid, true},
		{"due yesterday", "2025-07-14", core.InvoiceUnpaid, false},
		{"due today", "2025-07-15", core.InvoiceUnpaid, false},
		{"paid long past due", "2025-01-01", core.InvoicePaid, false},
		{"void long past due", "2025-01-01", core.InvoiceVoid, false},
		{"unparseable due date", "garbage", core.InvoiceUnpaid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{
				Invoices: []core.Invoice{
					{Status: tt.status, Amount: core.ParseAmount("100"), DueDate: tt.due},
				},
			}
			out := Generate(testNow, in, DefaultPolicy())
			got := findByPrefix(t, out, "invoices-overdue-") != nil
			if got != tt.overdue {
				t.Errorf("overdue = %v, want %v", got, tt.overdue)
			}
		})
	}
}

func TestOverdueInvoiceIDKeyedByEarliestDue(t *testing.T) {
	in := Input{
		Invoices: []core.Invoice{
			{Status: core.InvoiceUnpaid, Amount: core.ParseAmount("100"), DueDate: "2025-07-01"},
			{Status: core.InvoiceUnpaid, Amount: core.ParseAmount("250.50"), DueDate: "2025-06-20"},
		},
	}
	out := Generate(testNow, in, DefaultPolicy())

	ins := findByPrefix(t, out, "invoices-overdue-")
	if ins == nil {
		t.Fatal("expected an overdue finding")
	}
	if ins.ID != "invoices-overdue-2025-06-20" {
		t.Errorf("ID = %s", ins.ID)
	}
	if !strings.Contains(ins.Message, "2 invoices are overdue") {
		t.Errorf("message = %q", ins.Message)
	}
	if !strings.Contains(ins.Message, "350.50") {
		t.Errorf("message = %q, want total 350.50", ins.Message)
	}
}

func TestUnpaidVolume(t *testing.T) {
	invoices := make([]core.Invoice, 5)
	for i := range invoices {
		invoices[i] = core.Invoice{
			Status:  core.InvoiceUnpaid,
			Amount:  core.ParseAmount("10"),
			DueDate: "2025-08-01", // not yet due
		}
	}
	out := Generate(testNow, Input{Invoices: invoices}, DefaultPolicy())

	ins := findByPrefix(t, out, "invoices-unpaid-")
	if ins == nil {
		t.Fatal("expected an unpaid volume finding at 5 invoices")
	}
	if ins.Priority != priorityUnpaidVolume {
		t.Errorf("priority = %d", ins.Priority)
	}

	// One fewer stays quiet.
	out = Generate(testNow, Input{Invoices: invoices[:4]}, DefaultPolicy())
	if findByPrefix(t, out, "invoices-unpaid-") != nil {
		t.Error("unpaid volume finding fired below threshold")
	}
}

func TestTaxUnderfunded(t *testing.T) {
	in := Input{
		Transactions: []core.Transaction{
			tx(core.Income, "1000", "", "2025-03-01"),
		},
		Settings: core.Settings{
			CurrencySymbol: "$",
			TaxRate:        core.ParseAmount("15"),
			StateTaxRate:   core.ParseAmount("5"),
		},
	}
	out := Generate(testNow, in, DefaultPolicy())

	ins := findByPrefix(t, out, "tax-underfunded-")
	if ins == nil {
		t.Fatal("expected an underfunded tax finding")
	}
	if ins.ID != "tax-underfunded-2025" {
		t.Errorf("ID = %s", ins.ID)
	}
	// 1000 income at a 20% combined rate: 200.00 owed, 0.00 set aside.
	if !strings.Contains(ins.Message, "200.00") || !strings.Contains(ins.Message, "0.00") {
		t.Errorf("message = %q", ins.Message)
	}
}

func TestTaxUnderfundedSuppressedEarlyInYear(t *testing.T) {
	feb := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	in := Input{
		Transactions: []core.Transaction{
			tx(core.Income, "1000", "", "2025-01-15"),
		},
		Settings: core.Settings{TaxRate: core.ParseAmount("20")},
	}
	out := Generate(feb, in, DefaultPolicy())
	if findByPrefix(t, out, "tax-underfunded-") != nil {
		t.Error("underfunded finding fired before the March cutoff")
	}
}

func TestTaxFunded(t *testing.T) {
	in := Input{
		Transactions: []core.Transaction{
			tx(core.Income, "1000", "", "2025-03-01"),
		},
		TaxPayments: []core.TaxPayment{
			{Amount: core.ParseAmount("180"), Date: "2025-06-01"},
		},
		Settings: core.Settings{TaxRate: core.ParseAmount("20")},
	}
	out := Generate(testNow, in, DefaultPolicy())

	ins := findByPrefix(t, out, "tax-funded-")
	if ins == nil {
		t.Fatal("expected a funded tax finding at 90%")
	}
	if ins.Type != core.InsightPositive {
		t.Errorf("type = %s, want positive", ins.Type)
	}
}

func TestTaxIgnoresOtherYears(t *testing.T) {
	in := Input{
		Transactions: []core.Transaction{
			tx(core.Income, "1000", "", "2024-03-01"),
		},
		Settings: core.Settings{TaxRate: core.ParseAmount("20")},
	}
	out := Generate(testNow, in, DefaultPolicy())
	if findByPrefix(t, out, "tax-") != nil {
		t.Error("tax finding fired on prior-year income only")
	}
}

func TestInvalidDatesExcludedFromWindows(t *testing.T) {
	in := Input{
		Transactions: []core.Transaction{
			tx(core.Expense, "1000000", "Rent", "not-a-date"),
			tx(core.Income, "100", "", "2025-07-01"),
			tx(core.Income, "100", "", "2025-07-02"),
			tx(core.Income, "100", "", "2025-07-03"),
		},
	}
	out := Generate(testNow, in, DefaultPolicy())
	if findByPrefix(t, out, "cashflow-negative-") != nil {
		t.Error("undated expense leaked into the trailing window")
	}
}

func TestEmptyInputProducesNoFindings(t *testing.T) {
	out := Generate(testNow, Input{}, DefaultPolicy())
	if len(out) != 0 {
		t.Errorf("got %d findings from empty input", len(out))
	}
}

func TestFindingsSortedByDescendingPriority(t *testing.T) {
	in := Input{
		Transactions: []core.Transaction{
			tx(core.Income, "100", "", "2025-07-01"),
			tx(core.Expense, "300", "Rent", "2025-07-02"),
			tx(core.Expense, "100", "Travel", "2025-07-03"),
			tx(core.Expense, "100", "Rent", "2025-06-10"),
		},
		Invoices: []core.Invoice{
			{Status: core.InvoiceUnpaid, Amount: core.ParseAmount("50"), DueDate: "2025-07-01"},
		},
	}
	out := Generate(testNow, in, DefaultPolicy())
	if len(out) < 3 {
		t.Fatalf("expected several findings, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].Priority > out[i-1].Priority {
			t.Errorf("findings out of order at %d: %d after %d", i, out[i].Priority, out[i-1].Priority)
		}
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	in := Input{
		Transactions: []core.Transaction{
			tx(core.Income, "100", "", "2025-07-01"),
			tx(core.Expense, "300", "Rent", "2025-07-02"),
		},
		Invoices: []core.Invoice{
			{Status: core.InvoiceUnpaid, Amount: core.ParseAmount("50"), DueDate: "2025-06-01"},
		},
	}
	a := Generate(testNow, in, DefaultPolicy())
	b := Generate(testNow, in, DefaultPolicy())
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same input produced different output:\n%v\n%v", a, b)
	}
}
