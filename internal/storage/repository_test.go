package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"finsight/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestReopenExistingDatabase(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	repo, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	if _, err := repo.CreateTransaction(ctx, core.Transaction{
		Type:   core.Income,
		Amount: core.ParseAmount("100"),
		Date:   "2025-07-01",
	}); err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("close repository: %v", err)
	}

	// Reopening migrates the already-current schema and the connection
	// must stay usable afterwards.
	repo, err = NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("reopen repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	txs, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("transactions after reopen = %d, want 1", len(txs))
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	saved, err := repo.CreateTransaction(ctx, core.Transaction{
		Type:   core.Income,
		Amount: core.ParseAmount("1250.75"),
		Date:   "2025-07-01",
		Notes:  "consulting retainer",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected a generated ID")
	}
	if saved.Category != core.DefaultCategory {
		t.Errorf("category = %q, want default", saved.Category)
	}

	got, err := repo.GetTransaction(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount.String() != "1250.75" || got.Type != core.Income || got.Date != "2025-07-01" {
		t.Errorf("round trip mismatch: %+v", got)
	}

	list, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list size = %d", len(list))
	}
}

func TestInvoiceAndTaxPaymentRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	inv, err := repo.CreateInvoice(ctx, core.Invoice{
		Status:  core.InvoiceUnpaid,
		Amount:  core.ParseAmount("300"),
		DueDate: "2025-08-01",
		Client:  "Acme",
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	invoices, err := repo.ListInvoices(ctx)
	if err != nil {
		t.Fatalf("list invoices: %v", err)
	}
	if len(invoices) != 1 || invoices[0].ID != inv.ID || invoices[0].Client != "Acme" {
		t.Errorf("invoices = %+v", invoices)
	}

	if _, err := repo.CreateTaxPayment(ctx, core.TaxPayment{
		Amount: core.ParseAmount("150.50"),
		Date:   "2025-06-15",
	}); err != nil {
		t.Fatalf("create tax payment: %v", err)
	}

	payments, err := repo.ListTaxPayments(ctx)
	if err != nil {
		t.Fatalf("list tax payments: %v", err)
	}
	if len(payments) != 1 || payments[0].Amount.String() != "150.5" {
		t.Errorf("payments = %+v", payments)
	}
}

func TestPendingSyncLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first, _ := repo.CreateTransaction(ctx, core.Transaction{Type: core.Expense, Amount: core.ParseAmount("10"), Date: "2025-07-01"})
	second, _ := repo.CreateTransaction(ctx, core.Transaction{Type: core.Expense, Amount: core.ParseAmount("20"), Date: "2025-07-02"})

	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}

	if err := repo.MarkSynced(ctx, first.ID); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if err := repo.MarkSyncError(ctx, second.ID); err != nil {
		t.Fatalf("mark sync error: %v", err)
	}

	pending, err = repo.GetPendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d after marking, want 0", len(pending))
	}
}

func TestSlotLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.GetSlot(ctx, "nope"); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("missing slot error = %v, want ErrSlotNotFound", err)
	}

	if err := repo.SetSlot(ctx, "insight_dismissals", `["a","b"]`); err != nil {
		t.Fatalf("set slot: %v", err)
	}
	got, err := repo.GetSlot(ctx, "insight_dismissals")
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if got != `["a","b"]` {
		t.Errorf("slot = %q", got)
	}

	// Upsert overwrites in place.
	if err := repo.SetSlot(ctx, "insight_dismissals", `[]`); err != nil {
		t.Fatalf("set slot: %v", err)
	}
	got, _ = repo.GetSlot(ctx, "insight_dismissals")
	if got != `[]` {
		t.Errorf("slot after upsert = %q", got)
	}

	if err := repo.DeleteSlot(ctx, "insight_dismissals"); err != nil {
		t.Fatalf("delete slot: %v", err)
	}
	if _, err := repo.GetSlot(ctx, "insight_dismissals"); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("deleted slot error = %v, want ErrSlotNotFound", err)
	}
}

func TestSettingsDefaultsAndPersistence(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	s, err := repo.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if s.CurrencySymbol != "$" {
		t.Errorf("default currency = %q", s.CurrencySymbol)
	}

	s.CurrencySymbol = "€"
	s.TaxRate = core.ParseAmount("22")
	if err := repo.SaveSettings(ctx, s); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	got, err := repo.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if got.CurrencySymbol != "€" || got.TaxRate.String() != "22" {
		t.Errorf("settings = %+v", got)
	}

	// The slot itself holds the raw JSON document.
	raw, err := repo.GetSlot(ctx, "settings")
	if err != nil {
		t.Fatalf("get settings slot: %v", err)
	}
	if !json.Valid([]byte(raw)) {
		t.Errorf("settings slot is not valid JSON: %q", raw)
	}
	if !strings.Contains(raw, "€") {
		t.Errorf("settings slot missing saved currency: %q", raw)
	}
}
