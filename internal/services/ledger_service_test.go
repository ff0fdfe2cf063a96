package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"finsight/internal/core"
	"finsight/internal/storage"
)

func newTestService(t *testing.T) *LedgerService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	// Nil AMQP client: publishing degrades to a warning, saves still work.
	svc := NewLedgerService(repo, nil)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestCreateTransactionWithoutAMQP(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	saved, err := svc.CreateTransaction(ctx, core.Transaction{
		Type:   core.Expense,
		Amount: core.ParseAmount("75"),
		Date:   "2025-07-01",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if saved.ID == "" {
		t.Error("expected a generated ID")
	}
}

func TestCreateTransactionRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.CreateTransaction(ctx, core.Transaction{Type: "transfer", Date: "2025-07-01"})
	if !errors.Is(err, core.ErrInvalidTransactionType) {
		t.Errorf("err = %v, want ErrInvalidTransactionType", err)
	}

	_, err = svc.CreateInvoice(ctx, core.Invoice{Status: core.InvoiceUnpaid})
	if !errors.Is(err, core.ErrMissingDate) {
		t.Errorf("err = %v, want ErrMissingDate", err)
	}
}

func TestCreateInvoiceAndTaxPayment(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	inv, err := svc.CreateInvoice(ctx, core.Invoice{
		Status:  core.InvoiceUnpaid,
		Amount:  core.ParseAmount("500"),
		DueDate: "2025-08-01",
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	if inv.ID == "" {
		t.Error("expected a generated invoice ID")
	}

	p, err := svc.CreateTaxPayment(ctx, core.TaxPayment{
		Amount: core.ParseAmount("120"),
		Date:   "2025-06-15",
	})
	if err != nil {
		t.Fatalf("create tax payment: %v", err)
	}
	if p.ID == "" {
		t.Error("expected a generated payment ID")
	}
}

func TestCloseWithNilComponents(t *testing.T) {
	svc := &LedgerService{}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close with nil components: %v", err)
	}
}
