package insights

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finsight/internal/core"
	"finsight/internal/dismiss"
)

// RecordSource supplies the records the engine inspects.
type RecordSource interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ListInvoices(ctx context.Context) ([]core.Invoice, error)
	ListTaxPayments(ctx context.Context) ([]core.TaxPayment, error)
	Settings(ctx context.Context) (core.Settings, error)
}

// Service glues the pure generator to storage and the dismissal store.
type Service struct {
	source    RecordSource
	dismissed *dismiss.Store
	policy    Policy

	// now is swappable for tests.
	now func() time.Time
}

func NewService(source RecordSource, dismissed *dismiss.Store, policy Policy) *Service {
	return &Service{
		source:    source,
		dismissed: dismissed,
		policy:    policy,
		now:       time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// List regenerates the findings and filters out dismissed IDs.
func (s *Service) List(ctx context.Context) ([]core.Insight, error) {
	all, err := s.generate(ctx)
	if err != nil {
		return nil, err
	}
	hidden := s.dismissed.Get(ctx)
	out := make([]core.Insight, 0, len(all))
	for _, ins := range all {
		if _, ok := hidden[ins.ID]; !ok {
			out = append(out, ins)
		}
	}
	return out, nil
}

// Dismiss hides one insight ID until the dismissal set is reset.
func (s *Service) Dismiss(ctx context.Context, id string) {
	s.dismissed.Add(ctx, id)
}

// ResetDismissals clears the dismissal set.
func (s *Service) ResetDismissals(ctx context.Context) {
	s.dismissed.Clear(ctx)
}

// ReplaceDismissals overwrites the dismissal set.
func (s *Service) ReplaceDismissals(ctx context.Context, ids []string) {
	s.dismissed.Replace(ctx, ids)
}

// BadgeCount returns how many findings are currently visible. It backs a
// UI badge and must always produce a number: any failure counts as zero.
func (s *Service) BadgeCount(ctx context.Context) int {
	visible, err := s.List(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Badge count degraded to zero", "error", err)
		return 0
	}
	return len(visible)
}

func (s *Service) generate(ctx context.Context) ([]core.Insight, error) {
	txs, err := s.source.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	invoices, err := s.source.ListInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	payments, err := s.source.ListTaxPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tax payments: %w", err)
	}
	settings, err := s.source.Settings(ctx)
	if err != nil {
		// Settings only tune currency and tax rates; fall back to defaults
		// rather than hiding every other finding.
		slog.WarnContext(ctx, "Falling back to default settings", "error", err)
		settings = core.DefaultSettings()
	}
	in := Input{
		Transactions: txs,
		Invoices:     invoices,
		TaxPayments:  payments,
		Settings:     settings,
	}
	return Generate(s.now(), in, s.policy), nil
}
