package memory

import (
	"context"
	"fmt"
	"sync"

	"finsight/internal/core"
)

// Ledger is an in-memory LedgerWriter used in tests and when no
// spreadsheet is configured.
type Ledger struct {
	mu    sync.Mutex
	items []core.Transaction
	fail  error
}

func New() *Ledger {
	return &Ledger{}
}

// FailWith makes every subsequent Append return err.
func (l *Ledger) FailWith(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fail = err
}

// Append stores the transaction and returns a synthetic row reference.
func (l *Ledger) Append(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail != nil {
		return "", l.fail
	}
	l.items = append(l.items, t)
	return fmt.Sprintf("mem:%d", len(l.items)), nil
}

// Items returns a copy of everything appended so far.
func (l *Ledger) Items() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Transaction(nil), l.items...)
}
