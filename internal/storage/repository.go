package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finsight/internal/core"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Sync states for the ledger export queue.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

// ErrSlotNotFound is returned when a key-value slot has never been written.
var ErrSlotNotFound = errors.New("slot not found")

// settingsSlot is the kv slot holding the dashboard settings document.
const settingsSlot = "settings"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateTransaction stores a transaction and queues it for ledger export.
// A missing ID is filled in with a fresh UUID.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Category = t.CategoryOrDefault()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, type, amount, category, tx_date, notes, sync_state)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Type), t.Amount.String(), t.Category, t.Date, t.Notes, SyncPending)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"type", t.Type,
		"amount", t.Amount.String(),
		"category", t.Category)

	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, type, amount, category, tx_date, notes FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, amount, category, tx_date, notes FROM transactions ORDER BY tx_date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invoices (id, status, amount, due_date, client) VALUES (?, ?, ?, ?, ?)`,
		inv.ID, string(inv.Status), inv.Amount.String(), inv.DueDate, inv.Client)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}

	slog.InfoContext(ctx, "Invoice saved",
		"id", inv.ID,
		"status", inv.Status,
		"amount", inv.Amount.String(),
		"client", inv.Client)

	return inv, nil
}

func (r *SQLiteRepository) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, status, amount, due_date, client FROM invoices ORDER BY due_date ASC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []core.Invoice
	for rows.Next() {
		var inv core.Invoice
		var status, amount string
		if err := rows.Scan(&inv.ID, &status, &amount, &inv.DueDate, &inv.Client); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		inv.Status = core.InvoiceStatus(status)
		inv.Amount = core.ParseAmount(amount)
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateTaxPayment(ctx context.Context, p core.TaxPayment) (core.TaxPayment, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tax_payments (id, amount, pay_date) VALUES (?, ?, ?)`,
		p.ID, p.Amount.String(), p.Date)
	if err != nil {
		return core.TaxPayment{}, fmt.Errorf("create tax payment: %w", err)
	}

	slog.InfoContext(ctx, "Tax payment saved", "id", p.ID, "amount", p.Amount.String())

	return p, nil
}

func (r *SQLiteRepository) ListTaxPayments(ctx context.Context) ([]core.TaxPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount, pay_date FROM tax_payments ORDER BY pay_date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tax payments: %w", err)
	}
	defer rows.Close()

	var out []core.TaxPayment
	for rows.Next() {
		var p core.TaxPayment
		var amount string
		if err := rows.Scan(&p.ID, &amount, &p.Date); err != nil {
			return nil, fmt.Errorf("scan tax payment: %w", err)
		}
		p.Amount = core.ParseAmount(amount)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tax payments: %w", err)
	}
	return out, nil
}

// PendingSyncTransaction carries the minimum needed to drive a ledger export.
type PendingSyncTransaction struct {
	ID        string
	CreatedAt time.Time
}

// GetPendingSyncTransactions returns transactions waiting for ledger export.
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingSyncTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at FROM transactions WHERE sync_state = ? ORDER BY created_at ASC LIMIT ?`,
		SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var out []PendingSyncTransaction
	for rows.Next() {
		var p PendingSyncTransaction
		if err := rows.Scan(&p.ID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending sync transaction: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	return out, nil
}

// MarkSynced marks a transaction as successfully exported.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_state = ? WHERE id = ?`, SyncDone, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a transaction as having failed export.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_state = ? WHERE id = ?`, SyncError, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

// GetSlot implements dismiss.SlotStore.
func (r *SQLiteRepository) GetSlot(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT slot_value FROM kv_slots WHERE slot_key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSlotNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get slot %s: %w", key, err)
	}
	return value, nil
}

// SetSlot implements dismiss.SlotStore.
func (r *SQLiteRepository) SetSlot(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO kv_slots (slot_key, slot_value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(slot_key) DO UPDATE SET slot_value = excluded.slot_value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("set slot %s: %w", key, err)
	}
	return nil
}

// DeleteSlot implements dismiss.SlotStore.
func (r *SQLiteRepository) DeleteSlot(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM kv_slots WHERE slot_key = ?`, key); err != nil {
		return fmt.Errorf("delete slot %s: %w", key, err)
	}
	return nil
}

// Settings returns the stored dashboard settings, or defaults when none
// have been saved yet.
func (r *SQLiteRepository) Settings(ctx context.Context) (core.Settings, error) {
	raw, err := r.GetSlot(ctx, settingsSlot)
	if errors.Is(err, ErrSlotNotFound) {
		return core.DefaultSettings(), nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return core.ParseSettings([]byte(raw)), nil
}

// SaveSettings persists the dashboard settings document.
func (r *SQLiteRepository) SaveSettings(ctx context.Context, s core.Settings) error {
	raw, err := s.Marshal()
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := r.SetSlot(ctx, settingsSlot, string(raw)); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var typ, amount string
	if err := row.Scan(&t.ID, &typ, &amount, &t.Category, &t.Date, &t.Notes); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	t.Amount = core.ParseAmount(amount)
	return t, nil
}
