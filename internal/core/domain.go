package core

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	InvoiceUnpaid InvoiceStatus = "unpaid"
	InvoicePaid   InvoiceStatus = "paid"
	InvoiceVoid   InvoiceStatus = "void"
)

// DefaultCategory is assigned to transactions recorded without a category.
const DefaultCategory = "Uncategorized"

type (
	TransactionType string
	InvoiceStatus   string

	Transaction struct {
		ID       string          `json:"id"`
		Type     TransactionType `json:"type"`
		Amount   Amount          `json:"amount"`
		Category string          `json:"category,omitempty"`
		Date     string          `json:"date"`
		Notes    string          `json:"notes,omitempty"`
	}

	Invoice struct {
		ID      string        `json:"id"`
		Status  InvoiceStatus `json:"status"`
		Amount  Amount        `json:"amount"`
		DueDate string        `json:"dueDate"`
		Client  string        `json:"client,omitempty"`
	}

	TaxPayment struct {
		ID     string `json:"id"`
		Amount Amount `json:"amount"`
		Date   string `json:"date"`
	}

	// Settings carries the display currency and the combined tax position.
	// Rates are percentages (15 means 15%).
	Settings struct {
		CurrencySymbol string `json:"currencySymbol"`
		TaxRate        Amount `json:"taxRate"`
		StateTaxRate   Amount `json:"stateTaxRate"`
	}
)

var (
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidInvoiceStatus   = errors.New("invalid invoice status")
	ErrMissingDate            = errors.New("missing date")
)

// DefaultSettings returns the settings used when none have been stored yet.
func DefaultSettings() Settings {
	return Settings{CurrencySymbol: "$"}
}

// ParseSettings decodes a stored settings document. Malformed documents
// fall back to defaults rather than failing the caller.
func ParseSettings(raw []byte) Settings {
	s := DefaultSettings()
	if err := json.Unmarshal(raw, &s); err != nil {
		return DefaultSettings()
	}
	if strings.TrimSpace(s.CurrencySymbol) == "" {
		s.CurrencySymbol = DefaultSettings().CurrencySymbol
	}
	return s
}

// Marshal encodes the settings for slot storage.
func (s Settings) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// CategoryOrDefault returns the transaction category, falling back to
// DefaultCategory for blank values.
func (t Transaction) CategoryOrDefault() string {
	if c := strings.TrimSpace(t.Category); c != "" {
		return c
	}
	return DefaultCategory
}

func (t Transaction) Validate() error {
	switch t.Type {
	case Income, Expense:
	default:
		return ErrInvalidTransactionType
	}
	if strings.TrimSpace(t.Date) == "" {
		return ErrMissingDate
	}
	return nil
}

func (i Invoice) Validate() error {
	switch i.Status {
	case InvoiceUnpaid, InvoicePaid, InvoiceVoid:
	default:
		return ErrInvalidInvoiceStatus
	}
	if strings.TrimSpace(i.DueDate) == "" {
		return ErrMissingDate
	}
	return nil
}

func (p TaxPayment) Validate() error {
	if strings.TrimSpace(p.Date) == "" {
		return ErrMissingDate
	}
	return nil
}
