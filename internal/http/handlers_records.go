package http

import (
	"errors"
	"net/http"

	"finsight/internal/core"
	applog "finsight/internal/log"
)

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		txs, err := s.reader.ListTransactions(r.Context())
		if err != nil {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "List transactions failed", applog.FieldError, err)
			writeError(w, http.StatusInternalServerError, "could not list transactions")
			return
		}
		if txs == nil {
			txs = []core.Transaction{}
		}
		writeJSON(w, http.StatusOK, txs)

	case http.MethodPost:
		var t core.Transaction
		if err := readJSON(r, &t); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		t.Category = sanitizeInput(t.Category)
		t.Notes = sanitizeInput(t.Notes)

		saved, err := s.creator.CreateTransaction(r.Context(), t)
		if err != nil {
			writeRecordError(w, r, "transaction", err)
			return
		}
		s.invalidateInsights()
		applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created",
			applog.FieldRecordID, saved.ID,
			applog.FieldAmount, saved.Amount.String(),
			applog.FieldCategory, saved.Category)
		writeJSON(w, http.StatusCreated, saved)

	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleInvoices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		invoices, err := s.reader.ListInvoices(r.Context())
		if err != nil {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "List invoices failed", applog.FieldError, err)
			writeError(w, http.StatusInternalServerError, "could not list invoices")
			return
		}
		if invoices == nil {
			invoices = []core.Invoice{}
		}
		writeJSON(w, http.StatusOK, invoices)

	case http.MethodPost:
		var inv core.Invoice
		if err := readJSON(r, &inv); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		inv.Client = sanitizeInput(inv.Client)

		saved, err := s.creator.CreateInvoice(r.Context(), inv)
		if err != nil {
			writeRecordError(w, r, "invoice", err)
			return
		}
		s.invalidateInsights()
		applog.FromContext(r.Context()).InfoContext(r.Context(), "Invoice created",
			applog.FieldRecordID, saved.ID,
			applog.FieldAmount, saved.Amount.String())
		writeJSON(w, http.StatusCreated, saved)

	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleTaxPayments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		payments, err := s.reader.ListTaxPayments(r.Context())
		if err != nil {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "List tax payments failed", applog.FieldError, err)
			writeError(w, http.StatusInternalServerError, "could not list tax payments")
			return
		}
		if payments == nil {
			payments = []core.TaxPayment{}
		}
		writeJSON(w, http.StatusOK, payments)

	case http.MethodPost:
		var p core.TaxPayment
		if err := readJSON(r, &p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		saved, err := s.creator.CreateTaxPayment(r.Context(), p)
		if err != nil {
			writeRecordError(w, r, "tax payment", err)
			return
		}
		s.invalidateInsights()
		applog.FromContext(r.Context()).InfoContext(r.Context(), "Tax payment created",
			applog.FieldRecordID, saved.ID,
			applog.FieldAmount, saved.Amount.String())
		writeJSON(w, http.StatusCreated, saved)

	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// writeRecordError maps validation failures to 422 and everything else to 500.
func writeRecordError(w http.ResponseWriter, r *http.Request, kind string, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidTransactionType),
		errors.Is(err, core.ErrInvalidInvoiceStatus),
		errors.Is(err, core.ErrMissingDate):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Record save failed", "kind", kind, applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not save "+kind)
	}
}
