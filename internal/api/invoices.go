package api

import (
	"fmt"
	"net/http"
	"time"

	"armkala-backend/internal/ledger"
)

// ListInvoices returns invoice headers, newest first.
func (a *API) ListInvoices(w http.ResponseWriter, r *http.Request) {
	filter := ledger.ListFilter{
		InvoiceType: r.URL.Query().Get("type"),
		Search:      r.URL.Query().Get("q"),
		Limit:       queryInt(r, "limit", 100),
		Offset:      queryInt(r, "offset", 0),
	}
	invoices, err := a.Ledger.ListInvoices(filter)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

// GetInvoice returns one invoice with its lines.
func (a *API) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	inv, err := a.Ledger.GetInvoice(id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	lines, err := a.Ledger.GetInvoiceLines(id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoice": inv, "lines": lines})
}

// RenameInvoice sets or clears the invoice display name.
func (a *API) RenameInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Ledger.UpdateInvoiceName(id, optional(req.Name)); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "name": req.Name})
}

// EditInvoice replaces the invoice lines, compensating the stock for the
// difference between the old lines and the new ones.
func (a *API) EditInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req struct {
		Lines []ledger.Line `json:"lines"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if len(req.Lines) == 0 {
		a.writeError(w, r, fmt.Errorf("%w: an invoice needs at least one line", ledger.ErrValidation))
		return
	}

	done := a.Notifier.Scope("invoice edited", actingUser(r))
	defer done()

	if err := a.Comp.UpdateInvoice(id, req.Lines); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Ledger.LogAction(optional(actingUser(r)), "invoice_edit", "Invoice edited",
		fmt.Sprintf("invoice %d", id)); err != nil {
		a.Log.Warn().Err(err).Msg("action log write failed")
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id})
}

// DeleteInvoice removes the invoice and unwinds its effect on the stock.
func (a *API) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	done := a.Notifier.Scope("invoice deleted", actingUser(r))
	defer done()

	if err := a.Comp.DeleteInvoice(id); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Ledger.LogAction(optional(actingUser(r)), "invoice_delete", "Invoice deleted",
		fmt.Sprintf("invoice %d", id)); err != nil {
		a.Log.Warn().Err(err).Msg("action log write failed")
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id})
}

// InvoicesBetween reports the invoices of a date range; from/to are
// YYYY-MM-DD, to is exclusive after being bumped a day.
func (a *API) InvoicesBetween(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		a.writeError(w, r, fmt.Errorf("%w: bad from date", ledger.ErrValidation))
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		a.writeError(w, r, fmt.Errorf("%w: bad to date", ledger.ErrValidation))
		return
	}
	invoices, err := a.Ledger.ListInvoicesBetween(from, to.AddDate(0, 0, 1))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

// LedgerStats returns the all-time totals.
func (a *API) LedgerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Ledger.GetStats()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// MonthlySummary returns the by-month totals, newest month first.
func (a *API) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	months, err := a.Ledger.MonthlySummary()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"months": months})
}

// RenameProduct rewrites a product name in the inventory and across the
// stored invoice lines so history stays searchable under the new name.
func (a *API) RenameProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OldName string `json:"old_name"`
		NewName string `json:"new_name"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	table, err := a.Inventory.Snapshot()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	working := table.Clone()
	idx, found := working.Find(req.OldName)
	if !found {
		a.writeError(w, r, fmt.Errorf("%w: product %q", ledger.ErrNotFound, req.OldName))
		return
	}
	working.Rows[idx].ProductName = req.NewName

	done := a.Notifier.Scope("product renamed", actingUser(r))
	defer done()

	if err := a.Inventory.SaveTable(working); err != nil {
		a.writeError(w, r, err)
		return
	}
	changed, err := a.Ledger.RenameProduct(req.OldName, req.NewName)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Ledger.LogAction(optional(actingUser(r)), "product_rename", "Product renamed",
		fmt.Sprintf("%s -> %s (%d ledger lines)", req.OldName, req.NewName, changed)); err != nil {
		a.Log.Warn().Err(err).Msg("action log write failed")
	}
	writeJSON(w, http.StatusOK, map[string]any{"ledger_lines": changed})
}
