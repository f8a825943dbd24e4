package api

import (
	"fmt"
	"net/http"

	"armkala-backend/internal/inventory"
	"armkala-backend/internal/ledger"
	"armkala-backend/internal/purchase"
	"armkala-backend/internal/sales"
)

// ImportSales parses an uploaded sales export and returns the preview
// against the current stock.
func (a *API) ImportSales(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		a.writeError(w, r, fmt.Errorf("%w: missing file upload", inventory.ErrFileFormat))
		return
	}
	defer file.Close()

	rows, err := sales.LoadFile(file, header.Filename)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	table, err := a.Inventory.Snapshot()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	preview, summary := sales.Preview(rows, table)
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":    preview,
		"summary": summary,
	})
}

// PreviewSales re-runs the preview over client-held rows, e.g. after manual
// entry in the sales grid.
func (a *API) PreviewSales(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rows []sales.InputRow `json:"rows"`
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
	preview, summary := sales.Preview(req.Rows, table)
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":    preview,
		"summary": summary,
	})
}

// RefreshSales re-evaluates the rows at the given indices (all rows when the
// list is absent) against a fresh availability map.
func (a *API) RefreshSales(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rows    []sales.PreviewRow `json:"rows"`
		Indices []int              `json:"indices"`
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
	summary := sales.Refresh(req.Rows, table, req.Indices)
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":    req.Rows,
		"summary": summary,
	})
}

// CommitSales turns the OK preview rows into a sales invoice and deducts the
// stock, in one compensated commit.
func (a *API) CommitSales(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rows        []sales.PreviewRow `json:"rows"`
		InvoiceName string             `json:"invoice_name"`
		Manual      bool               `json:"manual"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	var lines []ledger.Line
	for _, row := range req.Rows {
		if row.Status != sales.StatusOK {
			continue
		}
		name := row.ResolvedName
		if name == "" {
			name = row.ProductName
		}
		lines = append(lines, ledger.Line{
			ProductName: name,
			Price:       row.SellPrice,
			Quantity:    row.QuantitySold,
		})
	}
	if len(lines) == 0 {
		a.writeError(w, r, fmt.Errorf("%w: no committable rows", ledger.ErrValidation))
		return
	}

	invoiceType := ledger.TypeSales
	if req.Manual {
		invoiceType = ledger.TypeSalesManual
	}

	done := a.Notifier.Scope("sales invoice recorded", actingUser(r))
	defer done()

	id, err := a.Comp.CommitSalesInvoice(invoiceType, lines, optional(req.InvoiceName), nil, optional(actingUser(r)))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Ledger.LogAction(optional(actingUser(r)), "sales_commit", "Sales invoice recorded",
		fmt.Sprintf("invoice %d, %d lines", id, len(lines))); err != nil {
		a.Log.Warn().Err(err).Msg("action log write failed")
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoice_id": id, "lines": len(lines)})
}

// ApplyPurchase merges purchase lines into the stock and records a purchase
// invoice. With dry_run set, only the reconciliation summary is returned.
func (a *API) ApplyPurchase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Lines       []purchase.Line `json:"lines"`
		InvoiceName string          `json:"invoice_name"`
		AllowCreate bool            `json:"allow_create"`
		DryRun      bool            `json:"dry_run"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if len(req.Lines) == 0 {
		a.writeError(w, r, fmt.Errorf("%w: no purchase lines", ledger.ErrValidation))
		return
	}

	table, err := a.Inventory.Snapshot()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	_, summary, errNames := purchase.Apply(req.Lines, table, req.AllowCreate)

	if req.DryRun || summary.Errors > 0 {
		status := http.StatusOK
		if summary.Errors > 0 {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]any{
			"summary": summary,
			"errors":  errNames,
		})
		return
	}

	lines := make([]ledger.Line, 0, len(req.Lines))
	for _, ln := range req.Lines {
		lines = append(lines, ledger.Line{
			ProductName: ln.ProductName,
			Price:       ln.Price,
			Quantity:    ln.Quantity,
			CostPrice:   ln.Price,
		})
	}

	done := a.Notifier.Scope("purchase invoice recorded", actingUser(r))
	defer done()

	id, err := a.Comp.CommitPurchaseInvoice(lines, optional(req.InvoiceName), nil, optional(actingUser(r)))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Ledger.LogAction(optional(actingUser(r)), "purchase_commit", "Purchase invoice recorded",
		fmt.Sprintf("invoice %d, %d lines", id, len(lines))); err != nil {
		a.Log.Warn().Err(err).Msg("action log write failed")
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"invoice_id": id,
		"summary":    summary,
	})
}
