package api

import (
	"fmt"
	"net/http"

	"armkala-backend/internal/fileio"
	"armkala-backend/internal/inventory"
	"armkala-backend/internal/ledger"
	"armkala-backend/internal/text"
	"armkala-backend/internal/utils"
)

// OpenInventory points the store at a spreadsheet and loads it.
func (a *API) OpenInventory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if req.Path == "" {
		a.writeError(w, r, fmt.Errorf("%w: path is required", ledger.ErrValidation))
		return
	}

	a.Inventory.SetPath(req.Path)
	table, err := a.Inventory.Reload()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.App.SetInventoryFile(req.Path); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"path": req.Path,
		"rows": len(table.Rows),
	})
}

// ReloadInventory re-reads the configured spreadsheet from disk.
func (a *API) ReloadInventory(w http.ResponseWriter, r *http.Request) {
	table, err := a.Inventory.Reload()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": len(table.Rows)})
}

// SaveInventory replaces the whole table with the submitted rows. The
// response carries the change report against the previous snapshot, and a
// non-empty change set triggers a backup.
func (a *API) SaveInventory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rows []inventory.Row `json:"rows"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	oldTable, err := a.Inventory.Snapshot()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	newTable := inventory.Table{Rows: req.Rows}
	report := inventory.Diff(oldTable, newTable)

	if !report.Empty() {
		done := a.Notifier.Scope("inventory edited", actingUser(r))
		defer done()
	}

	if err := a.Inventory.SaveTable(newTable); err != nil {
		a.writeError(w, r, err)
		return
	}

	if !report.Empty() {
		if err := a.Ledger.LogAction(optional(actingUser(r)), "inventory_save", "Inventory saved", report.Render()); err != nil {
			a.Log.Warn().Err(err).Msg("action log write failed")
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"report":   report,
		"rendered": report.Render(),
	})
}

// LowStockReport lists rows at or under their alarm threshold. Rows without
// a per-row alarm fall back to the threshold query parameter.
func (a *API) LowStockReport(w http.ResponseWriter, r *http.Request) {
	table, err := a.Inventory.Snapshot()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	threshold := queryInt(r, "threshold", 5)
	rows := table.LowStock(threshold)
	writeJSON(w, http.StatusOK, map[string]any{
		"threshold": threshold,
		"rows":      rows,
	})
}

// ImportSellPrices reads an uploaded price list and updates sell prices for
// exact-name matches. Unmatched names come back so the operator can fix them.
func (a *API) ImportSellPrices(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		a.writeError(w, r, fmt.Errorf("%w: missing file upload", inventory.ErrFileFormat))
		return
	}
	defer file.Close()

	records, err := fileio.ReadAnyMaps(file, header.Filename, 1)
	if err != nil {
		a.writeError(w, r, fmt.Errorf("%w: read price file: %v", inventory.ErrFileFormat, err))
		return
	}

	table, err := a.Inventory.Snapshot()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	working := table.Clone()
	index := working.Index()

	updated := 0
	var unmatched []string
	for _, rec := range records {
		name, price, ok := sellPriceCells(rec)
		if !ok {
			continue
		}
		idx, found := index[text.Normalize(name)]
		if !found {
			unmatched = append(unmatched, name)
			continue
		}
		working.Rows[idx].SellPrice = utils.Round4(price)
		updated++
	}

	if updated > 0 {
		done := a.Notifier.Scope("sell prices imported", actingUser(r))
		defer done()
		if err := a.Inventory.SaveTable(working); err != nil {
			a.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"updated":   updated,
		"unmatched": unmatched,
	})
}

var sellPriceNameHeaders = []string{"product_name", "product name", "product", "نام کالا", "نام محصول", "کالا"}
var sellPriceValueHeaders = []string{"sell_price", "sell price", "price", "قیمت فروش", "قیمت"}

func sellPriceCells(rec map[string]string) (name string, price float64, ok bool) {
	lower := make(map[string]string, len(rec))
	for k, v := range rec {
		lower[text.NormalizeSearch(k)] = v
	}
	for _, h := range sellPriceNameHeaders {
		if v, found := lower[text.NormalizeSearch(h)]; found && v != "" {
			name = v
			break
		}
	}
	for _, h := range sellPriceValueHeaders {
		if v, found := lower[text.NormalizeSearch(h)]; found {
			if p, parsed := utils.ParseFloat(v); parsed {
				price = p
				ok = name != ""
				return
			}
		}
	}
	return "", 0, false
}
