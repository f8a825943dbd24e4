package api

import (
	"net/http"
	"sort"

	"armkala-backend/internal/text"
)

// TopSoldProducts ranks products by quantity sold over a trailing window.
// days=0 means all time.
func (a *API) TopSoldProducts(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 90)
	limit := queryInt(r, "limit", 10)

	items, err := a.Ledger.TopSoldProducts(days, limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// MonthlyQuantities returns per-month sold/purchased quantity flow.
func (a *API) MonthlyQuantities(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 12)

	items, err := a.Ledger.MonthlyQuantitySummary(limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

type unsoldRow struct {
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	AvgBuyPrice float64 `json:"avg_buy_price"`
	Source      *string `json:"source,omitempty"`
}

// UnsoldProducts lists inventory rows with no sales line inside the window,
// highest stock first. These are the candidates for discounting or return.
func (a *API) UnsoldProducts(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30)
	limit := queryInt(r, "limit", 200)

	table, err := a.Inventory.Snapshot()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	sold, err := a.Ledger.SoldProductNames(days)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	soldKeys := make(map[string]bool, len(sold))
	for _, name := range sold {
		soldKeys[text.Normalize(name)] = true
	}

	items := make([]unsoldRow, 0)
	for _, row := range table.Rows {
		if soldKeys[row.Key()] {
			continue
		}
		items = append(items, unsoldRow{
			ProductName: row.ProductName,
			Quantity:    row.Quantity,
			AvgBuyPrice: row.AvgBuyPrice,
			Source:      row.Source,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Quantity != items[j].Quantity {
			return items[i].Quantity > items[j].Quantity
		}
		return items[i].ProductName < items[j].ProductName
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}
