// Package inventory owns the stock table: loading and saving the spreadsheet
// file, the normalized-name index, and the add/edit/remove diff between two
// snapshots.
package inventory

import (
	"errors"
	"strings"

	"armkala-backend/internal/text"
)

// Sentinel error kinds. Wrap with fmt.Errorf("%w: ...") and test with
// errors.Is at the API boundary.
var (
	// ErrFileFormat marks an unreadable or malformed inventory/sales file.
	ErrFileFormat = errors.New("file format error")
	// ErrValidation marks bad row data inside an otherwise readable file.
	ErrValidation = errors.New("validation error")
	// ErrSaveInProgress is returned when a save worker is already running.
	ErrSaveInProgress = errors.New("inventory save already in progress")
)

// Row is one product line of the inventory table.
type Row struct {
	ProductName  string  `json:"product_name"`
	Quantity     int     `json:"quantity"`
	AvgBuyPrice  float64 `json:"avg_buy_price"`
	LastBuyPrice float64 `json:"last_buy_price"`
	SellPrice    float64 `json:"sell_price"`
	Alarm        *int    `json:"alarm,omitempty"`
	Source       *string `json:"source,omitempty"`
}

// Key returns the normalized product key for the row.
func (r Row) Key() string { return text.Normalize(r.ProductName) }

// Table is an in-memory inventory snapshot. Row order is the file order and
// is preserved through save so diffs stay stable.
type Table struct {
	Rows []Row
}

// Clone returns a deep copy; pointer fields are re-boxed so mutations on the
// copy never leak into the original.
func (t Table) Clone() Table {
	rows := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = r
		if r.Alarm != nil {
			v := *r.Alarm
			rows[i].Alarm = &v
		}
		if r.Source != nil {
			v := *r.Source
			rows[i].Source = &v
		}
	}
	return Table{Rows: rows}
}

// Index maps normalized key to row position. Duplicate keys keep the last
// occurrence, matching the diff builder's dedupe rule.
func (t Table) Index() map[string]int {
	idx := make(map[string]int, len(t.Rows))
	for i, r := range t.Rows {
		idx[r.Key()] = i
	}
	return idx
}

// Names returns the raw product names in table order.
func (t Table) Names() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = strings.TrimSpace(r.ProductName)
	}
	return out
}

// Find resolves a product by normalized key.
func (t Table) Find(productName string) (int, bool) {
	key := text.Normalize(productName)
	for i := len(t.Rows) - 1; i >= 0; i-- {
		if t.Rows[i].Key() == key {
			return i, true
		}
	}
	return 0, false
}

// LowStockRow is a product at or below its alarm threshold.
type LowStockRow struct {
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Alarm       int     `json:"alarm"`
	Needed      int     `json:"needed"`
	AvgBuyPrice float64 `json:"avg_buy_price"`
	SellPrice   float64 `json:"sell_price"`
	Source      *string `json:"source,omitempty"`
}

// LowStock lists rows whose quantity is at or below the per-row alarm, or
// the fallback threshold when the row has none.
func (t Table) LowStock(threshold int) []LowStockRow {
	out := make([]LowStockRow, 0)
	for _, r := range t.Rows {
		alarm := threshold
		if r.Alarm != nil {
			alarm = *r.Alarm
		}
		if alarm <= 0 || r.Quantity > alarm {
			continue
		}
		out = append(out, LowStockRow{
			ProductName: r.ProductName,
			Quantity:    r.Quantity,
			Alarm:       alarm,
			Needed:      alarm - r.Quantity,
			AvgBuyPrice: r.AvgBuyPrice,
			SellPrice:   r.SellPrice,
			Source:      r.Source,
		})
	}
	return out
}
