// Package sales turns imported sales rows into a reviewed preview against
// the current inventory, resolving product names exact-first then fuzzy.
package sales

import (
	"fmt"
	"strings"

	"armkala-backend/internal/inventory"
	"armkala-backend/internal/match"
	"armkala-backend/internal/text"
)

// Row statuses. A row is either committable or carries its own error; a bad
// row never aborts the batch.
const (
	StatusOK    = "OK"
	StatusError = "Error"
)

// InputRow is one raw sales-import row.
type InputRow struct {
	ProductName  string  `json:"product_name"`
	QuantitySold int     `json:"quantity_sold"`
	SellPrice    float64 `json:"sell_price"`
}

// PreviewRow is the reviewed form of an input row.
type PreviewRow struct {
	ProductName  string  `json:"product_name"`
	QuantitySold int     `json:"quantity_sold"`
	SellPrice    float64 `json:"sell_price"`
	CostPrice    float64 `json:"cost_price"`
	Status       string  `json:"status"`
	Message      string  `json:"message"`
	ResolvedName string  `json:"resolved_name"`
}

// Summary counts the preview outcome.
type Summary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Errors  int `json:"errors"`
}

// scratch is the per-run working copy of on-hand quantities, decremented as
// rows are tentatively accepted so rows for the same product stack within
// one batch instead of each seeing the stale starting quantity.
type scratch struct {
	available map[string]int
	cost      map[string]float64
	sell      map[string]float64
	name      map[string]string
	index     *match.Index
}

func newScratch(table inventory.Table) *scratch {
	s := &scratch{
		available: make(map[string]int, len(table.Rows)),
		cost:      make(map[string]float64, len(table.Rows)),
		sell:      make(map[string]float64, len(table.Rows)),
		name:      make(map[string]string, len(table.Rows)),
	}
	for _, row := range table.Rows {
		key := row.Key()
		s.available[key] = row.Quantity
		s.cost[key] = row.AvgBuyPrice
		s.sell[key] = row.SellPrice
		if _, ok := s.name[key]; !ok {
			s.name[key] = row.ProductName
		}
	}
	s.index = match.NewIndex(table.Names())
	return s
}

// resolve returns the normalized key for name, trying the exact key first
// and falling back to a strict-cutoff fuzzy match.
func (s *scratch) resolve(name string) (key string, fuzzy bool, ok bool) {
	key = text.Normalize(name)
	if _, exact := s.available[key]; exact {
		return key, false, true
	}
	m, found := s.index.Best(name, match.StrictCutoff)
	if !found {
		return "", false, false
	}
	return text.Normalize(m.Candidate), true, true
}

func (s *scratch) evaluate(in InputRow) PreviewRow {
	name := strings.TrimSpace(in.ProductName)
	if name == "" {
		return PreviewRow{Status: StatusError, Message: "Missing product name"}
	}
	if in.QuantitySold <= 0 {
		return PreviewRow{
			ProductName:  name,
			QuantitySold: in.QuantitySold,
			SellPrice:    in.SellPrice,
			Status:       StatusError,
			Message:      "Invalid quantity",
		}
	}

	key, viaFuzzy, ok := s.resolve(name)
	if !ok {
		return PreviewRow{
			ProductName:  name,
			QuantitySold: in.QuantitySold,
			SellPrice:    in.SellPrice,
			Status:       StatusError,
			Message:      "Product not found",
		}
	}

	costPrice := s.cost[key]
	sellPrice := in.SellPrice
	if sellPrice <= 0 {
		if stored := s.sell[key]; stored > 0 {
			sellPrice = stored
		} else {
			sellPrice = costPrice
		}
	}

	// The scratch value may go negative; overselling is surfaced to the
	// human reviewing the preview, not rejected here.
	s.available[key] -= in.QuantitySold

	message := "Will update stock"
	if viaFuzzy {
		message = fmt.Sprintf("Matched to %s", s.name[key])
	}
	return PreviewRow{
		ProductName:  name,
		QuantitySold: in.QuantitySold,
		SellPrice:    sellPrice,
		CostPrice:    costPrice,
		Status:       StatusOK,
		Message:      message,
		ResolvedName: s.name[key],
	}
}

// Preview evaluates every input row against one shared scratch availability
// map seeded from the table.
func Preview(rows []InputRow, table inventory.Table) ([]PreviewRow, Summary) {
	s := newScratch(table)
	out := make([]PreviewRow, 0, len(rows))
	summary := Summary{Total: len(rows)}
	for _, in := range rows {
		row := s.evaluate(in)
		if row.Status == StatusOK {
			summary.Success++
		} else {
			summary.Errors++
		}
		out = append(out, row)
	}
	return out, summary
}

// Refresh re-evaluates only the rows at indices, in place, against a fresh
// scratch map. Decrement state is intentionally not carried across refresh
// calls: this serves one-row-at-a-time hand edits, not batch commits.
func Refresh(rows []PreviewRow, table inventory.Table, indices []int) Summary {
	if indices == nil {
		indices = make([]int, len(rows))
		for i := range rows {
			indices[i] = i
		}
	}

	s := newScratch(table)
	for _, idx := range indices {
		if idx < 0 || idx >= len(rows) {
			continue
		}
		prev := rows[idx]
		rows[idx] = s.evaluate(InputRow{
			ProductName:  prev.ProductName,
			QuantitySold: prev.QuantitySold,
			SellPrice:    prev.SellPrice,
		})
	}

	summary := Summary{Total: len(rows)}
	for _, row := range rows {
		if row.Status == StatusOK {
			summary.Success++
		} else {
			summary.Errors++
		}
	}
	return summary
}
