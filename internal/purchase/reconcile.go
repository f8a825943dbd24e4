// Package purchase merges purchase invoice lines into the inventory table,
// maintaining the weighted-average cost basis per product.
package purchase

import (
	"strings"

	"armkala-backend/internal/inventory"
	"armkala-backend/internal/text"
	"armkala-backend/internal/utils"
)

// Line is one incoming purchase row.
type Line struct {
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// Summary ties out against the batch size:
// Updated + Created + Errors == TotalLines, always.
type Summary struct {
	TotalLines int `json:"total_lines"`
	Updated    int `json:"updated"`
	Created    int `json:"created"`
	Errors     int `json:"errors"`
}

// Apply merges lines into a copy of the table. Resolution is by exact
// normalized key only, with no fuzzy fallback: a purchase must target an
// exact existing SKU or explicitly create a new one. Products that cannot
// be resolved when creation is disabled come back in errors by name.
func Apply(lines []Line, table inventory.Table, allowCreate bool) (inventory.Table, Summary, []string) {
	out := table.Clone()
	index := make(map[string]int, len(out.Rows))
	for i, row := range out.Rows {
		index[row.Key()] = i
	}

	var errors []string
	summary := Summary{TotalLines: len(lines)}

	for _, line := range lines {
		// A purchase line must carry real goods at a real price. Zero or
		// negative values would poison the weighted average (a 0+0 merge
		// divides by zero), so the row is rejected instead of applied.
		if line.Quantity <= 0 || line.Price <= 0 {
			errors = append(errors, strings.TrimSpace(line.ProductName))
			continue
		}
		key := text.Normalize(line.ProductName)
		if idx, ok := index[key]; ok {
			row := &out.Rows[idx]

			// Values at or below zero carry no prior basis; seeding the
			// average from them would corrupt it with zeros.
			effectiveQty := row.Quantity
			if effectiveQty < 0 {
				effectiveQty = 0
			}
			effectiveAvg := row.AvgBuyPrice
			if effectiveAvg <= 0 {
				effectiveAvg = line.Price
			}

			newQty := effectiveQty + line.Quantity
			newAvg := (effectiveAvg*float64(effectiveQty) + line.Price*float64(line.Quantity)) / float64(newQty)

			row.Quantity = newQty
			row.AvgBuyPrice = utils.Round4(newAvg)
			row.LastBuyPrice = utils.Round4(line.Price)
			summary.Updated++
			continue
		}

		if !allowCreate {
			errors = append(errors, strings.TrimSpace(line.ProductName))
			continue
		}
		out.Rows = append(out.Rows, inventory.Row{
			ProductName:  strings.TrimSpace(line.ProductName),
			Quantity:     line.Quantity,
			AvgBuyPrice:  utils.Round4(line.Price),
			LastBuyPrice: utils.Round4(line.Price),
		})
		index[key] = len(out.Rows) - 1
		summary.Created++
	}

	summary.Errors = len(errors)
	return out, summary, errors
}
