package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"armkala-backend/internal/fileio"
	"armkala-backend/internal/text"
	"armkala-backend/internal/utils"
)

// Canonical column order written on save. Extra columns from the source file
// are not round-tripped; the table schema is closed.
var columnOrder = []string{
	"product_name",
	"quantity",
	"avg_buy_price",
	"last_buy_price",
	"sell_price",
	"alarm",
	"source",
}

// Localized and historical header spellings, folded to canonical names.
var headerAliases = map[string]string{
	"product_name":      "product_name",
	"product name":      "product_name",
	"product":           "product_name",
	"نام محصول":         "product_name",
	"نام کالا":          "product_name",
	"کالا":              "product_name",
	"محصول":             "product_name",
	"quantity":          "quantity",
	"qty":               "quantity",
	"تعداد":             "quantity",
	"avg_buy_price":     "avg_buy_price",
	"avg buy price":     "avg_buy_price",
	"average buy price": "avg_buy_price",
	"قیمت خرید":         "avg_buy_price",
	"قيمت خريد":         "avg_buy_price",
	"میانگین قیمت خرید": "avg_buy_price",
	"last_buy_price":    "last_buy_price",
	"last buy price":    "last_buy_price",
	"آخرین قیمت خرید":   "last_buy_price",
	"آخرين قيمت خريد":   "last_buy_price",
	"sell_price":        "sell_price",
	"sell price":        "sell_price",
	"sales price":       "sell_price",
	"قیمت فروش":         "sell_price",
	"قيمت فروش":         "sell_price",
	"alarm":             "alarm",
	"آلارم":             "alarm",
	"source":            "source",
	"منبع":              "source",
}

func normalizeHeader(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "\uFEFF")
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "_", " ")
	value = strings.Join(strings.Fields(value), " ")
	// canonical names keep their underscores
	if alias, ok := headerAliases[strings.ReplaceAll(value, " ", "_")]; ok {
		return alias
	}
	if alias, ok := headerAliases[value]; ok {
		return alias
	}
	return ""
}

// Load reads and validates an inventory file (xlsx/xlsm/csv). Returns
// ErrFileFormat for unreadable files or missing required columns, and
// ErrValidation for fractional quantities.
func Load(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("%w: open inventory file: %v", ErrFileFormat, err)
	}
	defer f.Close()

	records, err := fileio.ReadAnyMaps(f, filepath.Base(path), 1)
	if err != nil {
		return Table{}, fmt.Errorf("%w: read inventory file: %v", ErrFileFormat, err)
	}
	return FromRecords(records)
}

// FromRecords builds a validated table from header-keyed records.
func FromRecords(records []map[string]string) (Table, error) {
	canon := make([]map[string]string, 0, len(records))
	seen := map[string]bool{}
	for _, rec := range records {
		m := map[string]string{}
		for k, v := range rec {
			c := normalizeHeader(k)
			if c == "" {
				continue
			}
			if _, dup := m[c]; !dup {
				m[c] = v
			}
			seen[c] = true
		}
		canon = append(canon, m)
	}

	for _, required := range []string{"product_name", "quantity", "avg_buy_price"} {
		if !seen[required] {
			return Table{}, fmt.Errorf("%w: missing required column: %s", ErrFileFormat, required)
		}
	}

	rows := make([]Row, 0, len(canon))
	for i, rec := range canon {
		name := strings.TrimSpace(rec["product_name"])
		if name == "" {
			continue // blank names are dropped, not fatal
		}

		row := Row{ProductName: name}

		if raw := strings.TrimSpace(rec["quantity"]); raw != "" && !text.IsEmptyMarker(raw) {
			qty, ok := utils.ParseInt(raw)
			if !ok {
				return Table{}, fmt.Errorf("%w: row %d: quantity must be a whole number", ErrValidation, i+2)
			}
			row.Quantity = qty
		}

		row.AvgBuyPrice = parsePriceCell(rec["avg_buy_price"])
		if raw, ok := rec["last_buy_price"]; ok && !text.IsEmptyMarker(raw) {
			row.LastBuyPrice = parsePriceCell(raw)
		} else {
			row.LastBuyPrice = row.AvgBuyPrice
		}
		row.SellPrice = parsePriceCell(rec["sell_price"])

		if raw := strings.TrimSpace(rec["alarm"]); !text.IsEmptyMarker(raw) {
			if v, ok := utils.ParseInt(raw); ok {
				row.Alarm = &v
			}
		}
		if raw := strings.TrimSpace(rec["source"]); !text.IsEmptyMarker(raw) {
			v := raw
			row.Source = &v
		}

		rows = append(rows, row)
	}

	return Table{Rows: rows}, nil
}

func parsePriceCell(raw string) float64 {
	if text.IsEmptyMarker(raw) {
		return 0
	}
	v, ok := utils.ParseFloat(raw)
	if !ok {
		return 0
	}
	return v
}

// Save writes the table to path as xlsx in canonical column order and
// re-applies the sheet presentation (RTL view, banded rows). Only xlsx/xlsm
// targets are supported for writing.
func Save(t Table, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xlsm" {
		return fmt.Errorf("%w: unsupported inventory save target: %s", ErrFileFormat, ext)
	}
	return writeWorkbook(t, path)
}
