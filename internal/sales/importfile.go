package sales

import (
	"fmt"
	"io"
	"strings"

	"armkala-backend/internal/fileio"
	"armkala-backend/internal/inventory"
	"armkala-backend/internal/utils"
)

var salesAliases = map[string]string{
	"product_name":   "product_name",
	"product name":   "product_name",
	"product":        "product_name",
	"نام کالا":       "product_name",
	"نام محصول":      "product_name",
	"کالا":           "product_name",
	"محصول":          "product_name",
	"quantity_sold":  "quantity_sold",
	"quantity":       "quantity_sold",
	"qty":            "quantity_sold",
	"quantity sold":  "quantity_sold",
	"total quantity": "quantity_sold",
	"تعداد":          "quantity_sold",
	"جمع تعداد":      "quantity_sold",
	"sell_price":     "sell_price",
	"sell price":     "sell_price",
	"sales price":    "sell_price",
	"unit price":     "sell_price",
	"price":          "sell_price",
}

func canonicalSalesHeader(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "\uFEFF")
	value = strings.ToLower(value)
	if alias, ok := salesAliases[value]; ok {
		return alias
	}
	value = strings.ReplaceAll(value, "_", " ")
	value = strings.Join(strings.Fields(value), " ")
	if alias, ok := salesAliases[value]; ok {
		return alias
	}
	return ""
}

// LoadFile parses a sales export (xlsx/xlsm/xls/csv) into input rows.
// product_name and quantity_sold columns are required (aliases accepted);
// sell_price is optional. Fractional quantities parse to zero so the
// preview flags them per row instead of failing the whole file.
func LoadFile(r io.Reader, filename string) ([]InputRow, error) {
	records, err := fileio.ReadAnyMaps(r, filename, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: read sales file: %v", inventory.ErrFileFormat, err)
	}

	seen := map[string]bool{}
	canon := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		m := map[string]string{}
		for k, v := range rec {
			c := canonicalSalesHeader(k)
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
	if !seen["product_name"] || !seen["quantity_sold"] {
		return nil, fmt.Errorf(
			"%w: sales file missing required columns: product_name, quantity_sold (aliases: Product Name, Quantity)",
			inventory.ErrFileFormat,
		)
	}

	rows := make([]InputRow, 0, len(canon))
	for _, rec := range canon {
		row := InputRow{ProductName: strings.TrimSpace(rec["product_name"])}
		if qty, ok := utils.ParseInt(rec["quantity_sold"]); ok {
			row.QuantitySold = qty
		}
		if price, ok := utils.ParseFloat(rec["sell_price"]); ok {
			row.SellPrice = price
		}
		rows = append(rows, row)
	}
	return rows, nil
}
