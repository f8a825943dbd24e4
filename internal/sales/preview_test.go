package sales

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"armkala-backend/internal/inventory"
)

func stock(rows ...inventory.Row) inventory.Table {
	return inventory.Table{Rows: rows}
}

func TestPreviewHappyPath(t *testing.T) {
	table := stock(inventory.Row{ProductName: "Widget", Quantity: 10, AvgBuyPrice: 100, SellPrice: 150})

	rows, summary := Preview([]InputRow{{ProductName: "Widget", QuantitySold: 3, SellPrice: 160}}, table)
	require.Len(t, rows, 1)
	assert.Equal(t, Summary{Total: 1, Success: 1}, summary)

	r := rows[0]
	assert.Equal(t, StatusOK, r.Status)
	assert.Equal(t, "Will update stock", r.Message)
	assert.Equal(t, "Widget", r.ResolvedName)
	assert.Equal(t, 160.0, r.SellPrice)
	assert.Equal(t, 100.0, r.CostPrice)
}

func TestPreviewErrorRows(t *testing.T) {
	table := stock(inventory.Row{ProductName: "Widget", Quantity: 10})

	rows, summary := Preview([]InputRow{
		{ProductName: "", QuantitySold: 1},
		{ProductName: "Widget", QuantitySold: 0},
		{ProductName: "Nonexistent Thing", QuantitySold: 1},
		{ProductName: "Widget", QuantitySold: 2},
	}, table)

	assert.Equal(t, Summary{Total: 4, Success: 1, Errors: 3}, summary)
	assert.Equal(t, "Missing product name", rows[0].Message)
	assert.Equal(t, "Invalid quantity", rows[1].Message)
	assert.Equal(t, "Product not found", rows[2].Message)
	assert.Equal(t, StatusOK, rows[3].Status)
}

func TestPreviewFuzzyResolution(t *testing.T) {
	table := stock(inventory.Row{ProductName: "Widget", Quantity: 10})

	rows, _ := Preview([]InputRow{{ProductName: "Wdiget", QuantitySold: 1}}, table)
	require.Len(t, rows, 1)
	assert.Equal(t, StatusOK, rows[0].Status)
	assert.Equal(t, "Matched to Widget", rows[0].Message)
	assert.Equal(t, "Widget", rows[0].ResolvedName)
	assert.Equal(t, "Wdiget", rows[0].ProductName, "the typed name is preserved for display")
}

func TestPreviewScratchStacksAndAllowsNegative(t *testing.T) {
	table := stock(inventory.Row{ProductName: "Widget", Quantity: 5})

	rows, summary := Preview([]InputRow{
		{ProductName: "Widget", QuantitySold: 4},
		{ProductName: "Widget", QuantitySold: 4},
	}, table)

	// the second row oversells against the shared scratch map; it is still
	// accepted and the human reviewing the preview decides
	assert.Equal(t, Summary{Total: 2, Success: 2}, summary)
	assert.Equal(t, StatusOK, rows[0].Status)
	assert.Equal(t, StatusOK, rows[1].Status)
}

func TestPreviewSellPriceDefaults(t *testing.T) {
	table := stock(
		inventory.Row{ProductName: "Widget", Quantity: 10, AvgBuyPrice: 100, SellPrice: 150},
		inventory.Row{ProductName: "Bolt", Quantity: 10, AvgBuyPrice: 20},
	)

	rows, _ := Preview([]InputRow{
		{ProductName: "Widget", QuantitySold: 1},
		{ProductName: "Bolt", QuantitySold: 1},
	}, table)

	assert.Equal(t, 150.0, rows[0].SellPrice, "stored sell price wins when the row has none")
	assert.Equal(t, 20.0, rows[1].SellPrice, "cost price is the last resort")
}

func TestRefreshUsesFreshScratch(t *testing.T) {
	table := stock(inventory.Row{ProductName: "Widget", Quantity: 5})

	rows, _ := Preview([]InputRow{
		{ProductName: "Widget", QuantitySold: 3},
		{ProductName: "Widget", QuantitySold: 3},
	}, table)

	// refreshing only the second row sees the full starting quantity again
	summary := Refresh(rows, table, []int{1})
	assert.Equal(t, StatusOK, rows[1].Status)
	assert.Equal(t, 2, summary.Success)

	// nil indices refreshes everything
	summary = Refresh(rows, table, nil)
	assert.Equal(t, Summary{Total: 2, Success: 2}, summary)

	// out-of-range indices are ignored
	_ = Refresh(rows, table, []int{-1, 99})
}

func TestRefreshDropsStaleResolution(t *testing.T) {
	table := stock(inventory.Row{ProductName: "Widget", Quantity: 5})
	rows, _ := Preview([]InputRow{{ProductName: "Widget", QuantitySold: 1}}, table)

	// the product disappears from stock; a refresh must flag the row
	empty := stock()
	Refresh(rows, empty, nil)
	assert.Equal(t, StatusError, rows[0].Status)
	assert.Equal(t, "Product not found", rows[0].Message)
}
