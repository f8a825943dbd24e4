package purchase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"armkala-backend/internal/inventory"
)

func table(rows ...inventory.Row) inventory.Table {
	return inventory.Table{Rows: rows}
}

func TestApplyWeightedAverage(t *testing.T) {
	start := table(inventory.Row{ProductName: "Widget", Quantity: 10, AvgBuyPrice: 100, LastBuyPrice: 100})

	out, summary, errs := Apply([]Line{{ProductName: "Widget", Price: 200, Quantity: 10}}, start, false)
	require.Empty(t, errs)
	assert.Equal(t, Summary{TotalLines: 1, Updated: 1}, summary)

	r := out.Rows[0]
	assert.Equal(t, 20, r.Quantity)
	assert.Equal(t, 150.0, r.AvgBuyPrice)
	assert.Equal(t, 200.0, r.LastBuyPrice)

	// the input table is untouched
	assert.Equal(t, 10, start.Rows[0].Quantity)
}

func TestApplyNonPositiveBasis(t *testing.T) {
	tests := []struct {
		name    string
		qty     int
		avg     float64
		wantQty int
		wantAvg float64
	}{
		{"negative stock carries no basis", -5, 100, 10, 200},
		{"zero average seeds from price", 10, 0, 20, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := table(inventory.Row{ProductName: "Widget", Quantity: tt.qty, AvgBuyPrice: tt.avg})
			out, _, _ := Apply([]Line{{ProductName: "Widget", Price: 200, Quantity: 10}}, start, false)
			assert.Equal(t, tt.wantQty, out.Rows[0].Quantity)
			assert.Equal(t, tt.wantAvg, out.Rows[0].AvgBuyPrice)
		})
	}
}

func TestApplyCreateAndError(t *testing.T) {
	start := table(inventory.Row{ProductName: "Widget", Quantity: 1, AvgBuyPrice: 10})
	lines := []Line{
		{ProductName: "Widget", Price: 10, Quantity: 1},
		{ProductName: "Bolt", Price: 5, Quantity: 2},
	}

	_, summary, errs := Apply(lines, start, false)
	assert.Equal(t, Summary{TotalLines: 2, Updated: 1, Errors: 1}, summary)
	assert.Equal(t, []string{"Bolt"}, errs)
	assert.Equal(t, summary.TotalLines, summary.Updated+summary.Created+summary.Errors)

	out, summary, errs := Apply(lines, start, true)
	require.Empty(t, errs)
	assert.Equal(t, Summary{TotalLines: 2, Updated: 1, Created: 1}, summary)
	assert.Equal(t, summary.TotalLines, summary.Updated+summary.Created+summary.Errors)

	require.Len(t, out.Rows, 2)
	created := out.Rows[1]
	assert.Equal(t, "Bolt", created.ProductName)
	assert.Equal(t, 2, created.Quantity)
	assert.Equal(t, 5.0, created.AvgBuyPrice)
	assert.Equal(t, 5.0, created.LastBuyPrice)
}

func TestApplyRejectsNonPositiveLines(t *testing.T) {
	start := table(inventory.Row{ProductName: "Widget", Quantity: 0, AvgBuyPrice: 0})
	lines := []Line{
		{ProductName: "Widget", Price: 0, Quantity: 0},
		{ProductName: "Widget", Price: 100, Quantity: -2},
		{ProductName: "Widget", Price: -5, Quantity: 3},
	}

	out, summary, errs := Apply(lines, start, false)
	assert.Equal(t, Summary{TotalLines: 3, Errors: 3}, summary)
	assert.Equal(t, []string{"Widget", "Widget", "Widget"}, errs)
	assert.Equal(t, summary.TotalLines, summary.Updated+summary.Created+summary.Errors)

	// the row stays untouched, in particular the average stays a number
	assert.Equal(t, 0, out.Rows[0].Quantity)
	assert.Equal(t, 0.0, out.Rows[0].AvgBuyPrice)
}

func TestApplyExactKeyOnly(t *testing.T) {
	start := table(inventory.Row{ProductName: "Widget", Quantity: 1, AvgBuyPrice: 10})
	// a near-miss name must not fuzzy-resolve on the purchase path
	_, summary, errs := Apply([]Line{{ProductName: "Wdiget", Price: 10, Quantity: 1}}, start, false)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, []string{"Wdiget"}, errs)
}

func TestApplyNormalizedKeyResolution(t *testing.T) {
	start := table(inventory.Row{ProductName: "پیچ", Quantity: 5, AvgBuyPrice: 100})
	// arabic yeh spelling folds to the same key
	_, summary, errs := Apply([]Line{{ProductName: "پيچ", Price: 100, Quantity: 5}}, start, false)
	require.Empty(t, errs)
	assert.Equal(t, 1, summary.Updated)
}

func TestApplySameBatchStacks(t *testing.T) {
	start := table(inventory.Row{ProductName: "Widget", Quantity: 0, AvgBuyPrice: 0})
	lines := []Line{
		{ProductName: "Widget", Price: 100, Quantity: 10},
		{ProductName: "Widget", Price: 200, Quantity: 10},
	}
	out, summary, _ := Apply(lines, start, false)
	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, 20, out.Rows[0].Quantity)
	assert.Equal(t, 150.0, out.Rows[0].AvgBuyPrice)
}
