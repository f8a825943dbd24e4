package inventory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(name string, qty int, avg, last, sell float64) Row {
	return Row{ProductName: name, Quantity: qty, AvgBuyPrice: avg, LastBuyPrice: last, SellPrice: sell}
}

func TestDiffNoChanges(t *testing.T) {
	old := Table{Rows: []Row{row("Widget", 10, 100, 100, 150)}}
	report := Diff(old, old.Clone())
	assert.True(t, report.Empty())
	assert.Equal(t, "", report.Render())
}

func TestDiffAddedEditedRemoved(t *testing.T) {
	old := Table{Rows: []Row{
		row("Widget", 10, 100, 100, 150),
		row("Bolt", 5, 20, 20, 30),
	}}
	new := Table{Rows: []Row{
		row("Widget", 12, 100, 100, 150),
		row("Nut", 7, 3, 3, 5),
	}}

	report := Diff(old, new)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, report.Edited)
	assert.Equal(t, 1, report.Removed)
	assert.False(t, report.Fallback)
	require.Len(t, report.Changes, 3)

	// added/edited in new order first, then removed in old order
	assert.Equal(t, ChangeEdited, report.Changes[0].Kind)
	assert.Equal(t, "Widget", report.Changes[0].ProductName)
	assert.Equal(t, ChangeAdded, report.Changes[1].Kind)
	assert.Equal(t, "Nut", report.Changes[1].ProductName)
	assert.Equal(t, ChangeRemoved, report.Changes[2].Kind)
	assert.Equal(t, "Bolt", report.Changes[2].ProductName)

	// edited entries carry only the differing columns
	require.Len(t, report.Changes[0].Fields, 1)
	assert.Equal(t, "quantity", report.Changes[0].Fields[0].Column)
	assert.Equal(t, "10", report.Changes[0].Fields[0].Before)
	assert.Equal(t, "12", report.Changes[0].Fields[0].After)
}

func TestDiffEpsilonAndEmptyMarkers(t *testing.T) {
	src := "NaN"
	oldRow := row("Widget", 10, 100, 100, 150)
	oldRow.Source = &src

	newRow := row("Widget", 10, 100.0000004, 100, 150)
	report := Diff(Table{Rows: []Row{oldRow}}, Table{Rows: []Row{newRow}})
	assert.True(t, report.Empty(), "sub-epsilon float drift and NaN-vs-nil source must not count as edits")
}

func TestDiffDuplicateKeysKeepLast(t *testing.T) {
	old := Table{Rows: []Row{row("Widget", 10, 100, 100, 150)}}
	new := Table{Rows: []Row{
		row("Widget", 3, 100, 100, 150),
		row("Widget", 10, 100, 100, 150), // same key, last occurrence wins
	}}
	report := Diff(old, new)
	assert.True(t, report.Empty())
}

func TestDiffRenderDeterministic(t *testing.T) {
	old := Table{Rows: []Row{
		row("Widget", 10, 100, 100, 150),
		row("Bolt", 5, 20, 20, 30),
		row("Nut", 1, 2, 2, 3),
	}}
	new := Table{Rows: []Row{
		row("Widget", 11, 100, 100, 150),
		row("Screw", 4, 8, 8, 12),
	}}

	first := Diff(old, new).Render()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Diff(old, new).Render(), "identical inputs must render byte-identical reports")
	}

	assert.True(t, strings.HasPrefix(first, "Changes: 1 added, 1 edited, 2 removed\n"))
	assert.Contains(t, first, "[Added] Screw")
	assert.Contains(t, first, "[Edited] Widget")
	assert.Contains(t, first, "[Removed] Bolt")
	assert.Contains(t, first, "[Removed] Nut")
}

func TestDiffThousandsSeparators(t *testing.T) {
	old := Table{Rows: []Row{}}
	new := Table{Rows: []Row{row("Widget", 1200, 1500000, 1500000, 1750000)}}
	rendered := Diff(old, new).Render()
	assert.Contains(t, rendered, "1,200")
	assert.Contains(t, rendered, "1,500,000")
}

func TestDiffLegacyAgreesWithKeyed(t *testing.T) {
	old := Table{Rows: []Row{
		row("Widget", 10, 100, 100, 150),
		row("Bolt", 5, 20, 20, 30),
	}}
	new := Table{Rows: []Row{
		row("Widget", 12, 100, 100, 150),
		row("Nut", 7, 3, 3, 5),
	}}
	keyed := diffKeyed(old, new)
	legacy := diffLegacy(old, new)
	assert.Equal(t, keyed.Added, legacy.Added)
	assert.Equal(t, keyed.Edited, legacy.Edited)
	assert.Equal(t, keyed.Removed, legacy.Removed)
	assert.Equal(t, keyed.Render(), legacy.Render())
}
