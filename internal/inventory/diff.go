package inventory

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"armkala-backend/internal/text"
)

// ChangeKind classifies one diff entry.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeEdited  ChangeKind = "edited"
	ChangeRemoved ChangeKind = "removed"
)

// FieldChange is one differing column with rendered before/after values.
type FieldChange struct {
	Column string `json:"column"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// Change is one product-level diff entry. Added/Removed entries carry every
// column; Edited entries carry only the differing ones.
type Change struct {
	Kind        ChangeKind    `json:"kind"`
	ProductName string        `json:"product_name"`
	Fields      []FieldChange `json:"fields"`
}

// Report is the full diff between two inventory snapshots. Changes hold
// Added/Edited entries in new-table order followed by Removed entries in
// old-table order, so rendering is reproducible for identical inputs.
type Report struct {
	Changes  []Change `json:"changes"`
	Added    int      `json:"added"`
	Edited   int      `json:"edited"`
	Removed  int      `json:"removed"`
	Fallback bool     `json:"-"`
}

// Empty reports whether nothing changed.
func (r Report) Empty() bool { return r.Added == 0 && r.Edited == 0 && r.Removed == 0 }

const floatEpsilon = 1e-6

// Diff computes the add/edit/remove report between two snapshots keyed by
// normalized product name. The keyed primary pass is guarded: if it panics,
// the slower pairwise legacy pass produces the report instead, so diff
// output is never silently skipped.
func Diff(oldTable, newTable Table) (report Report) {
	defer func() {
		if rec := recover(); rec != nil {
			report = diffLegacy(oldTable, newTable)
			report.Fallback = true
		}
	}()
	return diffKeyed(oldTable, newTable)
}

// keyedRows returns first-seen key order plus a key→row map where duplicate
// keys keep the last occurrence.
func keyedRows(t Table) ([]string, map[string]Row) {
	order := make([]string, 0, len(t.Rows))
	byKey := make(map[string]Row, len(t.Rows))
	for _, row := range t.Rows {
		key := row.Key()
		if key == "" {
			continue
		}
		if _, ok := byKey[key]; !ok {
			order = append(order, key)
		}
		byKey[key] = row
	}
	return order, byKey
}

func diffKeyed(oldTable, newTable Table) Report {
	oldOrder, oldByKey := keyedRows(oldTable)
	newOrder, newByKey := keyedRows(newTable)

	report := Report{Changes: make([]Change, 0)}
	for _, key := range newOrder {
		newRow := newByKey[key]
		oldRow, existed := oldByKey[key]
		if !existed {
			report.Changes = append(report.Changes, snapshotChange(ChangeAdded, newRow))
			report.Added++
			continue
		}
		if fields := changedFields(oldRow, newRow); len(fields) > 0 {
			report.Changes = append(report.Changes, Change{
				Kind:        ChangeEdited,
				ProductName: newRow.ProductName,
				Fields:      fields,
			})
			report.Edited++
		}
	}
	for _, key := range oldOrder {
		if _, stillThere := newByKey[key]; stillThere {
			continue
		}
		report.Changes = append(report.Changes, snapshotChange(ChangeRemoved, oldByKey[key]))
		report.Removed++
	}
	return report
}

// diffLegacy walks old rows pairwise against new rows without building key
// maps. Slower, but with no intermediate state to go wrong.
func diffLegacy(oldTable, newTable Table) Report {
	report := Report{Changes: make([]Change, 0)}

	findLast := func(t Table, key string) (Row, bool) {
		var found Row
		ok := false
		for _, row := range t.Rows {
			if row.Key() == key {
				found = row
				ok = true
			}
		}
		return found, ok
	}

	seen := map[string]bool{}
	for _, row := range newTable.Rows {
		key := row.Key()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		newRow, _ := findLast(newTable, key)
		oldRow, existed := findLast(oldTable, key)
		if !existed {
			report.Changes = append(report.Changes, snapshotChange(ChangeAdded, newRow))
			report.Added++
			continue
		}
		if fields := changedFields(oldRow, newRow); len(fields) > 0 {
			report.Changes = append(report.Changes, Change{
				Kind:        ChangeEdited,
				ProductName: newRow.ProductName,
				Fields:      fields,
			})
			report.Edited++
		}
	}
	seenOld := map[string]bool{}
	for _, row := range oldTable.Rows {
		key := row.Key()
		if key == "" || seenOld[key] {
			continue
		}
		seenOld[key] = true
		if _, stillThere := findLast(newTable, key); stillThere {
			continue
		}
		oldRow, _ := findLast(oldTable, key)
		report.Changes = append(report.Changes, snapshotChange(ChangeRemoved, oldRow))
		report.Removed++
	}
	return report
}

func snapshotChange(kind ChangeKind, row Row) Change {
	fields := make([]FieldChange, 0, len(columnOrder))
	for _, col := range columnOrder {
		value := renderColumn(row, col)
		fc := FieldChange{Column: col}
		if kind == ChangeAdded {
			fc.After = value
		} else {
			fc.Before = value
		}
		fields = append(fields, fc)
	}
	return Change{Kind: kind, ProductName: row.ProductName, Fields: fields}
}

func changedFields(oldRow, newRow Row) []FieldChange {
	fields := make([]FieldChange, 0, 4)
	for _, col := range columnOrder {
		before := renderColumn(oldRow, col)
		after := renderColumn(newRow, col)
		if columnEqual(oldRow, newRow, col) {
			continue
		}
		fields = append(fields, FieldChange{Column: col, Before: before, After: after})
	}
	return fields
}

func columnEqual(oldRow, newRow Row, col string) bool {
	switch col {
	case "product_name":
		return strings.TrimSpace(oldRow.ProductName) == strings.TrimSpace(newRow.ProductName)
	case "quantity":
		return oldRow.Quantity == newRow.Quantity
	case "avg_buy_price":
		return floatEqual(oldRow.AvgBuyPrice, newRow.AvgBuyPrice)
	case "last_buy_price":
		return floatEqual(oldRow.LastBuyPrice, newRow.LastBuyPrice)
	case "sell_price":
		return floatEqual(oldRow.SellPrice, newRow.SellPrice)
	case "alarm":
		return intPtrValue(oldRow.Alarm) == intPtrValue(newRow.Alarm)
	case "source":
		return textValue(oldRow.Source) == textValue(newRow.Source)
	}
	return true
}

func floatEqual(a, b float64) bool { return math.Abs(a-b) <= floatEpsilon }

func intPtrValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// textValue folds every empty marker to "" so NaN, None, null text, and a
// missing value all compare equal.
func textValue(p *string) string {
	if p == nil {
		return ""
	}
	if text.IsEmptyMarker(*p) {
		return ""
	}
	return strings.TrimSpace(*p)
}

var numberPrinter = message.NewPrinter(language.English)

// formatNumber renders integral floats without decimals and groups large
// numbers with thousands separators.
func formatNumber(f float64) string {
	if math.Mod(f, 1) == 0 && math.Abs(f) < 1e15 {
		return numberPrinter.Sprintf("%d", int64(f))
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func renderColumn(row Row, col string) string {
	switch col {
	case "product_name":
		return strings.TrimSpace(row.ProductName)
	case "quantity":
		return numberPrinter.Sprintf("%d", row.Quantity)
	case "avg_buy_price":
		return formatNumber(row.AvgBuyPrice)
	case "last_buy_price":
		return formatNumber(row.LastBuyPrice)
	case "sell_price":
		return formatNumber(row.SellPrice)
	case "alarm":
		if row.Alarm == nil {
			return "-"
		}
		return numberPrinter.Sprintf("%d", *row.Alarm)
	case "source":
		if v := textValue(row.Source); v != "" {
			return v
		}
		return "-"
	}
	return ""
}

var kindLabels = map[ChangeKind]string{
	ChangeAdded:   "Added",
	ChangeEdited:  "Edited",
	ChangeRemoved: "Removed",
}

// Render produces the deterministic textual report: a summary line with
// counts, then one block per changed product with a column-header row and
// before/after value rows. Returns "" when nothing changed.
func (r Report) Render() string {
	if r.Empty() {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Changes: %d added, %d edited, %d removed\n", r.Added, r.Edited, r.Removed)

	for _, change := range r.Changes {
		cols := make([]string, len(change.Fields))
		before := make([]string, len(change.Fields))
		after := make([]string, len(change.Fields))
		for i, fc := range change.Fields {
			cols[i] = fc.Column
			before[i] = orDash(fc.Before)
			after[i] = orDash(fc.After)
		}

		fmt.Fprintf(&b, "\n[%s] %s\n", kindLabels[change.Kind], change.ProductName)
		fmt.Fprintf(&b, "  %s\n", strings.Join(cols, " | "))
		switch change.Kind {
		case ChangeAdded:
			fmt.Fprintf(&b, "  %s\n", strings.Join(after, " | "))
		case ChangeRemoved:
			fmt.Fprintf(&b, "  %s\n", strings.Join(before, " | "))
		default:
			fmt.Fprintf(&b, "  before: %s\n", strings.Join(before, " | "))
			fmt.Fprintf(&b, "  after:  %s\n", strings.Join(after, " | "))
		}
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
