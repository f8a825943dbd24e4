package ledger

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"armkala-backend/internal/inventory"
	"armkala-backend/internal/text"
	"armkala-backend/internal/utils"
)

// Compensator couples the ledger with the inventory file so that invoice
// create, edit and delete keep the two consistent.
//
// Commit order is fixed: inventory file first (after taking a .bak copy),
// ledger second. If the ledger write fails the .bak is restored; a failed
// restore is reported to the caller, never retried.
type Compensator struct {
	Ledger    *Store
	Inventory *inventory.Store
	Log       zerolog.Logger
}

// StockError carries the per-product problems found while validating a
// compensated working copy.
type StockError struct {
	Problems []string
}

func (e *StockError) Error() string {
	return "stock validation failed: " + strings.Join(e.Problems, "; ")
}

func (e *StockError) Unwrap() error { return ErrValidation }

// reverseSale puts a sold quantity back.
func reverseSale(working *inventory.Table, index map[string]int, ln Line, problems *[]string) {
	key := text.Normalize(ln.ProductName)
	idx, ok := index[key]
	if !ok {
		*problems = append(*problems, fmt.Sprintf("%s: product no longer in inventory", ln.ProductName))
		return
	}
	working.Rows[idx].Quantity += ln.Quantity
}

// applySale deducts a sold quantity, capturing the current cost basis on the
// line so profit reporting survives later purchases.
func applySale(working *inventory.Table, index map[string]int, ln *Line, problems *[]string) {
	key := text.Normalize(ln.ProductName)
	idx, ok := index[key]
	if !ok {
		*problems = append(*problems, fmt.Sprintf("%s: product not found", ln.ProductName))
		return
	}
	row := &working.Rows[idx]
	row.Quantity -= ln.Quantity
	ln.CostPrice = row.AvgBuyPrice
}

// reversePurchase unwinds a purchased quantity from the weighted average.
// remaining == 0 keeps the old average rather than dividing by zero.
func reversePurchase(working *inventory.Table, index map[string]int, ln Line, problems *[]string) {
	key := text.Normalize(ln.ProductName)
	idx, ok := index[key]
	if !ok {
		*problems = append(*problems, fmt.Sprintf("%s: product no longer in inventory", ln.ProductName))
		return
	}
	row := &working.Rows[idx]
	remaining := row.Quantity - ln.Quantity
	if remaining < 0 {
		*problems = append(*problems, fmt.Sprintf(
			"%s: removing %d purchased units would leave %d in stock", ln.ProductName, ln.Quantity, remaining))
		return
	}
	if remaining > 0 {
		numerator := row.AvgBuyPrice*float64(row.Quantity) - ln.Price*float64(ln.Quantity)
		newAvg := numerator / float64(remaining)
		if newAvg < 0 {
			*problems = append(*problems, fmt.Sprintf(
				"%s: reversal would drive the average buy price negative", ln.ProductName))
			return
		}
		row.AvgBuyPrice = utils.Round4(newAvg)
	}
	row.Quantity = remaining
}

// applyPurchase folds a purchased quantity into the weighted average,
// creating the row when the product is new.
func applyPurchase(working *inventory.Table, index map[string]int, ln Line) {
	key := text.Normalize(ln.ProductName)
	if idx, ok := index[key]; ok {
		row := &working.Rows[idx]
		effectiveQty := row.Quantity
		if effectiveQty < 0 {
			effectiveQty = 0
		}
		effectiveAvg := row.AvgBuyPrice
		if effectiveAvg <= 0 {
			effectiveAvg = ln.Price
		}
		newQty := effectiveQty + ln.Quantity
		if newQty > 0 {
			row.AvgBuyPrice = utils.Round4(
				(effectiveAvg*float64(effectiveQty) + ln.Price*float64(ln.Quantity)) / float64(newQty))
		}
		row.Quantity = row.Quantity + ln.Quantity
		row.LastBuyPrice = utils.Round4(ln.Price)
		return
	}
	working.Rows = append(working.Rows, inventory.Row{
		ProductName:  strings.TrimSpace(ln.ProductName),
		Quantity:     ln.Quantity,
		AvgBuyPrice:  utils.Round4(ln.Price),
		LastBuyPrice: utils.Round4(ln.Price),
	})
	index[key] = len(working.Rows) - 1
}

func buildIndex(t inventory.Table) map[string]int {
	index := make(map[string]int, len(t.Rows))
	for i, row := range t.Rows {
		index[row.Key()] = i
	}
	return index
}

// validateStock checks only the rows this invoice touched; rows that were
// already negative for unrelated reasons do not block the operation.
func validateStock(working inventory.Table, index map[string]int, lines ...[]Line) error {
	touched := map[int]bool{}
	for _, set := range lines {
		for _, ln := range set {
			if idx, ok := index[text.Normalize(ln.ProductName)]; ok {
				touched[idx] = true
			}
		}
	}
	var problems []string
	for idx := range touched {
		row := working.Rows[idx]
		if row.Quantity < 0 {
			problems = append(problems, fmt.Sprintf(
				"%s: resulting quantity would be %d", row.ProductName, row.Quantity))
		}
	}
	if len(problems) > 0 {
		return &StockError{Problems: problems}
	}
	return nil
}

// commit writes the working inventory first, then runs the ledger operation,
// restoring the .bak copy if the ledger side fails.
func (c *Compensator) commit(working inventory.Table, ledgerOp func() error) error {
	bakPath, err := c.Inventory.BackupCopy()
	if err != nil {
		return fmt.Errorf("inventory backup: %w", err)
	}
	if err := c.Inventory.SaveTable(working); err != nil {
		if bakPath != "" {
			os.Remove(bakPath)
		}
		return fmt.Errorf("save inventory: %w", err)
	}
	if err := ledgerOp(); err != nil {
		if bakPath == "" {
			// no inventory file existed before this commit; undoing it
			// means removing the file the save just created
			if rmErr := c.Inventory.DiscardFile(); rmErr != nil {
				c.Log.Error().Err(rmErr).Msg("inventory rollback failed after ledger error")
				return fmt.Errorf("ledger write failed (%v) and inventory rollback failed: %w", err, rmErr)
			}
			return err
		}
		if restoreErr := c.Inventory.RestoreBackup(bakPath); restoreErr != nil {
			c.Log.Error().Err(restoreErr).Str("backup", bakPath).
				Msg("inventory rollback failed after ledger error")
			return fmt.Errorf("ledger write failed (%v) and inventory rollback failed: %w", err, restoreErr)
		}
		return err
	}
	if bakPath != "" {
		os.Remove(bakPath)
	}
	return nil
}

// CommitSalesInvoice deducts the sold quantities from the inventory and
// records the invoice. Negative resulting quantities are allowed here; the
// preview already surfaced them and the operator chose to proceed.
func (c *Compensator) CommitSalesInvoice(invoiceType string, lines []Line, invoiceName *string, adminID *int64, adminUsername *string) (int64, error) {
	if invoiceType != TypeSales && invoiceType != TypeSalesManual {
		return 0, fmt.Errorf("%w: %q is not a sales type", ErrValidation, invoiceType)
	}
	table, err := c.Inventory.Snapshot()
	if err != nil {
		return 0, err
	}
	working := table.Clone()
	index := buildIndex(working)

	var problems []string
	for i := range lines {
		applySale(&working, index, &lines[i], &problems)
	}
	if len(problems) > 0 {
		return 0, &StockError{Problems: problems}
	}

	var invoiceID int64
	err = c.commit(working, func() error {
		id, err := c.Ledger.CreateInvoice(invoiceType, lines, invoiceName, adminID, adminUsername)
		if err != nil {
			return err
		}
		invoiceID = id
		return nil
	})
	return invoiceID, err
}

// CommitPurchaseInvoice folds the purchased lines into the inventory and
// records the invoice. Unknown products are created.
func (c *Compensator) CommitPurchaseInvoice(lines []Line, invoiceName *string, adminID *int64, adminUsername *string) (int64, error) {
	table, err := c.Inventory.Snapshot()
	if err != nil {
		return 0, err
	}
	working := table.Clone()
	index := buildIndex(working)
	for _, ln := range lines {
		applyPurchase(&working, index, ln)
	}

	var invoiceID int64
	err = c.commit(working, func() error {
		id, err := c.Ledger.CreateInvoice(TypePurchase, lines, invoiceName, adminID, adminUsername)
		if err != nil {
			return err
		}
		invoiceID = id
		return nil
	})
	return invoiceID, err
}

// UpdateInvoice replaces an invoice's lines, compensating the inventory for
// the difference between the stored lines and the new ones. The whole edit
// is validated on a working copy before anything is written.
func (c *Compensator) UpdateInvoice(id int64, newLines []Line) error {
	inv, err := c.Ledger.GetInvoice(id)
	if err != nil {
		return err
	}
	oldLines, err := c.Ledger.GetInvoiceLines(id)
	if err != nil {
		return err
	}
	table, err := c.Inventory.Snapshot()
	if err != nil {
		return err
	}
	working := table.Clone()
	index := buildIndex(working)

	var problems []string
	switch inv.InvoiceType {
	case TypePurchase:
		for _, ln := range oldLines {
			reversePurchase(&working, index, ln, &problems)
		}
		if len(problems) > 0 {
			return &StockError{Problems: problems}
		}
		for _, ln := range newLines {
			applyPurchase(&working, index, ln)
		}
	default:
		for _, ln := range oldLines {
			reverseSale(&working, index, ln, &problems)
		}
		for i := range newLines {
			applySale(&working, index, &newLines[i], &problems)
		}
		if len(problems) > 0 {
			return &StockError{Problems: problems}
		}
	}
	if err := validateStock(working, index, oldLines, newLines); err != nil {
		return err
	}

	return c.commit(working, func() error {
		return c.Ledger.ReplaceLines(id, newLines)
	})
}

// DeleteInvoice removes an invoice and returns its effect on the inventory:
// sold quantities come back, purchased quantities are unwound from the
// weighted average.
func (c *Compensator) DeleteInvoice(id int64) error {
	inv, err := c.Ledger.GetInvoice(id)
	if err != nil {
		return err
	}
	oldLines, err := c.Ledger.GetInvoiceLines(id)
	if err != nil {
		return err
	}
	table, err := c.Inventory.Snapshot()
	if err != nil {
		return err
	}
	working := table.Clone()
	index := buildIndex(working)

	var problems []string
	if inv.InvoiceType == TypePurchase {
		for _, ln := range oldLines {
			reversePurchase(&working, index, ln, &problems)
		}
	} else {
		for _, ln := range oldLines {
			reverseSale(&working, index, ln, &problems)
		}
	}
	if len(problems) > 0 {
		return &StockError{Problems: problems}
	}
	if err := validateStock(working, index, oldLines); err != nil {
		return err
	}

	return c.commit(working, func() error {
		return c.Ledger.DeleteInvoice(id)
	})
}
