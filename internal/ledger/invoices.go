package ledger

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Invoice types. "sales_manual" marks a hand-entered sale as opposed to an
// imported sales file.
const (
	TypePurchase    = "purchase"
	TypeSales       = "sales"
	TypeSalesManual = "sales_manual"
)

// Line is one product line on an invoice. CostPrice carries the average buy
// price at sale time so profit stays computable after later purchases move
// the average.
type Line struct {
	ID          int64   `json:"id"`
	InvoiceID   int64   `json:"invoice_id"`
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	LineTotal   float64 `json:"line_total"`
	CostPrice   float64 `json:"cost_price"`
}

// Invoice is the stored header row.
type Invoice struct {
	ID            int64     `json:"id"`
	InvoiceType   string    `json:"invoice_type"`
	CreatedAt     time.Time `json:"created_at"`
	TotalLines    int       `json:"total_lines"`
	TotalQty      int       `json:"total_qty"`
	TotalAmount   float64   `json:"total_amount"`
	InvoiceName   *string   `json:"invoice_name"`
	AdminID       *int64    `json:"admin_id"`
	AdminUsername *string   `json:"admin_username"`
}

// ListFilter narrows ListInvoices. Zero values mean "no constraint".
type ListFilter struct {
	InvoiceType string
	Search      string
	Limit       int
	Offset      int
}

func validType(t string) bool {
	switch t {
	case TypePurchase, TypeSales, TypeSalesManual:
		return true
	}
	return false
}

// CreateInvoice stores a header plus its lines in one transaction and returns
// the new invoice id. Totals are derived from the lines, never trusted from
// the caller.
func (s *Store) CreateInvoice(invoiceType string, lines []Line, invoiceName *string, adminID *int64, adminUsername *string) (int64, error) {
	if !validType(invoiceType) {
		return 0, fmt.Errorf("%w: unknown invoice type %q", ErrValidation, invoiceType)
	}
	if len(lines) == 0 {
		return 0, fmt.Errorf("%w: invoice has no lines", ErrValidation)
	}
	for i := range lines {
		lines[i].ProductName = strings.TrimSpace(lines[i].ProductName)
		if lines[i].ProductName == "" {
			return 0, fmt.Errorf("%w: line %d has no product name", ErrValidation, i+1)
		}
		lines[i].LineTotal = lines[i].Price * float64(lines[i].Quantity)
	}

	totalQty := 0
	totalAmount := 0.0
	for _, ln := range lines {
		totalQty += ln.Quantity
		totalAmount += ln.LineTotal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin invoice tx: %w", err)
	}
	defer tx.Rollback()

	var adminIDArg any
	if adminID != nil {
		adminIDArg = *adminID
	}
	res, err := tx.Exec(
		`INSERT INTO invoices (invoice_type, created_at, total_lines, total_qty, total_amount, invoice_name, admin_id, admin_username)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		invoiceType, nowStamp(), len(lines), totalQty, totalAmount,
		nullable(invoiceName), adminIDArg, nullable(adminUsername),
	)
	if err != nil {
		return 0, fmt.Errorf("insert invoice: %w", err)
	}
	invoiceID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("invoice id: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO invoice_lines (invoice_id, product_name, price, quantity, line_total, cost_price)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare invoice lines: %w", err)
	}
	defer stmt.Close()
	for _, ln := range lines {
		if _, err := stmt.Exec(invoiceID, ln.ProductName, ln.Price, ln.Quantity, ln.LineTotal, ln.CostPrice); err != nil {
			return 0, fmt.Errorf("insert invoice line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit invoice: %w", err)
	}
	return invoiceID, nil
}

func scanInvoice(scan func(dest ...any) error) (Invoice, error) {
	var (
		inv       Invoice
		createdAt string
		name      sql.NullString
		adminID   sql.NullInt64
		adminUser sql.NullString
	)
	err := scan(&inv.ID, &inv.InvoiceType, &createdAt, &inv.TotalLines, &inv.TotalQty,
		&inv.TotalAmount, &name, &adminID, &adminUser)
	if err != nil {
		return Invoice{}, err
	}
	inv.CreatedAt = parseStamp(createdAt)
	inv.InvoiceName = fromNull(name)
	if adminID.Valid {
		v := adminID.Int64
		inv.AdminID = &v
	}
	inv.AdminUsername = fromNull(adminUser)
	return inv, nil
}

const invoiceCols = `id, invoice_type, created_at, total_lines, total_qty, total_amount, invoice_name, admin_id, admin_username`

// ListInvoices returns invoices newest-first, optionally filtered by type and
// a substring search over invoice name, admin username and id.
func (s *Store) ListInvoices(filter ListFilter) ([]Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT ` + invoiceCols + ` FROM invoices`
	var (
		where []string
		args  []any
	)
	if filter.InvoiceType != "" {
		where = append(where, "invoice_type = ?")
		args = append(args, filter.InvoiceType)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		where = append(where, "(invoice_name LIKE ? OR admin_username LIKE ? OR CAST(id AS TEXT) LIKE ?)")
		like := "%" + q + "%"
		args = append(args, like, like, like)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// GetInvoice fetches one invoice header.
func (s *Store) GetInvoice(id int64) (Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getInvoiceLocked(id)
}

func (s *Store) getInvoiceLocked(id int64) (Invoice, error) {
	row := s.db.QueryRow(`SELECT `+invoiceCols+` FROM invoices WHERE id = ?`, id)
	inv, err := scanInvoice(row.Scan)
	if err == sql.ErrNoRows {
		return Invoice{}, fmt.Errorf("%w: invoice %d", ErrNotFound, id)
	}
	if err != nil {
		return Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// GetInvoiceLines fetches the lines of one invoice in insertion order.
func (s *Store) GetInvoiceLines(invoiceID int64) ([]Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLinesLocked(invoiceID)
}

func (s *Store) getLinesLocked(invoiceID int64) ([]Line, error) {
	rows, err := s.db.Query(
		`SELECT id, invoice_id, product_name, price, quantity, line_total, cost_price
		 FROM invoice_lines WHERE invoice_id = ? ORDER BY id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get invoice lines: %w", err)
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var ln Line
		if err := rows.Scan(&ln.ID, &ln.InvoiceID, &ln.ProductName, &ln.Price, &ln.Quantity, &ln.LineTotal, &ln.CostPrice); err != nil {
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		out = append(out, ln)
	}
	return out, rows.Err()
}

// ListInvoicesBetween returns invoices created in [from, to), oldest-first,
// used by the period report.
func (s *Store) ListInvoicesBetween(from, to time.Time) ([]Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT `+invoiceCols+` FROM invoices WHERE created_at >= ? AND created_at < ? ORDER BY id`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("list invoices between: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// UpdateInvoiceName renames an invoice. A nil or blank name clears it.
func (s *Store) UpdateInvoiceName(id int64, name *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE invoices SET invoice_name = ? WHERE id = ?`, nullable(name), id)
	if err != nil {
		return fmt.Errorf("update invoice name: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update invoice name: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: invoice %d", ErrNotFound, id)
	}
	return nil
}

// RenameProduct rewrites a product name across all stored invoice lines,
// keeping the ledger consistent after an inventory-side rename.
func (s *Store) RenameProduct(oldName, newName string) (int64, error) {
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if oldName == "" || newName == "" {
		return 0, fmt.Errorf("%w: both names are required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE invoice_lines SET product_name = ? WHERE product_name = ?`, newName, oldName)
	if err != nil {
		return 0, fmt.Errorf("rename product in ledger: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rename product in ledger: %w", err)
	}
	return n, nil
}

// Stats is the all-time ledger rollup.
type Stats struct {
	Invoices      int     `json:"invoices"`
	PurchaseTotal float64 `json:"purchase_total"`
	SalesTotal    float64 `json:"sales_total"`
	SalesProfit   float64 `json:"sales_profit"`
}

// GetStats aggregates invoice counts and totals. Sales profit is computed
// from the per-line cost basis captured at sale time.
func (s *Store) GetStats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st Stats
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN invoice_type = ? THEN total_amount ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN invoice_type != ? THEN total_amount ELSE 0 END), 0)
		 FROM invoices`, TypePurchase, TypePurchase,
	).Scan(&st.Invoices, &st.PurchaseTotal, &st.SalesTotal)
	if err != nil {
		return Stats{}, fmt.Errorf("ledger stats: %w", err)
	}

	err = s.db.QueryRow(
		`SELECT COALESCE(SUM(l.line_total - l.cost_price * l.quantity), 0)
		 FROM invoice_lines l
		 JOIN invoices i ON i.id = l.invoice_id
		 WHERE i.invoice_type != ?`, TypePurchase,
	).Scan(&st.SalesProfit)
	if err != nil {
		return Stats{}, fmt.Errorf("ledger profit: %w", err)
	}
	return st, nil
}

// MonthRow is one month of the summary, keyed "YYYY-MM".
type MonthRow struct {
	Month         string  `json:"month"`
	PurchaseTotal float64 `json:"purchase_total"`
	SalesTotal    float64 `json:"sales_total"`
	Profit        float64 `json:"profit"`
}

// MonthlySummary groups invoice totals by calendar month, newest month first.
func (s *Store) MonthlySummary() ([]MonthRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT substr(created_at, 1, 7) AS month,
		        COALESCE(SUM(CASE WHEN invoice_type = ? THEN total_amount ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN invoice_type != ? THEN total_amount ELSE 0 END), 0)
		 FROM invoices
		 GROUP BY month ORDER BY month DESC`, TypePurchase, TypePurchase)
	if err != nil {
		return nil, fmt.Errorf("monthly summary: %w", err)
	}
	defer rows.Close()

	var out []MonthRow
	for rows.Next() {
		var m MonthRow
		if err := rows.Scan(&m.Month, &m.PurchaseTotal, &m.SalesTotal); err != nil {
			return nil, fmt.Errorf("scan monthly summary: %w", err)
		}
		m.Profit = m.SalesTotal - m.PurchaseTotal
		out = append(out, m)
	}
	return out, rows.Err()
}

// replaceLinesLocked rewrites an invoice's lines and recomputed totals inside
// tx. Used by the compensating edit flow.
func replaceLinesLocked(tx *sql.Tx, invoiceID int64, lines []Line) error {
	if _, err := tx.Exec(`DELETE FROM invoice_lines WHERE invoice_id = ?`, invoiceID); err != nil {
		return fmt.Errorf("clear invoice lines: %w", err)
	}
	totalQty := 0
	totalAmount := 0.0
	for _, ln := range lines {
		lineTotal := ln.Price * float64(ln.Quantity)
		if _, err := tx.Exec(
			`INSERT INTO invoice_lines (invoice_id, product_name, price, quantity, line_total, cost_price)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			invoiceID, ln.ProductName, ln.Price, ln.Quantity, lineTotal, ln.CostPrice); err != nil {
			return fmt.Errorf("insert invoice line: %w", err)
		}
		totalQty += ln.Quantity
		totalAmount += lineTotal
	}
	if _, err := tx.Exec(
		`UPDATE invoices SET total_lines = ?, total_qty = ?, total_amount = ? WHERE id = ?`,
		len(lines), totalQty, totalAmount, invoiceID); err != nil {
		return fmt.Errorf("update invoice totals: %w", err)
	}
	return nil
}

// ReplaceLines swaps the full line set of an invoice and recomputes its
// totals in one transaction.
func (s *Store) ReplaceLines(invoiceID int64, lines []Line) error {
	for i := range lines {
		lines[i].ProductName = strings.TrimSpace(lines[i].ProductName)
		if lines[i].ProductName == "" {
			return fmt.Errorf("%w: line %d has no product name", ErrValidation, i+1)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getInvoiceLocked(invoiceID); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin edit tx: %w", err)
	}
	defer tx.Rollback()
	if err := replaceLinesLocked(tx, invoiceID, lines); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteInvoice removes an invoice and, via the cascade, its lines.
func (s *Store) DeleteInvoice(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: invoice %d", ErrNotFound, id)
	}
	return nil
}
