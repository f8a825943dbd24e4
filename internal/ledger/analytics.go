package ledger

import (
	"database/sql"
	"fmt"
	"time"
)

// TopSoldProduct is one row of the sales ranking.
type TopSoldProduct struct {
	ProductName  string     `json:"product_name"`
	SoldQty      int        `json:"sold_qty"`
	InvoiceCount int        `json:"invoice_count"`
	LastSoldAt   *time.Time `json:"last_sold_at,omitempty"`
}

// TopSoldProducts ranks products by quantity sold within the last days days.
// days <= 0 means all time. Ties break on the product name.
func (s *Store) TopSoldProducts(days, limit int) ([]TopSoldProduct, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 200 {
		limit = 200
	}
	cutoff := ""
	if days > 0 {
		cutoff = time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT l.product_name,
		        COALESCE(SUM(l.quantity), 0) AS sold_qty,
		        COUNT(DISTINCT i.id),
		        MAX(i.created_at)
		 FROM invoices i
		 JOIN invoice_lines l ON l.invoice_id = i.id
		 WHERE i.invoice_type != ? AND (? = '' OR i.created_at >= ?)
		 GROUP BY l.product_name
		 ORDER BY sold_qty DESC, l.product_name ASC
		 LIMIT ?`, TypePurchase, cutoff, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("top sold products: %w", err)
	}
	defer rows.Close()

	var out []TopSoldProduct
	for rows.Next() {
		var (
			row  TopSoldProduct
			last sql.NullString
		)
		if err := rows.Scan(&row.ProductName, &row.SoldQty, &row.InvoiceCount, &last); err != nil {
			return nil, fmt.Errorf("scan top sold product: %w", err)
		}
		if last.Valid {
			t := parseStamp(last.String)
			row.LastSoldAt = &t
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MonthQtyRow is one month of quantity flow, keyed "YYYY-MM".
type MonthQtyRow struct {
	Month            string `json:"month"`
	SalesQty         int    `json:"sales_qty"`
	PurchaseQty      int    `json:"purchase_qty"`
	SalesInvoices    int    `json:"sales_invoices"`
	PurchaseInvoices int    `json:"purchase_invoices"`
	NetQty           int    `json:"net_qty"`
}

// MonthlyQuantitySummary groups invoice quantities by calendar month, newest
// month first. NetQty is purchased minus sold.
func (s *Store) MonthlyQuantitySummary(limit int) ([]MonthQtyRow, error) {
	if limit <= 0 {
		limit = 12
	}
	if limit > 120 {
		limit = 120
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT substr(created_at, 1, 7) AS month,
		        COALESCE(SUM(CASE WHEN invoice_type != ? THEN total_qty ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN invoice_type = ? THEN total_qty ELSE 0 END), 0),
		        COUNT(CASE WHEN invoice_type != ? THEN 1 END),
		        COUNT(CASE WHEN invoice_type = ? THEN 1 END)
		 FROM invoices
		 GROUP BY month ORDER BY month DESC
		 LIMIT ?`, TypePurchase, TypePurchase, TypePurchase, TypePurchase, limit)
	if err != nil {
		return nil, fmt.Errorf("monthly quantity summary: %w", err)
	}
	defer rows.Close()

	var out []MonthQtyRow
	for rows.Next() {
		var m MonthQtyRow
		if err := rows.Scan(&m.Month, &m.SalesQty, &m.PurchaseQty, &m.SalesInvoices, &m.PurchaseInvoices); err != nil {
			return nil, fmt.Errorf("scan monthly quantity summary: %w", err)
		}
		m.NetQty = m.PurchaseQty - m.SalesQty
		out = append(out, m)
	}
	return out, rows.Err()
}

// SoldProductNames returns the distinct product names that appear on sales
// lines within the last days days. days <= 0 means all time. Callers match
// them against the inventory by normalized key.
func (s *Store) SoldProductNames(days int) ([]string, error) {
	cutoff := ""
	if days > 0 {
		cutoff = time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT DISTINCT l.product_name
		 FROM invoices i
		 JOIN invoice_lines l ON l.invoice_id = i.id
		 WHERE i.invoice_type != ? AND (? = '' OR i.created_at >= ?)`,
		TypePurchase, cutoff, cutoff)
	if err != nil {
		return nil, fmt.Errorf("sold product names: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan sold product name: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
