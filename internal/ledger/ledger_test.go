package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestCreateAndGetInvoice(t *testing.T) {
	s := openTestStore(t)

	lines := []Line{
		{ProductName: "Widget", Price: 150, Quantity: 2, CostPrice: 100},
		{ProductName: "Bolt", Price: 30, Quantity: 5, CostPrice: 20},
	}
	id, err := s.CreateInvoice(TypeSales, lines, strPtr("morning batch"), nil, strPtr("reza"))
	require.NoError(t, err)
	require.Positive(t, id)

	inv, err := s.GetInvoice(id)
	require.NoError(t, err)
	assert.Equal(t, TypeSales, inv.InvoiceType)
	assert.Equal(t, 2, inv.TotalLines)
	assert.Equal(t, 7, inv.TotalQty)
	assert.InDelta(t, 450.0, inv.TotalAmount, 1e-9)
	require.NotNil(t, inv.InvoiceName)
	assert.Equal(t, "morning batch", *inv.InvoiceName)
	require.NotNil(t, inv.AdminUsername)
	assert.Equal(t, "reza", *inv.AdminUsername)
	assert.WithinDuration(t, time.Now(), inv.CreatedAt, time.Minute)

	got, err := s.GetInvoiceLines(id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Widget", got[0].ProductName)
	assert.InDelta(t, 300.0, got[0].LineTotal, 1e-9, "line totals are derived, not trusted")
}

func TestCreateInvoiceValidation(t *testing.T) {
	s := openTestStore(t)

	_, err := s.CreateInvoice("bogus", []Line{{ProductName: "x", Quantity: 1}}, nil, nil, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.CreateInvoice(TypeSales, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.CreateInvoice(TypeSales, []Line{{ProductName: "  ", Quantity: 1}}, nil, nil, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListInvoicesFilters(t *testing.T) {
	s := openTestStore(t)

	_, err := s.CreateInvoice(TypePurchase, []Line{{ProductName: "Widget", Price: 100, Quantity: 1}}, strPtr("restock"), nil, strPtr("reza"))
	require.NoError(t, err)
	_, err = s.CreateInvoice(TypeSales, []Line{{ProductName: "Widget", Price: 150, Quantity: 1}}, nil, nil, strPtr("sara"))
	require.NoError(t, err)

	all, err := s.ListInvoices(ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, TypeSales, all[0].InvoiceType, "newest first")

	purchases, err := s.ListInvoices(ListFilter{InvoiceType: TypePurchase})
	require.NoError(t, err)
	require.Len(t, purchases, 1)

	byName, err := s.ListInvoices(ListFilter{Search: "restock"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, TypePurchase, byName[0].InvoiceType)

	byUser, err := s.ListInvoices(ListFilter{Search: "sara"})
	require.NoError(t, err)
	require.Len(t, byUser, 1)
}

func TestUpdateInvoiceNameAndDelete(t *testing.T) {
	s := openTestStore(t)

	id, err := s.CreateInvoice(TypeSales, []Line{{ProductName: "Widget", Price: 1, Quantity: 1}}, nil, nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.UpdateInvoiceName(id, strPtr("renamed")))
	inv, err := s.GetInvoice(id)
	require.NoError(t, err)
	require.NotNil(t, inv.InvoiceName)
	assert.Equal(t, "renamed", *inv.InvoiceName)

	require.NoError(t, s.UpdateInvoiceName(id, nil))
	inv, _ = s.GetInvoice(id)
	assert.Nil(t, inv.InvoiceName)

	assert.ErrorIs(t, s.UpdateInvoiceName(9999, strPtr("x")), ErrNotFound)

	require.NoError(t, s.DeleteInvoice(id))
	_, err = s.GetInvoice(id)
	assert.ErrorIs(t, err, ErrNotFound)
	lines, err := s.GetInvoiceLines(id)
	require.NoError(t, err)
	assert.Empty(t, lines, "lines cascade with the invoice")

	assert.ErrorIs(t, s.DeleteInvoice(id), ErrNotFound)
}

func TestReplaceLines(t *testing.T) {
	s := openTestStore(t)

	id, err := s.CreateInvoice(TypeSales, []Line{{ProductName: "Widget", Price: 150, Quantity: 2}}, nil, nil, nil)
	require.NoError(t, err)

	err = s.ReplaceLines(id, []Line{
		{ProductName: "Widget", Price: 150, Quantity: 1},
		{ProductName: "Bolt", Price: 30, Quantity: 3},
	})
	require.NoError(t, err)

	inv, err := s.GetInvoice(id)
	require.NoError(t, err)
	assert.Equal(t, 2, inv.TotalLines)
	assert.Equal(t, 4, inv.TotalQty)
	assert.InDelta(t, 240.0, inv.TotalAmount, 1e-9)

	assert.ErrorIs(t, s.ReplaceLines(9999, []Line{{ProductName: "x", Quantity: 1}}), ErrNotFound)
}

func TestStatsAndMonthly(t *testing.T) {
	s := openTestStore(t)

	_, err := s.CreateInvoice(TypePurchase, []Line{{ProductName: "Widget", Price: 100, Quantity: 10}}, nil, nil, nil)
	require.NoError(t, err)
	_, err = s.CreateInvoice(TypeSales, []Line{{ProductName: "Widget", Price: 150, Quantity: 4, CostPrice: 100}}, nil, nil, nil)
	require.NoError(t, err)

	stats, err := s.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Invoices)
	assert.InDelta(t, 1000.0, stats.PurchaseTotal, 1e-9)
	assert.InDelta(t, 600.0, stats.SalesTotal, 1e-9)
	assert.InDelta(t, 200.0, stats.SalesProfit, 1e-9, "(150-100)*4")

	months, err := s.MonthlySummary()
	require.NoError(t, err)
	require.Len(t, months, 1)
	assert.InDelta(t, 1000.0, months[0].PurchaseTotal, 1e-9)
	assert.InDelta(t, 600.0, months[0].SalesTotal, 1e-9)
}

func TestListInvoicesBetween(t *testing.T) {
	s := openTestStore(t)

	id, err := s.CreateInvoice(TypeSales, []Line{{ProductName: "Widget", Price: 1, Quantity: 1}}, nil, nil, nil)
	require.NoError(t, err)

	now := time.Now().UTC()
	within, err := s.ListInvoicesBetween(now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, within, 1)
	assert.Equal(t, id, within[0].ID)

	outside, err := s.ListInvoicesBetween(now.Add(-48*time.Hour), now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, outside)
}

func TestRenameProduct(t *testing.T) {
	s := openTestStore(t)

	_, err := s.CreateInvoice(TypeSales, []Line{{ProductName: "Old Name", Price: 1, Quantity: 1}}, nil, nil, nil)
	require.NoError(t, err)
	_, err = s.CreateInvoice(TypeSales, []Line{{ProductName: "Old Name", Price: 2, Quantity: 1}}, nil, nil, nil)
	require.NoError(t, err)

	n, err := s.RenameProduct("Old Name", "New Name")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = s.RenameProduct("", "x")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAdminLifecycle(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SeedDefaultAdmin("admin", "admin"))
	// seeding twice is a no-op
	require.NoError(t, s.SeedDefaultAdmin("other", "pw"))
	admins, err := s.ListAdmins()
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, RoleManager, admins[0].Role)

	got, err := s.Authenticate("admin", "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Username)

	_, err = s.Authenticate("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Authenticate("ghost", "admin")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	emp, err := s.CreateAdmin("sara", "pw123", "", 120)
	require.NoError(t, err)
	assert.Equal(t, RoleEmployee, emp.Role)
	assert.Equal(t, 60, emp.AutoLockMinutes, "auto-lock clamps to the 1..60 range")

	_, err = s.CreateAdmin("sara", "pw", RoleEmployee, 5)
	assert.ErrorIs(t, err, ErrValidation, "duplicate username")

	newRole := RoleManager
	lock := 0
	require.NoError(t, s.UpdateAdmin(emp.ID, AdminUpdate{Role: &newRole, AutoLockMinutes: &lock}))
	updated, err := s.GetAdmin(emp.ID)
	require.NoError(t, err)
	assert.Equal(t, RoleManager, updated.Role)
	assert.Equal(t, 1, updated.AutoLockMinutes)

	// two managers now; deleting one is fine, deleting the last is refused
	require.NoError(t, s.DeleteAdmin(emp.ID))
	err = s.DeleteAdmin(admins[0].ID)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestActions(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.LogAction(strPtr("reza"), "inventory_save", "Inventory saved", "3 edits"))
	require.NoError(t, s.LogAction(nil, "login", "Signed in", ""))

	all, err := s.ListActions("", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "login", all[0].ActionType, "newest first")
	assert.Equal(t, "-", all[0].Details, "blank details stored as a dash")
	assert.Nil(t, all[0].AdminUsername)
	require.NotNil(t, all[1].AdminUsername)
	assert.Equal(t, "reza", *all[1].AdminUsername)

	filtered, err := s.ListActions("login", 10, 0)
	require.NoError(t, err)
	require.Len(t, filtered, 1)

	total, err := s.CountActions("")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestSnapshotProducesOpenableCopy(t *testing.T) {
	s := openTestStore(t)
	_, err := s.CreateInvoice(TypeSales, []Line{{ProductName: "Widget", Price: 1, Quantity: 1}}, nil, nil, nil)
	require.NoError(t, err)

	target := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, s.Snapshot(target))

	copyStore, err := Open(target)
	require.NoError(t, err)
	defer copyStore.Close()
	invoices, err := copyStore.ListInvoices(ListFilter{})
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}
