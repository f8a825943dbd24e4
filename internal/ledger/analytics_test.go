package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopSoldProducts(t *testing.T) {
	s := openTestStore(t)

	_, err := s.CreateInvoice(TypeSales, []Line{
		{ProductName: "Widget", Price: 150, Quantity: 4},
		{ProductName: "Bolt", Price: 30, Quantity: 1},
	}, nil, nil, nil)
	require.NoError(t, err)
	_, err = s.CreateInvoice(TypeSalesManual, []Line{{ProductName: "Widget", Price: 150, Quantity: 3}}, nil, nil, nil)
	require.NoError(t, err)
	// purchases never count as sold
	_, err = s.CreateInvoice(TypePurchase, []Line{{ProductName: "Nut", Price: 5, Quantity: 100}}, nil, nil, nil)
	require.NoError(t, err)

	items, err := s.TopSoldProducts(0, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Widget", items[0].ProductName)
	assert.Equal(t, 7, items[0].SoldQty)
	assert.Equal(t, 2, items[0].InvoiceCount)
	require.NotNil(t, items[0].LastSoldAt)
	assert.WithinDuration(t, time.Now().UTC(), *items[0].LastSoldAt, time.Minute)

	assert.Equal(t, "Bolt", items[1].ProductName)
	assert.Equal(t, 1, items[1].SoldQty)
}

func TestTopSoldProductsWindow(t *testing.T) {
	s := openTestStore(t)

	_, err := s.CreateInvoice(TypeSales, []Line{{ProductName: "Widget", Price: 150, Quantity: 2}}, nil, nil, nil)
	require.NoError(t, err)

	// a fresh sale is inside any positive window
	items, err := s.TopSoldProducts(7, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Widget", items[0].ProductName)
}

func TestTopSoldProductsLimit(t *testing.T) {
	s := openTestStore(t)

	_, err := s.CreateInvoice(TypeSales, []Line{
		{ProductName: "Widget", Price: 150, Quantity: 5},
		{ProductName: "Bolt", Price: 30, Quantity: 2},
		{ProductName: "Nut", Price: 5, Quantity: 1},
	}, nil, nil, nil)
	require.NoError(t, err)

	items, err := s.TopSoldProducts(0, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Widget", items[0].ProductName)
	assert.Equal(t, "Bolt", items[1].ProductName)
}

func TestMonthlyQuantitySummary(t *testing.T) {
	s := openTestStore(t)

	_, err := s.CreateInvoice(TypePurchase, []Line{{ProductName: "Widget", Price: 100, Quantity: 10}}, nil, nil, nil)
	require.NoError(t, err)
	_, err = s.CreateInvoice(TypeSales, []Line{{ProductName: "Widget", Price: 150, Quantity: 4}}, nil, nil, nil)
	require.NoError(t, err)
	_, err = s.CreateInvoice(TypeSalesManual, []Line{{ProductName: "Bolt", Price: 30, Quantity: 2}}, nil, nil, nil)
	require.NoError(t, err)

	months, err := s.MonthlyQuantitySummary(12)
	require.NoError(t, err)
	require.Len(t, months, 1)

	m := months[0]
	assert.Equal(t, time.Now().UTC().Format("2006-01"), m.Month)
	assert.Equal(t, 6, m.SalesQty)
	assert.Equal(t, 10, m.PurchaseQty)
	assert.Equal(t, 2, m.SalesInvoices)
	assert.Equal(t, 1, m.PurchaseInvoices)
	assert.Equal(t, 4, m.NetQty)
}

func TestSoldProductNames(t *testing.T) {
	s := openTestStore(t)

	_, err := s.CreateInvoice(TypeSales, []Line{
		{ProductName: "Widget", Price: 150, Quantity: 1},
		{ProductName: "Widget", Price: 150, Quantity: 2},
	}, nil, nil, nil)
	require.NoError(t, err)
	_, err = s.CreateInvoice(TypePurchase, []Line{{ProductName: "Nut", Price: 5, Quantity: 10}}, nil, nil, nil)
	require.NoError(t, err)

	names, err := s.SoldProductNames(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Widget"}, names, "distinct, sales only")
}
