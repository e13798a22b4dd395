package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/khaledakrout-design/woocommerce-supabase-sync/adapters"
)

func TestParseOrZero(t *testing.T) {
	require.Equal(t, 19.99, parseOrZero("19.99"))
	require.Equal(t, 19.99, parseOrZero("  19.99  "))
	require.Equal(t, 0.0, parseOrZero("abc"))
	require.Equal(t, 0.0, parseOrZero(""))
	require.Equal(t, -3.5, parseOrZero("-3.5"))
}

func TestCustomerNameSentinel(t *testing.T) {
	require.Equal(t, "Marie Dupont", customerName(adapters.Billing{FirstName: " Marie ", LastName: "Dupont"}))
	require.Equal(t, "Marie", customerName(adapters.Billing{FirstName: "Marie"}))
	require.Equal(t, unknownCustomer, customerName(adapters.Billing{}))
	require.Equal(t, unknownCustomer, customerName(adapters.Billing{FirstName: "  ", LastName: " "}))
}

func TestCustomerKey(t *testing.T) {
	require.Equal(t, "a@b.test", customerKey(adapters.Billing{Email: " a@b.test "}))
	require.Equal(t, unknownEmail, customerKey(adapters.Billing{}))
}

func TestFormatCreatedAtFallback(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC) }
	require.Equal(t, "2024-03-01T10:15:00", formatCreatedAt("2024-03-01T10:15:00", now))
	require.Equal(t, "2024-06-01T12:30:00", formatCreatedAt("", now))
	require.Equal(t, "2024-06-01T12:30:00", formatCreatedAt("   ", now))
}

func TestSaleFromOrder(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	o := adapters.Order{
		ID:            "4821",
		CreatedGMT:    "2024-03-01T10:15:00",
		Billing:       adapters.Billing{FirstName: "Marie", LastName: "Dupont", Email: "marie@example.test"},
		Total:         "149.90",
		PaymentMethod: "Carte bancaire",
		Status:        "completed",
	}
	row := saleFromOrder(o, now)
	require.Equal(t, SaleRow{
		OrderID:       "4821",
		CreatedAt:     "2024-03-01T10:15:00",
		CustomerName:  "Marie Dupont",
		Total:         149.90,
		PaymentMethod: "Carte bancaire",
		Status:        "completed",
	}, row)

	// Malformed totals default to zero, never an error.
	o.Total = "abc"
	require.Equal(t, 0.0, saleFromOrder(o, now).Total)
}

func TestProductFromCatalog(t *testing.T) {
	row := productFromCatalog(adapters.Product{
		ID:            "12",
		Name:          "Produit 12",
		Categories:    []string{"Accessoires", "Promo"},
		Price:         "24.90",
		StockQuantity: 7,
		TotalSales:    31,
	})
	require.Equal(t, "Accessoires", row.Category)
	require.Equal(t, 24.90, row.Price)

	// Empty category list maps to the fixed sentinel.
	row = productFromCatalog(adapters.Product{ID: "13", Name: "Produit 13"})
	require.Equal(t, noCategory, row.Category)
	require.Equal(t, 0.0, row.Price)
	require.Equal(t, 0, row.Stock)
}

func TestFilterByStatus(t *testing.T) {
	orders := []adapters.Order{
		{ID: "1", Status: "completed"},
		{ID: "2", Status: "cancelled"},
		{ID: "3", Status: "Processing"},
		{ID: "4", Status: "refunded"},
		{ID: "5", Status: "pending"},
	}

	kept := filterByStatus(orders, defaultStatusAllowList)
	ids := make([]string, 0, len(kept))
	for _, o := range kept {
		ids = append(ids, o.ID)
	}
	require.Equal(t, []string{"1", "3", "4"}, ids)

	// nil allow-list disables the filter entirely.
	require.Len(t, filterByStatus(orders, nil), 5)
}
