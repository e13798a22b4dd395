package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/khaledakrout-design/woocommerce-supabase-sync/adapters"
)

func testConfig() config {
	return config{
		pageSize:     100,
		maxPages:     10000,
		chunkSize:    100,
		productMode:  productModeDerived,
		salesTable:   "sales",
		productsTab:  "products",
		topCustomers: 5,
		topProducts:  5,
		topSellers:   50,
	}
}

func testOrders() []adapters.Order {
	return []adapters.Order{
		{
			ID:         "1",
			CreatedGMT: "2024-03-01T10:00:00",
			Billing:    adapters.Billing{FirstName: "Marie", LastName: "Dupont", Email: "marie@example.test"},
			Total:      "60.00",
			Status:     "completed",
			LineItems: []adapters.LineItem{
				{ProductID: "1", Name: "Tee", Total: "40.00", Quantity: 2},
				{ProductID: "9", Name: "Mug", Total: "20.00", Quantity: 1},
			},
		},
		{
			ID:         "2",
			CreatedGMT: "2024-03-02T10:00:00",
			Billing:    adapters.Billing{FirstName: "Jean", LastName: "Martin", Email: "jean@example.test"},
			Total:      "25.00",
			Status:     "cancelled",
			LineItems: []adapters.LineItem{
				{ProductID: "1", Name: "Tee", Total: "25.00", Quantity: 1},
			},
		},
		{
			ID:         "3",
			CreatedGMT: "2024-03-03T10:00:00",
			Billing:    adapters.Billing{Email: "marie@example.test", FirstName: "Marie", LastName: "Dupont"},
			Total:      "20.00",
			Status:     "processing",
			LineItems: []adapters.LineItem{
				{ProductID: "1", Name: "Tee", Total: "20.00", Quantity: 1},
			},
		},
	}
}

func TestRunSyncDerivedModeWithStatusFilter(t *testing.T) {
	src := adapters.NewMockSource(1)
	src.OrderPages = [][]adapters.Order{testOrders()}
	store := adapters.NewMockStore()

	cfg := testConfig()
	cfg.statusFilter = defaultStatusAllowList

	res, err := runSync(context.Background(), cfg, src, store, newMetricsRegistry())
	require.NoError(t, err)
	require.Equal(t, 3, res.OrdersExtracted)
	require.Equal(t, 1, res.OrdersFiltered)

	// The cancelled order is excluded from the sales upsert...
	require.Equal(t, []string{"1", "3"}, store.Keys("sales"))

	// ...and from the derived product sums: product 1 sold 3 units, not 4.
	products := store.Rows("products")
	require.Equal(t, []string{"1", "9"}, store.Keys("products"))
	require.Equal(t, float64(3), products["1"]["total_sold"])
	require.Equal(t, 60.0, products["1"]["total_revenue"])
	require.Equal(t, "2024-03-03", products["1"]["last_sold_date"])
}

func TestRunSyncCatalogMode(t *testing.T) {
	src := adapters.NewMockSource(1)
	src.OrderPages = [][]adapters.Order{testOrders()}
	src.ProductPages = [][]adapters.Product{{
		{ID: "1", Name: "Tee", Categories: []string{"Vetements"}, Price: "19.90", StockQuantity: 12, TotalSales: 40},
		{ID: "9", Name: "Mug", Price: "9.90"},
	}}
	store := adapters.NewMockStore()

	cfg := testConfig()
	cfg.productMode = productModeCatalog

	_, err := runSync(context.Background(), cfg, src, store, newMetricsRegistry())
	require.NoError(t, err)

	products := store.Rows("products")
	require.Equal(t, "Vetements", products["1"]["category"])
	require.Equal(t, noCategory, products["9"]["category"])
	require.Equal(t, 19.90, products["1"]["price"])
}

func TestRunSyncHybridMode(t *testing.T) {
	src := adapters.NewMockSource(1)
	src.OrderPages = [][]adapters.Order{testOrders()}
	src.ProductPages = [][]adapters.Product{{
		{ID: "1", Name: "Tee shirt", Categories: []string{"Vetements"}, Price: "19.90", StockQuantity: 12},
	}}
	store := adapters.NewMockStore()

	cfg := testConfig()
	cfg.productMode = productModeHybrid

	res, err := runSync(context.Background(), cfg, src, store, newMetricsRegistry())
	require.NoError(t, err)
	require.Equal(t, 1, src.ByIDCalls)
	// By-ID batch requests count toward the product request tally.
	require.Equal(t, 1, res.ProductPages)

	products := store.Rows("products")
	// Catalog fields overlay the derived sums for known products.
	require.Equal(t, "Tee shirt", products["1"]["name"])
	require.Equal(t, "Vetements", products["1"]["category"])
	require.Equal(t, float64(4), products["1"]["total_sold"])
	// Unknown products keep the derived name and the category sentinel.
	require.Equal(t, "Mug", products["9"]["name"])
	require.Equal(t, noCategory, products["9"]["category"])
}

func TestRunSyncAbortsOnLoadFailure(t *testing.T) {
	src := adapters.NewMockSource(1)
	src.OrderPages = [][]adapters.Order{testOrders()}
	store := adapters.NewMockStore()
	store.FailTable = "sales"
	store.FailChunk = 1

	_, err := runSync(context.Background(), testConfig(), src, store, newMetricsRegistry())
	require.Error(t, err)
	require.Contains(t, err.Error(), "sales")
	// The products table is never reached after the sales load fails.
	require.Zero(t, store.Calls("products"))
}

func TestRunSyncAbortsOnExtractFailure(t *testing.T) {
	src := adapters.NewMockSource(1)
	src.OrderPages = [][]adapters.Order{testOrders()}
	src.FailOrdersPage = 1
	store := adapters.NewMockStore()

	_, err := runSync(context.Background(), testConfig(), src, store, newMetricsRegistry())
	require.Error(t, err)
	require.Zero(t, store.Calls("sales"))
}
