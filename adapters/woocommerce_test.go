package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const orderPayload = `[
  {
    "id": 4821,
    "date_created_gmt": "2024-03-01T10:15:00",
    "billing": {"first_name": "Marie", "last_name": "Dupont", "email": "marie@example.test"},
    "total": "149.90",
    "payment_method_title": "Carte bancaire",
    "status": "completed",
    "line_items": [
      {"product_id": 12, "name": "Tee", "price": "24.90", "total": "49.80", "quantity": 2}
    ]
  },
  {"id": "A-17", "billing": {}, "line_items": []}
]`

func newWoo(t *testing.T, baseURL string, mode AuthMode) *WooAdapter {
	t.Helper()
	a, err := NewWooAdapter(WooOptions{
		BaseURL:        baseURL,
		ConsumerKey:    "ck_test",
		ConsumerSecret: "cs_test",
		AuthMode:       mode,
	})
	require.NoError(t, err)
	return a
}

func TestWooFetchOrdersPageQueryAuth(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wp-json/wc/v3/orders", r.URL.Path)
		q := r.URL.Query()
		gotQuery = map[string]string{
			"page":            q.Get("page"),
			"per_page":        q.Get("per_page"),
			"consumer_key":    q.Get("consumer_key"),
			"consumer_secret": q.Get("consumer_secret"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(orderPayload))
	}))
	defer srv.Close()

	orders, meta, err := newWoo(t, srv.URL, AuthQuery).FetchOrdersPage(context.Background(), 3, 100)
	require.NoError(t, err)
	require.Equal(t, 200, meta.StatusCode)
	require.Equal(t, map[string]string{
		"page": "3", "per_page": "100", "consumer_key": "ck_test", "consumer_secret": "cs_test",
	}, gotQuery)

	require.Len(t, orders, 2)
	// Numeric and string source identifiers both come out stringified.
	require.Equal(t, "4821", orders[0].ID)
	require.Equal(t, "A-17", orders[1].ID)
	require.Equal(t, "149.90", orders[0].Total)
	require.Equal(t, "Marie", orders[0].Billing.FirstName)
	require.Len(t, orders[0].LineItems, 1)
	require.Equal(t, "12", orders[0].LineItems[0].ProductID)
	require.Equal(t, 2, orders[0].LineItems[0].Quantity)
}

func TestWooBasicAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "ck_test", user)
		require.Equal(t, "cs_test", pass)
		// Basic mode keeps the secret out of the query string.
		require.Empty(t, r.URL.Query().Get("consumer_key"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	orders, _, err := newWoo(t, srv.URL, AuthBasic).FetchOrdersPage(context.Background(), 1, 100)
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestWooNonSuccessStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":"internal_error"}`))
	}))
	defer srv.Close()

	_, meta, err := newWoo(t, srv.URL, AuthQuery).FetchOrdersPage(context.Background(), 1, 100)
	require.Error(t, err)
	require.Equal(t, 500, meta.StatusCode)
	require.Contains(t, err.Error(), "500")
	require.Contains(t, err.Error(), "internal_error")
}

func TestWooNonArrayPayloadMeansEndOfData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message": "no more"}`))
	}))
	defer srv.Close()

	orders, _, err := newWoo(t, srv.URL, AuthQuery).FetchOrdersPage(context.Background(), 7, 100)
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestWooFetchProductsPageDecodesCatalogFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wp-json/wc/v3/products", r.URL.Path)
		_, _ = w.Write([]byte(`[
		  {"id": 12, "name": "Tee", "categories": [{"id": 1, "name": "Vetements"}], "price": "24.90", "stock_quantity": 7, "total_sales": 31},
		  {"id": 13, "name": "Mug", "categories": [], "price": "", "stock_quantity": null, "total_sales": 0}
		]`))
	}))
	defer srv.Close()

	products, _, err := newWoo(t, srv.URL, AuthQuery).FetchProductsPage(context.Background(), 1, 100)
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.Equal(t, []string{"Vetements"}, products[0].Categories)
	require.Equal(t, 7, products[0].StockQuantity)
	// Nullable stock defaults to zero at the decode boundary.
	require.Zero(t, products[1].StockQuantity)
	require.Empty(t, products[1].Categories)
}

func TestWooFetchProductsByIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "12,13,14", q.Get("include"))
		require.Equal(t, "3", q.Get("per_page"))
		_, _ = w.Write([]byte(`[{"id": 12}, {"id": 13}, {"id": 14}]`))
	}))
	defer srv.Close()

	products, _, err := newWoo(t, srv.URL, AuthQuery).FetchProductsByIDs(context.Background(), []string{"12", "13", "14"})
	require.NoError(t, err)
	require.Len(t, products, 3)
}

func TestNewWooAdapterValidation(t *testing.T) {
	_, err := NewWooAdapter(WooOptions{ConsumerKey: "k", ConsumerSecret: "s"})
	require.Error(t, err)

	_, err = NewWooAdapter(WooOptions{BaseURL: "https://shop.example.test"})
	require.Error(t, err)

	_, err = NewWooAdapter(WooOptions{BaseURL: "https://shop.example.test", ConsumerKey: "k", ConsumerSecret: "s", AuthMode: "oauth"})
	require.Error(t, err)
}
