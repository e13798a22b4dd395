// Package adapters contains the pluggable connectors for the sync job.
//
// The source side speaks the WooCommerce REST API (paginated JSON arrays);
// the store side speaks the Supabase PostgREST bulk-upsert interface. Both
// have offline-safe mock implementations so the job can run end-to-end
// without network access or credentials.
//
// Source payloads are decoded leniently: missing or oddly-typed fields are
// defaulted at this boundary (identifiers are always coerced to strings,
// monetary fields stay textual until the formatting layer parses them).
// A malformed record never fails a run.
package adapters

import (
	"context"
	"time"

	"github.com/tidwall/gjson"
)

// FetchMeta provides request-level telemetry without leaking connector details.
type FetchMeta struct {
	StatusCode int
	Latency    time.Duration
}

// Billing is the customer sub-record of an order. Any field may be empty.
type Billing struct {
	FirstName string
	LastName  string
	Email     string
}

// LineItem is one purchased position inside an order.
type LineItem struct {
	ProductID string // stringified source identifier
	Name      string
	Price     string // textual decimal, parsed downstream
	Total     string // textual decimal, parsed downstream
	Quantity  int
}

// Order is a normalized source order record.
type Order struct {
	ID            string // stringified source identifier
	CreatedGMT    string // e.g. "2024-03-01T10:15:00", empty when absent
	Billing       Billing
	Total         string // textual decimal
	PaymentMethod string
	Status        string // free-text, not validated against a closed set
	LineItems     []LineItem
}

// Product is a normalized source product record.
type Product struct {
	ID            string // stringified source identifier
	Name          string
	Categories    []string
	Price         string // textual decimal
	StockQuantity int    // nullable at the source, defaults to 0
	TotalSales    int
}

// SourceAdapter abstracts the paginated source API.
//
// A page fetch returns the decoded records of one page. An empty slice (also
// returned when the payload is not a JSON array) signals end-of-data to the
// caller; it is not an error.
type SourceAdapter interface {
	FetchOrdersPage(ctx context.Context, page, perPage int) ([]Order, FetchMeta, error)
	FetchProductsPage(ctx context.Context, page, perPage int) ([]Product, FetchMeta, error)

	// FetchProductsByIDs fetches a single batch of products by identifier.
	// Callers are responsible for batching large ID sets.
	FetchProductsByIDs(ctx context.Context, ids []string) ([]Product, FetchMeta, error)
}

// StoreAdapter is the write side of the sync: one bulk upsert per call with
// merge-duplicates semantics (an incoming record fully replaces the existing
// row matching the conflict key).
type StoreAdapter interface {
	UpsertChunk(ctx context.Context, table, conflictKey string, records []any) error
}

// decodeOrders decodes a JSON array of order objects. ok is false when the
// payload is not an array (treated as end-of-data by callers).
func decodeOrders(body []byte) (orders []Order, ok bool) {
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, false
	}
	root.ForEach(func(_, r gjson.Result) bool {
		orders = append(orders, orderFromJSON(r))
		return true
	})
	return orders, true
}

func decodeProducts(body []byte) (products []Product, ok bool) {
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, false
	}
	root.ForEach(func(_, r gjson.Result) bool {
		products = append(products, productFromJSON(r))
		return true
	})
	return products, true
}

func orderFromJSON(r gjson.Result) Order {
	o := Order{
		ID:            r.Get("id").String(),
		CreatedGMT:    r.Get("date_created_gmt").String(),
		Total:         r.Get("total").String(),
		PaymentMethod: r.Get("payment_method_title").String(),
		Status:        r.Get("status").String(),
	}
	b := r.Get("billing")
	o.Billing = Billing{
		FirstName: b.Get("first_name").String(),
		LastName:  b.Get("last_name").String(),
		Email:     b.Get("email").String(),
	}
	r.Get("line_items").ForEach(func(_, it gjson.Result) bool {
		o.LineItems = append(o.LineItems, LineItem{
			ProductID: it.Get("product_id").String(),
			Name:      it.Get("name").String(),
			Price:     it.Get("price").String(),
			Total:     it.Get("total").String(),
			Quantity:  int(it.Get("quantity").Int()),
		})
		return true
	})
	return o
}

func productFromJSON(r gjson.Result) Product {
	p := Product{
		ID:            r.Get("id").String(),
		Name:          r.Get("name").String(),
		Price:         r.Get("price").String(),
		StockQuantity: int(r.Get("stock_quantity").Int()),
		TotalSales:    int(r.Get("total_sales").Int()),
	}
	r.Get("categories").ForEach(func(_, c gjson.Result) bool {
		p.Categories = append(p.Categories, c.Get("name").String())
		return true
	})
	return p
}
