package main

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/khaledakrout-design/woocommerce-supabase-sync/adapters"
)

/* ========================= Target record shapes ========================= */

// SaleRow is the persisted projection of an order. Conflict key: order_id.
// Re-upserting the same order_id overwrites all other fields.
type SaleRow struct {
	OrderID       string  `json:"order_id"`
	CreatedAt     string  `json:"created_at"`
	CustomerName  string  `json:"customer_name"`
	Total         float64 `json:"total"`
	PaymentMethod string  `json:"payment_method"`
	Status        string  `json:"status"`
}

// ProductRow is the direct catalog projection. Conflict key: product_id.
type ProductRow struct {
	ProductID  string  `json:"product_id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Price      float64 `json:"price"`
	Stock      int     `json:"stock"`
	TotalSales int     `json:"total_sales"`
}

// ProductSalesRow is the order-derived aggregate shape. The sums cover the
// current extraction window, not deltas against prior state.
type ProductSalesRow struct {
	ProductID    string  `json:"product_id"`
	Name         string  `json:"name"`
	TotalSold    int     `json:"total_sold"`
	TotalRevenue float64 `json:"total_revenue"`
	LastSoldDate string  `json:"last_sold_date"`
}

// ProductHybridRow combines catalog fields with order-derived sums.
type ProductHybridRow struct {
	ProductID    string  `json:"product_id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Price        float64 `json:"price"`
	Stock        int     `json:"stock"`
	TotalSold    int     `json:"total_sold"`
	TotalRevenue float64 `json:"total_revenue"`
	LastSoldDate string  `json:"last_sold_date"`
}

/* ========================= Formatting rules ========================= */

const (
	// unknownCustomer is the sentinel for orders with no usable billing name.
	unknownCustomer = "Client inconnu"
	// unknownEmail groups orders with no billing email in customer aggregates.
	unknownEmail = "unknown"
	// noCategory is the sentinel for products with an empty category list.
	noCategory = "uncategorized"

	createdAtLayout = "2006-01-02T15:04:05"
)

// parseOrZero is the single monetary parsing policy of the sync: any parse
// failure, including an absent value, yields 0.0 and never an error. Source
// catalogs routinely contain empty or junk price strings; a run must not die
// on them.
func parseOrZero(s string) float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

// formatCreatedAt prefers the GMT creation field from the source. When it is
// absent the current wall-clock time is substituted at formatting time, which
// makes re-runs non-deterministic for malformed source data; that trade was
// chosen over rejecting the record.
func formatCreatedAt(createdGMT string, now func() time.Time) string {
	if s := strings.TrimSpace(createdGMT); s != "" {
		return s
	}
	return now().UTC().Format(createdAtLayout)
}

// customerName joins the billing first/last name; an empty result maps to the
// fixed sentinel so downstream grouping stays total.
func customerName(b adapters.Billing) string {
	name := strings.TrimSpace(strings.TrimSpace(b.FirstName) + " " + strings.TrimSpace(b.LastName))
	if name == "" {
		return unknownCustomer
	}
	return name
}

// customerKey is the grouping key for customer aggregates.
func customerKey(b adapters.Billing) string {
	if email := strings.TrimSpace(b.Email); email != "" {
		return email
	}
	return unknownEmail
}

func firstCategory(categories []string) string {
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return noCategory
}

func saleFromOrder(o adapters.Order, now func() time.Time) SaleRow {
	return SaleRow{
		OrderID:       o.ID,
		CreatedAt:     formatCreatedAt(o.CreatedGMT, now),
		CustomerName:  customerName(o.Billing),
		Total:         parseOrZero(o.Total),
		PaymentMethod: o.PaymentMethod,
		Status:        o.Status,
	}
}

func productFromCatalog(p adapters.Product) ProductRow {
	return ProductRow{
		ProductID:  p.ID,
		Name:       p.Name,
		Category:   firstCategory(p.Categories),
		Price:      parseOrZero(p.Price),
		Stock:      p.StockQuantity,
		TotalSales: p.TotalSales,
	}
}

/* ========================= Status filter ========================= */

// filterByStatus restricts orders to an allow-list of statuses. A nil list
// disables the filter. The filter runs before both target-record formatting
// and aggregate derivation: excluded orders leave no trace in the sync.
func filterByStatus(orders []adapters.Order, allow []string) []adapters.Order {
	if allow == nil {
		return orders
	}
	allowed := make(map[string]struct{}, len(allow))
	for _, s := range allow {
		allowed[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	out := make([]adapters.Order, 0, len(orders))
	for _, o := range orders {
		if _, ok := allowed[strings.ToLower(o.Status)]; ok {
			out = append(out, o)
		}
	}
	return out
}
