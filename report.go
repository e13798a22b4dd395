package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/khaledakrout-design/woocommerce-supabase-sync/adapters"
)

// biReport carries the in-memory aggregate views of one run. It is an output
// of the observability sink, never upserted to the store: dashboards that
// need these numbers persistently should read the sales/products tables.
type biReport struct {
	RunID             string            `json:"run_id"`
	GeneratedAt       string            `json:"generated_at"`
	OrderCount        int               `json:"order_count"`
	TotalRevenue      float64           `json:"total_revenue"`
	AverageOrderValue float64           `json:"average_order_value"`
	TopCustomers      []customerTotal   `json:"top_customers"`
	TopProducts       []productQuantity `json:"top_products"`
	TopSellers        []ProductSalesRow `json:"top_sellers"`
	RevenueByDay      []dateRevenue     `json:"revenue_by_day"`
}

func buildReport(runID string, orders []adapters.Order, cfg config) biReport {
	return biReport{
		RunID:             runID,
		GeneratedAt:       time.Now().UTC().Format(time.RFC3339),
		OrderCount:        len(orders),
		TotalRevenue:      totalRevenue(orders),
		AverageOrderValue: averageOrderValue(orders),
		TopCustomers:      topCustomers(orders, cfg.topCustomers),
		TopProducts:       topProductsByQuantity(orders, cfg.topProducts),
		TopSellers:        topSellers(orders, cfg.topSellers),
		RevenueByDay:      revenueByDate(orders),
	}
}

func (r biReport) print() {
	b, err := json.Marshal(r)
	if err != nil {
		fmt.Println("bi_report marshal error:", err)
		return
	}
	fmt.Println("bi_report " + string(b))
}
