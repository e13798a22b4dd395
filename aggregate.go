package main

import (
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/khaledakrout-design/woocommerce-supabase-sync/adapters"
)

// Derived aggregates are computed in memory from the current extraction
// window. Ranked views break ties deterministically: descending value first,
// then ascending group key, so identical inputs always produce identical
// output order.

type customerTotal struct {
	Email  string  `json:"email"`
	Name   string  `json:"name"`
	Orders int     `json:"orders"`
	Total  float64 `json:"total"`
}

type productQuantity struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type dateRevenue struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

// topCustomers groups orders by billing email (sentinel key when absent),
// sums order totals per group and returns the first n by descending total.
func topCustomers(orders []adapters.Order, n int) []customerTotal {
	type accum struct {
		name   string
		orders int
		total  decimal.Decimal
	}
	byEmail := make(map[string]*accum)
	for _, o := range orders {
		key := customerKey(o.Billing)
		a := byEmail[key]
		if a == nil {
			a = &accum{name: customerName(o.Billing)}
			byEmail[key] = a
		}
		a.orders++
		a.total = a.total.Add(decimal.NewFromFloat(parseOrZero(o.Total)))
	}
	out := lo.MapToSlice(byEmail, func(email string, a *accum) customerTotal {
		t, _ := a.total.Float64()
		return customerTotal{Email: email, Name: a.name, Orders: a.orders, Total: t}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Email < out[j].Email
	})
	return capSlice(out, n)
}

// topProductsByQuantity groups all line items across all orders by product
// name and sums quantities.
func topProductsByQuantity(orders []adapters.Order, n int) []productQuantity {
	byName := make(map[string]int)
	for _, o := range orders {
		for _, it := range o.LineItems {
			byName[it.Name] += it.Quantity
		}
	}
	out := lo.MapToSlice(byName, func(name string, qty int) productQuantity {
		return productQuantity{Name: name, Quantity: qty}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Name < out[j].Name
	})
	return capSlice(out, n)
}

// deriveProductSales accumulates per-product unit counts, revenue and the
// last sold date over all line items in the window. Output is sorted by
// product id so repeated runs upsert in a stable order.
func deriveProductSales(orders []adapters.Order) []ProductSalesRow {
	type accum struct {
		name     string
		units    int
		revenue  decimal.Decimal
		lastSold string
	}
	byID := make(map[string]*accum)
	for _, o := range orders {
		day := dateOf(o.CreatedGMT)
		for _, it := range o.LineItems {
			a := byID[it.ProductID]
			if a == nil {
				a = &accum{name: it.Name}
				byID[it.ProductID] = a
			}
			a.units += it.Quantity
			a.revenue = a.revenue.Add(decimal.NewFromFloat(parseOrZero(it.Total)))
			if day > a.lastSold {
				a.lastSold = day
			}
		}
	}
	out := lo.MapToSlice(byID, func(id string, a *accum) ProductSalesRow {
		rev, _ := a.revenue.Float64()
		return ProductSalesRow{
			ProductID:    id,
			Name:         a.name,
			TotalSold:    a.units,
			TotalRevenue: rev,
			LastSoldDate: a.lastSold,
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// topSellers ranks the derived product sales by unit count.
func topSellers(orders []adapters.Order, n int) []ProductSalesRow {
	rows := deriveProductSales(orders)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalSold != rows[j].TotalSold {
			return rows[i].TotalSold > rows[j].TotalSold
		}
		return rows[i].ProductID < rows[j].ProductID
	})
	return capSlice(rows, n)
}

// revenueByDate groups order totals by the date portion (YYYY-MM-DD) of the
// creation timestamp.
func revenueByDate(orders []adapters.Order) []dateRevenue {
	byDay := make(map[string]decimal.Decimal)
	for _, o := range orders {
		day := dateOf(o.CreatedGMT)
		byDay[day] = byDay[day].Add(decimal.NewFromFloat(parseOrZero(o.Total)))
	}
	out := lo.MapToSlice(byDay, func(day string, total decimal.Decimal) dateRevenue {
		t, _ := total.Float64()
		return dateRevenue{Date: day, Revenue: t}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// totalRevenue sums order totals over the window.
func totalRevenue(orders []adapters.Order) float64 {
	sum := decimal.Zero
	for _, o := range orders {
		sum = sum.Add(decimal.NewFromFloat(parseOrZero(o.Total)))
	}
	f, _ := sum.Float64()
	return f
}

// averageOrderValue divides window revenue by order count. An empty window
// yields 0 rather than a division by zero.
func averageOrderValue(orders []adapters.Order) float64 {
	if len(orders) == 0 {
		return 0
	}
	return totalRevenue(orders) / float64(len(orders))
}

// dateOf truncates a creation timestamp to its date portion. A missing
// timestamp groups under the empty string, not under today's date: the
// wall-clock fallback applies only to the formatted row timestamp, so that
// aggregates over the same window stay identical across re-runs.
func dateOf(created string) string {
	if len(created) >= 10 {
		return created[:10]
	}
	return created
}

func capSlice[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
