package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/khaledakrout-design/woocommerce-supabase-sync/adapters"
)

// idBatchSize is the batch size for the by-ID product fetch used in hybrid
// mode.
const idBatchSize = 100

type runResult struct {
	Event           string  `json:"event"`
	RunID           string  `json:"run_id"`
	OrderPages      int     `json:"order_pages"`
	OrdersExtracted int     `json:"orders_extracted"`
	OrdersFiltered  int     `json:"orders_filtered"`
	SalesUpserted   int     `json:"sales_upserted"`
	SalesChunks     int     `json:"sales_chunks"`
	ProductMode     string  `json:"product_mode"`
	ProductPages    int     `json:"product_pages"`
	ProductsUpsert  int     `json:"products_upserted"`
	ProductChunks   int     `json:"product_chunks"`
	DurationSec     float64 `json:"duration_sec"`
}

// runSync drives one full extract-aggregate-load pass: orders first, then
// products, because two of the product shapes are derived from the order set.
// Everything is strictly sequential; the whole record set of an entity type
// is held in memory between phases.
//
// Any fatal error aborts the run immediately. Chunks upserted before the
// failure stay committed in the store: the target may be partially applied
// while the process still exits non-zero for the scheduler.
func runSync(ctx context.Context, cfg config, src adapters.SourceAdapter, store adapters.StoreAdapter, m *metricsRegistry) (runResult, error) {
	start := time.Now()
	res := runResult{Event: "summary", RunID: uuid.NewString(), ProductMode: cfg.productMode}

	// ── Orders ──
	orders, pages, err := extractAll(ctx, "orders", src.FetchOrdersPage, cfg.pageSize, cfg.maxPages, cfg.pageDelay)
	res.OrderPages = pages
	m.PagesFetched.Add(float64(pages))
	if err != nil {
		m.FetchErrors.Inc()
		return res, fmt.Errorf("extract: %w", err)
	}
	m.RecordsExtracted.Add(float64(len(orders)))
	res.OrdersExtracted = len(orders)

	kept := filterByStatus(orders, cfg.statusFilter)
	res.OrdersFiltered = len(orders) - len(kept)
	m.RecordsFiltered.Add(float64(res.OrdersFiltered))

	sales := lo.Map(kept, func(o adapters.Order, _ int) SaleRow {
		return saleFromOrder(o, time.Now)
	})
	chunks, err := loadChunked(ctx, store, cfg.salesTable, "order_id", anySlice(sales), cfg.chunkSize, cfg.chunkDelay)
	res.SalesChunks = chunks
	m.ChunksWritten.Add(float64(chunks))
	if err != nil {
		m.LoadErrors.Inc()
		return res, fmt.Errorf("load: %w", err)
	}
	res.SalesUpserted = len(sales)
	m.RowsUpserted.Add(float64(len(sales)))

	// ── Products ──
	productRows, pages, err := buildProductRows(ctx, cfg, src, kept)
	res.ProductPages = pages
	m.PagesFetched.Add(float64(pages))
	if err != nil {
		m.FetchErrors.Inc()
		return res, fmt.Errorf("extract: %w", err)
	}
	m.RecordsExtracted.Add(float64(len(productRows)))

	chunks, err = loadChunked(ctx, store, cfg.productsTab, "product_id", productRows, cfg.chunkSize, cfg.chunkDelay)
	res.ProductChunks = chunks
	m.ChunksWritten.Add(float64(chunks))
	if err != nil {
		m.LoadErrors.Inc()
		return res, fmt.Errorf("load: %w", err)
	}
	res.ProductsUpsert = len(productRows)
	m.RowsUpserted.Add(float64(len(productRows)))

	if cfg.biReport {
		buildReport(res.RunID, kept, cfg).print()
	}

	res.DurationSec = time.Since(start).Seconds()
	m.LastRunSeconds.Set(res.DurationSec)
	m.LastRunUnix.SetToCurrentTime()
	return res, nil
}

// buildProductRows produces the product record set for the configured shape.
// The order set has already been status-filtered, so derived sums never see
// excluded orders.
func buildProductRows(ctx context.Context, cfg config, src adapters.SourceAdapter, orders []adapters.Order) (rows []any, pages int, err error) {
	switch cfg.productMode {
	case productModeCatalog:
		products, pages, err := extractAll(ctx, "products", src.FetchProductsPage, cfg.pageSize, cfg.maxPages, cfg.pageDelay)
		if err != nil {
			return nil, pages, err
		}
		return anySlice(lo.Map(products, func(p adapters.Product, _ int) ProductRow {
			return productFromCatalog(p)
		})), pages, nil

	case productModeDerived:
		return anySlice(deriveProductSales(orders)), 0, nil

	case productModeHybrid:
		derived := deriveProductSales(orders)
		ids := lo.Map(derived, func(r ProductSalesRow, _ int) string { return r.ProductID })
		products, batches, err := extractByIDs(ctx, src, ids, idBatchSize, cfg.pageDelay)
		if err != nil {
			return nil, batches, err
		}
		catalog := lo.KeyBy(products, func(p adapters.Product) string { return p.ID })
		hybrid := lo.Map(derived, func(d ProductSalesRow, _ int) ProductHybridRow {
			row := ProductHybridRow{
				ProductID:    d.ProductID,
				Name:         d.Name,
				Category:     noCategory,
				TotalSold:    d.TotalSold,
				TotalRevenue: d.TotalRevenue,
				LastSoldDate: d.LastSoldDate,
			}
			if p, ok := catalog[d.ProductID]; ok {
				row.Name = p.Name
				row.Category = firstCategory(p.Categories)
				row.Price = parseOrZero(p.Price)
				row.Stock = p.StockQuantity
			}
			return row
		})
		return anySlice(hybrid), batches, nil
	}
	return nil, 0, fmt.Errorf("unknown product mode %q", cfg.productMode)
}

func (r runResult) printSummary(jsonLogs bool) {
	fmt.Printf(
		"run_id=%s order_pages=%d orders=%d filtered=%d sales_upserted=%d product_mode=%s products_upserted=%d chunks=%d duration=%0.2f\n",
		r.RunID, r.OrderPages, r.OrdersExtracted, r.OrdersFiltered, r.SalesUpserted,
		r.ProductMode, r.ProductsUpsert, r.SalesChunks+r.ProductChunks, r.DurationSec,
	)
	if jsonLogs {
		if b, err := json.Marshal(r); err == nil {
			fmt.Println(string(b))
		}
	}
}
