package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/khaledakrout-design/woocommerce-supabase-sync/adapters"
)

// ErrPageCapExceeded is returned when pagination passes the configured hard
// page cap, which usually means the source keeps returning non-empty pages
// forever (misbehaving plugin, redirect loop, ...).
var ErrPageCapExceeded = errors.New("page cap exceeded")

// pageFetch fetches one page of records from the source.
type pageFetch[T any] func(ctx context.Context, page, perPage int) ([]T, adapters.FetchMeta, error)

// extractAll pulls every record of one entity type, page by page, preserving
// source order within and across pages.
//
// Pagination terminates on the first empty page (which still counts as a
// request). A non-success page is fatal and carries the page number and HTTP
// status; stopping silently would hide partial syncs. The delay between page
// requests is a rate-limiting courtesy to the source API, not a backoff: it
// is fixed and does not react to errors.
func extractAll[T any](ctx context.Context, entity string, fetch pageFetch[T], pageSize, maxPages int, delay time.Duration) (records []T, pages int, err error) {
	for page := 1; ; page++ {
		if page > maxPages {
			return records, pages, fmt.Errorf("%s: %w after %d pages", entity, ErrPageCapExceeded, maxPages)
		}
		if page > 1 && delay > 0 {
			time.Sleep(delay)
		}
		batch, meta, err := fetch(ctx, page, pageSize)
		pages++
		if err != nil {
			return records, pages, fmt.Errorf("%s: page %d (status %d): %w", entity, page, meta.StatusCode, err)
		}
		if len(batch) == 0 {
			return records, pages, nil
		}
		records = append(records, batch...)
	}
}

// extractByIDs fetches an explicit set of products in fixed-size batches,
// with the same inter-request delay discipline as page extraction. The batch
// count feeds the same request accounting as page counts, so by-ID traffic
// shows up in summaries and the pages-fetched counter.
func extractByIDs(ctx context.Context, src adapters.SourceAdapter, ids []string, batchSize int, delay time.Duration) (out []adapters.Product, batches int, err error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	for i, batch := range lo.Chunk(ids, batchSize) {
		if i > 0 && delay > 0 {
			time.Sleep(delay)
		}
		products, meta, err := src.FetchProductsByIDs(ctx, batch)
		batches++
		if err != nil {
			return out, batches, fmt.Errorf("products by id: batch %d (status %d): %w", i+1, meta.StatusCode, err)
		}
		out = append(out, products...)
	}
	return out, batches, nil
}
