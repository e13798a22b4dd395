package main

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/khaledakrout-design/woocommerce-supabase-sync/adapters"
)

// loadChunked partitions records into fixed-size chunks and issues one bulk
// merge-duplicates upsert per chunk. The first failing chunk aborts the load;
// chunks already written stay committed in the store, so a failed load leaves
// the target partially applied and the run must report failure.
//
// The inter-chunk delay mirrors the extractor's rate-limiting courtesy; it is
// fixed and is not a retry backoff (there are no retries; a failed run is
// re-driven by the scheduler).
func loadChunked(ctx context.Context, store adapters.StoreAdapter, table, conflictKey string, records []any, chunkSize int, delay time.Duration) (chunks int, err error) {
	if len(records) == 0 {
		return 0, nil
	}
	if chunkSize <= 0 {
		chunkSize = 200
	}
	for i, chunk := range lo.Chunk(records, chunkSize) {
		if i > 0 && delay > 0 {
			time.Sleep(delay)
		}
		if err := store.UpsertChunk(ctx, table, conflictKey, chunk); err != nil {
			return chunks, fmt.Errorf("%s: chunk %d/%d (%d records): %w",
				table, i+1, (len(records)+chunkSize-1)/chunkSize, len(chunk), err)
		}
		chunks++
	}
	return chunks, nil
}

// anySlice adapts a typed row slice to the store's []any contract.
func anySlice[T any](rows []T) []any {
	out := make([]any, len(rows))
	for i := range rows {
		out[i] = rows[i]
	}
	return out
}
