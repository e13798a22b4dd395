// WooCommerce → Supabase sync job
// -------------------------------
//
// A one-directional, stateless batch sync:
//   • Paginated extraction of orders and products from a WooCommerce REST API
//     (empty-page termination, fixed inter-page delay, hard page cap)
//   • In-memory transformation and aggregate derivation (sales projections,
//     order-derived product stats, optional BI report)
//   • Chunked idempotent bulk upsert into Supabase, either through PostgREST
//     (Prefer: resolution=merge-duplicates) or straight into Postgres via pgx
//     (INSERT ... ON CONFLICT DO UPDATE)
//
// There is no persisted cursor: every run re-extracts the full window. There
// are no retries: a failed page or chunk aborts the run and the scheduler
// (cron, CI runner, -daemon loop) drives the re-run. Exit codes: 0 success,
// 1 run failure, 2 configuration failure.
//
// Configuration is primarily via environment variables (flags can override):
//   WC_BASE_URL, WC_CONSUMER_KEY, WC_CONSUMER_SECRET, WC_AUTH_MODE,
//   SUPABASE_URL, SUPABASE_API_KEY, PG_DSN, PRODUCT_MODE, STATUS_FILTER,
//   PAGE_SIZE, CHUNK_SIZE, METRICS_ADDR, DAEMON, ...
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/khaledakrout-design/woocommerce-supabase-sync/adapters"
)

func main() {
	_ = godotenv.Load()
	cfg := parseFlags()

	if cfg.healthcheck {
		fmt.Println("healthcheck=ok")
		return
	}
	if err := cfg.validate(); err != nil {
		fmt.Fprintln(os.Stderr, "[config]", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, store, closeStore, err := buildClients(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "[config]", err)
		os.Exit(2)
	}
	defer closeStore()

	metrics := newMetricsRegistry()
	startMetrics(cfg.metricsAddr, metrics)

	if !cfg.daemon {
		res, err := runSync(ctx, cfg, src, store, metrics)
		res.printSummary(cfg.jsonLogs)
		if err != nil {
			fmt.Fprintln(os.Stderr, "[sync]", err)
			os.Exit(1)
		}
		return
	}

	// Daemon mode: run forever with a jittered sleep between runs. A failed
	// run is logged and retried on the next cycle; only signals stop the loop.
	minSleep := time.Duration(cfg.daemonMinSec) * time.Second
	maxSleep := time.Duration(cfg.daemonMaxSec) * time.Second
	for {
		res, err := runSync(ctx, cfg, src, store, metrics)
		res.printSummary(cfg.jsonLogs)
		if err != nil {
			fmt.Fprintln(os.Stderr, "[sync]", err)
		}

		sleep := minSleep
		if span := maxSleep - minSleep; span > 0 {
			sleep += time.Duration(rand.Int63n(int64(span)))
		}
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return
		}
	}
}

// buildClients resolves the source and store connectors from the validated
// configuration. Mock mode runs fully offline: synthetic source, in-memory
// store (unless a PG_DSN points the load at a real database anyway).
func buildClients(ctx context.Context, cfg config) (adapters.SourceAdapter, adapters.StoreAdapter, func(), error) {
	var src adapters.SourceAdapter
	switch cfg.adapter {
	case "mock":
		src = adapters.NewMockSource(cfg.mockSeed)
	default:
		woo, err := adapters.NewWooAdapter(adapters.WooOptions{
			BaseURL:        cfg.wcBaseURL,
			ConsumerKey:    cfg.wcKey,
			ConsumerSecret: cfg.wcSecret,
			AuthMode:       adapters.AuthMode(cfg.wcAuthMode),
			Timeout:        cfg.requestTimeout,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("source: %w", err)
		}
		src = woo
	}

	if cfg.pgDSN != "" {
		sink, err := newPGSink(ctx, cfg.pgDSN, cfg.pgSchema, cfg.pgMaxConns, cfg.pgViaBouncer)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("store: %w", err)
		}
		return src, sink, sink.Close, nil
	}
	if cfg.adapter == "mock" {
		return src, adapters.NewMockStore(), func() {}, nil
	}
	store, err := adapters.NewSupabaseStore(adapters.SupabaseOptions{
		BaseURL: cfg.supabaseURL,
		APIKey:  cfg.supabaseKey,
		Timeout: cfg.requestTimeout,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("store: %w", err)
	}
	return src, store, func() {}, nil
}
