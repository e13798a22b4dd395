package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

/* ========================= Environment helpers ========================= */

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

/* ========================= Config ========================= */

// productMode selects the shape of the products sync.
const (
	productModeCatalog = "catalog" // direct projection of /products
	productModeDerived = "derived" // aggregates derived from order line items
	productModeHybrid  = "hybrid"  // catalog fields (fetched by ID) + derived sums
)

// defaultStatusAllowList is applied when STATUS_FILTER=default. Orders with
// any other status are excluded from the sync entirely, not just from
// aggregates.
var defaultStatusAllowList = []string{"completed", "processing", "refunded"}

type config struct {
	// Source (WooCommerce)
	wcBaseURL  string
	wcKey      string
	wcSecret   string
	wcAuthMode string // query | basic

	// Target (Supabase REST), ignored when pgDSN is set
	supabaseURL string
	supabaseKey string

	// Target (direct Postgres, optional)
	pgDSN        string
	pgSchema     string
	pgMaxConns   int
	pgViaBouncer bool

	// Pipeline tuning
	pageSize       int
	maxPages       int
	pageDelay      time.Duration
	chunkSize      int
	chunkDelay     time.Duration
	requestTimeout time.Duration

	// Behavior
	productMode  string
	statusFilter []string // nil = disabled
	salesTable   string
	productsTab  string

	// BI report
	biReport     bool
	topCustomers int
	topProducts  int
	topSellers   int

	// Runtime
	adapter      string // http | mock
	mockSeed     int64
	metricsAddr  string
	jsonLogs     bool
	healthcheck  bool
	daemon       bool
	daemonMinSec int
	daemonMaxSec int
}

func parseFlags() config {
	var cfg config
	var statusFilter string

	flag.StringVar(&cfg.wcBaseURL, "wc-base-url", envString("WC_BASE_URL", ""), "WooCommerce site base URL. Env: WC_BASE_URL")
	flag.StringVar(&cfg.wcKey, "wc-key", envString("WC_CONSUMER_KEY", ""), "WooCommerce consumer key. Env: WC_CONSUMER_KEY")
	flag.StringVar(&cfg.wcSecret, "wc-secret", envString("WC_CONSUMER_SECRET", ""), "WooCommerce consumer secret. Env: WC_CONSUMER_SECRET")
	flag.StringVar(&cfg.wcAuthMode, "wc-auth-mode", envString("WC_AUTH_MODE", "query"), "Source auth: query | basic. Env: WC_AUTH_MODE")

	flag.StringVar(&cfg.supabaseURL, "supabase-url", envString("SUPABASE_URL", ""), "Supabase project URL. Env: SUPABASE_URL")
	flag.StringVar(&cfg.supabaseKey, "supabase-key", envString("SUPABASE_API_KEY", ""), "Supabase API key. Env: SUPABASE_API_KEY")

	flag.StringVar(&cfg.pgDSN, "pg-dsn", envString("PG_DSN", ""), "Postgres DSN (enables direct-DB load mode). Env: PG_DSN")
	flag.StringVar(&cfg.pgSchema, "pg-schema", envString("PG_SCHEMA", "public"), "Target Postgres schema. Env: PG_SCHEMA")
	flag.IntVar(&cfg.pgMaxConns, "pg-max-conns", envInt("PG_MAX_CONNS", 2), "DB max connections. Env: PG_MAX_CONNS")
	flag.BoolVar(&cfg.pgViaBouncer, "pg-via-bouncer", envBool("PG_VIA_BOUNCER", true), "Use simple protocol for PgBouncer txn pooling. Env: PG_VIA_BOUNCER")

	flag.IntVar(&cfg.pageSize, "page-size", envInt("PAGE_SIZE", 100), "Source page size. Env: PAGE_SIZE")
	flag.IntVar(&cfg.maxPages, "max-pages", envInt("MAX_PAGES", 10000), "Hard page cap per entity; exceeding it is fatal. Env: MAX_PAGES")
	pageDelayMS := flag.Int("page-delay-ms", envInt("PAGE_DELAY_MS", 400), "Delay between source page requests. Env: PAGE_DELAY_MS")
	flag.IntVar(&cfg.chunkSize, "chunk-size", envInt("CHUNK_SIZE", 200), "Upsert chunk size. Env: CHUNK_SIZE")
	chunkDelayMS := flag.Int("chunk-delay-ms", envInt("CHUNK_DELAY_MS", 250), "Delay between upsert chunks. Env: CHUNK_DELAY_MS")
	reqTimeoutSec := flag.Int("request-timeout-sec", envInt("REQUEST_TIMEOUT_SEC", 120), "Per-request deadline. Env: REQUEST_TIMEOUT_SEC")

	flag.StringVar(&cfg.productMode, "product-mode", envString("PRODUCT_MODE", productModeDerived), "Products sync shape: catalog | derived | hybrid. Env: PRODUCT_MODE")
	flag.StringVar(&statusFilter, "status-filter", envString("STATUS_FILTER", ""), "Order status allow-list: empty=off, 'default', or comma list. Env: STATUS_FILTER")
	flag.StringVar(&cfg.salesTable, "sales-table", envString("SALES_TABLE", "sales"), "Target sales table. Env: SALES_TABLE")
	flag.StringVar(&cfg.productsTab, "products-table", envString("PRODUCTS_TABLE", "products"), "Target products table. Env: PRODUCTS_TABLE")

	flag.BoolVar(&cfg.biReport, "bi-report", envBool("BI_REPORT", false), "Emit the BI aggregates report after a run. Env: BI_REPORT")
	flag.IntVar(&cfg.topCustomers, "top-customers", envInt("TOP_CUSTOMERS", 5), "Top customers in the BI report. Env: TOP_CUSTOMERS")
	flag.IntVar(&cfg.topProducts, "top-products", envInt("TOP_PRODUCTS", 5), "Top products by quantity in the BI report. Env: TOP_PRODUCTS")
	flag.IntVar(&cfg.topSellers, "top-sellers", envInt("TOP_SELLERS", 50), "Top sellers by unit count in the BI report. Env: TOP_SELLERS")

	flag.StringVar(&cfg.adapter, "adapter", envString("ADAPTER", "http"), "Source adapter: http | mock. Env: ADAPTER")
	mockSeed := flag.Int64("mock-seed", envInt64("MOCK_SEED", 0), "Seed for the mock adapter (0 = time-based). Env: MOCK_SEED")
	flag.StringVar(&cfg.metricsAddr, "metrics", envString("METRICS_ADDR", ""), "Serve /metrics and /debug/pprof/* on this address, e.g. :6060. Env: METRICS_ADDR")
	flag.BoolVar(&cfg.jsonLogs, "json-logs", envBool("JSON_LOGS", false), "Emit a JSON summary line (keeps human summary too). Env: JSON_LOGS")
	flag.BoolVar(&cfg.healthcheck, "healthcheck", false, "Print healthcheck=ok and exit")
	flag.BoolVar(&cfg.daemon, "daemon", envBool("DAEMON", false), "Run forever: sleep between runs. Env: DAEMON")
	flag.IntVar(&cfg.daemonMinSec, "daemon-min-sec", envInt("DAEMON_MIN_SEC", 300), "Daemon: minimum seconds between runs. Env: DAEMON_MIN_SEC")
	flag.IntVar(&cfg.daemonMaxSec, "daemon-max-sec", envInt("DAEMON_MAX_SEC", 900), "Daemon: maximum seconds between runs. Env: DAEMON_MAX_SEC")

	flag.Parse()

	cfg.pageDelay = time.Duration(*pageDelayMS) * time.Millisecond
	cfg.chunkDelay = time.Duration(*chunkDelayMS) * time.Millisecond
	cfg.requestTimeout = time.Duration(*reqTimeoutSec) * time.Second
	cfg.mockSeed = *mockSeed
	cfg.statusFilter = parseStatusFilter(statusFilter)

	if cfg.pageSize <= 0 {
		cfg.pageSize = 100
	}
	if cfg.maxPages <= 0 {
		cfg.maxPages = 10000
	}
	if cfg.chunkSize <= 0 {
		cfg.chunkSize = 200
	}
	if cfg.daemonMaxSec < cfg.daemonMinSec {
		cfg.daemonMaxSec = cfg.daemonMinSec
	}

	return cfg
}

func parseStatusFilter(s string) []string {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return nil
	case "default":
		return defaultStatusAllowList
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// validate checks the connection parameters before any network call is made.
// Mock mode is offline-safe and needs no credentials.
func (c config) validate() error {
	switch c.productMode {
	case productModeCatalog, productModeDerived, productModeHybrid:
	default:
		return fmt.Errorf("unknown product mode %q", c.productMode)
	}
	switch c.adapter {
	case "mock":
		return nil
	case "http":
	default:
		return fmt.Errorf("unknown adapter %q", c.adapter)
	}

	var missing []string
	if c.wcBaseURL == "" {
		missing = append(missing, "WC_BASE_URL")
	}
	if c.wcKey == "" {
		missing = append(missing, "WC_CONSUMER_KEY")
	}
	if c.wcSecret == "" {
		missing = append(missing, "WC_CONSUMER_SECRET")
	}
	if c.pgDSN == "" {
		if c.supabaseURL == "" {
			missing = append(missing, "SUPABASE_URL")
		}
		if c.supabaseKey == "" {
			missing = append(missing, "SUPABASE_API_KEY")
		}
	}
	if len(missing) > 0 {
		return errors.New("missing required configuration: " + strings.Join(missing, ", "))
	}
	return nil
}
