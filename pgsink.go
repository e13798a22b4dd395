package main

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgSink writes target records straight into Postgres. Supabase exposes a
// direct connection to the underlying database, so this is a drop-in
// alternative to the PostgREST path for deployments that already hold a DSN
// (e.g. jobs running next to PgBouncer). Chunking, delays and fail-fast
// semantics are handled by the caller; each UpsertChunk is one pgx batch of
// INSERT ... ON CONFLICT DO UPDATE statements, the SQL equivalent of
// merge-duplicates: every field of the existing row is replaced.
type pgSink struct {
	pool   *pgxpool.Pool
	schema string
}

var safeIdentRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func newPGSink(ctx context.Context, dsn, schema string, maxConns int, viaBouncer bool) (*pgSink, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 2
	}
	cfg.MaxConns = int32(maxConns)
	if viaBouncer {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}
	if !safeIdentRE.MatchString(schema) {
		return nil, fmt.Errorf("unsafe schema name %q", schema)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return &pgSink{pool: pool, schema: schema}, nil
}

func (s *pgSink) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *pgSink) UpsertChunk(ctx context.Context, table, conflictKey string, records []any) error {
	if len(records) == 0 {
		return nil
	}
	if !safeIdentRE.MatchString(table) || !safeIdentRE.MatchString(conflictKey) {
		return fmt.Errorf("unsafe identifier: table %q key %q", table, conflictKey)
	}
	qualified := fmt.Sprintf(`"%s"."%s"`, s.schema, table)

	b := &pgx.Batch{}
	for _, rec := range records {
		sql, args, err := upsertStatement(qualified, conflictKey, rec)
		if err != nil {
			return fmt.Errorf("%s: %w", table, err)
		}
		b.Queue(sql, args...)
	}

	br := s.pool.SendBatch(ctx, b)
	for range records {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("%s: upsert: %w", table, err)
		}
	}
	return br.Close()
}

// upsertStatement renders one INSERT ... ON CONFLICT DO UPDATE statement and
// its positional args for a target record. Every non-key column is set from
// EXCLUDED, so a conflicting row is replaced whole, matching the PostgREST
// merge-duplicates resolution.
func upsertStatement(qualified, conflictKey string, rec any) (string, []any, error) {
	switch r := rec.(type) {
	case SaleRow:
		return fmt.Sprintf(
			`INSERT INTO %s (order_id, created_at, customer_name, total, payment_method, status)
			 VALUES ($1,$2,$3,$4,$5,$6)
			 ON CONFLICT (%s) DO UPDATE SET
			   created_at = EXCLUDED.created_at,
			   customer_name = EXCLUDED.customer_name,
			   total = EXCLUDED.total,
			   payment_method = EXCLUDED.payment_method,
			   status = EXCLUDED.status`, qualified, conflictKey),
			[]any{r.OrderID, r.CreatedAt, r.CustomerName, r.Total, r.PaymentMethod, r.Status}, nil
	case ProductRow:
		return fmt.Sprintf(
			`INSERT INTO %s (product_id, name, category, price, stock, total_sales)
			 VALUES ($1,$2,$3,$4,$5,$6)
			 ON CONFLICT (%s) DO UPDATE SET
			   name = EXCLUDED.name,
			   category = EXCLUDED.category,
			   price = EXCLUDED.price,
			   stock = EXCLUDED.stock,
			   total_sales = EXCLUDED.total_sales`, qualified, conflictKey),
			[]any{r.ProductID, r.Name, r.Category, r.Price, r.Stock, r.TotalSales}, nil
	case ProductSalesRow:
		return fmt.Sprintf(
			`INSERT INTO %s (product_id, name, total_sold, total_revenue, last_sold_date)
			 VALUES ($1,$2,$3,$4,$5)
			 ON CONFLICT (%s) DO UPDATE SET
			   name = EXCLUDED.name,
			   total_sold = EXCLUDED.total_sold,
			   total_revenue = EXCLUDED.total_revenue,
			   last_sold_date = EXCLUDED.last_sold_date`, qualified, conflictKey),
			[]any{r.ProductID, r.Name, r.TotalSold, r.TotalRevenue, r.LastSoldDate}, nil
	case ProductHybridRow:
		return fmt.Sprintf(
			`INSERT INTO %s (product_id, name, category, price, stock, total_sold, total_revenue, last_sold_date)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			 ON CONFLICT (%s) DO UPDATE SET
			   name = EXCLUDED.name,
			   category = EXCLUDED.category,
			   price = EXCLUDED.price,
			   stock = EXCLUDED.stock,
			   total_sold = EXCLUDED.total_sold,
			   total_revenue = EXCLUDED.total_revenue,
			   last_sold_date = EXCLUDED.last_sold_date`, qualified, conflictKey),
			[]any{r.ProductID, r.Name, r.Category, r.Price, r.Stock, r.TotalSold, r.TotalRevenue, r.LastSoldDate}, nil
	default:
		return "", nil, fmt.Errorf("unsupported record type %T", rec)
	}
}
