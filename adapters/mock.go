package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"
)

// MockSource produces synthetic source records for demos and tests.
// It is deterministic for a given seed and makes no network calls.
//
// When OrderPages / ProductPages are set they are served verbatim (page N
// returns the N-1th slice, later pages are empty); otherwise a small
// deterministic catalog is synthesized from the seed.
type MockSource struct {
	OrderPages   [][]Order
	ProductPages [][]Product

	// FailOrdersPage / FailProductsPage force an HTTP-style failure on the
	// given 1-based page (0 disables). FailStatus defaults to 500.
	FailOrdersPage   int
	FailProductsPage int
	FailStatus       int

	OrdersCalls   int
	ProductsCalls int
	ByIDCalls     int

	seed int64
}

func NewMockSource(seed int64) *MockSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &MockSource{seed: seed}
}

func (m *MockSource) FetchOrdersPage(ctx context.Context, page, perPage int) ([]Order, FetchMeta, error) {
	m.OrdersCalls++
	if err := ctx.Err(); err != nil {
		return nil, FetchMeta{}, err
	}
	if m.FailOrdersPage > 0 && page == m.FailOrdersPage {
		return nil, FetchMeta{StatusCode: m.failStatus()}, fmt.Errorf("orders: http status %d: mock failure", m.failStatus())
	}
	if m.OrderPages != nil {
		if page < 1 || page > len(m.OrderPages) {
			return nil, FetchMeta{StatusCode: 200}, nil
		}
		return m.OrderPages[page-1], FetchMeta{StatusCode: 200}, nil
	}
	// Synthetic mode: two full pages then end-of-data.
	if page > 2 {
		return nil, FetchMeta{StatusCode: 200}, nil
	}
	r := rand.New(rand.NewSource(m.seed + int64(page)))
	out := make([]Order, 0, perPage)
	for i := 0; i < perPage; i++ {
		n := (page-1)*perPage + i + 1
		day := 1 + r.Intn(27)
		out = append(out, Order{
			ID:         strconv.Itoa(1000 + n),
			CreatedGMT: fmt.Sprintf("2024-03-%02dT10:%02d:00", day, r.Intn(60)),
			Billing: Billing{
				FirstName: "Client",
				LastName:  strconv.Itoa(1 + n%7),
				Email:     fmt.Sprintf("client%d@example.test", 1+n%7),
			},
			Total:         fmt.Sprintf("%d.%02d", 10+r.Intn(190), r.Intn(100)),
			PaymentMethod: "Carte bancaire",
			Status:        []string{"completed", "processing", "refunded", "cancelled"}[r.Intn(4)],
			LineItems: []LineItem{{
				ProductID: strconv.Itoa(1 + n%5),
				Name:      fmt.Sprintf("Produit %d", 1+n%5),
				Price:     "19.90",
				Total:     fmt.Sprintf("%d.80", 19+r.Intn(40)),
				Quantity:  1 + r.Intn(3),
			}},
		})
	}
	return out, FetchMeta{StatusCode: 200}, nil
}

func (m *MockSource) FetchProductsPage(ctx context.Context, page, perPage int) ([]Product, FetchMeta, error) {
	m.ProductsCalls++
	if err := ctx.Err(); err != nil {
		return nil, FetchMeta{}, err
	}
	if m.FailProductsPage > 0 && page == m.FailProductsPage {
		return nil, FetchMeta{StatusCode: m.failStatus()}, fmt.Errorf("products: http status %d: mock failure", m.failStatus())
	}
	if m.ProductPages != nil {
		if page < 1 || page > len(m.ProductPages) {
			return nil, FetchMeta{StatusCode: 200}, nil
		}
		return m.ProductPages[page-1], FetchMeta{StatusCode: 200}, nil
	}
	if page > 1 {
		return nil, FetchMeta{StatusCode: 200}, nil
	}
	out := make([]Product, 0, 5)
	for i := 1; i <= 5; i++ {
		out = append(out, m.syntheticProduct(strconv.Itoa(i)))
	}
	return out, FetchMeta{StatusCode: 200}, nil
}

func (m *MockSource) FetchProductsByIDs(ctx context.Context, ids []string) ([]Product, FetchMeta, error) {
	m.ByIDCalls++
	if err := ctx.Err(); err != nil {
		return nil, FetchMeta{}, err
	}
	out := make([]Product, 0, len(ids))
	if m.ProductPages != nil {
		known := make(map[string]Product)
		for _, pg := range m.ProductPages {
			for _, p := range pg {
				known[p.ID] = p
			}
		}
		for _, id := range ids {
			if p, ok := known[id]; ok {
				out = append(out, p)
			}
		}
		return out, FetchMeta{StatusCode: 200}, nil
	}
	for _, id := range ids {
		out = append(out, m.syntheticProduct(id))
	}
	return out, FetchMeta{StatusCode: 200}, nil
}

func (m *MockSource) syntheticProduct(id string) Product {
	n, _ := strconv.Atoi(id)
	r := rand.New(rand.NewSource(m.seed ^ int64(n)))
	return Product{
		ID:            id,
		Name:          "Produit " + id,
		Categories:    []string{[]string{"Accessoires", "Vetements", ""}[r.Intn(3)]},
		Price:         fmt.Sprintf("%d.90", 9+r.Intn(90)),
		StockQuantity: r.Intn(50),
		TotalSales:    r.Intn(200),
	}
}

func (m *MockSource) failStatus() int {
	if m.FailStatus != 0 {
		return m.FailStatus
	}
	return 500
}

// MockStore is an in-memory StoreAdapter with merge-duplicates semantics.
// Records are flattened through JSON so any row type can be stored; a record
// matching the conflict key fully replaces the previous row.
type MockStore struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]any

	// FailTable + FailChunk force a failure on the Nth (1-based) UpsertChunk
	// call against FailTable. Chunks written before the failing one stay
	// committed, matching the partial-application behavior of a real store.
	FailTable string
	FailChunk int

	calls map[string]int
}

func NewMockStore() *MockStore {
	return &MockStore{
		tables: make(map[string]map[string]map[string]any),
		calls:  make(map[string]int),
	}
}

func (s *MockStore) UpsertChunk(ctx context.Context, table, conflictKey string, records []any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[table]++
	if s.FailTable == table && s.calls[table] == s.FailChunk {
		return fmt.Errorf("%s: upsert http status 500: mock failure", table)
	}

	rows := s.tables[table]
	if rows == nil {
		rows = make(map[string]map[string]any)
		s.tables[table] = rows
	}
	for _, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("%s: encode record: %w", table, err)
		}
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			return fmt.Errorf("%s: decode record: %w", table, err)
		}
		key, _ := m[conflictKey].(string)
		if key == "" {
			return fmt.Errorf("%s: record missing conflict key %q", table, conflictKey)
		}
		rows[key] = m
	}
	return nil
}

// Rows returns a copy of a table's rows keyed by conflict key.
func (s *MockStore) Rows(table string) map[string]map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]map[string]any, len(s.tables[table]))
	for k, v := range s.tables[table] {
		out[k] = v
	}
	return out
}

// Calls returns how many UpsertChunk calls a table has received.
func (s *MockStore) Calls(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[table]
}

// Keys returns a table's conflict keys in sorted order.
func (s *MockStore) Keys(table string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.tables[table]))
	for k := range s.tables[table] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
