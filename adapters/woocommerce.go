package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// AuthMode selects how the consumer key/secret pair is presented to the
// source API. Both forms are accepted by WooCommerce installations; which one
// works depends on whether the site is served over HTTPS.
type AuthMode string

const (
	AuthQuery AuthMode = "query" // consumer_key / consumer_secret query params
	AuthBasic AuthMode = "basic" // HTTP Basic from the same pair
)

const wooAPIPath = "/wp-json/wc/v3"

// WooOptions configures a WooAdapter.
type WooOptions struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	AuthMode       AuthMode      // default AuthQuery
	UserAgent      string        // default "woocommerce-supabase-sync/1.0"
	Timeout        time.Duration // per-request deadline, default 120s
}

// WooAdapter fetches orders and products from a WooCommerce REST API.
type WooAdapter struct {
	baseURL   string
	key       string
	secret    string
	authMode  AuthMode
	userAgent string
	client    *http.Client
}

func NewWooAdapter(opts WooOptions) (*WooAdapter, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		return nil, errors.New("BaseURL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid BaseURL: %w", err)
	}
	if opts.ConsumerKey == "" || opts.ConsumerSecret == "" {
		return nil, errors.New("consumer key/secret are required")
	}
	mode := opts.AuthMode
	if mode == "" {
		mode = AuthQuery
	}
	if mode != AuthQuery && mode != AuthBasic {
		return nil, fmt.Errorf("unknown auth mode %q", mode)
	}
	to := opts.Timeout
	if to <= 0 {
		to = 120 * time.Second
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = "woocommerce-supabase-sync/1.0"
	}
	return &WooAdapter{
		baseURL:   strings.TrimRight(base, "/"),
		key:       opts.ConsumerKey,
		secret:    opts.ConsumerSecret,
		authMode:  mode,
		userAgent: ua,
		client:    &http.Client{Timeout: to},
	}, nil
}

func (a *WooAdapter) FetchOrdersPage(ctx context.Context, page, perPage int) ([]Order, FetchMeta, error) {
	body, meta, err := a.fetchPage(ctx, "orders", page, perPage, nil)
	if err != nil {
		return nil, meta, err
	}
	orders, ok := decodeOrders(body)
	if !ok {
		// Non-array payload: treated as end-of-data, same as an empty page.
		return nil, meta, nil
	}
	return orders, meta, nil
}

func (a *WooAdapter) FetchProductsPage(ctx context.Context, page, perPage int) ([]Product, FetchMeta, error) {
	body, meta, err := a.fetchPage(ctx, "products", page, perPage, nil)
	if err != nil {
		return nil, meta, err
	}
	products, ok := decodeProducts(body)
	if !ok {
		return nil, meta, nil
	}
	return products, meta, nil
}

func (a *WooAdapter) FetchProductsByIDs(ctx context.Context, ids []string) ([]Product, FetchMeta, error) {
	if len(ids) == 0 {
		return nil, FetchMeta{}, nil
	}
	extra := url.Values{"include": {strings.Join(ids, ",")}}
	body, meta, err := a.fetchPage(ctx, "products", 1, len(ids), extra)
	if err != nil {
		return nil, meta, err
	}
	products, ok := decodeProducts(body)
	if !ok {
		return nil, meta, nil
	}
	return products, meta, nil
}

func (a *WooAdapter) fetchPage(ctx context.Context, resource string, page, perPage int, extra url.Values) ([]byte, FetchMeta, error) {
	u, err := url.Parse(a.baseURL + wooAPIPath + "/" + resource)
	if err != nil {
		return nil, FetchMeta{}, err
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	if a.authMode == AuthQuery {
		q.Set("consumer_key", a.key)
		q.Set("consumer_secret", a.secret)
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, FetchMeta{Latency: time.Since(start)}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", a.userAgent)
	if a.authMode == AuthBasic {
		req.SetBasicAuth(a.key, a.secret)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, FetchMeta{Latency: time.Since(start)}, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	meta := FetchMeta{StatusCode: resp.StatusCode, Latency: time.Since(start)}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, meta, fmt.Errorf("%s: http status %d: %s", resource, resp.StatusCode, snippet(body))
	}
	return body, meta, nil
}

// snippet truncates a response body for error context.
func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
