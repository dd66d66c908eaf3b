package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type fakeBackend struct {
	mu      sync.Mutex
	role    string
	items   []map[string]any
	total   string
	deletes int
	auths   []string
	queries map[string]string
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"token": "opaque-token",
			"user":  map[string]any{"id": "u1", "email": "shopper@example.com", "role": f.role},
		})
	})
	mux.HandleFunc("GET /products", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, []map[string]any{
			{"id": "p1", "name": "Lamp", "description": "Desk lamp", "price": 19.99, "category": "home", "image": "https://img/l.png", "stock": 4},
		})
	})
	mux.HandleFunc("GET /cart", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, map[string]any{"items": f.items, "total": json.Number(f.total)})
	})
	mux.HandleFunc("POST /payments/stripe/create-session", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.mu.Lock()
		f.queries = map[string]string{
			"amount":     r.URL.Query().Get("amount"),
			"origin_url": r.URL.Query().Get("origin_url"),
		}
		f.mu.Unlock()
		writeJSON(w, map[string]any{"url": "https://pay.example/cs_1", "session_id": "cs_1"})
	})
	mux.HandleFunc("POST /orders/create", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, map[string]any{"id": "o1", "status": "pending", "payment_method": r.URL.Query().Get("payment_method"), "total": 39.98})
	})
	mux.HandleFunc("DELETE /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.mu.Lock()
		f.deletes++
		f.mu.Unlock()
		writeJSON(w, map[string]any{"message": "deleted"})
	})
	return mux
}

func (f *fakeBackend) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auths = append(f.auths, r.Header.Get("Authorization"))
}

func newTestApp(t *testing.T, backend *fakeBackend, account config.AccountConfig, stdin string) (*app, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		API:      config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second},
		Checkout: config.CheckoutConfig{OriginURL: "http://localhost:3000/"},
		Verify:   config.VerifyConfig{MaxAttempts: 1, Interval: time.Millisecond},
		Catalog:  config.CatalogConfig{CacheTTL: time.Minute},
		Callback: config.CallbackConfig{Port: "0"},
		Account:  account,
	}
	out := &bytes.Buffer{}
	a, err := newApp(context.Background(), cfg, logger.Nop(), out, strings.NewReader(stdin))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { a.close(context.Background()) })
	return a, out
}

var shopper = config.AccountConfig{Email: "shopper@example.com", Password: "secret"}

func TestProductsRunsAnonymously(t *testing.T) {
	backend := &fakeBackend{}
	a, out := newTestApp(t, backend, config.AccountConfig{}, "")

	if err := a.run(context.Background(), "products", commandOptions{}); err != nil {
		t.Fatalf("products: %v", err)
	}
	if !strings.Contains(out.String(), "Lamp") || !strings.Contains(out.String(), "19.99") {
		t.Fatalf("unexpected output %q", out.String())
	}
	if backend.auths[0] != "" {
		t.Fatalf("expected no credential on anonymous listing, got %q", backend.auths[0])
	}
}

func TestCartRequiresAccount(t *testing.T) {
	a, _ := newTestApp(t, &fakeBackend{}, config.AccountConfig{}, "")

	if err := a.run(context.Background(), "cart", commandOptions{}); err == nil {
		t.Fatalf("expected cart to require a configured account")
	}
}

func TestCheckoutPrintsProviderRedirect(t *testing.T) {
	backend := &fakeBackend{
		role:  "customer",
		items: []map[string]any{{"product_id": "p1", "quantity": 2, "price": 19.99}},
		total: "39.98",
	}
	a, out := newTestApp(t, backend, shopper, "")

	if err := a.run(context.Background(), "checkout", commandOptions{Method: "card"}); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !strings.Contains(out.String(), "redirect: https://pay.example/cs_1") {
		t.Fatalf("expected provider redirect in output, got %q", out.String())
	}
	if backend.queries["amount"] != "39.98" || backend.queries["origin_url"] != "http://localhost:3000" {
		t.Fatalf("unexpected session query %v", backend.queries)
	}
	for _, header := range backend.auths {
		if header != "Bearer opaque-token" {
			t.Fatalf("expected bearer credential on every call, got %q", header)
		}
	}
}

func TestCheckoutEmptyCartRedirectsToListing(t *testing.T) {
	backend := &fakeBackend{role: "customer", total: "0"}
	a, out := newTestApp(t, backend, shopper, "")

	if err := a.run(context.Background(), "checkout", commandOptions{Method: "card"}); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !strings.Contains(out.String(), "redirect: /products") {
		t.Fatalf("expected listing redirect, got %q", out.String())
	}
	if backend.queries != nil {
		t.Fatalf("expected no payment session for an empty cart")
	}
}

func TestAdminDeleteDeclinedSendsNothing(t *testing.T) {
	backend := &fakeBackend{role: "admin"}
	a, out := newTestApp(t, backend, shopper, "n\n")

	if err := a.run(context.Background(), "admin-delete-product", commandOptions{ProductID: "p1"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if backend.deletes != 0 {
		t.Fatalf("expected no delete request, got %d", backend.deletes)
	}
	if !strings.Contains(out.String(), "Are you sure you want to delete this product?") {
		t.Fatalf("expected confirmation prompt, got %q", out.String())
	}
}

func TestAdminDeleteConfirmed(t *testing.T) {
	backend := &fakeBackend{role: "admin"}
	a, out := newTestApp(t, backend, shopper, "y\n")

	if err := a.run(context.Background(), "admin-delete-product", commandOptions{ProductID: "p1"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if backend.deletes != 1 {
		t.Fatalf("expected one delete request, got %d", backend.deletes)
	}
	if !strings.Contains(out.String(), "Product deleted") {
		t.Fatalf("expected success notice, got %q", out.String())
	}
}

func TestVerifyWithoutSession(t *testing.T) {
	a, out := newTestApp(t, &fakeBackend{role: "customer"}, shopper, "")

	if err := a.run(context.Background(), "verify", commandOptions{}); err != nil {
		t.Fatalf("verify: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(out.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["verified"] != false || body["outcome"] != "unconfirmed" {
		t.Fatalf("unexpected verification %v", body)
	}
}

func TestUnknownCommand(t *testing.T) {
	a, _ := newTestApp(t, &fakeBackend{}, config.AccountConfig{}, "")

	if err := a.run(context.Background(), "launch-rockets", commandOptions{}); err == nil {
		t.Fatalf("expected unknown command error")
	}
}
