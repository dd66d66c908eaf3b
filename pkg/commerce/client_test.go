package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type stubTokens struct {
	mu          sync.Mutex
	token       string
	invalidated []string
}

func (s *stubTokens) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthenticated, "please log in to continue")
	}
	return s.token, nil
}

func (s *stubTokens) Invalidate(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.invalidated = append(s.invalidated, reason)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(t *testing.T, rt roundTripFunc, tokens TokenSource, opts ...Option) *Client {
	t.Helper()
	all := append([]Option{WithHTTPClient(&http.Client{Transport: rt}), WithTokenSource(tokens)}, opts...)
	client, err := NewClient("http://shop.test/api/", all...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected error for empty base url")
	}
}

func TestGetCartAttachesBearerAndDecodesTotal(t *testing.T) {
	var captured *http.Request
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		captured = req
		return jsonResponse(http.StatusOK, `{"items":[{"product_id":"p1","quantity":2,"price":25.0}],"total":50.0}`), nil
	})
	client := newTestClient(t, rt, &stubTokens{token: "tok-1"})

	cart, err := client.GetCart(context.Background())
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if captured.URL.String() != "http://shop.test/api/cart" {
		t.Fatalf("unexpected URL %q", captured.URL.String())
	}
	if got := captured.Header.Get("Authorization"); got != "Bearer tok-1" {
		t.Fatalf("unexpected authorization header %q", got)
	}
	if captured.Header.Get(requestIDHeader) == "" {
		t.Fatal("request id header missing")
	}
	if !cart.Total.Equal(decimal.NewFromInt(50)) || len(cart.Items) != 1 {
		t.Fatalf("unexpected cart %+v", cart)
	}
}

func TestGetCartNormalizesMissingItems(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"total":0}`), nil
	})
	cart, err := newTestClient(t, rt, &stubTokens{token: "tok"}).GetCart(context.Background())
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if cart.Items == nil || !cart.IsEmpty() {
		t.Fatalf("expected empty non-nil items, got %+v", cart.Items)
	}
}

func TestAddToCartEncodesPriceAsNumber(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost || req.URL.Path != "/api/cart/add" {
			t.Fatalf("unexpected request %s %s", req.Method, req.URL.Path)
		}
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		var payload map[string]any
		if err := json.Unmarshal(raw, &payload); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		if payload["product_id"] != "p1" || payload["quantity"] != float64(2) || payload["price"] != 19.99 {
			t.Fatalf("unexpected payload %s", raw)
		}
		return jsonResponse(http.StatusOK, `{"message":"Item added to cart"}`), nil
	})
	client := newTestClient(t, rt, &stubTokens{token: "tok"})

	err := client.AddToCart(context.Background(), types.CartItem{ProductID: "p1", Quantity: 2, Price: decimal.RequireFromString("19.99")})
	if err != nil {
		t.Fatalf("add to cart: %v", err)
	}
}

func TestCreatePaymentSessionQuery(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/api/payments/stripe/create-session" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		query := req.URL.Query()
		if query.Get("amount") != "50.00" {
			t.Fatalf("unexpected amount %q", query.Get("amount"))
		}
		if query.Get("origin_url") != "https://shop.example" {
			t.Fatalf("unexpected origin %q", query.Get("origin_url"))
		}
		return jsonResponse(http.StatusOK, `{"url":"https://pay.example/cs_1","session_id":"cs_1"}`), nil
	})
	client := newTestClient(t, rt, &stubTokens{token: "tok"})

	session, err := client.CreatePaymentSession(context.Background(), decimal.NewFromInt(50), "https://shop.example/")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.URL != "https://pay.example/cs_1" || session.SessionID != "cs_1" {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestCreatePaymentSessionRequiresRedirectURL(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"session_id":"cs_1"}`), nil
	})
	_, err := newTestClient(t, rt, &stubTokens{token: "tok"}).CreatePaymentSession(context.Background(), decimal.NewFromInt(5), "https://shop.example")
	if !pkgerrors.Is(err, pkgerrors.CodeTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestGetPaymentStatusMapsProviderVocabulary(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/api/payments/stripe/status/cs_9" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		return jsonResponse(http.StatusOK, `{"status":"complete","payment_status":"paid","amount_total":5000,"currency":"usd"}`), nil
	})
	report, err := newTestClient(t, rt, &stubTokens{token: "tok"}).GetPaymentStatus(context.Background(), "cs_9")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if report.PaymentStatus != enums.PaymentStatusPaid || report.AmountTotal != 5000 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestUnauthorizedInvalidatesSession(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{"detail":"Invalid token"}`), nil
	})
	tokens := &stubTokens{token: "stale"}
	client := newTestClient(t, rt, tokens)

	_, err := client.GetCart(context.Background())
	if !pkgerrors.Is(err, pkgerrors.CodeUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if len(tokens.invalidated) != 1 {
		t.Fatalf("expected session invalidation, got %v", tokens.invalidated)
	}
	if typed := pkgerrors.As(err); typed.Message() != "Invalid token" {
		t.Fatalf("expected backend detail as message, got %q", typed.Message())
	}
}

func TestMissingTokenFailsWithoutNetworkCall(t *testing.T) {
	calls := 0
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusOK, `{}`), nil
	})
	client := newTestClient(t, rt, &stubTokens{})

	if err := client.AddToCart(context.Background(), types.CartItem{ProductID: "p1", Quantity: 1}); !pkgerrors.Is(err, pkgerrors.CodeUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no network calls, got %d", calls)
	}
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   pkgerrors.Code
	}{
		{http.StatusForbidden, pkgerrors.CodeForbidden},
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusBadRequest, pkgerrors.CodeValidationRejected},
		{http.StatusUnprocessableEntity, pkgerrors.CodeValidationRejected},
		{http.StatusInternalServerError, pkgerrors.CodeTransport},
		{http.StatusTeapot, pkgerrors.CodeTransport},
	}
	for _, tc := range cases {
		rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(tc.status, `{"detail":[{"loc":["body","price"],"msg":"bad"}]}`), nil
		})
		_, err := newTestClient(t, rt, &stubTokens{token: "tok"}).GetProduct(context.Background(), "p1")
		if got := pkgerrors.CodeOf(err); got != tc.want {
			t.Fatalf("status %d: expected %s, got %s", tc.status, tc.want, got)
		}
		details, ok := pkgerrors.As(err).Details().(pkgerrors.StatusDetails)
		if !ok || details.HTTPStatus != tc.status || details.Operation != "get_product" {
			t.Fatalf("status %d: unexpected details %+v", tc.status, pkgerrors.As(err).Details())
		}
	}
}

func TestNetworkErrorIsTransport(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	_, err := newTestClient(t, rt, &stubTokens{token: "tok"}).ListProducts(context.Background(), types.ProductFilter{})
	if !pkgerrors.Is(err, pkgerrors.CodeTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !pkgerrors.Recoverable(err) {
		t.Fatal("transport errors should be recoverable")
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusBadGateway, `upstream down`), nil
	})
	client := newTestClient(t, rt, &stubTokens{token: "tok"}, WithBreaker(BreakerSettings{MaxFailures: 2}))

	for i := 0; i < 3; i++ {
		if _, err := client.GetCart(context.Background()); !pkgerrors.Is(err, pkgerrors.CodeTransport) {
			t.Fatalf("call %d: expected transport error, got %v", i, err)
		}
	}
	if calls != 2 {
		t.Fatalf("expected breaker to short-circuit the third call, got %d calls", calls)
	}
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	calls := 0
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusNotFound, `{"detail":"Product not found"}`), nil
	})
	client := newTestClient(t, rt, &stubTokens{token: "tok"}, WithBreaker(BreakerSettings{MaxFailures: 1}))
	for i := 0; i < 3; i++ {
		_, _ = client.GetProduct(context.Background(), "missing")
	}
	if calls != 3 {
		t.Fatalf("expected every call to reach the backend, got %d", calls)
	}
}

func TestListProductsFilterQuery(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.RawQuery != "category=tools&search=saw" {
			t.Fatalf("unexpected query %q", req.URL.RawQuery)
		}
		if req.Header.Get("Authorization") != "" {
			t.Fatal("catalog reads are anonymous")
		}
		return jsonResponse(http.StatusOK, `[{"id":"p1","name":"Saw","price":12.5,"stock":3}]`), nil
	})
	products, err := newTestClient(t, rt, &stubTokens{token: "tok"}).ListProducts(context.Background(), types.ProductFilter{Category: "tools", Search: " saw "})
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != 1 || !products[0].Price.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected products %+v", products)
	}
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	calls := 0
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusOK, `{}`), nil
	})
	client := newTestClient(t, rt, &stubTokens{token: "tok"})

	if err := client.UpdateOrderStatus(context.Background(), "o1", enums.OrderStatus("lost")); !pkgerrors.Is(err, pkgerrors.CodeValidationRejected) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no calls, got %d", calls)
	}

	rt2 := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPut || req.URL.Path != "/api/admin/orders/o1/status" || req.URL.Query().Get("status") != "shipped" {
			t.Fatalf("unexpected request %s %s", req.Method, req.URL.String())
		}
		return jsonResponse(http.StatusOK, `{"message":"Order status updated"}`), nil
	})
	if err := newTestClient(t, rt2, &stubTokens{token: "tok"}).UpdateOrderStatus(context.Background(), "o1", enums.OrderStatusShipped); err != nil {
		t.Fatalf("update status: %v", err)
	}
}

func TestRequestLatencyIsObserved(t *testing.T) {
	reg := prometheus.NewRegistry()
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"total_products":3,"total_orders":2,"total_revenue":99.5}`), nil
	})
	client := newTestClient(t, rt, &stubTokens{token: "tok"}, WithMetrics(metrics.NewStorefrontMetrics(reg)))

	stats, err := client.AdminStats(context.Background())
	if err != nil {
		t.Fatalf("admin stats: %v", err)
	}
	if stats.TotalProducts != 3 || !stats.TotalRevenue.Equal(decimal.RequireFromString("99.5")) {
		t.Fatalf("unexpected stats %+v", stats)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == "storefront_api_request_duration_seconds" && len(mf.GetMetric()) == 1 {
			return
		}
	}
	t.Fatal("expected one latency series")
}
