package cart

import (
	"context"
	"errors"
	"testing"

	pkgauth "github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

type stubBackend struct {
	cart        types.Cart
	calls       []string
	addErr      error
	updateErr   error
	removeErr   error
	getErr      error
	lastUpdated types.CartItem
}

func (s *stubBackend) AddToCart(ctx context.Context, item types.CartItem) error {
	s.calls = append(s.calls, "add")
	if s.addErr != nil {
		return s.addErr
	}
	for i := range s.cart.Items {
		if s.cart.Items[i].ProductID == item.ProductID {
			s.cart.Items[i].Quantity += item.Quantity
			s.recomputeTotal()
			return nil
		}
	}
	s.cart.Items = append(s.cart.Items, item)
	s.recomputeTotal()
	return nil
}

func (s *stubBackend) UpdateCartItem(ctx context.Context, item types.CartItem) error {
	s.calls = append(s.calls, "update")
	s.lastUpdated = item
	if s.updateErr != nil {
		return s.updateErr
	}
	for i := range s.cart.Items {
		if s.cart.Items[i].ProductID == item.ProductID {
			s.cart.Items[i].Quantity = item.Quantity
		}
	}
	s.recomputeTotal()
	return nil
}

func (s *stubBackend) RemoveFromCart(ctx context.Context, productID string) error {
	s.calls = append(s.calls, "remove")
	if s.removeErr != nil {
		return s.removeErr
	}
	kept := s.cart.Items[:0]
	for _, item := range s.cart.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	s.cart.Items = kept
	s.recomputeTotal()
	return nil
}

func (s *stubBackend) GetCart(ctx context.Context) (*types.Cart, error) {
	s.calls = append(s.calls, "get")
	if s.getErr != nil {
		return nil, s.getErr
	}
	cart := s.cart.Clone()
	return &cart, nil
}

func (s *stubBackend) recomputeTotal() {
	s.cart.Total = s.cart.EstimatedTotal()
}

func loggedIn(t *testing.T) *session.Manager {
	t.Helper()
	sessions := session.NewManager()
	if err := sessions.Begin(pkgauth.AuthContext{Token: "tok", User: types.User{ID: "u1", Email: "a@b.io"}}); err != nil {
		t.Fatalf("begin session: %v", err)
	}
	return sessions
}

func buildService(t *testing.T, backend *stubBackend, identity *session.Manager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Backend: backend, Identity: identity})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func transportErr() error {
	return pkgerrors.Wrap(pkgerrors.CodeTransport, errors.New("connection reset"), "request failed")
}

func TestAddRequiresAuthentication(t *testing.T) {
	backend := &stubBackend{}
	svc := buildService(t, backend, session.NewManager())

	_, err := svc.Add(context.Background(), "p1", 1, decimal.NewFromInt(5))
	if !pkgerrors.Is(err, pkgerrors.CodeUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if len(backend.calls) != 0 {
		t.Fatalf("expected no backend calls, got %v", backend.calls)
	}
	if Notice(OperationAdd, err) != "Please login to add items to cart" {
		t.Fatalf("unexpected notice %q", Notice(OperationAdd, err))
	}
}

func TestAddRefetchesAuthoritativeCart(t *testing.T) {
	backend := &stubBackend{}
	svc := buildService(t, backend, loggedIn(t))

	cart, err := svc.Add(context.Background(), "p1", 2, decimal.RequireFromString("25.00"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !cart.Total.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected total 50, got %s", cart.Total)
	}
	if got := backend.calls; len(got) != 2 || got[0] != "add" || got[1] != "get" {
		t.Fatalf("expected add then get, got %v", got)
	}
	snapshot, ok := svc.Snapshot()
	if !ok || len(snapshot.Items) != 1 {
		t.Fatalf("mirror not updated: %+v", snapshot)
	}
}

func TestAddRejectsInvalidItemsWithoutRequest(t *testing.T) {
	backend := &stubBackend{}
	svc := buildService(t, backend, loggedIn(t))

	if _, err := svc.Add(context.Background(), "p1", 0, decimal.NewFromInt(1)); !pkgerrors.Is(err, pkgerrors.CodeValidationRejected) {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}
	if _, err := svc.Add(context.Background(), "p1", 1, decimal.NewFromInt(-1)); !pkgerrors.Is(err, pkgerrors.CodeValidationRejected) {
		t.Fatalf("expected validation error for negative price, got %v", err)
	}
	if len(backend.calls) != 0 {
		t.Fatalf("expected no backend calls, got %v", backend.calls)
	}
}

func TestUpdateBelowOneIssuesNoRequest(t *testing.T) {
	for _, qty := range []int{0, -1, -100} {
		backend := &stubBackend{}
		svc := buildService(t, backend, loggedIn(t))

		applied, err := svc.Update(context.Background(), "p1", qty, decimal.NewFromInt(5))
		if err != nil {
			t.Fatalf("qty %d: expected silent no-op, got %v", qty, err)
		}
		if applied {
			t.Fatalf("qty %d: expected update not applied", qty)
		}
		if len(backend.calls) != 0 {
			t.Fatalf("qty %d: expected no backend calls, got %v", qty, backend.calls)
		}
	}
}

func TestUpdateAppliesQuantity(t *testing.T) {
	backend := &stubBackend{cart: types.Cart{Items: []types.CartItem{{ProductID: "p1", Quantity: 1, Price: decimal.NewFromInt(10)}}}}
	svc := buildService(t, backend, loggedIn(t))

	applied, err := svc.Update(context.Background(), "p1", 3, decimal.NewFromInt(10))
	if err != nil || !applied {
		t.Fatalf("expected applied update, got applied=%v err=%v", applied, err)
	}
	if backend.lastUpdated.Quantity != 3 {
		t.Fatalf("expected quantity 3 sent, got %d", backend.lastUpdated.Quantity)
	}
	snapshot, _ := svc.Snapshot()
	if !snapshot.Total.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected mirror total 30, got %s", snapshot.Total)
	}
}

func TestRemoveAbsentItemIsIdempotent(t *testing.T) {
	backend := &stubBackend{removeErr: pkgerrors.New(pkgerrors.CodeNotFound, "Item not in cart")}
	svc := buildService(t, backend, loggedIn(t))

	if err := svc.Remove(context.Background(), "ghost"); err != nil {
		t.Fatalf("expected absent remove to succeed, got %v", err)
	}

	backend.removeErr = nil
	if err := svc.Remove(context.Background(), "ghost"); err != nil {
		t.Fatalf("expected second remove to succeed, got %v", err)
	}
	if Notice(OperationRemove, nil) != "Item removed from cart" {
		t.Fatal("unexpected success notice")
	}
}

func TestTransportFailureLeavesMirrorUntouched(t *testing.T) {
	backend := &stubBackend{cart: types.Cart{
		Items: []types.CartItem{{ProductID: "p1", Quantity: 2, Price: decimal.NewFromInt(25)}},
		Total: decimal.NewFromInt(50),
	}}
	svc := buildService(t, backend, loggedIn(t))
	if _, err := svc.Get(context.Background()); err != nil {
		t.Fatalf("initial get: %v", err)
	}

	backend.removeErr = transportErr()
	err := svc.Remove(context.Background(), "p1")
	if !pkgerrors.Is(err, pkgerrors.CodeTransport) || !pkgerrors.Recoverable(err) {
		t.Fatalf("expected recoverable transport error, got %v", err)
	}
	if Notice(OperationRemove, err) != "Failed to remove item" {
		t.Fatalf("unexpected notice %q", Notice(OperationRemove, err))
	}

	backend.updateErr = transportErr()
	if _, err := svc.Update(context.Background(), "p1", 5, decimal.NewFromInt(25)); Notice(OperationUpdate, err) != "Failed to update cart" {
		t.Fatalf("unexpected update outcome %v", err)
	}

	backend.getErr = transportErr()
	if _, err := svc.Get(context.Background()); Notice(OperationLoad, err) != "Failed to load cart" {
		t.Fatalf("unexpected load outcome %v", err)
	}

	snapshot, ok := svc.Snapshot()
	if !ok || len(snapshot.Items) != 1 || snapshot.Items[0].Quantity != 2 || !snapshot.Total.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("mirror changed after failures: %+v", snapshot)
	}
	if countCalls(backend.calls, "remove") != 1 || countCalls(backend.calls, "update") != 1 {
		t.Fatalf("failed mutations must not be retried: %v", backend.calls)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	backend := &stubBackend{cart: types.Cart{Items: []types.CartItem{{ProductID: "p1", Quantity: 1, Price: decimal.NewFromInt(1)}}}}
	svc := buildService(t, backend, loggedIn(t))
	cart, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	cart.Items[0].Quantity = 42
	snapshot, _ := svc.Snapshot()
	if snapshot.Items[0].Quantity != 1 {
		t.Fatal("caller mutation leaked into mirror")
	}
}

func countCalls(calls []string, name string) int {
	n := 0
	for _, call := range calls {
		if call == name {
			n++
		}
	}
	return n
}
