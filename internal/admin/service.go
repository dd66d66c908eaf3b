package admin

import (
	"context"
	"fmt"
	"strings"

	internalauth "github.com/angelmondragon/storefront/internal/auth"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/angelmondragon/storefront/pkg/validate"
	"golang.org/x/sync/errgroup"
)

// DeletePrompt is shown before a product is deleted.
const DeletePrompt = "Are you sure you want to delete this product?"

// Service is the admin console over products and orders. The role check is advisory;
// the backend decides.
type Service interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	Save(ctx context.Context, form *ProductForm) (*types.Product, error)
	DeleteProduct(ctx context.Context, productID string, confirm Confirmer) (bool, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status enums.OrderStatus) error
}

// Dashboard is everything the admin screen shows at once.
type Dashboard struct {
	Stats    types.AdminStats
	Products []types.Product
	Orders   []types.Order
}

// Confirmer asks the operator to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

type backend interface {
	AdminStats(ctx context.Context) (*types.AdminStats, error)
	ListProducts(ctx context.Context, filter types.ProductFilter) ([]types.Product, error)
	ListOrders(ctx context.Context) ([]types.Order, error)
	CreateProduct(ctx context.Context, input types.ProductInput) (*types.Product, error)
	UpdateProduct(ctx context.Context, productID string, input types.ProductInput) (*types.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	UpdateOrderStatus(ctx context.Context, orderID string, status enums.OrderStatus) error
}

type catalogInvalidator interface {
	Invalidate(ctx context.Context, productIDs ...string)
}

// ServiceParams bundles the dependencies required to build the admin service.
type ServiceParams struct {
	Backend  backend
	Identity internalauth.Identity
	Catalog  catalogInvalidator
	Logger   *logger.Logger
}

type service struct {
	backend  backend
	identity internalauth.Identity
	catalog  catalogInvalidator
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Backend == nil {
		return nil, fmt.Errorf("commerce backend is required")
	}
	if params.Identity == nil {
		return nil, fmt.Errorf("identity is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		backend:  params.Backend,
		identity: params.Identity,
		catalog:  params.Catalog,
		logg:     logg,
	}, nil
}

// Dashboard loads stats, products and orders concurrently. Any failure fails the load.
func (s *service) Dashboard(ctx context.Context) (*Dashboard, error) {
	if _, err := internalauth.RequireAdmin(s.identity); err != nil {
		return nil, err
	}
	var dash Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.backend.AdminStats(gctx)
		if err != nil {
			return err
		}
		dash.Stats = *stats
		return nil
	})
	g.Go(func() error {
		products, err := s.backend.ListProducts(gctx, types.ProductFilter{})
		if err != nil {
			return err
		}
		dash.Products = products
		return nil
	})
	g.Go(func() error {
		orders, err := s.backend.ListOrders(gctx)
		if err != nil {
			return err
		}
		dash.Orders = orders
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logg.WarnErr(ctx, "admin dashboard load failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeOf(err), err, Notice(OperationLoad, err))
	}
	return &dash, nil
}

// Save creates or updates the product behind form depending on its mode. Invalid input
// is rejected before any request.
func (s *service) Save(ctx context.Context, form *ProductForm) (*types.Product, error) {
	if form == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidationRejected, "product form is required")
	}
	if _, err := internalauth.RequireAdmin(s.identity); err != nil {
		return nil, err
	}
	input := form.Input
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)
	input.Image = strings.TrimSpace(input.Image)
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	var (
		product *types.Product
		err     error
	)
	switch form.Mode() {
	case FormModeEdit:
		product, err = s.backend.UpdateProduct(ctx, form.ProductID(), input)
	default:
		product, err = s.backend.CreateProduct(ctx, input)
	}
	if err != nil {
		s.logg.WarnErr(ctx, "product save failed", err)
		return nil, err
	}
	s.invalidate(ctx, form.ProductID(), product.ID)
	s.logg.Info(s.logg.WithField(ctx, "product_id", product.ID), "product saved")
	return product, nil
}

// DeleteProduct deletes productID once confirm approves. A declined confirmation sends
// nothing and reports false.
func (s *service) DeleteProduct(ctx context.Context, productID string, confirm Confirmer) (bool, error) {
	if _, err := internalauth.RequireAdmin(s.identity); err != nil {
		return false, err
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidationRejected, "product id is required")
	}
	if confirm == nil || !confirm.Confirm(ctx, DeletePrompt) {
		return false, nil
	}
	if err := s.backend.DeleteProduct(ctx, productID); err != nil {
		s.logg.WarnErr(ctx, "product delete failed", err)
		return false, err
	}
	s.invalidate(ctx, productID)
	return true, nil
}

// UpdateOrderStatus sets one order's status. Transition rules are the backend's.
func (s *service) UpdateOrderStatus(ctx context.Context, orderID string, status enums.OrderStatus) error {
	if _, err := internalauth.RequireAdmin(s.identity); err != nil {
		return err
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidationRejected, "invalid order status").WithDetails(map[string]any{
			"status":  status,
			"allowed": enums.OrderStatuses(),
		})
	}
	if err := s.backend.UpdateOrderStatus(ctx, orderID, status); err != nil {
		s.logg.WarnErr(s.logg.WithOrderID(ctx, orderID), "order status update failed", err)
		return err
	}
	return nil
}

func (s *service) invalidate(ctx context.Context, productIDs ...string) {
	if s.catalog == nil {
		return
	}
	ids := productIDs[:0:0]
	for _, id := range productIDs {
		if id != "" {
			ids = append(ids, id)
		}
	}
	s.catalog.Invalidate(ctx, ids...)
}
