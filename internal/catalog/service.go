package catalog

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
)

// Service serves catalog browsing. Matching and ranking happen on the backend.
type Service interface {
	List(ctx context.Context, filter types.ProductFilter) ([]types.Product, error)
	Get(ctx context.Context, productID string) (*types.Product, error)
	Invalidate(ctx context.Context, productIDs ...string)
}

type backend interface {
	ListProducts(ctx context.Context, filter types.ProductFilter) ([]types.Product, error)
	GetProduct(ctx context.Context, productID string) (*types.Product, error)
}

// ServiceParams bundles the dependencies required to build a catalog service.
type ServiceParams struct {
	Backend backend
	Cache   Cache
	Logger  *logger.Logger
}

type service struct {
	backend backend
	cache   Cache
	logg    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Backend == nil {
		return nil, fmt.Errorf("commerce backend is required")
	}
	cache := params.Cache
	if cache == nil {
		cache = NoopCache{}
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{backend: params.Backend, cache: cache, logg: logg}, nil
}

func (s *service) List(ctx context.Context, filter types.ProductFilter) ([]types.Product, error) {
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Search = strings.TrimSpace(filter.Search)

	if cached, ok, err := s.cache.GetListing(ctx, filter); err != nil {
		s.logg.WarnErr(ctx, "catalog cache read failed", err)
	} else if ok {
		return cached, nil
	}

	products, err := s.backend.ListProducts(ctx, filter)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []types.Product{}
	}
	if err := s.cache.SetListing(ctx, filter, products); err != nil {
		s.logg.WarnErr(ctx, "catalog cache write failed", err)
	}
	return products, nil
}

// Get returns one product. An unknown id is NotFound and the caller should fall back
// to the listing.
func (s *service) Get(ctx context.Context, productID string) (*types.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	if cached, ok, err := s.cache.GetProduct(ctx, productID); err != nil {
		s.logg.WarnErr(ctx, "catalog cache read failed", err)
	} else if ok {
		return cached, nil
	}

	product, err := s.backend.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetProduct(ctx, *product); err != nil {
		s.logg.WarnErr(ctx, "catalog cache write failed", err)
	}
	return product, nil
}

// Invalidate is called after admin writes. Failures are logged; stale entries expire
// with the TTL.
func (s *service) Invalidate(ctx context.Context, productIDs ...string) {
	if err := s.cache.Invalidate(ctx, productIDs...); err != nil {
		s.logg.WarnErr(ctx, "catalog cache invalidation failed", err)
	}
}
