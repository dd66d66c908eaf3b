package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/storefront/internal/admin"
	"github.com/angelmondragon/storefront/internal/auth"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/payments"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	"github.com/angelmondragon/storefront/pkg/commerce"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/redis"
)

// app is one shopper session: a single login shared by every service for the life of
// the process.
type app struct {
	cfg  *config.Config
	logg *logger.Logger
	out  io.Writer
	in   *bufio.Reader

	registry *prometheus.Registry
	sessions *session.Manager
	client   *commerce.Client
	redis    *redis.Client

	auth     auth.Service
	catalog  catalog.Service
	cart     cart.Service
	checkout checkout.Service
	admin    admin.Service
	verifier payments.Verifier
}

func newApp(ctx context.Context, cfg *config.Config, logg *logger.Logger, out io.Writer, in io.Reader) (*app, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewStorefrontMetrics(registry)

	sessions := session.NewManager()
	client, err := commerce.NewClient(cfg.API.BaseURL,
		commerce.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		commerce.WithTokenSource(sessions),
		commerce.WithBreaker(commerce.BreakerSettings{
			MaxFailures: cfg.Breaker.MaxFailures,
			OpenTimeout: cfg.Breaker.OpenTimeout,
		}),
		commerce.WithMetrics(recorder),
		commerce.WithLogger(logg),
	)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logg:     logg,
		out:      out,
		in:       bufio.NewReader(in),
		registry: registry,
		sessions: sessions,
		client:   client,
	}

	var cache catalog.Cache = catalog.NoopCache{}
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			// the catalog works without its cache
			logg.WarnErr(ctx, "catalog cache disabled", err)
		} else {
			a.redis = redisClient
			redisCache, err := catalog.NewRedisCache(redisClient, cfg.Catalog.CacheTTL)
			if err != nil {
				return nil, err
			}
			cache = redisCache
		}
	}

	if a.auth, err = auth.NewService(auth.ServiceParams{Backend: client, Sessions: sessions, Logger: logg}); err != nil {
		return nil, err
	}
	if a.catalog, err = catalog.NewService(catalog.ServiceParams{Backend: client, Cache: cache, Logger: logg}); err != nil {
		return nil, err
	}
	if a.cart, err = cart.NewService(cart.ServiceParams{Backend: client, Identity: sessions, Logger: logg}); err != nil {
		return nil, err
	}
	card, err := checkout.NewCardMethod(client)
	if err != nil {
		return nil, err
	}
	if a.checkout, err = checkout.NewService(checkout.ServiceParams{
		Cart:             a.cart,
		Identity:         sessions,
		Navigator:        printNavigator{out: out},
		Methods:          []checkout.Method{card, checkout.PayPalMethod{}},
		DefaultOriginURL: cfg.Checkout.OriginURL,
		Metrics:          recorder,
		Logger:           logg,
	}); err != nil {
		return nil, err
	}
	if a.admin, err = admin.NewService(admin.ServiceParams{
		Backend:  client,
		Identity: sessions,
		Catalog:  a.catalog,
		Logger:   logg,
	}); err != nil {
		return nil, err
	}
	if a.verifier, err = payments.NewVerifier(payments.VerifierParams{
		Backend: client,
		Config: payments.Config{
			MaxAttempts:       cfg.Verify.MaxAttempts,
			Interval:          cfg.Verify.Interval,
			OptimisticTimeout: cfg.Verify.OptimisticTimeout,
		},
		Metrics: recorder,
		Logger:  logg,
	}); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) close(ctx context.Context) {
	a.auth.Logout(ctx)
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logg.WarnErr(ctx, "closing redis", err)
		}
	}
}

// printNavigator hands redirects to the terminal user.
type printNavigator struct {
	out io.Writer
}

func (n printNavigator) Navigate(ctx context.Context, target string) {
	fmt.Fprintf(n.out, "redirect: %s\n", target)
}

// confirm asks on the terminal; anything but y/yes declines.
func (a *app) confirm(ctx context.Context, prompt string) bool {
	fmt.Fprintf(a.out, "%s [y/N]: ", prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
