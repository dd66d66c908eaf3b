package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/joho/godotenv"
)

func main() {
	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	_ = godotenv.Load()

	var opts commandOptions
	cmd := flag.String("cmd", "products", "command: "+commandList())
	flag.BoolVar(&opts.Register, "register", false, "create the account before running the command")
	flag.StringVar(&opts.ProductID, "product", "", "product id")
	flag.IntVar(&opts.Quantity, "quantity", 1, "item quantity")
	flag.StringVar(&opts.Price, "price", "", "unit price, e.g. 19.99")
	flag.StringVar(&opts.Category, "category", "", "catalog category filter")
	flag.StringVar(&opts.Search, "search", "", "catalog search filter")
	flag.StringVar(&opts.Method, "method", "card", "payment method: card|paypal")
	flag.StringVar(&opts.Origin, "origin", "", "origin url the provider returns to (defaults to config)")
	flag.StringVar(&opts.SessionID, "session", "", "payment session id (for verify)")
	flag.StringVar(&opts.OrderID, "order", "", "order id")
	flag.StringVar(&opts.Status, "status", "", "order status (for admin-order-status)")
	flag.StringVar(&opts.Name, "name", "", "product name")
	flag.StringVar(&opts.Description, "description", "", "product description")
	flag.StringVar(&opts.Image, "image", "", "product image url")
	flag.IntVar(&opts.Stock, "stock", -1, "product stock")
	flag.BoolVar(&opts.Yes, "yes", false, "skip confirmation prompts")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
	})

	a, err := newApp(ctx, cfg, logg, os.Stdout, os.Stdin)
	requireResource(ctx, logg, "storefront", err)

	code := 0
	if err := a.run(ctx, *cmd, opts); err != nil {
		logg.WarnErr(ctx, "command failed", err)
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", *cmd, err)
		code = 1
	}
	a.close(ctx)
	if code != 0 {
		stop()
		os.Exit(code)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
