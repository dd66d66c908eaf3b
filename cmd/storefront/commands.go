package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/api/routes"
	"github.com/angelmondragon/storefront/internal/admin"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

type commandOptions struct {
	Register    bool
	ProductID   string
	Quantity    int
	Price       string
	Category    string
	Search      string
	Method      string
	Origin      string
	SessionID   string
	OrderID     string
	Status      string
	Name        string
	Description string
	Image       string
	Stock       int
	Yes         bool
}

type command struct {
	anonymous bool
	run       func(ctx context.Context, a *app, opts commandOptions) error
}

var commands = map[string]command{
	"products":             {anonymous: true, run: runProducts},
	"product":              {anonymous: true, run: runProduct},
	"me":                   {run: runMe},
	"cart":                 {run: runCart},
	"add":                  {run: runAdd},
	"update":               {run: runUpdate},
	"remove":               {run: runRemove},
	"checkout":             {run: runCheckout},
	"verify":               {run: runVerify},
	"serve":                {run: runServe},
	"orders":               {run: runOrders},
	"order":                {run: runOrder},
	"admin-stats":          {run: runAdminStats},
	"admin-create-product": {run: runAdminCreateProduct},
	"admin-update-product": {run: runAdminUpdateProduct},
	"admin-delete-product": {run: runAdminDeleteProduct},
	"admin-order-status":   {run: runAdminOrderStatus},
}

func commandList() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

func (a *app) run(ctx context.Context, name string, opts commandOptions) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown -cmd value: %s", name)
	}
	if err := a.signIn(ctx, opts.Register, cmd.anonymous); err != nil {
		return err
	}
	return cmd.run(ctx, a, opts)
}

// signIn opens the session from the configured account. Anonymous commands run without
// one when no account is configured.
func (a *app) signIn(ctx context.Context, register, anonymous bool) error {
	creds := types.Credentials{Email: a.cfg.Account.Email, Password: a.cfg.Account.Password}
	if creds.Email == "" && creds.Password == "" {
		if anonymous {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeUnauthenticated, "set STOREFRONT_EMAIL and STOREFRONT_PASSWORD to sign in")
	}
	var err error
	if register {
		_, err = a.auth.Register(ctx, creds)
	} else {
		_, err = a.auth.Login(ctx, creds)
	}
	return err
}

func runProducts(ctx context.Context, a *app, opts commandOptions) error {
	products, err := a.catalog.List(ctx, types.ProductFilter{Category: opts.Category, Search: opts.Search})
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Category, p.Price.StringFixed(2), p.Stock)
	}
	return tw.Flush()
}

func runProduct(ctx context.Context, a *app, opts commandOptions) error {
	product, err := a.catalog.Get(ctx, opts.ProductID)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			fmt.Fprintln(a.out, "Product not found")
			fmt.Fprintf(a.out, "redirect: %s\n", "/products")
		}
		return err
	}
	return a.printJSON(product)
}

func runMe(ctx context.Context, a *app, _ commandOptions) error {
	user, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	return a.printJSON(user)
}

func runCart(ctx context.Context, a *app, _ commandOptions) error {
	current, err := a.cart.Get(ctx)
	if err != nil {
		a.notify(cart.Notice(cart.OperationLoad, err))
		return err
	}
	a.printCart(*current)
	return nil
}

func runAdd(ctx context.Context, a *app, opts commandOptions) error {
	price, err := a.resolvePrice(ctx, opts)
	if err != nil {
		return err
	}
	current, err := a.cart.Add(ctx, opts.ProductID, opts.Quantity, price)
	a.notify(cart.Notice(cart.OperationAdd, err))
	if err != nil {
		return err
	}
	a.printCart(*current)
	return nil
}

func runUpdate(ctx context.Context, a *app, opts commandOptions) error {
	price, err := a.resolvePrice(ctx, opts)
	if err != nil {
		return err
	}
	sent, err := a.cart.Update(ctx, opts.ProductID, opts.Quantity, price)
	a.notify(cart.Notice(cart.OperationUpdate, err))
	if err != nil {
		return err
	}
	if !sent {
		fmt.Fprintln(a.out, "quantity below 1; nothing changed")
		return nil
	}
	if current, ok := a.cart.Snapshot(); ok {
		a.printCart(current)
	}
	return nil
}

func runRemove(ctx context.Context, a *app, opts commandOptions) error {
	err := a.cart.Remove(ctx, opts.ProductID)
	a.notify(cart.Notice(cart.OperationRemove, err))
	return err
}

func runCheckout(ctx context.Context, a *app, opts commandOptions) error {
	state, err := a.checkout.Load(ctx)
	if err != nil {
		a.notify("Failed to load cart")
		return err
	}
	if state.IsTerminal() {
		a.notify("Your cart is empty")
		return nil
	}
	method, err := enums.ParsePaymentMethod(opts.Method)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidationRejected, err, "unsupported payment method")
	}
	if err := a.checkout.SelectMethod(ctx, method); err != nil {
		return err
	}
	result, err := a.checkout.Submit(ctx, opts.Origin)
	if err != nil {
		a.notify("Payment failed. Please try again.")
		return err
	}
	if result.OrderErr != nil {
		fmt.Fprintln(a.out, "warning: the order record could not be created; the payment session is open")
	}
	fmt.Fprintf(a.out, "method: %s\namount: %s\nsession: %s\n", result.Method.Label(), result.Amount.StringFixed(2), result.SessionID)
	return nil
}

func runVerify(ctx context.Context, a *app, opts commandOptions) error {
	result := a.verifier.Verify(ctx, opts.SessionID)
	return a.printJSON(map[string]any{
		"verified":   result.Verified(),
		"outcome":    result.Outcome,
		"attempts":   result.Attempts,
		"session_id": result.SessionID,
		"canceled":   result.Canceled,
	})
}

func runServe(ctx context.Context, a *app, _ commandOptions) error {
	addr := ":" + a.cfg.Callback.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(a.cfg, a.logg, a.verifier, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveCtx := a.logg.WithField(ctx, "addr", addr)
	a.logg.Info(serveCtx, "starting return-trip server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.logg.Info(serveCtx, "return-trip server stopped")
	return nil
}

func runOrders(ctx context.Context, a *app, _ commandOptions) error {
	orders, err := a.client.ListOrders(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tMETHOD\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.ID, o.Status, o.PaymentMethod, o.Total.StringFixed(2))
	}
	return tw.Flush()
}

func runOrder(ctx context.Context, a *app, opts commandOptions) error {
	order, err := a.client.GetOrder(ctx, opts.OrderID)
	if err != nil {
		return err
	}
	return a.printJSON(order)
}

func runAdminStats(ctx context.Context, a *app, _ commandOptions) error {
	dash, err := a.admin.Dashboard(ctx)
	if err != nil {
		a.notify(admin.Notice(admin.OperationLoad, err))
		return err
	}
	fmt.Fprintf(a.out, "products: %d\norders: %d\nrevenue: %s\n",
		dash.Stats.TotalProducts, dash.Stats.TotalOrders, dash.Stats.TotalRevenue.StringFixed(2))
	return nil
}

func runAdminCreateProduct(ctx context.Context, a *app, opts commandOptions) error {
	form := admin.NewProductForm()
	if err := applyProductFlags(form, opts); err != nil {
		return err
	}
	product, err := a.admin.Save(ctx, form)
	a.notify(admin.Notice(admin.OperationCreateProduct, err))
	if err != nil {
		return err
	}
	return a.printJSON(product)
}

func runAdminUpdateProduct(ctx context.Context, a *app, opts commandOptions) error {
	existing, err := a.catalog.Get(ctx, opts.ProductID)
	if err != nil {
		return err
	}
	form := admin.EditProductForm(*existing)
	if err := applyProductFlags(form, opts); err != nil {
		return err
	}
	product, err := a.admin.Save(ctx, form)
	a.notify(admin.Notice(admin.OperationUpdateProduct, err))
	if err != nil {
		return err
	}
	return a.printJSON(product)
}

func runAdminDeleteProduct(ctx context.Context, a *app, opts commandOptions) error {
	confirm := admin.ConfirmFunc(a.confirm)
	if opts.Yes {
		confirm = func(context.Context, string) bool { return true }
	}
	deleted, err := a.admin.DeleteProduct(ctx, opts.ProductID, confirm)
	if err != nil {
		a.notify(admin.Notice(admin.OperationDeleteProduct, err))
		return err
	}
	if deleted {
		a.notify(admin.Notice(admin.OperationDeleteProduct, nil))
	}
	return nil
}

func runAdminOrderStatus(ctx context.Context, a *app, opts commandOptions) error {
	err := a.admin.UpdateOrderStatus(ctx, opts.OrderID, enums.OrderStatus(strings.TrimSpace(opts.Status)))
	a.notify(admin.Notice(admin.OperationOrderStatus, err))
	return err
}

// applyProductFlags overlays the flags that were set onto the form.
func applyProductFlags(form *admin.ProductForm, opts commandOptions) error {
	if opts.Name != "" {
		form.Input.Name = opts.Name
	}
	if opts.Description != "" {
		form.Input.Description = opts.Description
	}
	if opts.Category != "" {
		form.Input.Category = opts.Category
	}
	if opts.Image != "" {
		form.Input.Image = opts.Image
	}
	if opts.Stock >= 0 {
		form.Input.Stock = opts.Stock
	}
	if opts.Price != "" {
		price, err := decimal.NewFromString(opts.Price)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidationRejected, err, "price must be a decimal number")
		}
		form.Input.Price = price
	}
	return nil
}

// resolvePrice uses -price when given and the catalog price otherwise.
func (a *app) resolvePrice(ctx context.Context, opts commandOptions) (decimal.Decimal, error) {
	if opts.Price != "" {
		price, err := decimal.NewFromString(opts.Price)
		if err != nil {
			return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidationRejected, err, "price must be a decimal number")
		}
		return price, nil
	}
	product, err := a.catalog.Get(ctx, opts.ProductID)
	if err != nil {
		return decimal.Zero, err
	}
	return product.Price, nil
}

func (a *app) printCart(c types.Cart) {
	if c.IsEmpty() {
		fmt.Fprintln(a.out, "Your cart is empty")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tQTY\tPRICE\tLINE")
	for _, item := range c.Items {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", item.ProductID, item.Quantity, item.Price.StringFixed(2), item.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t%s\n", c.Total.StringFixed(2))
	_ = tw.Flush()
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) notify(msg string) {
	if msg != "" {
		fmt.Fprintln(a.out, msg)
	}
}
