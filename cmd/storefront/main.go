package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/gearstore/api/routes"
	"github.com/angelmondragon/gearstore/internal/account"
	"github.com/angelmondragon/gearstore/internal/cart"
	"github.com/angelmondragon/gearstore/internal/checkout"
	"github.com/angelmondragon/gearstore/internal/notify"
	"github.com/angelmondragon/gearstore/internal/session"
	"github.com/angelmondragon/gearstore/internal/shop"
	"github.com/angelmondragon/gearstore/pkg/config"
	"github.com/angelmondragon/gearstore/pkg/currency"
	"github.com/angelmondragon/gearstore/pkg/env"
	"github.com/angelmondragon/gearstore/pkg/logger"
	"github.com/angelmondragon/gearstore/pkg/metrics"
	"github.com/angelmondragon/gearstore/pkg/storage/backend"
	"github.com/angelmondragon/gearstore/pkg/storeapi"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "storefront stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	store, err := backend.Open(ctx, cfg, logg)
	if err != nil {
		return err
	}

	hub := notify.NewHub(cfg.Notify.ToastTTL)
	defer func() {
		hub.Close()
		err = multierr.Append(err, store.Close())
	}()

	converter, err := currency.NewConverter(cfg.Currency.Rate, cfg.Currency.Symbol)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewStorefrontMetrics(registry)

	holder, err := session.NewHolder(store, logg)
	if err != nil {
		return err
	}

	client, err := storeapi.NewClient(cfg.API.BaseURL,
		storeapi.WithTokenSource(holder),
		storeapi.WithLogger(logg),
		storeapi.WithTimeout(cfg.API.Timeout),
	)
	if err != nil {
		return err
	}

	cartStore, err := cart.NewStore(store, logg, cart.WithObserver(recorder))
	if err != nil {
		return err
	}
	cartStore.Load(ctx)

	shopService, err := shop.NewService(shop.ServiceParams{API: client, Cart: cartStore, Notifier: hub, Logger: logg})
	if err != nil {
		return err
	}
	accountService, err := account.NewService(account.ServiceParams{API: client, Session: holder, Logger: logg})
	if err != nil {
		return err
	}
	orchestrator, err := checkout.NewService(checkout.ServiceParams{
		Cart:      cartStore,
		Session:   holder,
		API:       client,
		Storage:   store,
		Converter: converter,
		Logger:    logg,
		Recorder:  recorder,
	})
	if err != nil {
		return err
	}

	if pending, err := orchestrator.Pending(ctx); err == nil && pending != nil {
		pctx := logg.WithReference(ctx, pending.Reference)
		logg.Info(pctx, "pending order awaiting payment callback")
	}

	addr := net.JoinHostPort("", cfg.App.Port)
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:        cfg,
			Logger:        logg,
			Storage:       store,
			Metrics:       recorder,
			Gatherer:      registry,
			Session:       holder,
			Shop:          shopService,
			Cart:          cartStore,
			Converter:     converter,
			Account:       accountService,
			Checkout:      orchestrator,
			Notifications: hub,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		sctx := logg.WithFields(ctx, map[string]any{
			"addr":     addr,
			"env":      cfg.App.Env,
			"instance": env.InstanceID(),
			"storage":  store.Driver,
			"api":      client.BaseURL(),
		})
		logg.Info(sctx, "starting storefront server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(context.Background(), "shutting down storefront server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
