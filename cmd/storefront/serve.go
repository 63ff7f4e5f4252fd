package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/adapter/apiclient"
	"storefront/internal/adapter/facade"
	"storefront/internal/adapter/metrics"
	"storefront/internal/adapter/sqlite"
	"storefront/internal/app"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the client runtime behind a local JSON API",
	Long: `Runs the authentication session and the local-first cart.

The cart is kept in a local SQLite file and survives restarts. While signed
in, every cart change is mirrored to the backend at API_URL in the
background; backend failures are logged and counted at /metrics but never
fail a cart operation.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := sqlite.Open(cfg.StoragePath)
	if err != nil {
		return err
	}
	defer func() { _ = storage.Close() }()

	client := apiclient.New(cfg.APIURL, storage, apiclient.WithLogger(logger.Named("apiclient")))

	session := app.NewAuthSession(client, storage, logger.Named("session"))
	cart := app.NewCartStore(storage, client,
		app.WithCartLogger(logger.Named("cart")),
		app.WithSyncObserver(metrics.NewCartObserver(prometheus.DefaultRegisterer)),
		app.WithRemoteTimeout(cfg.RemoteTimeout),
		app.WithClearOnLogout(cfg.ClearCartOnLogout),
	)
	session.Subscribe(cart.OnSessionChange)

	cart.Hydrate(ctx)
	session.Restore(ctx)
	logger.Info("client ready",
		zap.Bool("authenticated", session.Snapshot().IsAuthenticated),
		zap.Int("cart_items", cart.Snapshot().ItemCount),
		zap.String("api_url", cfg.APIURL),
	)

	checkout := app.NewCheckout(session, cart, client, logger.Named("checkout"))
	h := facade.New(session, cart, client, checkout, prometheus.DefaultGatherer, logger.Named("http")).Handler()
	serveErr := listen(ctx, cfg.Addr, h)

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.RemoteTimeout+5*time.Second)
	defer cancel()
	if err := cart.Close(closeCtx); err != nil {
		logger.Warn("pending cart updates abandoned", zap.Error(err))
	}
	return serveErr
}
