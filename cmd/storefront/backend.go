package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	adapthttp "storefront/internal/adapter/http"
	"storefront/internal/adapter/memory"
	"storefront/internal/adapter/postgres"
	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/domain"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Run the development backend API",
	Long: `Serves /api/v1 auth, cart, product, order and admin endpoints.

Data is kept in PostgreSQL when DATABASE_URL is set and in memory otherwise.
The product catalog is seeded from CATALOG_FILE or the built-in list.
Accounts listed in STAFF_EMAILS may use the admin endpoints.`,
	RunE: runBackend,
}

type repositories struct {
	users    domain.UserRepository
	tokens   domain.TokenRepository
	carts    domain.CartRepository
	products domain.ProductRepository
	orders   domain.OrderRepository
	close    func() error
}

func openRepositories(databaseURL string) (*repositories, error) {
	if databaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		db := memory.New()
		return &repositories{users: db, tokens: db.NewTokenRepo(), carts: db, products: db, orders: db, close: func() error { return nil }}, nil
	}

	db, err := postgres.Open(databaseURL)
	if err != nil {
		return nil, err
	}
	return &repositories{users: db, tokens: postgres.NewTokenRepo(db), carts: db, products: db, orders: db, close: db.Close}, nil
}

func runBackend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = repos.close() }()

	authSvc := app.NewAuthService(repos.users, repos.tokens, cfg.TokenTTL, logger.Named("auth"))
	cartSvc := app.NewCartService(repos.carts, repos.products)
	catalogSvc := app.NewCatalogService(repos.products)
	orderSvc := app.NewOrderService(repos.carts, repos.products, repos.orders, logger.Named("orders"))

	if err := authSvc.GrantStaff(ctx, cfg.StaffEmails); err != nil {
		return err
	}

	products, err := config.LoadProducts(cfg.CatalogFile)
	if err != nil {
		return err
	}
	if err := catalogSvc.Seed(ctx, products); err != nil {
		return err
	}
	logger.Info("catalog seeded", zap.Int("products", len(products)))

	go purgeTokens(ctx, authSvc, time.Hour)

	h := adapthttp.New(authSvc, cartSvc, catalogSvc, orderSvc, logger.Named("http")).Handler()
	return listen(ctx, cfg.BackendAddr, h)
}

// purgeTokens deletes expired tokens every interval until ctx ends.
func purgeTokens(ctx context.Context, auth *app.AuthService, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := auth.PurgeExpired(ctx); err != nil {
				logger.Warn("purge expired tokens", zap.Error(err))
			}
		}
	}
}
