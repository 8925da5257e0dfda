package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/curex40/curex40/internal/config"
	"github.com/curex40/curex40/internal/domain/cart"
	"github.com/curex40/curex40/internal/domain/catalog"
	"github.com/curex40/curex40/internal/domain/claims"
	"github.com/curex40/curex40/internal/domain/dashboard"
	"github.com/curex40/curex40/internal/domain/favorites"
	"github.com/curex40/curex40/internal/domain/identity"
	"github.com/curex40/curex40/internal/domain/inventory"
	"github.com/curex40/curex40/internal/domain/notifications"
	"github.com/curex40/curex40/internal/domain/orders"
	"github.com/curex40/curex40/internal/domain/pharmacy"
	"github.com/curex40/curex40/internal/domain/prescriptions"
	"github.com/curex40/curex40/internal/platform/auth"
	"github.com/curex40/curex40/internal/platform/db"
	"github.com/curex40/curex40/internal/platform/middleware"
	"github.com/curex40/curex40/internal/platform/respond"
	"github.com/curex40/curex40/internal/platform/seed"
)

func main() {
	root := &cobra.Command{
		Use:   "curex-server",
		Short: "CureX40 pharmacy platform API server",
	}
	root.AddCommand(serveCmd(), migrateCmd(), seedCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, newLogger(cfg), nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()

			e := buildServer(cfg, pool, logger)

			errCh := make(chan error, 1)
			go func() {
				errCh <- e.Start(":" + cfg.Port)
			}()
			logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				if err != nil && err != http.ErrServerClosed {
					return err
				}
			case sig := <-quit:
				logger.Info().Str("signal", sig.String()).Msg("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := e.Shutdown(shutdownCtx); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func buildServer(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = respond.HTTPErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unreachable")
		}
		return respond.OK(c, http.StatusOK, "healthy", map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	api.Use(auth.Middleware([]byte(cfg.JWTSecret)))
	if cfg.IsDev() {
		api.Use(auth.DevMiddleware())
	}

	registerDomains(api, cfg, pool, logger)
	return e
}

// registerDomains wires repositories, services and handlers for every domain
// and mounts their routes under /api/v1.
func registerDomains(api *echo.Group, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) {
	inTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	}

	catalogRepo := catalog.NewRepoPG(pool)
	catalogSvc := catalog.NewService(catalogRepo, logger)
	notifySvc := notifications.NewService(notifications.NewRepoPG(pool), logger)
	inventorySvc := inventory.NewService(inventory.NewRepoPG(pool), notifySvc, logger)
	pharmacySvc := pharmacy.NewService(pharmacy.NewRepoPG(pool), logger)
	identitySvc := identity.NewService(identity.NewRepoPG(pool),
		[]byte(cfg.JWTSecret), time.Duration(cfg.JWTTTLHours)*time.Hour, logger)
	cartSvc := cart.NewService(cart.NewRepoPG(pool), catalogRepo, logger)
	orderSvc := orders.NewService(orders.NewRepoPG(pool), inventorySvc, cartSvc, catalogRepo,
		notifySvc, orders.TxRunner(inTx), cfg.TaxRate, logger)
	rxSvc := prescriptions.NewService(prescriptions.NewRepoPG(pool), inventorySvc,
		prescriptions.TxRunner(inTx), logger)
	claimSvc := claims.NewService(claims.NewRepoPG(pool), orderSvc, logger)
	favoriteSvc := favorites.NewService(favorites.NewRepoPG(pool), catalogRepo, logger)

	catalog.NewHandler(catalogSvc).RegisterRoutes(api)
	inventory.NewHandler(inventorySvc).RegisterRoutes(api)
	pharmacy.NewHandler(pharmacySvc).RegisterRoutes(api)
	identity.NewHandler(identitySvc).RegisterRoutes(api)
	cart.NewHandler(cartSvc).RegisterRoutes(api)
	orders.NewHandler(orderSvc).RegisterRoutes(api)
	prescriptions.NewHandler(rxSvc).RegisterRoutes(api)
	claims.NewHandler(claimSvc).RegisterRoutes(api)
	favorites.NewHandler(favoriteSvc).RegisterRoutes(api)
	notifications.NewHandler(notifySvc).RegisterRoutes(api)
	dashboard.NewHandler(dashboard.NewRepoPG(pool), dashboard.NewStaticScorer(), logger).RegisterRoutes(api)
}

func migrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate [up|status]",
		Short: "Run or inspect database migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()

			m := db.NewMigrator(pool, dir)
			switch args[0] {
			case "up":
				n, err := m.Up(ctx)
				if err != nil {
					return err
				}
				logger.Info().Int("applied", n).Msg("migrations applied")
			case "status":
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}
				for _, s := range statuses {
					state := "pending"
					if s.Applied {
						state = "applied"
					}
					fmt.Printf("%03d %-30s %s\n", s.Version, s.Name, state)
				}
			default:
				return fmt.Errorf("unknown migrate action %q", args[0])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "migrations", "directory containing migration files")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the development dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			if !cfg.IsDev() {
				return fmt.Errorf("seed only runs when ENV is development")
			}

			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()

			return seed.Run(ctx, pool, logger)
		},
	}
}
