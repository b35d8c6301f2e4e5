package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"summarist-billing/config"
	"summarist-billing/database"
	adminapi "summarist-billing/internal/api/admin"
	"summarist-billing/internal/api/billing"
	"summarist-billing/internal/api/plans"
	stripewebhooks "summarist-billing/internal/api/stripewebhook"
	"summarist-billing/internal/api/users"
	routes "summarist-billing/internal/app/http"
	"summarist-billing/internal/app/http/middleware"
	"summarist-billing/internal/infra/eventledger"
	"summarist-billing/internal/infra/logger"
	"summarist-billing/internal/infra/stripeapi"
	"summarist-billing/internal/subscription"
)

func main() {
	root := &cobra.Command{
		Use:           "summarist-billing",
		Short:         "Stripe subscription service for Summarist",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), syncPlansCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env carries what every command needs.
type env struct {
	cfg        *config.Config
	log        *zap.Logger
	store      database.Store
	closeStore func(context.Context) error
	stripe     *stripeapi.Client
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Development: !cfg.IsProduction(),
	})
	zap.ReplaceGlobals(log)

	store, closeStore, err := database.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	client := stripeapi.Shared(stripeapi.Config{
		SecretKey:   cfg.StripeSecretKey,
		Timeout:     cfg.StripeTimeout,
		MaxFailures: cfg.BreakerFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
	}, log)

	return &env{cfg: cfg, log: log, store: store, closeStore: closeStore, stripe: client}, nil
}

func (e *env) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.closeStore(ctx); err != nil {
		e.log.Warn("store close failed", zap.Error(err))
	}
	_ = e.log.Sync()
}

type migrator interface {
	Migrate(ctx context.Context) error
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			m, ok := e.store.(migrator)
			if !ok {
				e.log.Info("store needs no migration", zap.String("driver", e.cfg.StoreDriver))
				return nil
			}
			if err := m.Migrate(cmd.Context()); err != nil {
				return err
			}
			e.log.Info("migrated successfully")
			return nil
		},
	}
}

func syncPlansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-plans",
		Short: "Copy recurring Stripe prices into the plan catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			_, err = subscription.NewPlanSync(e.stripe, e.store, e.cfg.StripeProductID, e.log).Run(cmd.Context())
			return err
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := setup(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			if m, ok := e.store.(migrator); ok {
				if err := m.Migrate(ctx); err != nil {
					return err
				}
			}

			handler, err := buildRouter(ctx, e)
			if err != nil {
				return err
			}
			return serve(ctx, e, handler)
		},
	}
}

func buildRouter(ctx context.Context, e *env) (*gin.Engine, error) {
	cfg, log := e.cfg, e.log

	var ledger eventledger.Ledger = eventledger.Noop{}
	if cfg.RedisURL != "" {
		client, err := eventledger.NewRedisClient(cfg.RedisURL, log)
		if err != nil {
			return nil, err
		}
		ledger = eventledger.NewRedisLedger(client, cfg.EventDedupeTTL)
	}

	var verifiers middleware.ChainVerifier
	if cfg.OIDCIssuer != "" {
		v, err := middleware.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCAudience)
		if err != nil {
			return nil, err
		}
		verifiers = append(verifiers, v)
	}
	if cfg.JWTSecret != "" {
		verifiers = append(verifiers, middleware.NewHMACVerifier(cfg.JWTSecret))
	}

	reconciler := subscription.NewReconciler(e.stripe, e.store, log)
	checkout := subscription.NewCheckoutFactory(e.stripe, e.store, e.store, subscription.CheckoutConfig{
		SuccessURL:        cfg.RedirectURL("/for-you?checkout=success"),
		CancelURL:         cfg.RedirectURL("/for-you?checkout=canceled"),
		RequireKnownPrice: cfg.RequireKnownPrice,
	}, log)
	planSync := subscription.NewPlanSync(e.stripe, e.store, cfg.StripeProductID, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Handlers{
		Webhook:  stripewebhooks.New(cfg.StripeWebhookSecret, reconciler, ledger, cfg.WebhookTimeout, log),
		Billing:  billing.New(checkout, e.stripe, e.store, cfg.RedirectURL("/settings"), log),
		Users:    users.New(e.store, e.store, log),
		Plans:    plans.New(planSync, e.store, cfg.StripeProductID, log),
		Admin:    adminapi.New(e.store, log),
		Verifier: verifiers,
		Log:      log,
	})
	return r, nil
}

func serve(ctx context.Context, e *env, handler http.Handler) error {
	srv := &http.Server{
		Addr:              ":" + e.cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		e.log.Info("listening", zap.String("addr", srv.Addr), zap.String("env", e.cfg.AppEnv))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	e.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
