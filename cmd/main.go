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

	"DevHabit/internal/auth"
	"DevHabit/internal/cache"
	"DevHabit/internal/config"
	"DevHabit/internal/db"
	"DevHabit/internal/github"
	"DevHabit/internal/handler"
	"DevHabit/internal/links"
	"DevHabit/internal/logger"
	"DevHabit/internal/model"
	"DevHabit/internal/router"
	"DevHabit/internal/store"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool
	root := &cobra.Command{
		Use:           "devhabit",
		Short:         "DevHabit habit tracking API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.SetDebug(debug)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	})
	root.AddCommand(newMigrateCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return db.MigrateUp(cfg.PostgresDSN)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return errors.New("--steps must be at least 1")
			}
			cfg, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return db.MigrateDown(cfg.PostgresDSN, steps)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)
	return cmd
}

func setup() (*config.Config, error) {
	cfg := config.LoadConfig()
	if err := logger.Init(cfg.LogDir); err != nil {
		return nil, fmt.Errorf("log init failed: %w", err)
	}
	return cfg, nil
}

func serve(parent context.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.MigrateOnStart {
		if err := db.MigrateUp(cfg.PostgresDSN); err != nil {
			logger.Error("migrations_failed", map[string]any{"error": err.Error()})
			return err
		}
	}

	if err := db.InitPostgres(cfg.PostgresDSN); err != nil {
		logger.Error("postgres_init_failed", map[string]any{"error": err.Error()})
		return err
	}
	defer db.ClosePostgres()
	logger.Info("postgres_connected", nil)

	db.InitRedis(cfg.RedisAddr)
	defer db.CloseRedis()
	var remote *cache.RedisTier
	if db.RDB != nil {
		pingCtx, cancel := context.WithTimeout(parent, 3*time.Second)
		err := db.PingRedis(pingCtx)
		cancel()
		if err != nil {
			logger.Warn("redis_unavailable", map[string]any{"error": err.Error()})
		} else {
			remote = cache.NewRedisTier(db.RDB, "devhabit:user:", cfg.UserCache.TTL)
			logger.Info("redis_connected", map[string]any{"addr": cfg.RedisAddr})
		}
	}

	sorts, err := model.NewSortRegistry()
	if err != nil {
		return fmt.Errorf("sort registry: %w", err)
	}
	st := store.New(db.Pool, sorts)

	validator, err := auth.NewValidator(cfg.Auth.JWT)
	if err != nil {
		logger.Error("jwt_config_invalid", map[string]any{"error": err.Error()})
		return err
	}
	var tokens *auth.TokenProvider
	if cfg.Auth.JWT.CanIssue() {
		if tokens, err = auth.NewTokenProvider(cfg.Auth); err != nil {
			return err
		}
	} else {
		logger.Info("token_issuance_disabled", map[string]any{"validation_type": cfg.Auth.JWT.ValidationType})
	}

	api := &handler.API{
		Habits:    st,
		Tags:      st,
		Accounts:  st,
		Users:     auth.NewUserContext(st, cache.NewSliding[string](cfg.UserCache.TTL, cfg.UserCache.MaxEntries), remote),
		GitHub:    github.NewClient(cfg.GitHub.APIURL, cfg.GitHub.Timeout),
		Tokens:    tokens,
		Sorts:     sorts,
		Links:     links.NewTable(),
		Validator: model.NewValidator(),
	}
	h, err := router.New(api, cfg.CORS, validator)
	if err != nil {
		logger.Error("router_init_failed", map[string]any{"error": err.Error()})
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server_start", map[string]any{"port": cfg.Port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("server_shutdown", nil)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server_error", map[string]any{"error": err.Error()})
		return err
	}
	return nil
}
