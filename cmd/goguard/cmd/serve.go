package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/directory"
	"github.com/MrEthical07/goGuard/internal/server"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	addr            string
	dbPath          string
	seedDemo        bool
	embeddedRedis   bool
	metrics         bool
	shutdownTimeout time.Duration
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo students service behind goguard",
		Long: `Starts an HTTP server exposing POST /login, the students API and
/metrics. Users come from a SQLite database (--db) or an in-memory demo
directory. Rules come from the config file, or the demo table when it
declares none.

The JWT secret must be set in the config file or GOGUARD_JWT_SECRET.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.addr, "addr", "a", ":8080", "Address to listen on")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite user database (default: in-memory demo users)")
	cmd.Flags().BoolVar(&opts.seedDemo, "seed-demo", true, "Add missing demo users to --db")
	cmd.Flags().BoolVar(&opts.embeddedRedis, "embedded-redis", false, "Enable the login throttle on an in-process Redis")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", true, "Serve Prometheus metrics on /metrics")
	cmd.Flags().DurationVar(&opts.shutdownTimeout, "shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, opts *serveOptions) error {
	logger, err := root.newLogger(os.Stderr)
	if err != nil {
		return err
	}

	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.JWT.Secret) == 0 {
		return fmt.Errorf("no JWT secret: set jwt.secret or %s", goGuard.EnvJWTSecret)
	}
	if len(cfg.Rules) == 0 {
		cfg.Rules = server.DemoRules()
	}

	hasher, err := goGuard.NewPasswordHasher(cfg)
	if err != nil {
		return fmt.Errorf("failed to create password hasher: %w", err)
	}

	builder := goGuard.New().WithLogger(logger)

	// -------- USER DIRECTORY --------
	if opts.dbPath != "" {
		db, err := directory.OpenSQLite(opts.dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		if opts.seedDemo {
			if err := db.SeedDemo(ctx, hasher); err != nil {
				return err
			}
		}
		builder.WithUserDirectory(db)
	} else {
		mem, err := directory.NewDemoMemory(hasher)
		if err != nil {
			return fmt.Errorf("failed to seed demo users: %w", err)
		}
		builder.WithUserDirectory(mem)
		logger.Warn("using in-memory demo users")
	}

	// -------- LOGIN THROTTLE --------
	if opts.embeddedRedis {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("failed to start embedded redis: %w", err)
		}
		defer mr.Close()
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer rdb.Close()

		cfg.RateLimit.Enabled = true
		builder.WithRedis(rdb)
		logger.Info("login throttle on embedded redis", "addr", mr.Addr())
	}

	engine, err := builder.
		WithConfig(cfg).
		WithMetricsEnabled(opts.metrics || cfg.Metrics.Enabled).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}
	defer engine.Close()

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           server.NewHandler(server.Options{Engine: engine, Logger: logger}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting goguard", "addr", opts.addr, "rules", len(engine.Rules()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", opts.shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	logger.LogAttrs(context.Background(), slog.LevelInfo, "stopped", slog.Uint64("audit_dropped", engine.AuditDropped()))
	return nil
}
