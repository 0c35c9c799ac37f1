package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/cartsync/internal/server"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg := server.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show version information")
	flag.StringVar(&cfg.Addr, "addr", envOr("CARTSYNC_ADDR", cfg.Addr), "Listen address")
	flag.StringVar(&cfg.DBPath, "db", envOr("CARTSYNC_SERVER_DB", cfg.DBPath), "Path to SQLite database")
	flag.StringVar(&cfg.Currency, "currency", envOr("CARTSYNC_CURRENCY", cfg.Currency), "Currency of new carts")
	secret := flag.String("csrf-secret", os.Getenv("CARTSYNC_CSRF_SECRET"), "Secret for signing CSRF tokens")
	flag.DurationVar(&cfg.CSRFTTL, "csrf-ttl", cfg.CSRFTTL, "CSRF token lifetime")
	flag.IntVar(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "Requests per cart or IP per window, 0 disables")
	flag.DurationVar(&cfg.RateWindow, "rate-window", cfg.RateWindow, "Rate limit window")
	flag.DurationVar(&cfg.CartTTL, "cart-ttl", cfg.CartTTL, "Delete carts not changed for this long, 0 disables")
	logLevel := flag.String("log-level", envOr("CARTSYNC_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}
	cfg.CSRFSecret = []byte(*secret)

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q: %v\n", *logLevel, err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg server.Config, logger *slog.Logger) error {
	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("Failed to close server", "error", err)
		}
	}()

	logger.Info("cartsync server starting",
		"version", Version,
		"addr", cfg.Addr,
		"db", cfg.DBPath,
		"csrf_ttl", cfg.CSRFTTL.String(),
		"cart_ttl", cfg.CartTTL.Round(time.Hour).String(),
	)
	return srv.Run(ctx)
}

// envOr возвращает значение переменной окружения или def
func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func printVersion() {
	fmt.Printf("cartsync server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
