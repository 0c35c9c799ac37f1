package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	httpClient "github.com/iudanet/cartsync/internal/client/api"
	"github.com/iudanet/cartsync/internal/client/cart"
	"github.com/iudanet/cartsync/internal/client/cli"
	"github.com/iudanet/cartsync/internal/client/connectivity"
	"github.com/iudanet/cartsync/internal/client/csrf"
	"github.com/iudanet/cartsync/internal/client/events"
	"github.com/iudanet/cartsync/internal/client/iocli"
	"github.com/iudanet/cartsync/internal/client/storage"
	"github.com/iudanet/cartsync/internal/client/storage/boltdb"
	"github.com/iudanet/cartsync/internal/client/storage/memory"
	"github.com/iudanet/cartsync/internal/config"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.New(iocli.NewStdio(), openCart)
	root := app.Command(fmt.Sprintf("%s (built %s, commit %s)", Version, BuildDate, GitCommit))

	err := root.ExecuteContext(ctx)
	if cerr := app.Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "Failed to close cart: %v\n", cerr)
	}
	if err != nil {
		if !errors.Is(err, cli.ErrReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

// openCart собирает корзину по конфигурации: хранилище, HTTP клиент,
// CSRF токен и сигнал сети
func openCart(ctx context.Context, cfg config.Config) (*cli.Session, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		closers = nil
		return errors.Join(errs...)
	}

	var kv storage.KV
	if cfg.DBPath == "" {
		kv = memory.New(cfg.QuotaBytes)
	} else {
		db, err := boltdb.New(ctx, cfg.DBPath, boltdb.WithQuota(cfg.QuotaBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		kv = db
		closers = append(closers, db.Close)
	}

	client := httpClient.NewClient(cfg.Server, logger, cfg.ClientOptions()...)

	var provider csrf.TokenProvider
	if cfg.CSRFToken != "" {
		provider = csrf.NewStatic(cfg.CSRFToken)
	} else {
		provider = csrf.NewHTTPProvider(client, logger)
	}
	client.SetTokenSource(provider.Token)

	var online connectivity.Signal
	if cfg.Offline {
		online = connectivity.NewManual(false)
	} else {
		prober := connectivity.NewProber(client.Health, cfg.ProbeInterval, logger)
		prober.Probe(ctx)
		prober.Start(ctx)
		closers = append(closers, func() error {
			prober.Stop()
			return nil
		})
		online = prober
	}

	bus := events.NewBus(logger)
	c, err := cart.New(cart.Deps{
		Client:  client,
		Storage: kv,
		Signal:  online,
		Bus:     bus,
		CSRF:    provider,
		Logger:  logger,
	}, cfg.CartConfig())
	if err != nil {
		_ = closeAll()
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		_ = closeAll()
		return nil, err
	}
	closers = append(closers, c.Close)

	return &cli.Session{
		Service: c,
		Events:  bus,
		Close:   closeAll,
	}, nil
}
