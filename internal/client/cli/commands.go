package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iudanet/cartsync/internal/config"
)

// globalFlags значения глобальных флагов. Флаги перекрывают файл
// конфигурации и переменные окружения, только если заданы явно.
type globalFlags struct {
	configPath string
	server     string
	db         string
	csrfToken  string
	logLevel   string
	offline    bool
}

func (f *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "Path to YAML config file")
	fs.StringVar(&f.server, "server", "", "Server URL (default: http://localhost:8080)")
	fs.StringVar(&f.db, "db", "", "Path to local database, empty keeps the cart in memory")
	fs.StringVar(&f.csrfToken, "csrf-token", "", "Fixed CSRF token instead of fetching one from the server")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.BoolVar(&f.offline, "offline", false, "Work offline: every change is queued")
}

// config собирает итоговую конфигурацию: файл, окружение, затем флаги
func (f *globalFlags) config(fs *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}

	if fs.Changed("server") {
		cfg.Server = f.server
	}
	if fs.Changed("db") {
		cfg.DBPath = f.db
	}
	if fs.Changed("csrf-token") {
		cfg.CSRFToken = f.csrfToken
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if fs.Changed("offline") {
		cfg.Offline = f.offline
	}
	return cfg, cfg.Validate()
}

// Command собирает дерево команд cartsync
func (c *Cli) Command(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "cartsync",
		Short:         "Offline-first shopping cart client",
		Long:          "cartsync keeps a shopping cart usable without a connection: changes are queued locally and replayed to the store in order once it is reachable.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	c.flags.register(root.PersistentFlags())

	root.AddCommand(
		c.addCommand(),
		c.updateCommand(),
		c.removeCommand(),
		c.clearCommand(),
		c.showCommand(),
		c.syncCommand(),
		c.statusCommand(),
		c.errorsCommand(),
		c.operationsCommand(),
	)
	return root
}

// run открывает корзину и выполняет fn
func (c *Cli) run(fn func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if c.svc == nil {
			cfg, err := c.flags.config(cmd.Flags())
			if err != nil {
				return err
			}
			if err := c.connect(ctx, cfg); err != nil {
				return err
			}
		}
		return c.finish(fn(ctx, args))
	}
}

func (c *Cli) updateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "update <key> <quantity>",
		Short:   "Change the quantity of a cart line, 0 removes it",
		Example: "  cartsync update 42:3f9a 3",
		Args:    cobra.ExactArgs(2),
		RunE: c.run(func(ctx context.Context, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q: %w", args[1], err)
			}
			return c.runUpdate(ctx, args[0], qty)
		}),
	}
}

func (c *Cli) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <key>",
		Aliases: []string{"rm"},
		Short:   "Remove a line from the cart",
		Args:    cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, args []string) error {
			return c.runRemove(ctx, args[0])
		}),
	}
}

func (c *Cli) clearCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every line from the cart",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, _ []string) error {
			return c.runClear(ctx, yes)
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func (c *Cli) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "show",
		Aliases: []string{"get"},
		Short:   "Show the cart",
		Args:    cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, _ []string) error {
			return c.runShow(ctx)
		}),
	}
}

func (c *Cli) syncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Send queued changes to the server",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, _ []string) error {
			return c.runSync(ctx)
		}),
	}
}

func (c *Cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connection and synchronization status",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, _ []string) error {
			return c.runStatus(ctx)
		}),
	}
}

func (c *Cli) errorsCommand() *cobra.Command {
	var stats, clearLog bool
	cmd := &cobra.Command{
		Use:   "errors",
		Short: "Show the error log",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, _ []string) error {
			switch {
			case clearLog:
				return c.runClearErrors(ctx)
			case stats:
				return c.runErrorStats(ctx)
			}
			return c.runErrors(ctx)
		}),
	}
	cmd.Flags().BoolVar(&stats, "stats", false, "Show recovery rate per category")
	cmd.Flags().BoolVar(&clearLog, "clear", false, "Clear the error log")
	cmd.MarkFlagsMutuallyExclusive("stats", "clear")
	return cmd
}

func (c *Cli) operationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "ops",
		Aliases: []string{"log"},
		Short:   "Show the local operation log",
		Args:    cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, _ []string) error {
			return c.runOperations(ctx)
		}),
	}
}
