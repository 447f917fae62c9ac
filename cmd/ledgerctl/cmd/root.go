// Package cmd holds the ledgerctl commands.
package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/carson-networks/ledger-server/internal/config"
	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/service"
)

// Opener builds the service a command runs against.
type Opener func(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*service.Service, error)

// OpenClient opens the backend selected by LEDGER_BACKEND.
func OpenClient(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*service.Service, error) {
	return service.NewService(ctx, service.ClientBackendConfig(cfg), cfg, logger)
}

type app struct {
	open    Opener
	envFile string
	debug   bool

	logger *logrus.Logger
	svc    *service.Service
}

// NewRootCommand builds the ledgerctl command tree over the configured backend.
func NewRootCommand() *cobra.Command {
	return newRootCommand(OpenClient)
}

func newRootCommand(open Opener) *cobra.Command {
	a := &app{open: open}

	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Manage a personal income and expense ledger",
		Long: `ledgerctl records income and expenses and reports the balance.

Transactions live in the local store by default. Set LEDGER_BACKEND=remote
to work against a ledger server instead.

Example:
  ledgerctl add "Salário" 5000
  ledgerctl add "Mercado" -350
  ledgerctl balance`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		a.listCommand(),
		a.addCommand(),
		a.editCommand(),
		a.removeCommand(),
		a.balanceCommand(),
		a.statsCommand(),
		a.exportCommand(),
		a.importCommand(),
		a.resetCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	cfg, err := config.ProcessEnvironmentVariables()
	if err != nil {
		return err
	}

	a.logger = logging.SetupLogging()
	a.logger.SetOutput(cmd.ErrOrStderr())
	a.logger.SetLevel(logrus.WarnLevel)
	if a.debug {
		a.logger.SetLevel(logrus.DebugLevel)
	}

	a.svc, err = a.open(cmd.Context(), cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	return nil
}

// run wraps a command body so the service is closed whether or not it fails.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if a.svc != nil {
			if closeErr := a.svc.Close(); err == nil {
				err = closeErr
			}
			a.svc = nil
		}
		return err
	}
}

// report prints the durability warning for changes that only live in memory
// for this run.
func (a *app) report(cmd *cobra.Command, m ledger.Mutation) {
	if m.Durable() {
		return
	}
	a.logger.WithError(m.Warning).Debug("ledgerctl.change not persisted")
	fmt.Fprintln(cmd.ErrOrStderr(), "warning: change was not saved, storage is unavailable")
}
