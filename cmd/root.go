// Package cmd defines and implements the CLI commands for the requestwatch
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/JakeFAU/request-watch/internal/config"
	"github.com/JakeFAU/request-watch/internal/logging"
	viperinit "github.com/JakeFAU/request-watch/pkg/config"
)

var cfgFile string

// appKeyType is the key for storing the runtime in the command context.
type appKeyType string

const appKey appKeyType = "app"

// runtime holds the services every subcommand needs.
type runtime struct {
	cfg    config.Config
	logger *zap.Logger
}

// newRootCmd creates and configures the root command. Configuration and the
// logger are built in PersistentPreRunE and injected into the command
// context, so subcommands stay trivially testable.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requestwatch",
		Short: "Watches a web page for new requests and relays them to a webhook.",
		Long: `requestwatch periodically inspects a single web page for newly posted
requests, fingerprints what it finds, and relays records it has not
reported before to a messaging webhook. A small persisted ledger keeps
repeated runs from re-announcing the same posting.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			used, err := viperinit.InitConfig(cfgFile)
			if err != nil {
				return err
			}

			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Debug)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			if used != "" {
				logger.Info("Using config file", zap.String("path", used))
			}

			ctx := context.WithValue(cmd.Context(), appKey, &runtime{cfg: cfg, logger: logger})
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if rt, ok := cmd.Context().Value(appKey).(*runtime); ok && rt != nil {
				_ = rt.logger.Sync() // best-effort flush
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	cmd.AddCommand(newWatchCmd())
	return cmd
}

func resolveRuntime(ctx context.Context) (*runtime, error) {
	rt, ok := ctx.Value(appKey).(*runtime)
	if !ok || rt == nil {
		return nil, errors.New("application services not initialized")
	}
	return rt, nil
}

// Execute is the main entry point. Configuration and fatal run errors exit
// with status 1.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
