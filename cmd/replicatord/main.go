// Command replicatord runs the sync engine as a long-lived daemon,
// exposing spec §6's command surface over HTTP+SSE.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/replicator/replicator/internal/config"
	"github.com/replicator/replicator/internal/engine"
	"github.com/replicator/replicator/internal/httpapi"
	"github.com/replicator/replicator/internal/progress"
	"github.com/replicator/replicator/internal/rlog"
	"github.com/replicator/replicator/internal/secretbox"
	"github.com/replicator/replicator/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "replicatord",
	Short:         "Run the heterogeneous data-replication sync engine as a daemon",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "replicatord.yaml", "path to a YAML config file (optional)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "replicatord: "+err.Error())
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	rlog.Init(rlog.Config{Level: cfg.LogLevel, JSONOutput: cfg.JSONLogs})

	s, err := store.Open(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	secrets, err := secretbox.New()
	if err != nil {
		return fmt.Errorf("init secretbox: %w", err)
	}

	e := engine.New(s, secrets, progress.NewBus())
	srv := httpapi.New(e, cfg.ListenAddr, cfg.AuthToken)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rlog.Logger.Info().Str("addr", cfg.ListenAddr).Msg("replicatord: starting")
	if err := srv.Start(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("http server: %w", err)
	}
	rlog.Logger.Info().Msg("replicatord: shut down")
	return nil
}
