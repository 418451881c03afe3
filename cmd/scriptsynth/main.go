package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KevinKickass/ScriptSynth/internal/config"
	"github.com/KevinKickass/ScriptSynth/internal/system"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configYml string
	logger    *zap.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "scriptsynth",
		Short:        "Test run configuration editor and artifact store",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = zap.NewProduction()
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&configYml, "config", "c", "configs/config.yaml", "Start with provided configuration file")

	root.AddCommand(newEditorCmd(), newStoreCmd(), newRenderCmd())
	return root
}

func newEditorCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "editor",
		Short:   "Start the editor service",
		Example: "scriptsynth editor -c configs/config.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			lm, err := system.NewEditorLifecycle(cfg, logger)
			if err != nil {
				return err
			}
			return serve(cfg, lm)
		},
	}
}

func newStoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "store",
		Short:   "Start the artifact store service",
		Example: "scriptsynth store -c configs/config.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			lm, err := system.NewStoreLifecycle(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			return serve(cfg, lm)
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configYml)
	if err != nil {
		logger.Error("Failed to load config", zap.Error(err))
		return nil, err
	}
	logger.Info("Config loaded successfully", zap.String("path", configYml))
	return cfg, nil
}

// serve starts lm and blocks until a signal arrives or lm shuts itself down.
func serve(cfg *config.Config, lm *system.LifecycleManager) error {
	if err := lm.Start(); err != nil {
		return err
	}

	// Graceful Shutdown auf Signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received")
	case <-lm.Done():
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := lm.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
		return err
	}

	logger.Info("ScriptSynth stopped successfully")
	return nil
}
