package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"finboard/internal/backend"
	"finboard/internal/cli"
	apphttp "finboard/internal/http"
	applog "finboard/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	envFile    string
	configFile string
	seedFile   string
	seedEmpty  bool
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "finboard-devapi",
		Short: "Serve the finboard REST API from a local ledger",
		Long: `finboard-devapi serves accounts, transactions and goals over JSON for local
development. DATA_BACKEND picks the in-memory fixture or a SQLite file; with
AMQP_URL set every mutation is announced on AMQP_EXCHANGE.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "load environment from this file (default .env)")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "YAML, TOML or JSON settings file; keys are environment variable names")
	cmd.Flags().StringVar(&opts.seedFile, "seed", "", "JSON seed for the memory backend (default built-in fixture)")
	cmd.Flags().BoolVar(&opts.seedEmpty, "seed-empty", true, "load the built-in fixture into an empty SQLite ledger")
	return cmd
}

func serve(parent context.Context, opts options) error {
	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}
	if err := cli.LoadEnvFile(envFiles...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	if err := cli.LoadConfigFile(opts.configFile); err != nil {
		return err
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger, err := cli.SetupLogger(cfg.LogLevel, applog.ComponentApp, os.Stdout)
	if err != nil {
		return err
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	backendCfg.SeedFile = opts.seedFile
	backendCfg.SeedEmpty = opts.seedEmpty

	result, err := backend.NewFactory(logger).CreateBackend(parent, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "backend", backendCfg.Type, applog.FieldError, err)
		return err
	}

	srv := apphttp.NewServer(":"+cfg.Port, result.Ledger, apphttp.Options{
		Logger: logger,
		Ready:  result.Ready,
	})

	ctx, done := cli.GracefulShutdown(parent, logger, 30*time.Second, func(ctx context.Context) error {
		var errs []error
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				errs = append(errs, fmt.Errorf("backend cleanup: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	logger.Info("Starting finboard dev API",
		"port", cfg.Port,
		"backend", backendCfg.Type,
		"events", result.Events,
		applog.FieldOperation, applog.OpStartup)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
			if result.Cleanup != nil {
				_ = result.Cleanup()
			}
			return err
		}
	case <-ctx.Done():
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
	return nil
}
