// File: cmd/export.go
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/assessment-export/internal/config"
	"github.com/xkilldash9x/assessment-export/internal/credentials"
	"github.com/xkilldash9x/assessment-export/internal/network"
	"github.com/xkilldash9x/assessment-export/internal/observability"
	"github.com/xkilldash9x/assessment-export/internal/orchestrator"
	"github.com/xkilldash9x/assessment-export/internal/ostrich"
	"github.com/xkilldash9x/assessment-export/internal/store"
)

// Injection points swapped out by tests.
var (
	newAPI      = defaultAPI
	newPrompter = func() credentials.Prompter { return credentials.NewPrompter(os.Stdin, os.Stderr) }
	openArchive = defaultArchive
)

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Builds the assessment report (default action)",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := configFromContext(ctx)
	if err != nil {
		return err
	}
	logger := observability.GetLogger()

	key, err := credentials.Acquire(ctx, cfg.Credentials(), newPrompter(), logger)
	if err != nil {
		return fmt.Errorf("failed to acquire api key: %w", err)
	}

	api, err := newAPI(cfg, logger)
	if err != nil {
		return err
	}

	opts := []orchestrator.Option{}
	if cfg.Database().URL != "" {
		archive, cleanup, err := openArchive(ctx, cfg, logger)
		if err != nil {
			// The archive is optional; the report is still produced.
			logger.Warn("Report archive unavailable", zap.Error(err))
		} else {
			defer cleanup()
			opts = append(opts, orchestrator.WithArchive(archive))
		}
	}

	orch, err := orchestrator.New(cfg, logger, api, key, opts...)
	if err != nil {
		return err
	}

	if _, err := orch.Run(ctx); err != nil {
		if orchestrator.IsInterrupted(err) {
			return fmt.Errorf("export aborted: %w", err)
		}
		return err
	}
	return nil
}

func defaultAPI(cfg config.Interface, logger *zap.Logger) (orchestrator.API, error) {
	apiCfg := cfg.API()
	clientCfg := network.NewDefaultClientConfig()
	clientCfg.RequestTimeout = apiCfg.Timeout
	clientCfg.ForceHTTP2 = apiCfg.ForceHTTP2
	clientCfg.Logger = logger

	client, err := ostrich.NewClient(apiCfg, network.NewClient(clientCfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}
	return client, nil
}

func defaultArchive(ctx context.Context, cfg config.Interface, logger *zap.Logger) (orchestrator.Archiver, func(), error) {
	pool, err := store.NewPool(ctx, cfg.Database().URL)
	if err != nil {
		return nil, nil, err
	}
	s, err := store.New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool.Close, nil
}
