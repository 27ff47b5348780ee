// File: internal/orchestrator/orchestrator.go
// Description: Drives one export run. It is injected with fully configured
// components via interfaces, making it decoupled and testable.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/awnumar/memguard"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/assessment-export/api/schemas"
	"github.com/xkilldash9x/assessment-export/internal/assessments"
	"github.com/xkilldash9x/assessment-export/internal/config"
	"github.com/xkilldash9x/assessment-export/internal/hierarchy"
	"github.com/xkilldash9x/assessment-export/internal/identity"
	"github.com/xkilldash9x/assessment-export/internal/reporting"
	"github.com/xkilldash9x/assessment-export/internal/results"
)

// API is the remote surface a run needs. *ostrich.Client satisfies it.
type API interface {
	Authenticate(ctx context.Context, key *memguard.Enclave) error
	ListBusinessUnits(ctx context.Context) ([]schemas.BusinessUnit, error)
	ListAssessments(ctx context.Context, businessUnitID string) ([]schemas.Assessment, error)
	GetAssessmentScores(ctx context.Context, businessUnitID, assessmentID string) (*schemas.ScoreSet, error)
	GetUser(ctx context.Context, userID string) (*schemas.User, error)
}

// Archiver stores a finished report. *store.Store satisfies it.
type Archiver interface {
	PersistReport(ctx context.Context, report *schemas.Report) error
}

// Orchestrator manages the lifecycle of a single export.
type Orchestrator struct {
	cfg     config.Interface
	logger  *zap.Logger
	api     API
	key     *memguard.Enclave
	open    ReporterFactory
	archive Archiver
	now     func() time.Time
}

// ReporterFactory opens the destination of a report. reporting.New is the default.
type ReporterFactory func(format, outputPath string) (reporting.Reporter, error)

// Option tweaks an Orchestrator at construction.
type Option func(*Orchestrator)

// WithArchive persists every report after it has been written.
func WithArchive(a Archiver) Option {
	return func(o *Orchestrator) { o.archive = a }
}

// WithReporterFactory replaces how the report destination is opened.
func WithReporterFactory(f ReporterFactory) Option {
	return func(o *Orchestrator) { o.open = f }
}

// WithClock overrides the source of the report timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates a new Orchestrator.
func New(
	cfg config.Interface,
	logger *zap.Logger,
	api API,
	key *memguard.Enclave,
	opts ...Option,
) (*Orchestrator, error) {
	if cfg == nil ||
		logger == nil ||
		api == nil ||
		key == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	o := &Orchestrator{
		cfg:    cfg,
		logger: logger.Named("orchestrator"),
		api:    api,
		key:    key,
		open:   reporting.New,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run executes the export and returns the report it wrote. Errors returned
// are fatal; per-assessment problems are logged and skipped. The destination
// is only opened once all rows are built, so a fatal run leaves no file behind.
func (o *Orchestrator) Run(ctx context.Context) (*schemas.Report, error) {
	reportCfg := o.cfg.Report()
	report := &schemas.Report{
		RunID:       uuid.NewString(),
		GeneratedAt: o.now().UTC(),
		Columns:     schemas.ColumnsFor(reportCfg.IncludeItemRows),
	}
	log := o.logger.With(zap.String("run_id", report.RunID))

	if err := o.api.Authenticate(ctx, o.key); err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	log.Info("Retrieving Business Units...")
	roots, err := o.api.ListBusinessUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list business units: %w", err)
	}
	tree := hierarchy.Flatten(roots)
	log.Debug("Business unit tree flattened", zap.Int("units", tree.Len()))

	list, err := assessments.Collect(ctx, o.api, tree.Nodes(), log)
	if err != nil {
		return nil, err
	}

	resolver := identity.NewResolver(o.api, o.cfg.Identity(), log)
	pipeline := results.NewPipeline(o.api, resolver, reportCfg, log)
	report.Rows = pipeline.Process(ctx, tree, list)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("export interrupted: %w", err)
	}

	log.Info("End Report. Saving to "+outputName(reportCfg.Output),
		zap.Int("rows", len(report.Rows)),
		zap.String("format", reportCfg.Format),
	)
	if err := o.emit(reportCfg, report); err != nil {
		return nil, err
	}

	if o.archive != nil {
		if err := o.archive.PersistReport(ctx, report); err != nil {
			// The report file is the primary output; the archive is best effort.
			log.Warn("Failed to archive report", zap.Error(err))
		}
	}
	return report, nil
}

func (o *Orchestrator) emit(cfg config.ReportConfig, report *schemas.Report) error {
	reporter, err := o.open(cfg.Format, cfg.Output)
	if err != nil {
		return fmt.Errorf("failed to open report output: %w", err)
	}
	if err := reporter.Write(report); err != nil {
		_ = reporter.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := reporter.Close(); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func outputName(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}

// IsInterrupted reports whether err stems from the run being cancelled.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
