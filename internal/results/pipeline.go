// File: internal/results/pipeline.go
package results

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/assessment-export/api/schemas"
	"github.com/xkilldash9x/assessment-export/internal/config"
	"github.com/xkilldash9x/assessment-export/internal/hierarchy"
)

// ScoreFetcher retrieves the score set of one assessment.
type ScoreFetcher interface {
	GetAssessmentScores(ctx context.Context, businessUnitID, assessmentID string) (*schemas.ScoreSet, error)
}

// IdentityResolver maps a subId to a display identity. It must not fail.
type IdentityResolver interface {
	Resolve(ctx context.Context, subID string) schemas.Identity
}

// errFetchScores tags score retrieval failures so they are reported distinctly.
type errFetchScores struct{ err error }

func (e *errFetchScores) Error() string { return "failed to get scores: " + e.err.Error() }
func (e *errFetchScores) Unwrap() error { return e.err }

// Pipeline turns assessments into report rows. Failures are contained per
// assessment: the assessment is skipped and reported, the run continues.
type Pipeline struct {
	scores          ScoreFetcher
	identities      IdentityResolver
	includeItemRows bool
	logger          *zap.Logger
}

// NewPipeline creates a new results processing pipeline.
func NewPipeline(scores ScoreFetcher, identities IdentityResolver, cfg config.ReportConfig, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		scores:          scores,
		identities:      identities,
		includeItemRows: cfg.IncludeItemRows,
		logger:          logger.Named("results_pipeline"),
	}
}

// Process builds the rows of every assessment in order. Skipped assessments
// contribute no rows. It stops early only when ctx is done.
func (p *Pipeline) Process(ctx context.Context, tree *hierarchy.Tree, list []schemas.Assessment) []schemas.ReportRow {
	var rows []schemas.ReportRow
	skipped := 0

	for _, a := range list {
		if ctx.Err() != nil {
			break
		}
		built, err := p.processAssessment(ctx, tree, a)
		if err != nil {
			p.report(a, err)
			skipped++
			continue
		}
		rows = append(rows, built...)
	}

	p.logger.Debug("Results processing complete",
		zap.Int("assessments", len(list)),
		zap.Int("skipped", skipped),
		zap.Int("rows", len(rows)),
	)
	return rows
}

// processAssessment returns all rows of one assessment or none.
func (p *Pipeline) processAssessment(ctx context.Context, tree *hierarchy.Tree, a schemas.Assessment) (rows []schemas.ReportRow, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	set, err := p.scores.GetAssessmentScores(ctx, a.BusinessUnitID, a.AssessmentID)
	if err != nil {
		return nil, &errFetchScores{err: err}
	}

	summary, err := ExtractSummary(set)
	if err != nil {
		return nil, err
	}

	node, ok := tree.Lookup(a.BusinessUnitID)
	if !ok {
		return nil, fmt.Errorf("business unit %s is not part of the hierarchy", a.BusinessUnitID)
	}
	rc := NewRowContext(tree, node, a)

	p.logger.Info("Assessment summary",
		zap.String("hierarchy", rc.Hierarchy),
		zap.String("parentBusinessUnit", rc.ParentBusinessUnit.Or(schemas.PlaceholderLabel)),
		zap.String("businessUnit", rc.BusinessUnit.Or(schemas.PlaceholderLabel)),
		zap.String("assessment", rc.Assessment.Or(schemas.PlaceholderLabel)),
		zap.String("percentDone", summary.PercentDone.Or(schemas.PlaceholderLabel)+"%"),
		zap.String("questionCount", summary.QuestionCount.Or(schemas.PlaceholderLabel)),
	)

	rows = p.BuildRows(ctx, rc, set, summary)
	if !p.includeItemRows {
		for _, r := range rows {
			p.logger.Debug("Sub",
				zap.String("sub", r.Sub.Or(schemas.PlaceholderLabel)),
				zap.String("email", r.Email.Or(schemas.PlaceholderLabel)),
				zap.String("percentDone", r.PercentDone.Or(schemas.PlaceholderLabel)+"%"),
				zap.String("answered", r.Answered()),
			)
		}
	}
	return rows, nil
}

// report emits exactly one warning for a skipped assessment.
func (p *Pipeline) report(a schemas.Assessment, err error) {
	var fetchErr *errFetchScores
	switch {
	case errors.As(err, &fetchErr):
		p.logger.Warn("Failed to get scores",
			zap.String("assessment", a.DisplayName()),
			zap.Error(fetchErr.err),
		)
	case errors.Is(err, ErrNoSummary):
		p.logger.Warn("Summary Not Available for Assessment",
			zap.String("businessUnit", a.BusinessUnitName.Or(schemas.PlaceholderLabel)),
			zap.String("assessment", a.DisplayName()),
		)
	default:
		p.logger.Warn("Error handling assessment",
			zap.String("assessment", a.DisplayName()),
			zap.Error(err),
		)
	}
}
