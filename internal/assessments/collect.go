// File: internal/assessments/collect.go
package assessments

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/assessment-export/api/schemas"
	"github.com/xkilldash9x/assessment-export/internal/hierarchy"
)

// Lister lists the assessments of one business unit.
type Lister interface {
	ListAssessments(ctx context.Context, businessUnitID string) ([]schemas.Assessment, error)
}

// Collect issues one listing per node and concatenates the results, keeping
// node order and the server's order within each node. A listing failure
// aborts the whole collection.
func Collect(ctx context.Context, lister Lister, nodes []hierarchy.Node, logger *zap.Logger) ([]schemas.Assessment, error) {
	var all []schemas.Assessment
	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := n.Name.Or(schemas.PlaceholderLabel)
		logger.Info("Getting Assessments", zap.String("businessUnit", name))

		found, err := lister.ListAssessments(ctx, n.ID)
		if err != nil {
			return nil, fmt.Errorf("listing assessments for business unit %q (%s): %w", name, n.ID, err)
		}
		logger.Info(fmt.Sprintf("Found %d Assessment(s)", len(found)), zap.String("businessUnit", name))
		all = append(all, found...)
	}
	return all, nil
}
