// File: internal/results/summary.go
package results

import (
	"errors"

	"github.com/xkilldash9x/assessment-export/api/schemas"
)

// ErrNoSummary marks a score set without a summary row. The assessment is
// skipped rather than failing the run.
var ErrNoSummary = errors.New("summary not available for assessment")

// ExtractSummary returns the first score whose itemId is "summary".
func ExtractSummary(set *schemas.ScoreSet) (schemas.Score, error) {
	if set == nil {
		return schemas.Score{}, ErrNoSummary
	}
	for _, s := range set.Scores {
		if s.IsSummary() {
			return s, nil
		}
	}
	return schemas.Score{}, ErrNoSummary
}
