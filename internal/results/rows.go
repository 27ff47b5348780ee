// File: internal/results/rows.go
package results

import (
	"context"

	"github.com/xkilldash9x/assessment-export/api/schemas"
	"github.com/xkilldash9x/assessment-export/internal/hierarchy"
)

// RowContext carries the columns shared by every row of one assessment.
type RowContext struct {
	Hierarchy          string
	ParentBusinessUnit schemas.Optional[string]
	BusinessUnit       schemas.Optional[string]
	Assessment         schemas.Optional[string]
}

// NewRowContext places an assessment within the flattened tree. Unit and
// assessment labels come from the assessment record itself.
func NewRowContext(tree *hierarchy.Tree, node hierarchy.Node, a schemas.Assessment) RowContext {
	return RowContext{
		Hierarchy:          tree.Path(node),
		ParentBusinessUnit: tree.ParentName(node),
		BusinessUnit:       a.BusinessUnitName,
		Assessment:         a.AssessmentName,
	}
}

func (rc RowContext) row(kind schemas.RowKind) schemas.ReportRow {
	return schemas.ReportRow{
		Kind:               kind,
		Hierarchy:          rc.Hierarchy,
		ParentBusinessUnit: rc.ParentBusinessUnit,
		BusinessUnit:       rc.BusinessUnit,
		Assessment:         rc.Assessment,
	}
}

// BuildRows expands one score set into report rows. With item rows enabled
// every score yields an aggregate row followed by one row per sub; otherwise
// only the subs of summary are emitted.
func (p *Pipeline) BuildRows(ctx context.Context, rc RowContext, set *schemas.ScoreSet, summary schemas.Score) []schemas.ReportRow {
	if !p.includeItemRows {
		rows := make([]schemas.ReportRow, 0, len(summary.Subs))
		for _, sub := range summary.Subs {
			rows = append(rows, p.subRow(ctx, rc, summary, sub))
		}
		return rows
	}

	var rows []schemas.ReportRow
	for _, score := range set.Scores {
		rows = append(rows, itemRow(rc, score))
		for _, sub := range score.Subs {
			rows = append(rows, p.subRow(ctx, rc, score, sub))
		}
	}
	return rows
}

func itemRow(rc RowContext, score schemas.Score) schemas.ReportRow {
	row := rc.row(schemas.RowKindItem)
	row.ItemID = score.ItemID
	row.Score = score.Score.Text()
	row.PercentDone = score.PercentDone
	row.AnswerCount = score.AnswerCount
	row.QuestionCount = score.QuestionCount
	return row
}

func (p *Pipeline) subRow(ctx context.Context, rc RowContext, parent schemas.Score, sub schemas.Sub) schemas.ReportRow {
	id := p.identities.Resolve(ctx, sub.SubID)

	row := rc.row(schemas.RowKindSub)
	row.ItemID = parent.ItemID
	row.Sub = id.DisplayName
	row.Email = id.Email
	row.Score = sub.Score.Text()
	row.LastModifiedAt = sub.LastModifiedAt
	row.PercentDone = sub.PercentDone
	row.AnswerCount = sub.AnswerCount
	row.QuestionCount = sub.QuestionCount
	return row
}
