// File: api/schemas/report.go
package schemas

import (
	"fmt"
	"time"
)

// Placeholders substituted for missing values at render time.
const (
	// PlaceholderLabel stands in for identity and label fields.
	PlaceholderLabel = "N/A"
	// PlaceholderMetric stands in for score, percent and answer-count fields.
	PlaceholderMetric = "(N/A)"
)

// Column names a report column. The string value is the header text.
type Column string

const (
	ColumnHierarchy          Column = "Hierarchy"
	ColumnParentBusinessUnit Column = "ParentBusinessUnit"
	ColumnBusinessUnit       Column = "BusinessUnit"
	ColumnAssessment         Column = "Assessment"
	ColumnItemID             Column = "ItemId"
	ColumnSub                Column = "Sub"
	ColumnEmail              Column = "Email"
	ColumnScore              Column = "Score"
	ColumnLastModifiedAt     Column = "LastModifiedAt"
	ColumnPercentDone        Column = "PercentDone"
	ColumnAnswered           Column = "Answered"
)

// ScoreColumns is the header used when item-level rows are included.
var ScoreColumns = []Column{
	ColumnHierarchy,
	ColumnParentBusinessUnit,
	ColumnBusinessUnit,
	ColumnAssessment,
	ColumnItemID,
	ColumnSub,
	ColumnEmail,
	ColumnScore,
	ColumnLastModifiedAt,
	ColumnPercentDone,
	ColumnAnswered,
}

// StatusColumns is the header of the sub-only report.
var StatusColumns = []Column{
	ColumnHierarchy,
	ColumnParentBusinessUnit,
	ColumnBusinessUnit,
	ColumnAssessment,
	ColumnSub,
	ColumnEmail,
	ColumnPercentDone,
	ColumnAnswered,
}

// ColumnsFor returns the header matching a report shape.
func ColumnsFor(includeItemRows bool) []Column {
	if includeItemRows {
		return ScoreColumns
	}
	return StatusColumns
}

// RowKind distinguishes item aggregate rows from per-sub rows.
type RowKind string

const (
	RowKindItem RowKind = "item"
	RowKindSub  RowKind = "sub"
)

// ReportRow is a single output row. Optional fields stay unset until Value
// renders them.
//
// Numbers render in their shortest exact decimal form: a percentDone of 50.0
// is written as "50", 33.5 as "33.5". Values the server sent in another shape,
// such as a count of 4.0 or "3", are written exactly as sent.
type ReportRow struct {
	Kind               RowKind
	Hierarchy          string
	ParentBusinessUnit Optional[string]
	BusinessUnit       Optional[string]
	Assessment         Optional[string]
	ItemID             Optional[string]
	Sub                Optional[string]
	Email              Optional[string]
	Score              Optional[string]
	LastModifiedAt     Optional[string]
	PercentDone        Optional[float64]
	AnswerCount        Optional[int]
	QuestionCount      Optional[int]
}

// Answered renders the "answered/questions" pair.
func (r ReportRow) Answered() string {
	return fmt.Sprintf("%s/%s", r.AnswerCount.Or(PlaceholderMetric), r.QuestionCount.Or(PlaceholderMetric))
}

// Value renders one column of the row with placeholders applied.
func (r ReportRow) Value(c Column) string {
	switch c {
	case ColumnHierarchy:
		return r.Hierarchy
	case ColumnParentBusinessUnit:
		return r.ParentBusinessUnit.Or(PlaceholderLabel)
	case ColumnBusinessUnit:
		return r.BusinessUnit.Or(PlaceholderLabel)
	case ColumnAssessment:
		return r.Assessment.Or(PlaceholderLabel)
	case ColumnItemID:
		return r.ItemID.Or(PlaceholderLabel)
	case ColumnSub:
		if r.Kind == RowKindItem {
			return ""
		}
		return r.Sub.Or(PlaceholderLabel)
	case ColumnEmail:
		if r.Kind == RowKindItem {
			return ""
		}
		return r.Email.Or(PlaceholderLabel)
	case ColumnScore:
		return r.Score.Or(PlaceholderMetric)
	case ColumnLastModifiedAt:
		if r.Kind == RowKindItem {
			return PlaceholderLabel
		}
		return r.LastModifiedAt.Or(PlaceholderMetric)
	case ColumnPercentDone:
		return r.PercentDone.Or(PlaceholderMetric)
	case ColumnAnswered:
		return r.Answered()
	default:
		return ""
	}
}

// Values renders the row for the given header.
func (r ReportRow) Values(columns []Column) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = r.Value(c)
	}
	return out
}

// Report is the envelope handed to a reporter.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Columns     []Column
	Rows        []ReportRow
}

// Header returns the column names as strings.
func (r *Report) Header() []string {
	out := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		out[i] = string(c)
	}
	return out
}
