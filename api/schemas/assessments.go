// File: api/schemas/assessments.go
package schemas

import json "github.com/json-iterator/go"

// SummaryItemID marks the Score row that aggregates a whole assessment.
const SummaryItemID = "summary"

// BusinessUnit is an organizational node as delivered by the scoring service.
// Children keep the order the server listed them in. Parent links are not part
// of the wire format; see internal/hierarchy.
type BusinessUnit struct {
	ID       string           `json:"businessUnitId"`
	Name     Optional[string] `json:"name"`
	Children []BusinessUnit   `json:"businessUnits,omitempty"`
}

// Assessment is a risk-assessment instance scoped to one business unit.
type Assessment struct {
	BusinessUnitID   string           `json:"businessUnitId"`
	BusinessUnitName Optional[string] `json:"businessUnitName"`
	AssessmentID     string           `json:"assessmentId"`
	AssessmentName   Optional[string] `json:"assessmentName"`
	AssessmentTypeID string           `json:"assessmentTypeId"`
}

// DisplayName is the assessment name used in operator messages.
func (a Assessment) DisplayName() string {
	return a.AssessmentName.Or("Unknown Assessment")
}

// ScoreSet is the full scoring payload for one assessment.
type ScoreSet struct {
	BusinessUnitID   string            `json:"businessUnitId"`
	AssessmentID     string            `json:"assessmentId"`
	AssessmentTypeID string            `json:"assessmentTypeId"`
	ScoreLabels      []json.RawMessage `json:"scoreLabels,omitempty"`
	TargetLabels     []json.RawMessage `json:"targetLabels,omitempty"`
	Scores           []Score           `json:"scores"`
}

// Score is either the assessment summary or a single line item.
type Score struct {
	ItemID                 Optional[string]          `json:"itemId"`
	PercentDone            Optional[float64]         `json:"percentDone"`
	QuestionCount          Optional[int]             `json:"questionCount"`
	AnswerCount            Optional[int]             `json:"answerCount"`
	AspectPercentDone      Optional[float64]         `json:"aspectPercentDone"`
	AspectTotalAnswerCount Optional[int]             `json:"aspectTotalAnswerCount"`
	AspectTotalCount       Optional[int]             `json:"aspectTotalCount"`
	Score                  Optional[json.RawMessage] `json:"score"`
	Subs                   []Sub                     `json:"subs,omitempty"`
}

// IsSummary reports whether this is the distinguished summary row.
func (s Score) IsSummary() bool {
	id, ok := s.ItemID.Get()
	return ok && id == SummaryItemID
}

// Sub is one contributing scope within a Score: a user, a rolled-up child
// assessment, or an override sentinel.
type Sub struct {
	SubID          string                    `json:"subId"`
	PercentDone    Optional[float64]         `json:"percentDone"`
	QuestionCount  Optional[int]             `json:"questionCount"`
	AnswerCount    Optional[int]             `json:"answerCount"`
	Score          Optional[json.RawMessage] `json:"score"`
	LastModifiedAt Optional[string]          `json:"lastModifiedAt"`
}

// User is the identity record returned by the user endpoint.
type User struct {
	DisplayName Optional[string] `json:"displayName"`
	Email       Optional[string] `json:"email"`
}

// Identity is the resolved, human readable form of a Sub's subId.
type Identity struct {
	SubID       string
	DisplayName Optional[string]
	Email       Optional[string]
}
