// File: api/schemas/schemas_test.go
package schemas

import (
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_UnmarshalJSON(t *testing.T) {
	var payload struct {
		Present Optional[float64] `json:"present"`
		Null    Optional[float64] `json:"null"`
		Absent  Optional[float64] `json:"absent"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"present": 42.5, "null": null}`), &payload))

	assert.True(t, payload.Present.Set)
	assert.Equal(t, 42.5, payload.Present.Value)
	assert.False(t, payload.Null.Set, "null should be treated as missing")
	assert.False(t, payload.Absent.Set)
}

func TestOptional_Or(t *testing.T) {
	assert.Equal(t, "N/A", Optional[string]{}.Or("N/A"))
	assert.Equal(t, "Acme", Some("Acme").Or("N/A"))
	assert.Equal(t, "50", Some(50.0).Or("(N/A)"))
	assert.Equal(t, "12.25", Some(12.25).Or("(N/A)"))
	assert.Equal(t, "7", Some(7).Or("(N/A)"))
	assert.Equal(t, "(N/A)", Optional[int]{}.Or("(N/A)"))
}

func TestOptional_RawScore(t *testing.T) {
	var s Score
	require.NoError(t, json.Unmarshal([]byte(`{"itemId":"q1","score":{"value": 3}}`), &s))
	assert.Equal(t, `{"value":3}`, s.Score.Or("(N/A)"))

	require.NoError(t, json.Unmarshal([]byte(`{"itemId":"q1","score":"high"}`), &s))
	assert.Equal(t, "high", s.Score.Text().Value)

	var missing Score
	require.NoError(t, json.Unmarshal([]byte(`{"itemId":"q1"}`), &missing))
	assert.False(t, missing.Score.Text().Set)
}

func TestOptional_KeepsUnexpectedTokens(t *testing.T) {
	var sub Sub
	require.NoError(t, json.Unmarshal([]byte(`{"subId":"u1","percentDone":"12.5","questionCount":4.0,"answerCount":"3"}`), &sub))

	assert.True(t, sub.QuestionCount.Set)
	assert.Equal(t, "4.0", sub.QuestionCount.Or("(N/A)"))
	assert.Equal(t, "3", sub.AnswerCount.Text().Value)
	assert.Equal(t, "12.5", sub.PercentDone.Or("(N/A)"))

	v, ok := sub.AnswerCount.Get()
	assert.False(t, ok)
	assert.Zero(t, v)

	out, err := json.Marshal(sub.QuestionCount)
	require.NoError(t, err)
	assert.Equal(t, "4.0", string(out), "kept tokens marshal back unchanged")

	row := ReportRow{Kind: RowKindSub, AnswerCount: sub.AnswerCount, QuestionCount: sub.QuestionCount}
	assert.Equal(t, "3/4.0", row.Answered())
}

func TestOptional_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		A Optional[string] `json:"a"`
		B Optional[string] `json:"b"`
	}{A: Some("x")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"x","b":null}`, string(out))
}

func TestScore_IsSummary(t *testing.T) {
	assert.True(t, Score{ItemID: Some(SummaryItemID)}.IsSummary())
	assert.False(t, Score{ItemID: Some("item-1")}.IsSummary())
	assert.False(t, Score{}.IsSummary())
}

func TestReportRow_Values(t *testing.T) {
	t.Run("item row uses fixed blanks", func(t *testing.T) {
		row := ReportRow{
			Kind:          RowKindItem,
			Hierarchy:     "Root > Child",
			BusinessUnit:  Some("Child"),
			Assessment:    Some("Q1"),
			ItemID:        Some("summary"),
			PercentDone:   Some(75.0),
			QuestionCount: Some(4),
		}

		got := row.Values(ScoreColumns)
		assert.Equal(t, []string{
			"Root > Child", "N/A", "Child", "Q1", "summary", "", "", "(N/A)", "N/A", "75", "(N/A)/4",
		}, got)
	})

	t.Run("sub row renders identity and metric placeholders", func(t *testing.T) {
		row := ReportRow{
			Kind:               RowKindSub,
			Hierarchy:          "Root",
			ParentBusinessUnit: Some("Top"),
			BusinessUnit:       Some("Root"),
			Assessment:         Some("Q1"),
			ItemID:             Some("summary"),
			Sub:                Some("Jane"),
			AnswerCount:        Some(2),
			QuestionCount:      Some(4),
		}

		got := row.Values(StatusColumns)
		assert.Equal(t, []string{"Root", "Top", "Root", "Q1", "Jane", "N/A", "(N/A)", "2/4"}, got)
		assert.Equal(t, "(N/A)", row.Value(ColumnLastModifiedAt))
	})
}

func TestReportRow_NumberRendering(t *testing.T) {
	row := ReportRow{Kind: RowKindSub, PercentDone: Some(50.0), AnswerCount: Some(3), QuestionCount: Some(4)}
	assert.Equal(t, "50", row.Value(ColumnPercentDone), "whole floats drop the trailing .0")

	row.PercentDone = Some(33.5)
	assert.Equal(t, "33.5", row.Value(ColumnPercentDone))

	var sent Optional[float64]
	require.NoError(t, json.Unmarshal([]byte(`"50.0"`), &sent))
	row.PercentDone = sent
	assert.Equal(t, "50.0", row.Value(ColumnPercentDone), "unexpected shapes are written as sent")
}

func TestColumnsFor(t *testing.T) {
	assert.Len(t, ColumnsFor(true), 11)
	assert.Len(t, ColumnsFor(false), 8)
	assert.NotContains(t, ColumnsFor(false), ColumnItemID)

	r := &Report{Columns: StatusColumns}
	assert.Equal(t, "Hierarchy", r.Header()[0])
}
