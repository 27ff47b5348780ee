// internal/reporting/reporter_test.go
package reporting_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/xkilldash9x/assessment-export/api/schemas"
	"github.com/xkilldash9x/assessment-export/internal/reporting"
)

func sampleReport(rows ...schemas.ReportRow) *schemas.Report {
	return &schemas.Report{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Columns:     schemas.ScoreColumns,
		Rows:        rows,
	}
}

func sampleRows() []schemas.ReportRow {
	return []schemas.ReportRow{
		{
			Kind: schemas.RowKindItem, Hierarchy: "Root > Child",
			ParentBusinessUnit: schemas.Some("Root"), BusinessUnit: schemas.Some("Child"),
			Assessment: schemas.Some("Q1, 2024"), ItemID: schemas.Some("summary"),
			PercentDone: schemas.Some(50.0), AnswerCount: schemas.Some(2), QuestionCount: schemas.Some(4),
		},
		{
			Kind: schemas.RowKindSub, Hierarchy: "Root > Child",
			ParentBusinessUnit: schemas.Some("Root"), BusinessUnit: schemas.Some("Child"),
			Assessment: schemas.Some("Q1, 2024"), ItemID: schemas.Some("summary"),
			Sub: schemas.Some("Jane"), Email: schemas.Some("jane@example.com"),
		},
	}
}

// render writes report in format to a temp file and returns the bytes.
func render(t *testing.T, format string, report *schemas.Report) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out."+format)

	r, err := reporting.New(format, path)
	require.NoError(t, err)
	require.NoError(t, r.Write(report))
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestNew_Stdout(t *testing.T) {
	for _, path := range []string{"", "stdout"} {
		r, err := reporting.New("csv", path)
		require.NoError(t, err)
		// Closing without a report writes nothing and leaves stdout open.
		assert.NoError(t, r.Close())
	}
}

func TestNew_Failure(t *testing.T) {
	t.Run("unsupported format creates no file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.pdf")
		r, err := reporting.New("pdf", path)
		assert.Nil(t, r)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported output format: pdf")
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("unwritable path", func(t *testing.T) {
		_, err := reporting.New("csv", filepath.Join(t.TempDir(), "missing", "out.csv"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create output file")
	})
}

func TestReporter_Lifecycle(t *testing.T) {
	r, err := reporting.New("csv", filepath.Join(t.TempDir(), "out.csv"))
	require.NoError(t, err)

	assert.Error(t, r.Write(nil))
	require.NoError(t, r.Close())
	assert.NoError(t, r.Close(), "second close is a no-op")
	assert.Error(t, r.Write(sampleReport()), "writes after close are rejected")
}

func TestCSV(t *testing.T) {
	t.Run("header and rows", func(t *testing.T) {
		records, err := csv.NewReader(bytes.NewReader(render(t, "csv", sampleReport(sampleRows()...)))).ReadAll()
		require.NoError(t, err)

		require.Len(t, records, 3)
		assert.Equal(t, []string{
			"Hierarchy", "ParentBusinessUnit", "BusinessUnit", "Assessment", "ItemId",
			"Sub", "Email", "Score", "LastModifiedAt", "PercentDone", "Answered",
		}, records[0])
		assert.Equal(t, "Q1, 2024", records[1][3], "commas are quoted")
		assert.Equal(t, []string{"Root > Child", "Root", "Child", "Q1, 2024", "summary", "Jane", "jane@example.com", "(N/A)", "(N/A)", "(N/A)", "(N/A)/(N/A)"}, records[2])
	})

	t.Run("no rows still writes the header", func(t *testing.T) {
		out := render(t, "csv", sampleReport())
		assert.Equal(t, "Hierarchy,ParentBusinessUnit,BusinessUnit,Assessment,ItemId,Sub,Email,Score,LastModifiedAt,PercentDone,Answered\n", string(out))
	})

	t.Run("status columns", func(t *testing.T) {
		report := sampleReport()
		report.Columns = schemas.StatusColumns
		out := render(t, "csv", report)
		assert.Equal(t, "Hierarchy,ParentBusinessUnit,BusinessUnit,Assessment,Sub,Email,PercentDone,Answered\n", string(out))
	})
}

func TestTSV(t *testing.T) {
	out := string(render(t, "tsv", sampleReport(sampleRows()...)))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Len(t, strings.Split(lines[0], "\t"), 11)
}

func TestJSON(t *testing.T) {
	var doc struct {
		RunID       string              `json:"runId"`
		GeneratedAt string              `json:"generatedAt"`
		Columns     []string            `json:"columns"`
		Rows        []map[string]string `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(render(t, "json", sampleReport(sampleRows()...)), &doc))

	assert.Equal(t, "run-1", doc.RunID)
	assert.Equal(t, "2024-05-01T12:00:00Z", doc.GeneratedAt)
	assert.Len(t, doc.Columns, 11)
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, "2/4", doc.Rows[0]["Answered"])
	assert.Equal(t, "N/A", doc.Rows[0]["LastModifiedAt"])
	assert.Equal(t, "Jane", doc.Rows[1]["Sub"])
}

func TestXML(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(render(t, "xml", sampleReport(sampleRows()...))))

	root := doc.SelectElement("assessmentReport")
	require.NotNil(t, root)
	assert.Equal(t, "run-1", root.SelectAttrValue("runId", ""))

	rows := root.FindElements("./rows/row")
	require.Len(t, rows, 2)
	assert.Equal(t, "item", rows[0].SelectAttrValue("kind", ""))
	assert.Equal(t, "Root > Child", rows[0].SelectElement("Hierarchy").Text())
	assert.Equal(t, "jane@example.com", rows[1].SelectElement("Email").Text())
}

func TestXLSX(t *testing.T) {
	f, err := excelize.OpenReader(bytes.NewReader(render(t, "xlsx", sampleReport(sampleRows()...))))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(reporting.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Hierarchy", rows[0][0])
	assert.Equal(t, "Answered", rows[0][10])
	assert.Equal(t, "2/4", rows[1][10])
	assert.Equal(t, "Jane", rows[2][5])
}
