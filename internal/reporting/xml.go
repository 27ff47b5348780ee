// File: internal/reporting/xml.go
package reporting

import (
	"io"
	"time"

	"github.com/beevik/etree"

	"github.com/xkilldash9x/assessment-export/api/schemas"
)

func encodeXML(w io.Writer, report *schemas.Report) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("assessmentReport")
	root.CreateAttr("runId", report.RunID)
	root.CreateAttr("generatedAt", report.GeneratedAt.UTC().Format(time.RFC3339))

	rows := root.CreateElement("rows")
	for _, row := range report.Rows {
		el := rows.CreateElement("row")
		el.CreateAttr("kind", string(row.Kind))
		for _, col := range report.Columns {
			el.CreateElement(string(col)).SetText(row.Value(col))
		}
	}

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}
