// File: internal/reporting/json.go
package reporting

import (
	"io"
	"time"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/assessment-export/api/schemas"
)

// encodeJSON streams the report as one object. Row objects keep column order.
func encodeJSON(w io.Writer, report *schemas.Report) error {
	stream := json.NewStream(json.ConfigDefault, w, 4096)

	stream.WriteObjectStart()
	stream.WriteObjectField("runId")
	stream.WriteString(report.RunID)
	stream.WriteMore()
	stream.WriteObjectField("generatedAt")
	stream.WriteString(report.GeneratedAt.UTC().Format(time.RFC3339))
	stream.WriteMore()

	stream.WriteObjectField("columns")
	stream.WriteArrayStart()
	for i, h := range report.Header() {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteString(h)
	}
	stream.WriteArrayEnd()
	stream.WriteMore()

	stream.WriteObjectField("rows")
	stream.WriteArrayStart()
	for i, row := range report.Rows {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectStart()
		for j, col := range report.Columns {
			if j > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(string(col))
			stream.WriteString(row.Value(col))
		}
		stream.WriteObjectEnd()
	}
	stream.WriteArrayEnd()
	stream.WriteObjectEnd()
	stream.WriteRaw("\n")

	if stream.Error != nil {
		return stream.Error
	}
	return stream.Flush()
}
