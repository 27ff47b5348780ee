// File: internal/reporting/delimited.go
package reporting

import (
	"encoding/csv"
	"io"

	"github.com/xkilldash9x/assessment-export/api/schemas"
)

// encodeDelimited writes the header followed by one record per row. A report
// without rows still gets its header.
func encodeDelimited(comma rune) encodeFunc {
	return func(w io.Writer, report *schemas.Report) error {
		cw := csv.NewWriter(w)
		cw.Comma = comma

		if err := cw.Write(report.Header()); err != nil {
			return err
		}
		for _, row := range report.Rows {
			if err := cw.Write(row.Values(report.Columns)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	}
}
