// File: internal/reporting/xlsx.go
package reporting

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/xkilldash9x/assessment-export/api/schemas"
)

// SheetName is the worksheet holding the report.
const SheetName = "Report"

func encodeXLSX(w io.Writer, report *schemas.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	header := report.Header()
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range report.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row.Values(report.Columns)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	last, err := excelize.CoordinatesToCellName(len(header), len(report.Rows)+1)
	if err != nil {
		return err
	}
	if err := f.AutoFilter(SheetName, "A1:"+last, nil); err != nil {
		return fmt.Errorf("adding filter: %w", err)
	}

	return f.Write(w)
}
