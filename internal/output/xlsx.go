package output

import (
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the table in .xlsx output.
const SheetName = "Data"

// writeXLSX writes every value as a string cell; values are never coerced.
func writeXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return err
	}

	if err := setRow(sw, 1, t.Columns); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := setRow(sw, i+2, t.record(row)); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	return f.Write(w)
}

func setRow(sw *excelize.StreamWriter, n int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return sw.SetRow(cell, row)
}
