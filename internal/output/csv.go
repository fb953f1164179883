package output

import (
	"encoding/csv"
	"io"
)

func writeCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(t.record(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
