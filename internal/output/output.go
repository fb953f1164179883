// Package output writes assembled tables and their README.
//
// Files are written to a temporary file next to the destination and renamed
// into place once complete, so a failed run never leaves a partial output.
package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/acsextract/internal/acs"
	"github.com/JonMunkholm/acsextract/internal/logging"
)

// Format is an output file format.
type Format int

const (
	CSV Format = iota
	XLSX
)

func (f Format) String() string {
	if f == XLSX {
		return "xlsx"
	}
	return "csv"
}

// FormatFor picks the format from the path extension. Anything other than
// ".xlsx" is CSV.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return XLSX
	}
	return CSV
}

// Table is the data written by WriteTable.
type Table struct {
	Columns []string
	Rows    []*acs.OutputRow
}

// record returns row's values in column order; absent columns are "".
func (t Table) record(row *acs.OutputRow) []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = row.Get(c)
	}
	return out
}

// WriteTable writes t to path in the format its extension selects.
func WriteTable(ctx context.Context, path string, t Table) error {
	format := FormatFor(path)

	var err error
	switch format {
	case XLSX:
		err = writeAtomic(path, func(w io.Writer) error { return writeXLSX(w, t) })
	default:
		err = writeAtomic(path, func(w io.Writer) error { return writeCSV(w, t) })
	}
	if err != nil {
		return err
	}

	logging.FromContext(ctx).Info("wrote output",
		"path", path,
		"format", format.String(),
		"rows", len(t.Rows),
		"columns", len(t.Columns),
	)
	return nil
}

// writeAtomic streams fill into a temporary file in path's directory and
// renames it to path on success.
func writeAtomic(path string, fill func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", acs.ErrOutput, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = fill(tmp); err != nil {
		return fmt.Errorf("%w: %s: %v", acs.ErrOutput, path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", acs.ErrOutput, path, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", acs.ErrOutput, path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %s: %v", acs.ErrOutput, path, err)
	}
	return nil
}
