// Package assemble joins sequence data files against the geography map and
// collects one output row per geoid.
//
// Every sequence of the index is read twice, estimates first and margins of
// error second. Each data line is looked up by its logical record number;
// lines of the wrong summary level are dropped and the rest have the value at
// every variable's offset copied, as text, into the row of their geoid.
package assemble

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/JonMunkholm/acsextract/internal/acs"
	"github.com/JonMunkholm/acsextract/internal/logging"
	"github.com/JonMunkholm/acsextract/internal/source"
)

// DefaultRecordColumn is the data-file column holding the logical record number.
const DefaultRecordColumn = 5

// Opener opens the data file of one sequence.
type Opener interface {
	OpenData(ctx context.Context, kind source.Kind, sequence int) (io.ReadCloser, int64, error)
}

// Options controls an assembly.
type Options struct {
	Geography    acs.GeoType // tract or block group; required
	LongTitles   bool
	RecordColumn int // 0 means DefaultRecordColumn
}

// Result is the assembled table.
type Result struct {
	// Columns is the sorted union of every column written, including geoid.
	Columns []string
	// Rows are in the order their geoid was first seen.
	Rows []*acs.OutputRow
}

// Assembler accumulates rows across sequences. It is not safe for
// concurrent use.
type Assembler struct {
	index *acs.Index
	geo   acs.GeographyMap
	files Opener
	opts  Options

	rows    map[string]*acs.OutputRow
	order   []string
	columns map[string]struct{}
}

// New returns an assembler over a resolved index and geography map.
func New(index *acs.Index, geo acs.GeographyMap, files Opener, opts Options) (*Assembler, error) {
	if opts.Geography != acs.GeoTract && opts.Geography != acs.GeoBlockGroup {
		return nil, fmt.Errorf("%w: geography filter must be tract or blockgroup, got %q", acs.ErrConfig, opts.Geography)
	}
	if opts.RecordColumn == 0 {
		opts.RecordColumn = DefaultRecordColumn
	}
	if opts.RecordColumn < 0 {
		return nil, fmt.Errorf("%w: record column %d is negative", acs.ErrConfig, opts.RecordColumn)
	}

	return &Assembler{
		index:   index,
		geo:     geo,
		files:   files,
		opts:    opts,
		rows:    make(map[string]*acs.OutputRow),
		columns: map[string]struct{}{acs.GeoidColumn: {}},
	}, nil
}

// Run reads every sequence file pair and returns the assembled table.
func (a *Assembler) Run(ctx context.Context) (*Result, error) {
	logger := logging.FromContext(ctx)

	for name, keys := range acs.ColumnCollisions(a.index.Variables(), a.opts.LongTitles) {
		logger.Warn("variables share a column name; later values overwrite earlier ones",
			"column", name, "variables", keys)
	}

	for _, seq := range a.index.Sequences {
		vars := a.index.BySequence[seq]
		for _, kind := range source.Kinds {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := a.readFile(ctx, kind, seq, vars); err != nil {
				return nil, err
			}
		}
	}

	return a.result(), nil
}

func (a *Assembler) readFile(ctx context.Context, kind source.Kind, seq int, vars []acs.Variable) error {
	logger := logging.WithFields(ctx, "sequence", seq, "kind", kind.String())

	rc, size, err := a.files.OpenData(ctx, kind, seq)
	if err != nil {
		return fmt.Errorf("sequence %d %s: %w", seq, kind, err)
	}
	defer rc.Close()

	// Column names depend only on the variable and kind.
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = acs.ColumnName(v, kind.IsMOE(), a.opts.LongTitles)
	}

	counter := source.NewCountingReader(rc, size)
	cr := csv.NewReader(counter)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	lines, kept := 0, 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		lines++
		if err != nil {
			logger.Warn("sequence file rejected", "line", lines, "progress", counter.Progress())
			return fmt.Errorf("%w: sequence %d %s: line %d: %v", acs.ErrMalformedData, seq, kind, lines, err)
		}

		ok, err := a.line(record, vars, names)
		if err != nil {
			logger.Warn("sequence file rejected", "line", lines, "progress", counter.Progress())
			return fmt.Errorf("sequence %d %s: line %d: %w", seq, kind, lines, err)
		}
		if ok {
			kept++
		}
	}

	logger.Info("read sequence file",
		"lines", lines,
		"kept", kept,
		"bytes", counter.BytesRead,
		"progress", counter.Progress(),
	)
	return nil
}

// line merges one data record. It reports whether the record passed the
// geography filter.
func (a *Assembler) line(record []string, vars []acs.Variable, names []string) (bool, error) {
	if a.opts.RecordColumn >= len(record) {
		return false, fmt.Errorf("%w: record has %d fields, logical record number is field %d",
			acs.ErrFieldOutOfRange, len(record), a.opts.RecordColumn)
	}

	logrecno := record[a.opts.RecordColumn]
	rec, ok := a.geo[logrecno]
	if !ok {
		return false, fmt.Errorf("%w: %q", acs.ErrUnknownRecord, logrecno)
	}
	if rec.Type != a.opts.Geography {
		return false, nil
	}

	row := a.row(rec.Geoid)
	for i, v := range vars {
		if v.Offset >= len(record) {
			return false, fmt.Errorf("%w: %s at offset %d, record has %d fields",
				acs.ErrFieldOutOfRange, v.Key(), v.Offset, len(record))
		}
		row.Values[names[i]] = record[v.Offset]
		a.columns[names[i]] = struct{}{}
	}
	return true, nil
}

func (a *Assembler) row(geoid string) *acs.OutputRow {
	if row, ok := a.rows[geoid]; ok {
		return row
	}
	row := &acs.OutputRow{Geoid: geoid, Values: make(map[string]string)}
	a.rows[geoid] = row
	a.order = append(a.order, geoid)
	return row
}

func (a *Assembler) result() *Result {
	columns := make([]string, 0, len(a.columns))
	for c := range a.columns {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	rows := make([]*acs.OutputRow, len(a.order))
	for i, geoid := range a.order {
		rows[i] = a.rows[geoid]
	}
	return &Result{Columns: columns, Rows: rows}
}

// Assemble runs a one-shot assembly.
func Assemble(ctx context.Context, index *acs.Index, geo acs.GeographyMap, files Opener, opts Options) (*Result, error) {
	a, err := New(index, geo, files, opts)
	if err != nil {
		return nil, err
	}
	return a.Run(ctx)
}
