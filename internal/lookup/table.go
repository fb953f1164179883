package lookup

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/acsextract/internal/acs"
	"github.com/JonMunkholm/acsextract/internal/source"
)

// Lookup table column headers.
const (
	ColTableID       = "Table ID"
	ColTableTitle    = "Table Title"
	ColLineNumber    = "Line Number"
	ColSequence      = "Sequence Number"
	ColStartPosition = "Start Position"
)

var requiredColumns = []string{ColTableID, ColTableTitle, ColLineNumber, ColSequence, ColStartPosition}

// Row is one lookup table row with its fields kept as text.
type Row struct {
	Line          int // 1-based line in the lookup file, for error messages
	TableID       string
	Title         string
	LineNumber    string
	Sequence      string
	StartPosition string
}

// Table is a parsed lookup table in file order.
type Table struct {
	Rows []Row
}

// Tables returns the distinct table ids in first-seen order.
func (t *Table) Tables() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range t.Rows {
		if !seen[r.TableID] {
			seen[r.TableID] = true
			ids = append(ids, r.TableID)
		}
	}
	return ids
}

// headerIndex maps cleaned header names to column positions.
type headerIndex map[string]int

func makeHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func (h headerIndex) position(name string) (int, bool) {
	pos, ok := h[strings.ToLower(name)]
	return pos, ok
}

// ReadTable parses a lookup table from r. The first record is the header;
// a UTF-8 BOM and header whitespace are ignored.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(source.WrapText(r, 0))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", acs.ErrMalformedIndex)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", acs.ErrMalformedIndex, err)
	}

	hdr := makeHeaderIndex(header)
	pos := make(map[string]int, len(requiredColumns))
	for _, col := range requiredColumns {
		p, ok := hdr.position(col)
		if !ok {
			return nil, fmt.Errorf("%w: missing required column %q", acs.ErrMalformedIndex, col)
		}
		pos[col] = p
	}

	field := func(rec []string, col string) string {
		p := pos[col]
		if p >= len(rec) {
			return ""
		}
		return rec[p]
	}

	table := &Table{}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", acs.ErrMalformedIndex, line, err)
		}

		id := strings.TrimSpace(field(rec, ColTableID))
		if id == "" {
			continue
		}
		table.Rows = append(table.Rows, Row{
			Line:          line,
			TableID:       id,
			Title:         field(rec, ColTableTitle),
			LineNumber:    strings.TrimSpace(field(rec, ColLineNumber)),
			Sequence:      strings.TrimSpace(field(rec, ColSequence)),
			StartPosition: strings.TrimSpace(field(rec, ColStartPosition)),
		})
	}

	return table, nil
}

// LoadTable opens location (path or storage URL) and parses it.
func LoadTable(ctx context.Context, location string) (*Table, error) {
	rc, _, err := source.OpenLocation(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("lookup table: %w", err)
	}
	defer rc.Close()

	table, err := ReadTable(rc)
	if err != nil {
		return nil, fmt.Errorf("lookup table %s: %w", location, err)
	}
	return table, nil
}
