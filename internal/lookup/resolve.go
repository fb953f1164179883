package lookup

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/acsextract/internal/acs"
	"github.com/JonMunkholm/acsextract/internal/logging"
)

// HeaderMarker is the line-number suffix of title-only header rows. Such
// rows are never tabulated; they only extend the title prefix.
const HeaderMarker = ".5"

// Result is the outcome of resolving specs against a lookup table.
type Result struct {
	Index *acs.Index

	// Unmatched lists well-formed specs that selected no variable.
	Unmatched []Spec
}

// parseState is the per-table accumulator threaded through the fold over
// lookup rows. It is replaced wholesale whenever the table id changes.
type parseState struct {
	table      string
	tableName  string
	baseOffset int
	selected   selection
	prefix     string
}

// enter starts a new table at row.
func enter(row Row, sel selection) (parseState, error) {
	start, err := strconv.Atoi(row.StartPosition)
	if err != nil || start < 1 {
		return parseState{}, fmt.Errorf("%w: line %d: table %s: start position %q is not a positive integer",
			acs.ErrMalformedIndex, row.Line, row.TableID, row.StartPosition)
	}
	return parseState{
		table:      row.TableID,
		tableName:  strings.TrimSpace(row.Title),
		baseOffset: start - 1,
		selected:   sel,
	}, nil
}

// step folds one row of the current table into st, appending a variable to
// idx when the row is selected.
func step(st parseState, row Row, idx *acs.Index) (parseState, error) {
	// Universe and table-title rows carry no line number.
	if row.LineNumber == "" {
		return st, nil
	}

	title := strings.TrimSpace(row.Title)

	if strings.HasSuffix(row.LineNumber, HeaderMarker) {
		st.prefix = title + " "
		return st, nil
	}

	number, err := strconv.Atoi(row.LineNumber)
	if err != nil || number < 1 {
		return st, fmt.Errorf("%w: line %d: table %s: line number %q is not a positive integer",
			acs.ErrMalformedIndex, row.Line, row.TableID, row.LineNumber)
	}
	sequence, err := strconv.Atoi(row.Sequence)
	if err != nil {
		return st, fmt.Errorf("%w: line %d: table %s: sequence number %q is not an integer",
			acs.ErrMalformedIndex, row.Line, row.TableID, row.Sequence)
	}

	var name string
	if strings.HasSuffix(title, ":") {
		// A category starts a new hierarchy level rather than extending the old one.
		name = strings.TrimSuffix(title, ":")
		st.prefix = title + " "
	} else {
		name = st.prefix + title
	}

	if st.selected.has(number) {
		idx.Add(acs.Variable{
			Table:     st.table,
			Number:    number,
			Offset:    st.baseOffset + number - 1,
			Sequence:  sequence,
			Name:      name,
			TableName: st.tableName,
		})
	}
	return st, nil
}

// Resolve folds the lookup table rows into an index of the variables
// selected by specs. Rows of tables no spec names are skipped; a spec that
// matches nothing is reported in Result.Unmatched and logged, not failed.
func Resolve(ctx context.Context, table *Table, specs []Spec) (*Result, error) {
	logger := logging.FromContext(ctx)
	wanted := group(specs)
	idx := acs.NewIndex()

	var st parseState
	for _, row := range table.Rows {
		sel, ok := wanted[row.TableID]

		if row.TableID != st.table {
			if !ok {
				// Any table change resets state, including into a skipped table.
				st = parseState{table: row.TableID}
				continue
			}
			next, err := enter(row, sel)
			if err != nil {
				return nil, err
			}
			st = next
			logger.Info("reading table",
				"table", st.table,
				"vars", st.selected.describe(),
				"base_offset", st.baseOffset,
			)
		}
		if !ok {
			continue
		}

		next, err := step(st, row, idx)
		if err != nil {
			return nil, err
		}
		st = next
	}

	res := &Result{Index: idx, Unmatched: unmatched(specs, idx)}
	for _, spec := range res.Unmatched {
		logger.Warn("variable spec matched no variables", "spec", spec.String())
	}
	return res, nil
}

// ResolveStrings parses raw specs and resolves them.
func ResolveStrings(ctx context.Context, table *Table, raw []string) (*Result, error) {
	specs, err := ParseSpecs(raw)
	if err != nil {
		return nil, err
	}
	return Resolve(ctx, table, specs)
}

func unmatched(specs []Spec, idx *acs.Index) []Spec {
	vars := idx.Variables()
	var out []Spec
	for _, spec := range specs {
		found := false
		for _, v := range vars {
			if v.Table == spec.Table && spec.Matches(v.Number) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, spec)
		}
	}
	return out
}
