// Package lookup resolves variable specifications against a summary-file
// lookup table.
//
// The lookup table lists every tabulated line of every table together with
// the sequence file and start position it is stored at. Resolution is a
// single fold over its rows (see Resolve) that reconstructs hierarchical
// titles as it goes.
package lookup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/acsextract/internal/acs"
)

// Spec is one parsed variable specification:
// "B19001_3" (single line), "B19001_3-6" (inclusive range) or "B19001_*".
type Spec struct {
	Raw   string
	Table string
	All   bool
	Start int
	End   int
}

// ParseSpec parses a single specification.
func ParseSpec(raw string) (Spec, error) {
	s := strings.TrimSpace(raw)
	parts := strings.Split(s, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Spec{}, fmt.Errorf("%w: %q: want TABLE_NUMBER, TABLE_START-END or TABLE_*", acs.ErrInvalidSpec, raw)
	}

	spec := Spec{Raw: s, Table: parts[0]}
	sel := parts[1]

	switch {
	case sel == "*":
		spec.All = true
	case strings.Contains(sel, "-"):
		lo, hi, _ := strings.Cut(sel, "-")
		start, err1 := parseLineNumber(lo)
		end, err2 := parseLineNumber(hi)
		if err1 != nil || err2 != nil {
			return Spec{}, fmt.Errorf("%w: %q: range bounds must be positive integers", acs.ErrInvalidSpec, raw)
		}
		if end < start {
			return Spec{}, fmt.Errorf("%w: %q: range end %d is before start %d", acs.ErrInvalidSpec, raw, end, start)
		}
		spec.Start, spec.End = start, end
	default:
		n, err := parseLineNumber(sel)
		if err != nil {
			return Spec{}, fmt.Errorf("%w: %q: line number must be a positive integer", acs.ErrInvalidSpec, raw)
		}
		spec.Start, spec.End = n, n
	}

	return spec, nil
}

// ParseSpecs parses every specification, failing on the first invalid one.
func ParseSpecs(raw []string) ([]Spec, error) {
	specs := make([]Spec, 0, len(raw))
	for _, r := range raw {
		spec, err := ParseSpec(r)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseLineNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("line number %d is not positive", n)
	}
	return n, nil
}

// Matches reports whether line number n of the spec's table is selected.
func (s Spec) Matches(n int) bool {
	return s.All || (n >= s.Start && n <= s.End)
}

func (s Spec) String() string {
	if s.Raw != "" {
		return s.Raw
	}
	switch {
	case s.All:
		return s.Table + "_*"
	case s.Start == s.End:
		return fmt.Sprintf("%s_%d", s.Table, s.Start)
	default:
		return fmt.Sprintf("%s_%d-%d", s.Table, s.Start, s.End)
	}
}

// selection is the set of line numbers requested for one table. Ranges are
// kept as bounds rather than expanded so an over-broad range stays cheap.
type selection struct {
	all    bool
	ranges []Spec
}

func (s selection) has(n int) bool {
	if s.all {
		return true
	}
	for _, r := range s.ranges {
		if r.Matches(n) {
			return true
		}
	}
	return false
}

// describe renders the selection for log output.
func (s selection) describe() string {
	if s.all {
		return "all"
	}
	parts := make([]string, len(s.ranges))
	for i, r := range s.ranges {
		if r.Start == r.End {
			parts[i] = strconv.Itoa(r.Start)
		} else {
			parts[i] = fmt.Sprintf("%d-%d", r.Start, r.End)
		}
	}
	return strings.Join(parts, ",")
}

// group collects specs by table.
func group(specs []Spec) map[string]selection {
	out := make(map[string]selection)
	for _, spec := range specs {
		sel := out[spec.Table]
		if spec.All {
			sel.all = true
		} else {
			sel.ranges = append(sel.ranges, spec)
		}
		out[spec.Table] = sel
	}
	return out
}
