package acs

import (
	"fmt"
	"sort"
)

// GeoType is the summary level of a geography record.
type GeoType string

const (
	GeoNone       GeoType = ""
	GeoTract      GeoType = "tract"
	GeoBlockGroup GeoType = "blockgroup"
)

// ParseGeoType accepts the names used on the command line and in queries.
func ParseGeoType(s string) (GeoType, error) {
	switch s {
	case "tract", "tracts":
		return GeoTract, nil
	case "blockgroup", "blockgroups", "block-group", "bg":
		return GeoBlockGroup, nil
	default:
		return GeoNone, fmt.Errorf("%w: unknown geography %q", ErrConfig, s)
	}
}

// Variable is a single tabulated statistic resolved from the lookup table.
type Variable struct {
	Table     string `json:"table"`     // Owning table: "B19001"
	Number    int    `json:"number"`    // 1-based line number within the table
	Offset    int    `json:"offset"`    // 0-based field index in a data record
	Sequence  int    `json:"sequence"`  // Sequence file holding the value
	Name      string `json:"name"`      // Reconstructed hierarchical title
	TableName string `json:"tableName"` // Title of the owning table
}

// Key returns the short identifier "{table}_{number:03d}".
func (v Variable) Key() string {
	return fmt.Sprintf("%s_%03d", v.Table, v.Number)
}

// GeographyRecord is one tract or block group row of the geography file.
type GeographyRecord struct {
	LogicalRecordNumber string
	Geoid               string
	Type                GeoType
}

// GeographyMap indexes geography records by logical record number.
type GeographyMap map[string]GeographyRecord

// OutputRow accumulates the values written for one geoid.
type OutputRow struct {
	Geoid  string
	Values map[string]string
}

// Get returns the value stored under column, or "" when the row never
// received it.
func (r OutputRow) Get(column string) string {
	if column == GeoidColumn {
		return r.Geoid
	}
	return r.Values[column]
}

// Index is the resolved variable set grouped by sequence number.
// Sequences preserves the order in which sequence numbers were first seen in
// the lookup table; each bucket preserves lookup-table row order.
type Index struct {
	Sequences  []int
	BySequence map[int][]Variable
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{BySequence: make(map[int][]Variable)}
}

// Add appends v to the bucket for its sequence.
func (idx *Index) Add(v Variable) {
	if _, ok := idx.BySequence[v.Sequence]; !ok {
		idx.Sequences = append(idx.Sequences, v.Sequence)
	}
	idx.BySequence[v.Sequence] = append(idx.BySequence[v.Sequence], v)
}

// Len returns the number of resolved variables.
func (idx *Index) Len() int {
	n := 0
	for _, vars := range idx.BySequence {
		n += len(vars)
	}
	return n
}

// Variables returns every variable, bucket by bucket in sequence encounter order.
func (idx *Index) Variables() []Variable {
	out := make([]Variable, 0, idx.Len())
	for _, seq := range idx.Sequences {
		out = append(out, idx.BySequence[seq]...)
	}
	return out
}

// Sorted returns every variable ordered by Key.
func (idx *Index) Sorted() []Variable {
	vars := idx.Variables()
	sort.SliceStable(vars, func(i, j int) bool {
		return vars[i].Key() < vars[j].Key()
	})
	return vars
}
