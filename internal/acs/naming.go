package acs

import "fmt"

// GeoidColumn is the literal name of the geographic identifier column.
// It is never produced by ColumnName.
const GeoidColumn = "geoid"

// MarginOfErrorPrefix starts every long-form margin-of-error column.
const MarginOfErrorPrefix = "Margin of Error on "

// ColumnName maps a variable to its output column.
//
// Short form is "{table}_{number:03d}", with "_MOE" appended for margins of
// error. Long form is the reconstructed title, prefixed with
// MarginOfErrorPrefix for margins of error.
func ColumnName(v Variable, moe, longTitles bool) string {
	if longTitles {
		if moe {
			return MarginOfErrorPrefix + v.Name
		}
		return v.Name
	}
	if moe {
		return fmt.Sprintf("%s_%03d_MOE", v.Table, v.Number)
	}
	return fmt.Sprintf("%s_%03d", v.Table, v.Number)
}

// ColumnCollisions reports long-form names shared by more than one variable.
// Short names cannot collide because (table, number) is unique.
func ColumnCollisions(vars []Variable, longTitles bool) map[string][]string {
	seen := make(map[string][]string)
	for _, v := range vars {
		name := ColumnName(v, false, longTitles)
		seen[name] = append(seen[name], v.Key())
	}
	for name, keys := range seen {
		if len(keys) < 2 {
			delete(seen, name)
		}
	}
	return seen
}
