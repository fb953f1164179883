// Package source locates and opens the files of a summary-file release.
//
// Files are read through viant/afs, so a release directory may be a local
// path or any storage URL afs understands.
package source

import (
	"fmt"
	"strings"
)

// Kind selects the estimate or margin-of-error file of a sequence.
type Kind int

const (
	Estimate Kind = iota
	MarginOfError
)

// Prefix returns the file-name prefix of the kind: "e" or "m".
func (k Kind) Prefix() string {
	if k == MarginOfError {
		return "m"
	}
	return "e"
}

// IsMOE reports whether k is MarginOfError.
func (k Kind) IsMOE() bool { return k == MarginOfError }

func (k Kind) String() string {
	if k == MarginOfError {
		return "margin of error"
	}
	return "estimate"
}

// Kinds lists the kinds in processing order.
var Kinds = []Kind{Estimate, MarginOfError}

// Naming is the file-name convention of one release:
// geography "g{year}{span}{state}.txt" and
// data "{e|m}{year}{span}{state}{seq:04d}000.txt".
type Naming struct {
	Year  int
	Span  int
	State string
}

// DefaultNaming matches the 2016 5-year California release.
var DefaultNaming = Naming{Year: 2016, Span: 5, State: "ca"}

func (n Naming) stem() string {
	return fmt.Sprintf("%d%d%s", n.Year, n.Span, strings.ToLower(n.State))
}

// GeographyFile returns the geography file name.
func (n Naming) GeographyFile() string {
	return "g" + n.stem() + ".txt"
}

// DataFile returns the data file name for a kind and sequence number.
func (n Naming) DataFile(kind Kind, sequence int) string {
	return fmt.Sprintf("%s%s%04d000.txt", kind.Prefix(), n.stem(), sequence)
}

// Validate checks the naming fields are usable.
func (n Naming) Validate() error {
	if n.Year < 1000 || n.Year > 9999 {
		return fmt.Errorf("year %d must have four digits", n.Year)
	}
	if n.Span <= 0 || n.Span > 9 {
		return fmt.Errorf("span %d must be 1-9", n.Span)
	}
	if len(n.State) != 2 {
		return fmt.Errorf("state %q must be a two-letter code", n.State)
	}
	return nil
}
