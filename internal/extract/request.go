// Package extract runs the extraction pipeline: resolve the requested
// variables, decode the geography file, assemble rows from the sequence
// files and write every configured sink.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/acsextract/internal/acs"
	"github.com/JonMunkholm/acsextract/internal/config"
	"github.com/JonMunkholm/acsextract/internal/lookup"
	"github.com/JonMunkholm/acsextract/internal/source"
)

// Request is one extraction.
type Request struct {
	DataDir      string // release directory: path or storage URL
	Index        string // lookup table
	Layout       string // optional geography layout YAML
	Naming       source.Naming
	RecordColumn int

	Tracts      bool
	BlockGroups bool
	LongTitles  bool

	Specs  []string
	Output string
	Readme string // optional README path
}

// RequestFromConfig returns a request seeded with cfg's summary settings.
func RequestFromConfig(cfg *config.Config) Request {
	return Request{
		Index:  cfg.Summary.Index,
		Layout: cfg.Summary.Layout,
		Naming: source.Naming{
			Year:  cfg.Summary.Year,
			Span:  cfg.Summary.Span,
			State: cfg.Summary.State,
		},
		RecordColumn: cfg.Summary.RecordColumn,
	}
}

// Geography returns the active geography filter, or acs.GeoNone when the
// flags are not exactly one of tracts or block groups.
func (r Request) Geography() acs.GeoType {
	switch {
	case r.Tracts && !r.BlockGroups:
		return acs.GeoTract
	case r.BlockGroups && !r.Tracts:
		return acs.GeoBlockGroup
	default:
		return acs.GeoNone
	}
}

// Validate checks the request without touching any file. Every failure
// wraps acs.ErrConfig; unparseable specs also wrap acs.ErrInvalidSpec.
func (r Request) Validate() error {
	var errs []error

	if r.Tracts && r.BlockGroups {
		errs = append(errs, errors.New("--tracts and --blockgroups are mutually exclusive"))
	} else if !r.Tracts && !r.BlockGroups {
		errs = append(errs, errors.New("one of --tracts or --blockgroups is required"))
	}
	if strings.TrimSpace(r.DataDir) == "" {
		errs = append(errs, errors.New("summary file directory is required"))
	}
	if strings.TrimSpace(r.Index) == "" {
		errs = append(errs, errors.New("lookup table is required"))
	}
	if len(r.Specs) == 0 {
		errs = append(errs, errors.New("at least one variable is required"))
	}
	if strings.TrimSpace(r.Output) == "" {
		errs = append(errs, errors.New("output path is required"))
	}
	if r.RecordColumn < 0 {
		errs = append(errs, fmt.Errorf("record column %d is negative", r.RecordColumn))
	}
	if err := r.Naming.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := lookup.ParseSpecs(r.Specs); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", acs.ErrConfig, errors.Join(errs...))
	}
	return nil
}
