// Package geography decodes the fixed-width geography file of a summary-file
// release into a map from logical record number to geoid and summary level.
package geography

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/acsextract/internal/acs"
	"github.com/JonMunkholm/acsextract/internal/source"
	"gopkg.in/yaml.v3"
)

// Slice is a 0-based, end-exclusive byte range of a geography line.
type Slice struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

func (s Slice) of(line []byte) []byte {
	return line[s.Start:s.End]
}

func (s Slice) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Layout names the byte slices read from each geography line.
type Layout struct {
	Version string `yaml:"version"`

	LogicalRecord Slice `yaml:"logical_record"`
	GeoidPrefix   Slice `yaml:"geoid_prefix"` // state and county
	GeoidSuffix   Slice `yaml:"geoid_suffix"` // tract and block group

	// BlockGroup is non-blank on block group rows.
	BlockGroup Slice `yaml:"blockgroup"`
	// Tract is non-blank on tract and block group rows.
	Tract Slice `yaml:"tract"`
}

// Geography file slices of the ACS 2016 5-year summary file
// (2016 ACS Summary File Technical Documentation, geographic header).
const (
	defaultVersion = "acs-2016-5yr"

	logRecNoStart    = 13
	logRecNoEnd      = 20
	stateCountyStart = 25
	stateCountyEnd   = 30
	tractBGStart     = 40
	tractBGEnd       = 47
	blockGroupPos    = 46
)

// DefaultLayout returns the layout of the 2016 5-year geography file.
func DefaultLayout() Layout {
	return Layout{
		Version:       defaultVersion,
		LogicalRecord: Slice{logRecNoStart, logRecNoEnd},
		GeoidPrefix:   Slice{stateCountyStart, stateCountyEnd},
		GeoidSuffix:   Slice{tractBGStart, tractBGEnd},
		BlockGroup:    Slice{blockGroupPos, blockGroupPos + 1},
		Tract:         Slice{tractBGStart, blockGroupPos},
	}
}

type namedSlice struct {
	name string
	Slice
}

func (l Layout) slices() []namedSlice {
	return []namedSlice{
		{"logical_record", l.LogicalRecord},
		{"geoid_prefix", l.GeoidPrefix},
		{"geoid_suffix", l.GeoidSuffix},
		{"blockgroup", l.BlockGroup},
		{"tract", l.Tract},
	}
}

// Validate checks every slice is a non-empty range starting at or after 0.
func (l Layout) Validate() error {
	var errs []error
	for _, s := range l.slices() {
		if s.Start < 0 || s.End <= s.Start {
			errs = append(errs, fmt.Errorf("%s: invalid slice %s", s.name, s.Slice))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: geography layout %q: %w", acs.ErrConfig, l.Version, errors.Join(errs...))
	}
	return nil
}

// MinLineLength is the shortest line every slice fits in.
func (l Layout) MinLineLength() int {
	n := 0
	for _, s := range l.slices() {
		n = max(n, s.End)
	}
	return n
}

// ParseLayout reads a YAML layout. Slices it omits keep their default.
func ParseLayout(r io.Reader) (Layout, error) {
	layout := DefaultLayout()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&layout); err != nil && !errors.Is(err, io.EOF) {
		return Layout{}, fmt.Errorf("%w: geography layout: %v", acs.ErrConfig, err)
	}
	if err := layout.Validate(); err != nil {
		return Layout{}, err
	}
	return layout, nil
}

// LoadLayout reads a YAML layout from a path or storage URL. An empty
// location returns DefaultLayout.
func LoadLayout(ctx context.Context, location string) (Layout, error) {
	if location == "" {
		return DefaultLayout(), nil
	}

	rc, _, err := source.OpenLocation(ctx, location)
	if err != nil {
		return Layout{}, fmt.Errorf("geography layout: %w", err)
	}
	defer rc.Close()

	return ParseLayout(rc)
}

func blank(b []byte) bool {
	return len(bytes.TrimSpace(b)) == 0
}
