package geography

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/JonMunkholm/acsextract/internal/acs"
	"github.com/JonMunkholm/acsextract/internal/logging"
	"github.com/JonMunkholm/acsextract/internal/source"
)

// maxLineSize bounds a single geography line.
const maxLineSize = 64 * 1024

// Stats counts the records kept by a decode.
type Stats struct {
	Lines       int
	Tracts      int
	BlockGroups int
	Skipped     int
}

// Decoder decodes geography lines with a fixed layout.
type Decoder struct {
	layout  Layout
	minLine int
}

// NewDecoder returns a decoder for layout. The layout must be valid.
func NewDecoder(layout Layout) (*Decoder, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{layout: layout, minLine: layout.MinLineLength()}, nil
}

// Line decodes one raw line. ok is false for rows that are neither tracts
// nor block groups.
func (d *Decoder) Line(line []byte) (rec acs.GeographyRecord, ok bool, err error) {
	if len(line) < d.minLine {
		return rec, false, fmt.Errorf("%w: line is %d bytes, layout %q needs %d",
			acs.ErrMalformedGeography, len(line), d.layout.Version, d.minLine)
	}

	l := d.layout
	switch {
	case !blank(l.BlockGroup.of(line)):
		rec.Type = acs.GeoBlockGroup
	case !blank(l.Tract.of(line)):
		rec.Type = acs.GeoTract
	default:
		return rec, false, nil
	}

	geoid := string(l.GeoidPrefix.of(line)) + string(l.GeoidSuffix.of(line))
	rec.Geoid = strings.TrimRightFunc(geoid, unicode.IsSpace)
	rec.LogicalRecordNumber = string(l.LogicalRecord.of(line))
	return rec, true, nil
}

// Decode reads every line of r. A later line with the same logical record
// number replaces an earlier one.
func (d *Decoder) Decode(r io.Reader) (acs.GeographyMap, Stats, error) {
	var stats Stats
	geo := make(acs.GeographyMap)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineSize)
	for sc.Scan() {
		stats.Lines++
		line := bytes.TrimRight(sc.Bytes(), "\r")
		if len(line) == 0 {
			continue
		}

		rec, ok, err := d.Line(line)
		if err != nil {
			return nil, stats, fmt.Errorf("geography line %d: %w", stats.Lines, err)
		}
		if !ok {
			stats.Skipped++
			continue
		}
		if rec.Type == acs.GeoTract {
			stats.Tracts++
		} else {
			stats.BlockGroups++
		}
		geo[rec.LogicalRecordNumber] = rec
	}
	if err := sc.Err(); err != nil {
		return nil, stats, fmt.Errorf("%w: line %d: %v", acs.ErrMalformedGeography, stats.Lines+1, err)
	}
	return geo, stats, nil
}

// Decode decodes r with layout.
func Decode(r io.Reader, layout Layout) (acs.GeographyMap, error) {
	d, err := NewDecoder(layout)
	if err != nil {
		return nil, err
	}
	geo, _, err := d.Decode(r)
	return geo, err
}

// Opener opens the geography file of a release.
type Opener interface {
	OpenGeography(ctx context.Context) (io.ReadCloser, int64, error)
}

// Load opens and decodes the release's geography file.
func Load(ctx context.Context, files Opener, layout Layout) (acs.GeographyMap, error) {
	logger := logging.FromContext(ctx)

	d, err := NewDecoder(layout)
	if err != nil {
		return nil, err
	}

	rc, size, err := files.OpenGeography(ctx)
	if err != nil {
		return nil, fmt.Errorf("geography: %w", err)
	}
	defer rc.Close()

	counter := source.NewCountingReader(rc, size)
	geo, stats, err := d.Decode(counter)
	if err != nil {
		logger.Warn("geography file rejected", "lines", stats.Lines, "progress", counter.Progress())
		return nil, err
	}

	logger.Info("decoded geography",
		"layout", layout.Version,
		"lines", stats.Lines,
		"tracts", stats.Tracts,
		"blockgroups", stats.BlockGroups,
		"skipped", stats.Skipped,
		"bytes", counter.BytesRead,
		"progress", counter.Progress(),
	)
	return geo, nil
}
