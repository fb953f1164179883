package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/acsextract/internal/acs"
	"github.com/JonMunkholm/acsextract/internal/assemble"
	"github.com/JonMunkholm/acsextract/internal/geography"
	"github.com/JonMunkholm/acsextract/internal/logging"
	"github.com/JonMunkholm/acsextract/internal/lookup"
	"github.com/JonMunkholm/acsextract/internal/output"
	"github.com/JonMunkholm/acsextract/internal/source"
	"github.com/JonMunkholm/acsextract/internal/store"
	"github.com/google/uuid"
)

// RunStore persists a finished run. Satisfied by *store.Store.
type RunStore interface {
	Save(ctx context.Context, run store.Run, columns []string, rows []*acs.OutputRow) error
}

// Summary reports what a run produced.
type Summary struct {
	RunID     uuid.UUID
	Variables int
	Rows      int
	Columns   int
	Unmatched []string
}

// Service runs extractions.
type Service struct {
	store RunStore
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithStore also writes every run to s.
func WithStore(s RunStore) Option {
	return func(svc *Service) { svc.store = s }
}

// NewService returns a Service.
func NewService(opts ...Option) *Service {
	s := &Service{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes req. The index and geography are both complete before any
// data file is read; nothing is written unless assembly succeeds.
func (s *Service) Run(ctx context.Context, req Request) (*Summary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New()
	ctx = logging.WithRunID(ctx, runID.String())
	logger := logging.FromContext(ctx)
	geo := req.Geography()

	logger.Info("starting extraction",
		"data", req.DataDir,
		"index", req.Index,
		"geography", string(geo),
		"long_titles", req.LongTitles,
		"output", req.Output,
	)

	resolved, err := Resolve(ctx, req.Index, req.Specs)
	if err != nil {
		return nil, err
	}
	LogVariables(logger, resolved.Index)

	layout, err := geography.LoadLayout(ctx, req.Layout)
	if err != nil {
		return nil, err
	}
	files := source.NewFiles(req.DataDir, req.Naming)
	geoMap, err := geography.Load(ctx, files, layout)
	if err != nil {
		return nil, err
	}

	result, err := assemble.Assemble(ctx, resolved.Index, geoMap, files, assemble.Options{
		Geography:    geo,
		LongTitles:   req.LongTitles,
		RecordColumn: req.RecordColumn,
	})
	if err != nil {
		return nil, err
	}

	if err := output.WriteTable(ctx, req.Output, output.Table{Columns: result.Columns, Rows: result.Rows}); err != nil {
		return nil, err
	}
	if req.Readme != "" {
		if err := output.WriteReadme(ctx, req.Readme, req.Output, resolved.Index.Variables(), geo); err != nil {
			return nil, err
		}
	}
	if s.store != nil {
		run := store.Run{
			ID:         runID,
			CreatedAt:  s.now().UTC(),
			Geography:  geo,
			LongTitles: req.LongTitles,
			Specs:      req.Specs,
		}
		if err := s.store.Save(ctx, run, result.Columns, result.Rows); err != nil {
			return nil, err
		}
	}

	summary := &Summary{
		RunID:     runID,
		Variables: resolved.Index.Len(),
		Rows:      len(result.Rows),
		Columns:   len(result.Columns),
	}
	for _, spec := range resolved.Unmatched {
		summary.Unmatched = append(summary.Unmatched, spec.String())
	}

	logger.Info("extraction complete",
		"variables", summary.Variables,
		"rows", summary.Rows,
		"columns", summary.Columns,
	)
	return summary, nil
}

// Resolve loads the lookup table at index and resolves specs against it.
func Resolve(ctx context.Context, index string, specs []string) (*lookup.Result, error) {
	parsed, err := lookup.ParseSpecs(specs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", acs.ErrConfig, err)
	}
	table, err := lookup.LoadTable(ctx, index)
	if err != nil {
		return nil, err
	}
	return lookup.Resolve(ctx, table, parsed)
}

// Listing returns "{table}_{number:03d}: {name}" for every variable, sorted
// by key.
func Listing(idx *acs.Index) []string {
	vars := idx.Sorted()
	lines := make([]string, len(vars))
	for i, v := range vars {
		lines[i] = v.Key() + ": " + v.Name
	}
	return lines
}

// LogVariables logs the resolved variable listing.
func LogVariables(logger *slog.Logger, idx *acs.Index) {
	logger.Info("reading the following variables", "count", idx.Len())
	for _, line := range Listing(idx) {
		logger.Info(line)
	}
}
