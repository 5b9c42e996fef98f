package report

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/Belphemur/EpisodeHarvester/internal/config"
	"github.com/Belphemur/EpisodeHarvester/internal/models"
)

// FailurePolicy decides whether failed items appear in the report.
type FailurePolicy string

const (
	// PolicyOmit leaves failed items out of the report.
	PolicyOmit FailurePolicy = "omit"
	// PolicyBlank keeps failed items with their derived fields empty. Items of an
	// unavailable worker are never reported.
	PolicyBlank FailurePolicy = "blank"
)

// Totals summarises what an aggregation wrote.
type Totals struct {
	Rows     int
	Failures int
}

// Aggregator is the single writer of the report and the skipped-item ledger.
type Aggregator struct {
	sink       Sink
	fs         afero.Fs
	ledgerPath string
	policy     FailurePolicy
	runID      string
}

// AggregatorOptions configures an Aggregator.
type AggregatorOptions struct {
	Fs         afero.Fs
	LedgerPath string // Empty skips the ledger
	Policy     FailurePolicy
	RunID      string
}

// NewAggregator creates an aggregator writing rows to sink.
func NewAggregator(sink Sink, opts AggregatorOptions) *Aggregator {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Policy == "" {
		opts.Policy = PolicyOmit
	}
	return &Aggregator{
		sink:       sink,
		fs:         opts.Fs,
		ledgerPath: opts.LedgerPath,
		policy:     opts.Policy,
		runID:      opts.RunID,
	}
}

// NewAggregatorFromConfig builds the configured sink and an aggregator around it.
func NewAggregatorFromConfig(cfg *config.Config, fs afero.Fs, runID string) (*Aggregator, error) {
	sink, err := NewSink(cfg.Report.Format, SinkConfig{
		Fs:    fs,
		Path:  cfg.Report.Path,
		Sheet: cfg.Report.Sheet,
	})
	if err != nil {
		return nil, err
	}
	return NewAggregator(sink, AggregatorOptions{
		Fs:         fs,
		LedgerPath: cfg.Report.SkippedPath,
		Policy:     FailurePolicy(cfg.Report.FailurePolicy),
		RunID:      runID,
	}), nil
}

// Rows returns the report rows for partials under the aggregator's failure policy.
func (a *Aggregator) Rows(partials []models.Partial) []models.ResultRow {
	if a.policy != PolicyBlank {
		return Merge(partials)
	}

	withBlanks := make([]models.Partial, 0, len(partials))
	for _, p := range partials {
		if p.Err != nil {
			withBlanks = append(withBlanks, p)
			continue
		}
		rows := make([]models.ResultRow, 0, len(p.Rows)+len(p.Failures))
		rows = append(rows, p.Rows...)
		for _, f := range p.Failures {
			rows = append(rows, f.BlankRow())
		}
		withBlanks = append(withBlanks, models.Partial{WorkerID: p.WorkerID, Rows: rows})
	}
	return Merge(withBlanks)
}

// Write merges partials, writes the report once and then the skipped-item ledger.
func (a *Aggregator) Write(ctx context.Context, partials []models.Partial) (Totals, error) {
	logger := config.GetLogger()

	rows := a.Rows(partials)
	failures := Failures(partials)

	if err := a.sink.Write(ctx, rows); err != nil {
		return Totals{}, fmt.Errorf("failed to write report: %w", err)
	}
	logger.Info().Int("rows", len(rows)).Str("policy", string(a.policy)).Msg("Report written")

	if a.ledgerPath != "" {
		if err := WriteLedger(a.fs, a.ledgerPath, a.runID, failures); err != nil {
			return Totals{Rows: len(rows)}, err
		}
		if len(failures) > 0 {
			logger.Warn().Int("skipped", len(failures)).Str("path", a.ledgerPath).Msg("Skipped items recorded")
		}
	}

	return Totals{Rows: len(rows), Failures: len(failures)}, nil
}
