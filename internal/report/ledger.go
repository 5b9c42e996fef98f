package report

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"

	"github.com/Belphemur/EpisodeHarvester/internal/models"
)

// Ledger is the skipped-item file written next to the report.
type Ledger struct {
	RunID    string               `json:"runId,omitempty"`
	Skipped  int                  `json:"skipped"`
	Failures []models.ItemFailure `json:"failures"`
}

// WriteLedger writes every failure to path as indented JSON. An empty failure list still
// produces a file so a clean run is distinguishable from a missing ledger.
func WriteLedger(fs afero.Fs, path, runID string, failures []models.ItemFailure) (err error) {
	if failures == nil {
		failures = []models.ItemFailure{}
	}

	f, err := createFile(fs, path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close skipped ledger: %w", cerr)
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Ledger{RunID: runID, Skipped: len(failures), Failures: failures}); err != nil {
		return fmt.Errorf("failed to encode skipped ledger: %w", err)
	}
	return nil
}

// ReadLedger loads a ledger previously written by WriteLedger.
func ReadLedger(fs afero.Fs, path string) (*Ledger, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read skipped ledger: %w", err)
	}
	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to decode skipped ledger: %w", err)
	}
	return &l, nil
}
