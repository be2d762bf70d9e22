package domain

import (
	"fmt"
	"time"
)

// RunStats counts what one publishing run did.
// It lives for a single run and only feeds the summary line.
type RunStats struct {
	// RunID identifies the run in logs and notifications.
	RunID string

	// ProviderID is the partition that was reconciled.
	ProviderID string

	// Update counts entries accepted by the index (new or overwritten).
	Update int

	// Delete counts subjects removed from the index.
	Delete int

	// Skip counts records intentionally not submitted.
	Skip int

	// Start is when the run began.
	Start time.Time

	// End is when the run finished. Zero while running.
	End time.Time
}

// NewRunStats starts the counters for a run.
func NewRunStats(runID, providerID string, start time.Time) *RunStats {
	return &RunStats{
		RunID:      runID,
		ProviderID: providerID,
		Start:      start,
	}
}

// AddUpdates records n upserted entries.
func (s *RunStats) AddUpdates(n int) {
	s.Update += n
}

// AddDelete records one deleted subject.
func (s *RunStats) AddDelete() {
	s.Delete++
}

// AddSkip records one skipped record.
func (s *RunStats) AddSkip() {
	s.Skip++
}

// Finish stamps the end time.
func (s *RunStats) Finish(end time.Time) {
	s.End = end
}

// Elapsed returns the run duration, zero until Finish is called.
func (s *RunStats) Elapsed() time.Duration {
	if s.End.IsZero() {
		return 0
	}
	return s.End.Sub(s.Start)
}

// Summary formats the one-line run summary.
func (s *RunStats) Summary() string {
	return fmt.Sprintf("Processed in %.3f/seconds: %d/updates, %d/deletes, %d/skipped",
		s.Elapsed().Seconds(), s.Update, s.Delete, s.Skip)
}
