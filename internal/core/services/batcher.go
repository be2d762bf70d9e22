package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/metapublish/internal/core/domain"
	"github.com/custodia-labs/metapublish/internal/core/ports/driven"
	"github.com/custodia-labs/metapublish/internal/logger"
)

// Batcher accumulates entries and submits them to the index in bounded batches.
// A Batcher belongs to a single run.
type Batcher struct {
	index driven.SearchIndex
	max   int
	stats *domain.RunStats
	buf   []domain.IndexEntry
}

// NewBatcher creates a batcher flushing every max entries.
// A max of 1 or less ingests each entry on its own.
func NewBatcher(index driven.SearchIndex, max int, stats *domain.RunStats) *Batcher {
	if max < 1 {
		max = 1
	}
	b := &Batcher{
		index: index,
		max:   max,
		stats: stats,
	}
	if max > 1 {
		b.buf = make([]domain.IndexEntry, 0, max)
	}
	return b
}

// Add appends an entry, submitting the buffer once it reaches the batch size.
func (b *Batcher) Add(ctx context.Context, entry domain.IndexEntry) error {
	if b.max == 1 {
		if err := b.index.Ingest(ctx, entry); err != nil {
			return fmt.Errorf("ingest %s: %w", entry.Subject, err)
		}
		b.stats.AddUpdates(1)
		return nil
	}

	b.buf = append(b.buf, entry)
	if len(b.buf) < b.max {
		return nil
	}
	return b.submit(ctx)
}

// Flush submits any buffered entries regardless of the batch size.
func (b *Batcher) Flush(ctx context.Context) error {
	if len(b.buf) == 0 {
		return nil
	}
	return b.submit(ctx)
}

// submit sends the whole buffer as one batch. The buffer is cleared either way;
// a failed batch is not retried.
func (b *Batcher) submit(ctx context.Context) error {
	batch := b.buf
	b.buf = make([]domain.IndexEntry, 0, b.max)

	if err := b.index.IngestBatch(ctx, batch); err != nil {
		return fmt.Errorf("ingest batch of %d: %w", len(batch), err)
	}
	b.stats.AddUpdates(len(batch))
	logger.Debug("Update batch with %d/items", len(batch))
	return nil
}
