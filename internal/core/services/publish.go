package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/metapublish/internal/core/domain"
	"github.com/custodia-labs/metapublish/internal/core/ports/driven"
	"github.com/custodia-labs/metapublish/internal/core/ports/driving"
	"github.com/custodia-labs/metapublish/internal/logger"
)

// Ensure Publisher implements the interface.
var _ driving.Publisher = (*Publisher)(nil)

// Publisher reconciles one provider's partition of the search index
// against its source records.
type Publisher struct {
	cfg      domain.PublisherConfig
	reader   driven.SourceReader
	index    driven.SearchIndex
	notifier driven.Notifier

	now      func() time.Time
	newRunID func() string
}

// NewPublisher creates a publisher.
// The notifier is optional - if nil, runs are only logged.
func NewPublisher(
	cfg domain.PublisherConfig,
	reader driven.SourceReader,
	index driven.SearchIndex,
	notifier driven.Notifier,
) *Publisher {
	return &Publisher{
		cfg:      cfg,
		reader:   reader,
		index:    index,
		notifier: notifier,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// Publish reads the source at loc and reconciles it into the index.
func (p *Publisher) Publish(ctx context.Context, loc domain.SourceLocation) (*driving.PublishResult, error) {
	stats := domain.NewRunStats(p.newRunID(), p.cfg.ProviderID, p.now().UTC())
	logger.Info("Run %s: publishing provider=%s index=%s from %s",
		stats.RunID, p.cfg.ProviderID, p.cfg.IndexID, loc)

	err := p.run(ctx, loc, stats)
	stats.Finish(p.now().UTC())
	p.notify(ctx, stats, err)

	if err != nil {
		if remote, ok := domain.AsRemoteIndexError(err); ok && remote.Detail != "" {
			logger.Error("Publish failed: %v; error text: %s", err, remote.Detail)
		} else {
			logger.Error("Publish failed: %v", err)
		}
		return &driving.PublishResult{OK: false, Message: err.Error(), Stats: *stats}, err
	}

	summary := stats.Summary()
	logger.Info("%s", summary)
	return &driving.PublishResult{OK: true, Message: summary, Stats: *stats}, nil
}

func (p *Publisher) run(ctx context.Context, loc domain.SourceLocation, stats *domain.RunStats) error {
	records, err := p.reader.Read(ctx, loc)
	if err != nil {
		return fmt.Errorf("retrieve source: %w", err)
	}
	logger.Debug("Retrieved %d/records from %s", len(records), loc)

	return p.Reconcile(ctx, records, stats)
}

// Reconcile makes the provider partition equal the subjects derived from records.
//
// The partition is queried first and becomes the delete set. Every record is
// transformed, batched for ingest and struck from the delete set. Once the last
// batch is flushed, whatever remains in the delete set is removed from the index.
// The first failure aborts the run; completed upserts and deletes are kept.
func (p *Publisher) Reconcile(ctx context.Context, records []domain.SourceRecord, stats *domain.RunStats) error {
	// 1. Baseline: everything currently indexed for this provider
	toDelete, err := p.index.QueryProviderSubjects(ctx, p.cfg.ProviderID)
	if err != nil {
		return fmt.Errorf("query provider subjects: %w", err)
	}
	logger.Debug("Retrieved for provider %d/items", toDelete.Len())

	// 2. Transform, batch, and drain the delete set
	transformer := NewTransformer(p.cfg, stats.Start)
	batcher := NewBatcher(p.index, p.cfg.BatchSize, stats)

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry, err := transformer.Transform(record)
		if err != nil {
			return fmt.Errorf("transform record %d: %w", i, err)
		}
		if err := batcher.Add(ctx, entry); err != nil {
			return fmt.Errorf("upsert: %w", err)
		}
		toDelete.Remove(entry.Subject)
	}

	// 3. Submit the final partial batch
	if err := batcher.Flush(ctx); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	// 4. Remove subjects that are no longer in the source
	for _, subject := range toDelete.Sorted() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.index.DeleteSubject(ctx, subject); err != nil {
			return fmt.Errorf("delete subject %s: %w", subject, err)
		}
		stats.AddDelete()
		logger.Info("Deleted Subject=%s", subject)
	}

	return nil
}

// Subjects lists the subjects currently indexed for the provider, sorted.
func (p *Publisher) Subjects(ctx context.Context) ([]string, error) {
	subjects, err := p.index.QueryProviderSubjects(ctx, p.cfg.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("query provider subjects: %w", err)
	}
	return subjects.Sorted(), nil
}

// notify sends the run summary. Notification failures never fail the run.
func (p *Publisher) notify(ctx context.Context, stats *domain.RunStats, runErr error) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.NotifyRun(ctx, *stats, runErr); err != nil {
		logger.Warn("Run %s: notification failed: %v", stats.RunID, err)
	}
}
