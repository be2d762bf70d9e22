package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/metapublish/internal/core/domain"
	"github.com/custodia-labs/metapublish/internal/core/ports/driven"
)

// Ensure SearchIndex implements the interface.
var _ driven.SearchIndex = (*SearchIndex)(nil)

// Index operations recorded by SearchIndex.
const (
	OpIngest      = "ingest"
	OpIngestBatch = "ingest_batch"
	OpQuery       = "query"
	OpDelete      = "delete"
)

// IndexCall records one request made against the in-memory index.
type IndexCall struct {
	// Op is one of the Op constants.
	Op string

	// Subjects lists the subjects the request touched, in request order.
	Subjects []string
}

// SearchIndex is an in-memory implementation of driven.SearchIndex.
// It backs tests and dry runs, and records every call it receives.
type SearchIndex struct {
	mu      sync.RWMutex
	entries map[string]domain.IndexEntry
	calls   []IndexCall
}

// NewSearchIndex creates an empty in-memory index.
func NewSearchIndex() *SearchIndex {
	return &SearchIndex{
		entries: make(map[string]domain.IndexEntry),
	}
}

// Seed stores entries without recording calls.
func (s *SearchIndex) Seed(entries ...domain.IndexEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.entries[e.Subject] = e
	}
}

// SeedSubjects stores placeholder entries for a provider's subjects.
func (s *SearchIndex) SeedSubjects(providerID string, subjects ...string) {
	entries := make([]domain.IndexEntry, 0, len(subjects))
	for _, subject := range subjects {
		entries = append(entries, domain.IndexEntry{
			Subject:   subject,
			VisibleTo: []string{domain.PublicVisibility},
			Content:   map[string]any{domain.FieldProviderID: providerID},
		})
	}
	s.Seed(entries...)
}

// Ingest upserts a single entry.
func (s *SearchIndex) Ingest(_ context.Context, entry domain.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Subject] = entry
	s.calls = append(s.calls, IndexCall{Op: OpIngest, Subjects: []string{entry.Subject}})
	return nil
}

// IngestBatch upserts entries in order.
func (s *SearchIndex) IngestBatch(_ context.Context, entries []domain.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	subjects := make([]string, 0, len(entries))
	for _, e := range entries {
		s.entries[e.Subject] = e
		subjects = append(subjects, e.Subject)
	}
	s.calls = append(s.calls, IndexCall{Op: OpIngestBatch, Subjects: subjects})
	return nil
}

// QueryProviderSubjects returns the subjects whose Provider_ID matches exactly.
func (s *SearchIndex) QueryProviderSubjects(_ context.Context, providerID string) (domain.SubjectSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := domain.NewSubjectSet()
	for subject, e := range s.entries {
		if pid, ok := e.Content[domain.FieldProviderID].(string); ok && pid == providerID {
			out.Add(subject)
		}
	}
	s.calls = append(s.calls, IndexCall{Op: OpQuery})
	return out, nil
}

// DeleteSubject removes an entry. Deleting an absent subject succeeds.
func (s *SearchIndex) DeleteSubject(_ context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, subject)
	s.calls = append(s.calls, IndexCall{Op: OpDelete, Subjects: []string{subject}})
	return nil
}

// Close is a no-op.
func (s *SearchIndex) Close() error {
	return nil
}

// --- Inspection helpers (not part of driven.SearchIndex) ---

// Get returns the stored entry for a subject.
func (s *SearchIndex) Get(subject string) (domain.IndexEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[subject]
	return e, ok
}

// Subjects returns every stored subject, sorted.
func (s *SearchIndex) Subjects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.entries))
	for subject := range s.entries {
		out = append(out, subject)
	}
	sort.Strings(out)
	return out
}

// Calls returns a copy of the recorded calls.
func (s *SearchIndex) Calls() []IndexCall {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]IndexCall, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsOf returns the recorded calls for one operation.
func (s *SearchIndex) CallsOf(op string) []IndexCall {
	var out []IndexCall
	for _, c := range s.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls clears the call log, keeping stored entries.
func (s *SearchIndex) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}
