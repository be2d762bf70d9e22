package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/metapublish/internal/core/domain"
)

// Transformer maps source records onto index entries for one provider.
// It holds no mutable state; identical records yield identical entries.
type Transformer struct {
	providerID string
	idField    string
	visibleTo  []string
	rules      []domain.FieldRule
	runTime    time.Time
}

// NewTransformer creates a transformer from validated configuration.
// runTime is substituted for rules that default to the run start.
func NewTransformer(cfg domain.PublisherConfig, runTime time.Time) *Transformer {
	idField := cfg.IDField
	if idField == "" {
		idField = domain.DefaultIDField
	}

	visibleTo := cfg.VisibleTo
	if len(visibleTo) == 0 {
		visibleTo = []string{domain.PublicVisibility}
	}

	rules := domain.RequiredFieldRules()
	rules = append(rules, cfg.OptionalFields...)

	return &Transformer{
		providerID: cfg.ProviderID,
		idField:    idField,
		visibleTo:  visibleTo,
		rules:      rules,
		runTime:    runTime.UTC(),
	}
}

// Transform builds the index entry for one record.
// A record without a local identifier fails with domain.ErrRecordMissingIdentifier.
func (t *Transformer) Transform(record domain.SourceRecord) (domain.IndexEntry, error) {
	localID, ok := record.LocalID(t.idField)
	if !ok {
		return domain.IndexEntry{}, fmt.Errorf("%w: field %s", domain.ErrRecordMissingIdentifier, t.idField)
	}

	content := make(map[string]any, len(t.rules)+1)
	for _, rule := range t.rules {
		val, present := record[rule.SourceKey()]
		if !present {
			switch {
			case rule.DefaultRunTime:
				val = t.runTime.Format(time.RFC3339)
			default:
				val = rule.Default
			}
		}
		content[rule.Name] = val
	}
	content[domain.FieldProviderID] = t.providerID

	visibleTo := make([]string, len(t.visibleTo))
	copy(visibleTo, t.visibleTo)

	return domain.IndexEntry{
		Subject:   domain.Subject(t.providerID, localID),
		VisibleTo: visibleTo,
		Content:   content,
	}, nil
}
