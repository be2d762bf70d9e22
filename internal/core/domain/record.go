package domain

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// DefaultIDField is the source key holding a record's local unique identifier.
const DefaultIDField = "LOCAL_ID"

// PublicVisibility is the default visible_to principal.
const PublicVisibility = "public"

// SourceRecord is one untyped record read from the provider's source.
// Keys other than the identifier and the configured content fields are ignored.
type SourceRecord map[string]any

// LocalID returns the record's local identifier stored under field.
// Strings must be non-blank; JSON numbers are formatted without exponent.
// Any other type, or an absent key, reports false.
func (r SourceRecord) LocalID(field string) (string, bool) {
	val, ok := r[field]
	if !ok || val == nil {
		return "", false
	}

	switch v := val.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return "", false
		}
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

// Subject derives the index subject for a provider's local identifier.
func Subject(providerID, localID string) string {
	return providerID + ":" + localID
}

// IndexEntry is the shape submitted to the remote index for one record.
type IndexEntry struct {
	// Subject uniquely identifies the entry: provider_id + ":" + local_id.
	Subject string `json:"subject"`

	// VisibleTo lists the principals allowed to see the entry.
	VisibleTo []string `json:"visible_to"`

	// ID is an optional opaque entry identifier. Always nil today.
	ID *string `json:"id"`

	// Content maps field names to values.
	Content map[string]any `json:"content"`
}

// SubjectSet is an unordered set of index subjects.
type SubjectSet map[string]struct{}

// NewSubjectSet creates a set holding the given subjects.
func NewSubjectSet(subjects ...string) SubjectSet {
	s := make(SubjectSet, len(subjects))
	for _, subject := range subjects {
		s.Add(subject)
	}
	return s
}

// Add inserts a subject.
func (s SubjectSet) Add(subject string) {
	s[subject] = struct{}{}
}

// Remove deletes a subject. Removing an absent subject is a no-op.
func (s SubjectSet) Remove(subject string) {
	delete(s, subject)
}

// Len returns the number of subjects.
func (s SubjectSet) Len() int {
	return len(s)
}

// Sorted returns the subjects in lexical order.
func (s SubjectSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for subject := range s {
		out = append(out, subject)
	}
	sort.Strings(out)
	return out
}
