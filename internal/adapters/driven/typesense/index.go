// Package typesense implements driven.SearchIndex on a Typesense collection.
//
// Each entry becomes one document whose id is the entry subject. Content
// fields are stored at the top level next to visible_to, so Provider_ID
// must be a filterable field in the collection schema.
package typesense

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	ts "github.com/typesense/typesense-go/typesense"
	"github.com/typesense/typesense-go/typesense/api"
	"github.com/typesense/typesense-go/typesense/api/pointer"

	"github.com/custodia-labs/metapublish/internal/core/domain"
	"github.com/custodia-labs/metapublish/internal/core/ports/driven"
)

// PageSize is the largest page Typesense returns from a search.
const PageSize = 250

// Document keys written besides the content fields.
const (
	KeyID        = "id"
	KeyVisibleTo = "visible_to"
)

// Ensure Index implements the interface.
var _ driven.SearchIndex = (*Index)(nil)

// Index writes entries to one Typesense collection.
type Index struct {
	client     *ts.Client
	collection string
}

// New connects to the Typesense server at url.
func New(url, apiKey, collection string) *Index {
	client := ts.NewClient(
		ts.WithServer(url),
		ts.WithAPIKey(apiKey),
		ts.WithConnectionTimeout(30*time.Second),
	)
	return &Index{client: client, collection: collection}
}

// Ingest upserts one document.
func (x *Index) Ingest(ctx context.Context, entry domain.IndexEntry) error {
	if _, err := x.client.Collection(x.collection).Documents().Upsert(ctx, ToDocument(entry)); err != nil {
		return remoteError(domain.ErrRemoteIngest, err)
	}
	return nil
}

// IngestBatch upserts documents with a single import request.
// Typesense reports per-document results; the first rejected one fails the batch.
func (x *Index) IngestBatch(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, ToDocument(e))
	}

	results, err := x.client.Collection(x.collection).Documents().Import(ctx, docs, &api.ImportDocumentsParams{
		Action: pointer.String("upsert"),
	})
	if err != nil {
		return remoteError(domain.ErrRemoteIngest, err)
	}

	var rejected []string
	var first string
	for i, r := range results {
		if r == nil || r.Success {
			continue
		}
		if first == "" {
			first = r.Error
		}
		if i < len(entries) {
			rejected = append(rejected, entries[i].Subject)
		}
	}
	if len(rejected) > 0 {
		return &domain.RemoteIndexError{
			Err:     domain.ErrRemoteIngest,
			Code:    "ImportRejected",
			Message: first,
			Detail:  fmt.Sprintf("%d/%d documents rejected: %s", len(rejected), len(entries), strings.Join(rejected, ", ")),
		}
	}
	return nil
}

// QueryProviderSubjects pages through the documents of one provider.
func (x *Index) QueryProviderSubjects(ctx context.Context, providerID string) (domain.SubjectSet, error) {
	filter, err := ProviderFilter(providerID)
	if err != nil {
		return nil, err
	}
	subjects := domain.NewSubjectSet()

	for page := 1; ; page++ {
		result, err := x.client.Collection(x.collection).Documents().Search(ctx, &api.SearchCollectionParams{
			Q:             "*",
			QueryBy:       domain.FieldProviderID,
			FilterBy:      pointer.String(filter),
			IncludeFields: pointer.String(KeyID),
			Page:          pointer.Int(page),
			PerPage:       pointer.Int(PageSize),
		})
		if err != nil {
			return nil, remoteError(domain.ErrRemoteQuery, err)
		}

		hits := 0
		if result.Hits != nil {
			for _, hit := range *result.Hits {
				hits++
				if hit.Document == nil {
					continue
				}
				if id, ok := (*hit.Document)[KeyID].(string); ok {
					subjects.Add(id)
				}
			}
		}

		found := 0
		if result.Found != nil {
			found = *result.Found
		}
		if !hasNextPage(page, hits, found) {
			break
		}
	}

	return subjects, nil
}

// DeleteSubject removes the document with id subject.
func (x *Index) DeleteSubject(ctx context.Context, subject string) error {
	if _, err := x.client.Collection(x.collection).Document(subject).Delete(ctx); err != nil {
		return remoteError(domain.ErrRemoteDelete, err)
	}
	return nil
}

// Close is a no-op; the client holds no long-lived resources.
func (x *Index) Close() error {
	return nil
}

// ToDocument flattens an entry into a Typesense document.
func ToDocument(e domain.IndexEntry) map[string]interface{} {
	doc := make(map[string]interface{}, len(e.Content)+2)
	for k, v := range e.Content {
		if v == nil {
			continue
		}
		doc[k] = v
	}
	doc[KeyID] = e.Subject
	doc[KeyVisibleTo] = e.VisibleTo
	return doc
}

// ProviderFilter returns an exact-match filter_by clause. Backticks quote
// values that contain commas or spaces, so a provider id holding a backtick
// cannot be expressed and is rejected.
func ProviderFilter(providerID string) (string, error) {
	if strings.Contains(providerID, "`") {
		return "", fmt.Errorf("%w: %w: provider id %q contains a backtick",
			domain.ErrRemoteQuery, domain.ErrInvalidInput, providerID)
	}
	return fmt.Sprintf("%s:=`%s`", domain.FieldProviderID, providerID), nil
}

func hasNextPage(page, hits, found int) bool {
	return hits == PageSize && page*PageSize < found
}

func remoteError(op error, err error) error {
	var httpErr *ts.HTTPError
	if errors.As(err, &httpErr) {
		body := strings.TrimSpace(string(httpErr.Body))
		message := body
		var doc struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(httpErr.Body, &doc) == nil && doc.Message != "" {
			message = doc.Message
		}
		return &domain.RemoteIndexError{
			Err:     op,
			Status:  httpErr.Status,
			Code:    fmt.Sprintf("HTTP%d", httpErr.Status),
			Message: message,
			Detail:  body,
		}
	}
	return &domain.RemoteIndexError{Err: op, Code: "Transport", Message: err.Error(), Detail: err.Error()}
}
