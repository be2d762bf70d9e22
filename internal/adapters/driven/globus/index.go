package globus

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/custodia-labs/metapublish/internal/core/domain"
	"github.com/custodia-labs/metapublish/internal/core/ports/driven"
	"github.com/custodia-labs/metapublish/internal/logger"
)

// Ingest document types.
const (
	IngestTypeList  = "GMetaList"
	IngestTypeEntry = "GMetaEntry"
)

// Ensure Client implements the interface.
var _ driven.SearchIndex = (*Client)(nil)

type ingestDocument struct {
	IngestType string `json:"ingest_type"`
	IngestData any    `json:"ingest_data"`
}

type gmetaList struct {
	Gmeta []domain.IndexEntry `json:"gmeta"`
}

type ingestResponse struct {
	TaskID       string `json:"task_id"`
	Acknowledged bool   `json:"acknowledged"`
}

type searchResponse struct {
	Gmeta []struct {
		Subject string `json:"subject"`
	} `json:"gmeta"`
	Count       int  `json:"count"`
	Offset      int  `json:"offset"`
	Total       int  `json:"total"`
	HasNextPage bool `json:"has_next_page"`
}

// Ingest upserts one entry as a GMetaEntry document.
func (c *Client) Ingest(ctx context.Context, entry domain.IndexEntry) error {
	return c.ingest(ctx, ingestDocument{IngestType: IngestTypeEntry, IngestData: entry})
}

// IngestBatch upserts entries as one GMetaList document.
func (c *Client) IngestBatch(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return c.ingest(ctx, ingestDocument{IngestType: IngestTypeList, IngestData: gmetaList{Gmeta: entries}})
}

func (c *Client) ingest(ctx context.Context, doc ingestDocument) error {
	var resp ingestResponse
	if err := c.do(ctx, domain.ErrRemoteIngest, http.MethodPost, c.endpoint("ingest", nil), doc, &resp); err != nil {
		return err
	}
	logger.Debug("Ingest %s accepted, task_id=%s", doc.IngestType, resp.TaskID)
	return nil
}

// QueryProviderSubjects pages through every entry whose Provider_ID matches
// exactly, driven by has_next_page.
func (c *Client) QueryProviderSubjects(ctx context.Context, providerID string) (domain.SubjectSet, error) {
	subjects := domain.NewSubjectSet()
	query := ProviderQuery(providerID)

	for offset := 0; ; offset += driven.QueryPageLimit {
		params := url.Values{}
		params.Set("q", query)
		params.Set("offset", fmt.Sprint(offset))
		params.Set("limit", fmt.Sprint(driven.QueryPageLimit))

		var page searchResponse
		if err := c.do(ctx, domain.ErrRemoteQuery, http.MethodGet, c.endpoint("search", params), nil, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Gmeta {
			subjects.Add(item.Subject)
		}
		if !page.HasNextPage {
			break
		}
	}

	return subjects, nil
}

// DeleteSubject removes every entry under subject.
func (c *Client) DeleteSubject(ctx context.Context, subject string) error {
	params := url.Values{}
	params.Set("subject", subject)
	return c.do(ctx, domain.ErrRemoteDelete, http.MethodDelete, c.endpoint("subject", params), nil, nil)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// ProviderQuery returns the exact-match query for a provider. Quotes force
// an exact match; embedded quotes and backslashes are escaped.
func ProviderQuery(providerID string) string {
	escaped := make([]rune, 0, len(providerID))
	for _, r := range providerID {
		if r == '"' || r == '\\' {
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, r)
	}
	return fmt.Sprintf(`%s:"%s"`, domain.FieldProviderID, string(escaped))
}
