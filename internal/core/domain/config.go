package domain

// Index backends.
const (
	BackendGlobus    = "globus"
	BackendTypesense = "typesense"
)

// DefaultBatchSize is the number of entries per ingest request.
const DefaultBatchSize = 1000

// PublisherConfig is the validated configuration for one provider.
type PublisherConfig struct {
	// ProviderID names the partition this publisher owns.
	ProviderID string

	// IndexID identifies the remote index.
	IndexID string

	// Backend selects the index adapter.
	Backend string

	// BatchSize bounds the entries per ingest request. 1 ingests singly.
	BatchSize int

	// IDField is the record key holding the local identifier.
	IDField string

	// VisibleTo is written to every entry.
	VisibleTo []string

	// OptionalFields lists the enabled optional content fields.
	OptionalFields []FieldRule
}
