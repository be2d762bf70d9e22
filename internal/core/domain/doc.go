// Package domain defines the core business entities for metapublish.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceRecord: An untyped record read from the provider's source
//   - IndexEntry: The entry shape submitted to the remote search index
//   - SubjectSet: A set of index subjects (the provider partition)
//   - FieldRule: How one content field is extracted from a record
//   - RunStats: Counters and timing for one publishing run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
