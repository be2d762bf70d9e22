// Package source reads the records to publish from a file, an HTTP(S) URL
// or an S3-compatible object store.
//
// Every location must hold one JSON document: a list of objects.
package source
