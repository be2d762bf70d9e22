// Package file provides the TOML configuration store.
//
// Configuration lives in ~/.metapublish/config.toml unless a path is given.
// The file is read once when the store opens; tables are flattened into
// dot-notation keys. The store never writes the file.
package file
