package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// Source location schemes.
const (
	SchemeFile  = "file"
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
	SchemeS3    = "s3"
)

// SourceLocation is a parsed source descriptor.
// Bare paths are treated as file locations.
type SourceLocation struct {
	// Raw is the descriptor as given.
	Raw string

	// Scheme is one of the Scheme constants.
	Scheme string

	// Host is the network location for http(s), or the bucket for s3.
	Host string

	// Path is the file path, URL path, or object key.
	Path string

	// RawQuery is the URL query string for http(s) locations.
	RawQuery string
}

// ParseSourceLocation validates a source descriptor.
// file:<path>, http(s)://host/path and s3://bucket/key are accepted.
func ParseSourceLocation(raw string) (SourceLocation, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SourceLocation{}, fmt.Errorf("%w: empty", ErrInvalidSource)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return SourceLocation{}, fmt.Errorf("%w: %s: %w", ErrInvalidSource, raw, err)
	}

	loc := SourceLocation{Raw: raw, Scheme: strings.ToLower(u.Scheme)}
	switch loc.Scheme {
	case "", SchemeFile:
		loc.Scheme = SchemeFile
		loc.Path = u.Path
		if u.Opaque != "" {
			loc.Path = u.Opaque
		}
		if u.Host != "" && u.Host != "localhost" {
			// file://relative/path keeps the first element in Host.
			loc.Path = u.Host + loc.Path
		}
	case SchemeHTTP, SchemeHTTPS:
		if u.Host == "" {
			return SourceLocation{}, fmt.Errorf("%w: not a network location: %s", ErrInvalidSource, raw)
		}
		loc.Host = u.Host
		loc.Path = u.Path
		loc.RawQuery = u.RawQuery
	case SchemeS3:
		if u.Host == "" {
			return SourceLocation{}, fmt.Errorf("%w: missing bucket: %s", ErrInvalidSource, raw)
		}
		loc.Host = u.Host
		loc.Path = strings.TrimPrefix(u.Path, "/")
	default:
		return SourceLocation{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidSource, u.Scheme)
	}

	if loc.Path == "" {
		return SourceLocation{}, fmt.Errorf("%w: missing path: %s", ErrInvalidSource, raw)
	}
	return loc, nil
}

// IsNetwork reports whether the location is fetched over HTTP.
func (l SourceLocation) IsNetwork() bool {
	return l.Scheme == SchemeHTTP || l.Scheme == SchemeHTTPS
}

// String returns the descriptor as given.
func (l SourceLocation) String() string {
	return l.Raw
}
