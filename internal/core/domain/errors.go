package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// Every one of them is fatal for the current publishing run.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown index backend or source scheme.
	ErrUnsupportedType = errors.New("unsupported type")

	// Source Errors.

	// ErrInvalidSource indicates the source location descriptor is unusable.
	ErrInvalidSource = errors.New("source location is not valid")

	// ErrSourceUnreachable indicates an I/O or network failure reading the source.
	ErrSourceUnreachable = errors.New("source unreachable")

	// ErrSourceMalformed indicates the source is not parseable as JSON.
	ErrSourceMalformed = errors.New("source malformed")

	// ErrSourceShapeInvalid indicates the parsed source is not a list of objects.
	ErrSourceShapeInvalid = errors.New("source is not a list of records")

	// ErrRecordMissingIdentifier indicates a record has no usable local identifier.
	// Such a record cannot be reconciled against the delete set.
	ErrRecordMissingIdentifier = errors.New("record missing local identifier")

	// Remote Index Errors.

	// ErrRemoteQuery indicates the provider partition could not be queried.
	ErrRemoteQuery = errors.New("remote index query failed")

	// ErrRemoteIngest indicates an upsert was rejected by the remote index.
	ErrRemoteIngest = errors.New("remote index ingest failed")

	// ErrRemoteDelete indicates a subject deletion was rejected by the remote index.
	ErrRemoteDelete = errors.New("remote index delete failed")

	// Configuration Errors.

	// ErrConfigMissing indicates a required configuration parameter is absent.
	ErrConfigMissing = errors.New("missing required config parameter")
)

// RemoteIndexError carries the details a remote index returned with a failure.
// Err is one of ErrRemoteQuery, ErrRemoteIngest or ErrRemoteDelete.
type RemoteIndexError struct {
	// Err classifies the failing operation.
	Err error

	// Status is the HTTP status code, 0 if the request never completed.
	Status int

	// Code is the remote error code (e.g. "Forbidden", "BadRequest.ValidationError").
	Code string

	// Message is the remote human-readable message.
	Message string

	// Detail is the raw response text or transport error.
	Detail string
}

func (e *RemoteIndexError) Error() string {
	msg := fmt.Sprintf("%v: code=%s, message=%s", e.Err, e.Code, e.Message)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	return msg
}

// Unwrap allows errors.Is to match the operation sentinel.
func (e *RemoteIndexError) Unwrap() error {
	return e.Err
}

// AsRemoteIndexError extracts a RemoteIndexError from an error chain.
func AsRemoteIndexError(err error) (*RemoteIndexError, bool) {
	var remote *RemoteIndexError
	if errors.As(err, &remote) {
		return remote, true
	}
	return nil, false
}

// MissingConfigError returns an ErrConfigMissing naming the absent key.
func MissingConfigError(key string) error {
	return fmt.Errorf("%w: %s", ErrConfigMissing, key)
}
