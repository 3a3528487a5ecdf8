package database

import "errors"

var (
	// ErrUnavailable is returned by every data operation while no store is open,
	// either because Configure was never called or because it failed.
	ErrUnavailable = errors.New("instance not available")
	// ErrOpen is returned by Configure when the store cannot be opened
	ErrOpen = errors.New("failed to open store")
	// ErrInvalidConfiguration is returned by Configure for unusable settings
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrTransaction wraps any failure inside a write transaction. Nothing
	// from the failed transaction is committed.
	ErrTransaction = errors.New("transaction failed")
	// ErrNotFound is returned when no record matches a primary key
	ErrNotFound = errors.New("object not found")
	// ErrInvalidObject is returned for nil objects or objects without a type
	ErrInvalidObject = errors.New("invalid object")
	// ErrMissingPrimaryKey is returned when an object has no key and cannot be assigned one
	ErrMissingPrimaryKey = errors.New("missing primary key")
	// ErrInvalidJSON is returned for malformed documents or a non-list document
	// where a list is expected
	ErrInvalidJSON = errors.New("invalid json document")
	// ErrConversion is returned when an object cannot be built from or encoded to JSON
	ErrConversion = errors.New("conversion failed")
)
