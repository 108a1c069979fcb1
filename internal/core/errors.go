package core

import "errors"

var (
	// ErrImportNotFound is returned when an import id has no record.
	ErrImportNotFound = errors.New("import not found")

	// ErrNoRows is returned when a batch is started without rows.
	ErrNoRows = errors.New("no rows to process")

	// ErrNoMappings is returned when a batch is started without mappings.
	ErrNoMappings = errors.New("no column mappings provided")

	// ErrNoFile is returned when an upload carries no file.
	ErrNoFile = errors.New("no file provided")

	// ErrInvalidRequest wraps malformed ids and request bodies.
	ErrInvalidRequest = errors.New("invalid request")
)
