package schema

import "errors"

var (
	// ErrFetch covers transport failures and non-200 responses.
	ErrFetch = errors.New("failed to fetch schema")

	// ErrSchemaParse means the response body was not valid JSON.
	ErrSchemaParse = errors.New("failed to parse schema JSON")

	// ErrEmptyReference is returned for a blank schema reference.
	ErrEmptyReference = errors.New("schema reference is empty")
)
