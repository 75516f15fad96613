package document

import "errors"

var (
	// ErrNotFound means the path is missing or not a regular file.
	ErrNotFound = errors.New("file not found")

	// ErrParse means the content is not a single well-formed YAML document.
	ErrParse = errors.New("failed to parse YAML")

	// ErrMissingSchemaReference means the document declares no usable schema URL.
	ErrMissingSchemaReference = errors.New("no schema URL specified")
)
