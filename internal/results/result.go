package results

import (
	"gamlvalidate/internal/document"
	"gamlvalidate/internal/validation"
)

type Status string

const (
	StatusValid   Status = "VALID"
	StatusInvalid Status = "INVALID"
	StatusError   Status = "ERROR"
)

// FileResult is the outcome for one discovered file. Exactly one of Errors
// (Invalid) or Error (Errored) is set when Status is not VALID.
type FileResult struct {
	// File is the path relative to the project root, slash-separated.
	File      string                       `json:"file"`
	Path      string                       `json:"-"`
	Status    Status                       `json:"status"`
	Valid     bool                         `json:"valid"`
	SchemaRef string                       `json:"schema,omitempty"`
	Errors    []validation.ValidationError `json:"errors,omitempty"`
	Error     string                       `json:"error,omitempty"`
	Meta      document.Meta                `json:"-"`
	// Warnings are advisory and never change Status.
	Warnings []string `json:"warnings,omitempty"`
}

func ValidResult(file, schemaRef string) FileResult {
	return FileResult{File: file, Status: StatusValid, Valid: true, SchemaRef: schemaRef}
}

func InvalidResult(file, schemaRef string, errs []validation.ValidationError) FileResult {
	return FileResult{File: file, Status: StatusInvalid, SchemaRef: schemaRef, Errors: errs}
}

func ErroredResult(file, schemaRef, message string) FileResult {
	return FileResult{File: file, Status: StatusError, SchemaRef: schemaRef, Error: message}
}
