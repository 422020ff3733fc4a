package openapi

import (
	"errors"
	"fmt"
)

// ErrorKind classifies generation failures.
type ErrorKind string

const (
	// KindMalformedMetadata: a resource lacks a unique identifier, declares a
	// relationship to an unknown type, or otherwise cannot be modelled.
	KindMalformedMetadata ErrorKind = "malformed_metadata"
	// KindUnsupportedFieldType: an attribute type has no OpenAPI primitive.
	KindUnsupportedFieldType ErrorKind = "unsupported_field_type"
	// KindDuplicatePathConflict: two operations claim the same path and method.
	KindDuplicatePathConflict ErrorKind = "duplicate_path_conflict"
	// KindDanglingReference: a $ref in the document has no component.
	KindDanglingReference ErrorKind = "dangling_reference"
)

// Error codes, one range per kind.
const (
	CodeMissingIdentifier     = "GEN100"
	CodeAmbiguousIdentifier   = "GEN101"
	CodeUnknownTarget         = "GEN102"
	CodeInvalidCardinality    = "GEN103"
	CodeInvalidName           = "GEN104"
	CodeDuplicateResource     = "GEN105"
	CodeDuplicateField        = "GEN106"
	CodeComponentNameClash    = "GEN107"
	CodeUnsupportedFieldType  = "GEN200"
	CodeDuplicatePathConflict = "GEN300"
	CodeDanglingReference     = "GEN400"
)

// Sentinels for errors.Is matching on the kind alone.
var (
	ErrMalformedMetadata     = errors.New("malformed metadata")
	ErrUnsupportedFieldType  = errors.New("unsupported field type")
	ErrDuplicatePathConflict = errors.New("duplicate path conflict")
	ErrDanglingReference     = errors.New("dangling reference")
)

// GenerationError is the single error type returned by the assembler.
// A run that returns one produced no document.
type GenerationError struct {
	Kind     ErrorKind `json:"kind"`
	Code     string    `json:"code"`
	Resource string    `json:"resource,omitempty"`
	Field    string    `json:"field,omitempty"`
	Message  string    `json:"message"`
}

// Error implements the error interface
func (e *GenerationError) Error() string {
	switch {
	case e.Resource != "" && e.Field != "":
		return fmt.Sprintf("%s: %s.%s: %s", e.Code, e.Resource, e.Field, e.Message)
	case e.Resource != "":
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Resource, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Is lets errors.Is match against the kind sentinels.
func (e *GenerationError) Is(target error) bool {
	switch target {
	case ErrMalformedMetadata:
		return e.Kind == KindMalformedMetadata
	case ErrUnsupportedFieldType:
		return e.Kind == KindUnsupportedFieldType
	case ErrDuplicatePathConflict:
		return e.Kind == KindDuplicatePathConflict
	case ErrDanglingReference:
		return e.Kind == KindDanglingReference
	}
	return false
}

func malformed(code, resource, field, format string, args ...interface{}) *GenerationError {
	return &GenerationError{
		Kind:     KindMalformedMetadata,
		Code:     code,
		Resource: resource,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	}
}

func unsupportedFieldType(resource, field, fieldType string) *GenerationError {
	return &GenerationError{
		Kind:     KindUnsupportedFieldType,
		Code:     CodeUnsupportedFieldType,
		Resource: resource,
		Field:    field,
		Message:  fmt.Sprintf("type %q cannot be mapped to an OpenAPI schema", fieldType),
	}
}

func pathConflict(path, method string, existing, incoming *OperationDescriptor) *GenerationError {
	return &GenerationError{
		Kind:     KindDuplicatePathConflict,
		Code:     CodeDuplicatePathConflict,
		Resource: incoming.Owner,
		Field:    incoming.Field,
		Message: fmt.Sprintf("%s %s already defined by %s (%s)",
			method, path, existing.OperationID(), existing.Kind),
	}
}

func danglingReference(ref, location string) *GenerationError {
	return &GenerationError{
		Kind:    KindDanglingReference,
		Code:    CodeDanglingReference,
		Message: fmt.Sprintf("%s references %s which is not a registered component", location, ref),
	}
}
