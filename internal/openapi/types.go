package openapi

import (
	"strings"

	"github.com/conduit-lang/jsonapi-oas/internal/metadata"
)

// primitive is an OpenAPI type/format pair.
type primitive struct {
	typ    string
	format string
}

// primitives maps metadata attribute types to OpenAPI primitives.
var primitives = map[string]primitive{
	"":          {"string", ""},
	"string":    {"string", ""},
	"text":      {"string", ""},
	"markdown":  {"string", ""},
	"int":       {"integer", "int32"},
	"integer":   {"integer", "int32"},
	"int32":     {"integer", "int32"},
	"bigint":    {"integer", "int64"},
	"long":      {"integer", "int64"},
	"int64":     {"integer", "int64"},
	"float":     {"number", "float"},
	"double":    {"number", "double"},
	"number":    {"number", ""},
	"decimal":   {"number", ""},
	"money":     {"number", ""},
	"bool":      {"boolean", ""},
	"boolean":   {"boolean", ""},
	"date":      {"string", "date"},
	"timestamp": {"string", "date-time"},
	"datetime":  {"string", "date-time"},
	"date-time": {"string", "date-time"},
	"uuid":      {"string", "uuid"},
	"ulid":      {"string", ""},
	"email":     {"string", "email"},
	"url":       {"string", "uri"},
	"uri":       {"string", "uri"},
	"binary":    {"string", "binary"},
	"byte":      {"string", "byte"},
	"json":      {"object", ""},
	"jsonb":     {"object", ""},
	"object":    {"object", ""},
	"enum":      {"string", ""},
}

// attributeSchema maps an attribute field to its OpenAPI schema. Array types
// are written "[]elem" or "array<elem>". The boolean result is false when the
// type (or an element type) has no mapping.
func attributeSchema(field metadata.FieldDescriptor) (*Schema, bool) {
	schema, ok := typeSchema(strings.TrimSpace(field.Type))
	if !ok {
		return nil, false
	}

	schema.Description = field.Description
	schema.Nullable = field.Nullable
	if len(field.Enum) > 0 {
		if schema.Type != "string" {
			return nil, false
		}
		schema.Enum = append([]string(nil), field.Enum...)
	}
	return schema, true
}

func typeSchema(t string) (*Schema, bool) {
	lower := strings.ToLower(t)

	if elem, ok := arrayElement(lower); ok {
		if elem == "" {
			return nil, false
		}
		items, ok := typeSchema(elem)
		if !ok {
			return nil, false
		}
		return &Schema{Type: "array", Items: items}, true
	}

	p, ok := primitives[lower]
	if !ok {
		return nil, false
	}
	return &Schema{Type: p.typ, Format: p.format}, true
}

func arrayElement(t string) (string, bool) {
	switch {
	case strings.HasPrefix(t, "[]"):
		return strings.TrimSpace(t[2:]), true
	case strings.HasPrefix(t, "array<") && strings.HasSuffix(t, ">"):
		return strings.TrimSpace(t[len("array<") : len(t)-1]), true
	}
	return "", false
}
