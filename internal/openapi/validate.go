package openapi

import (
	"strings"

	"github.com/conduit-lang/jsonapi-oas/internal/metadata"
)

// reservedFieldNames cannot be used for attributes or relationships.
var reservedFieldNames = map[string]bool{"id": true, "type": true}

// componentSuffixes are the names the registry may derive from one type.
var componentSuffixes = []string{"", "Document", "List", "Reference", "ReferenceList", "Linkage"}

// Validate checks the graph for MalformedMetadata and UnsupportedFieldType
// conditions. Resources are checked in declaration order and the first
// problem found is returned.
func Validate(graph *metadata.Graph) error {
	if dups := graph.Duplicates(); len(dups) > 0 {
		return malformed(CodeDuplicateResource, dups[0], "", "resource type declared more than once")
	}

	components := map[string]string{ErrorsComponent: ""}
	for i := 0; i < graph.Len(); i++ {
		res := graph.At(i)
		if err := validateResource(graph, res, components); err != nil {
			return err
		}
	}
	return nil
}

func validateResource(graph *metadata.Graph, res *metadata.ResourceDescriptor, components map[string]string) error {
	if !validSegment(res.Type) {
		return malformed(CodeInvalidName, res.Type, "", "resource type must be a non-empty URL-safe path segment")
	}

	base := ComponentName(res.Type)
	for _, suffix := range componentSuffixes {
		name := base + suffix
		if owner, taken := components[name]; taken && owner != res.Type {
			if owner == "" {
				return malformed(CodeComponentNameClash, res.Type, "", "component name %q is reserved", name)
			}
			return malformed(CodeComponentNameClash, res.Type, "", "component name %q clashes with resource %q", name, owner)
		}
		components[name] = res.Type
	}

	ids := metadata.IdentifierFields(res)
	switch {
	case len(ids) == 0:
		return malformed(CodeMissingIdentifier, res.Type, "", "resource has no identifier field")
	case len(ids) > 1:
		names := make([]string, len(ids))
		for i, f := range ids {
			names[i] = f.Name
		}
		return malformed(CodeAmbiguousIdentifier, res.Type, "", "identifier is not unique: %s", strings.Join(names, ", "))
	case ids[0].Relationship:
		return malformed(CodeMissingIdentifier, res.Type, ids[0].Name, "identifier field cannot be a relationship")
	}

	seen := make(map[string]bool, len(res.Fields))
	for _, field := range res.Fields {
		if !validSegment(field.Name) {
			return malformed(CodeInvalidName, res.Type, field.Name, "field name must be a non-empty URL-safe path segment")
		}
		if seen[field.Name] {
			return malformed(CodeDuplicateField, res.Type, field.Name, "field declared more than once")
		}
		seen[field.Name] = true

		if field.ID {
			continue
		}
		if reservedFieldNames[field.Name] {
			return malformed(CodeInvalidName, res.Type, field.Name, "field name is reserved by JSON:API")
		}

		if field.Relationship {
			if field.Target == "" || !graph.Has(field.Target) {
				return malformed(CodeUnknownTarget, res.Type, field.Name, "relationship targets unknown resource type %q", field.Target)
			}
			if !field.Cardinality.Valid() {
				return malformed(CodeInvalidCardinality, res.Type, field.Name, "cardinality must be %q or %q, got %q",
					metadata.CardinalityOne, metadata.CardinalityMany, field.Cardinality)
			}
			continue
		}

		if _, ok := attributeSchema(field); !ok {
			return unsupportedFieldType(res.Type, field.Name, field.Type)
		}
	}
	return nil
}

// verifyReferences walks every schema reachable from the document and fails
// on the first $ref without a component.
func verifyReferences(doc *Document) error {
	check := func(schema *Schema, location string) error {
		return walkSchema(schema, func(s *Schema) error {
			if s.Ref == "" {
				return nil
			}
			name := strings.TrimPrefix(s.Ref, componentPrefix)
			if _, ok := doc.Components.Schemas[name]; !ok || name == s.Ref {
				return danglingReference(s.Ref, location)
			}
			return nil
		})
	}

	for _, path := range doc.Paths.Keys() {
		item, _ := doc.Paths.Get(path)
		for _, method := range item.Methods() {
			op := item.Operation(method)
			location := method + " " + path
			for _, p := range op.Parameters {
				if err := check(p.Schema, location); err != nil {
					return err
				}
			}
			if op.RequestBody != nil {
				for _, mt := range op.RequestBody.Content {
					if err := check(mt.Schema, location); err != nil {
						return err
					}
				}
			}
			for _, status := range sortedKeys(op.Responses) {
				for _, mt := range op.Responses[status].Content {
					if err := check(mt.Schema, location+" "+status); err != nil {
						return err
					}
				}
			}
		}
	}

	for _, name := range sortedKeys(doc.Components.Schemas) {
		if err := check(doc.Components.Schemas[name], componentPrefix+name); err != nil {
			return err
		}
	}
	return nil
}

func walkSchema(schema *Schema, visit func(*Schema) error) error {
	if schema == nil {
		return nil
	}
	if err := visit(schema); err != nil {
		return err
	}
	for _, name := range sortedKeys(schema.Properties) {
		if err := walkSchema(schema.Properties[name], visit); err != nil {
			return err
		}
	}
	return walkSchema(schema.Items, visit)
}
