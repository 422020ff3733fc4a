package openapi

import (
	"regexp"

	"github.com/conduit-lang/jsonapi-oas/internal/metadata"
)

// IDParameter is the only path parameter the generator emits.
const IDParameter = "id"

// segmentPattern accepts URL-unreserved path segments, so type and field
// names are embedded without escaping.
var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._~-]*$`)

// validSegment reports whether name can be used verbatim in a path template.
func validSegment(name string) bool {
	return segmentPattern.MatchString(name)
}

// CollectionPath returns "/{type}".
func CollectionPath(res *metadata.ResourceDescriptor) string {
	return "/" + res.Type
}

// ResourcePath returns "/{type}/{id}".
func ResourcePath(res *metadata.ResourceDescriptor) string {
	return CollectionPath(res) + "/{" + IDParameter + "}"
}

// RelationshipPath returns "/{type}/{id}/relationships/{field}".
func RelationshipPath(res *metadata.ResourceDescriptor, field metadata.FieldDescriptor) string {
	return ResourcePath(res) + "/relationships/" + field.Name
}

// RelatedPath returns "/{type}/{id}/{field}".
func RelatedPath(res *metadata.ResourceDescriptor, field metadata.FieldDescriptor) string {
	return ResourcePath(res) + "/" + field.Name
}

// PathFor dispatches to the template used by an operation kind. field is
// ignored for primary operations.
func PathFor(kind OperationKind, res *metadata.ResourceDescriptor, field *metadata.FieldDescriptor) string {
	switch kind {
	case ReadMany, Create:
		return CollectionPath(res)
	case ReadOne, Update, Delete:
		return ResourcePath(res)
	case RelationshipGet, RelationshipUpdate, RelationshipAdd, RelationshipRemove:
		return RelationshipPath(res, *field)
	case RelatedGet:
		return RelatedPath(res, *field)
	}
	return ""
}
