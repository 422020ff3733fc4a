package openapi

import (
	"net/http"
	"strconv"

	"github.com/conduit-lang/jsonapi-oas/internal/metadata"
)

// ShapeKind enumerates the response payload shapes.
type ShapeKind int

const (
	// SingleResource is {data: <resource object>}.
	SingleResource ShapeKind = iota
	// ResourceCollection is {data: [<resource object>], meta, links}.
	ResourceCollection
	// RelationshipReference is {data: {type, id}}.
	RelationshipReference
	// RelationshipReferenceCollection is {data: [{type, id}]}.
	RelationshipReferenceCollection
)

// String returns the shape name
func (k ShapeKind) String() string {
	switch k {
	case SingleResource:
		return "single_resource"
	case ResourceCollection:
		return "resource_collection"
	case RelationshipReference:
		return "relationship_reference"
	case RelationshipReferenceCollection:
		return "relationship_reference_collection"
	default:
		return "unknown"
	}
}

// suffix is appended to the resource component name.
func (k ShapeKind) suffix() string {
	switch k {
	case SingleResource:
		return "Document"
	case ResourceCollection:
		return "List"
	case RelationshipReference:
		return "Reference"
	case RelationshipReferenceCollection:
		return "ReferenceList"
	default:
		return ""
	}
}

// ResponseShape is an immutable response payload description.
type ResponseShape struct {
	Kind ShapeKind
	Ref  *SchemaRef
}

// SingleResourceResponse describes a response carrying one resource of res's type.
func SingleResourceResponse(reg *SchemaRegistry, res *metadata.ResourceDescriptor) (ResponseShape, error) {
	return newShape(reg, SingleResource, res)
}

// ResourceCollectionResponse describes a paginated list of res's type.
func ResourceCollectionResponse(reg *SchemaRegistry, res *metadata.ResourceDescriptor) (ResponseShape, error) {
	return newShape(reg, ResourceCollection, res)
}

// RelationshipReferenceResponse describes a single {type, id} linkage.
func RelationshipReferenceResponse(reg *SchemaRegistry, res *metadata.ResourceDescriptor) (ResponseShape, error) {
	return newShape(reg, RelationshipReference, res)
}

// RelationshipReferenceCollectionResponse describes a list of linkages.
func RelationshipReferenceCollectionResponse(reg *SchemaRegistry, res *metadata.ResourceDescriptor) (ResponseShape, error) {
	return newShape(reg, RelationshipReferenceCollection, res)
}

// RelationshipResponse picks the linkage shape by cardinality: to-many
// relationships answer with a list, everything else with a single linkage.
func RelationshipResponse(reg *SchemaRegistry, target *metadata.ResourceDescriptor, cardinality metadata.Cardinality) (ResponseShape, error) {
	if cardinality == metadata.CardinalityMany {
		return RelationshipReferenceCollectionResponse(reg, target)
	}
	return RelationshipReferenceResponse(reg, target)
}

// RelatedResponse picks the full-resource shape by cardinality.
func RelatedResponse(reg *SchemaRegistry, target *metadata.ResourceDescriptor, cardinality metadata.Cardinality) (ResponseShape, error) {
	if cardinality == metadata.CardinalityMany {
		return ResourceCollectionResponse(reg, target)
	}
	return SingleResourceResponse(reg, target)
}

func newShape(reg *SchemaRegistry, kind ShapeKind, res *metadata.ResourceDescriptor) (ResponseShape, error) {
	ref, err := reg.Shape(kind, res)
	if err != nil {
		return ResponseShape{}, err
	}
	return ResponseShape{Kind: kind, Ref: ref}, nil
}

// Response renders the shape as an OpenAPI response object.
func (s ResponseShape) Response(description, mediaType string) *Response {
	return &Response{
		Description: description,
		Content: map[string]*MediaType{
			mediaType: {Schema: s.Ref.Schema()},
		},
	}
}

// Body renders the shape as a required request body.
func (s ResponseShape) Body(description, mediaType string) *RequestBody {
	return &RequestBody{
		Description: description,
		Required:    true,
		Content: map[string]*MediaType{
			mediaType: {Schema: s.Ref.Schema()},
		},
	}
}

// errorResponse is the fixed shape for every non-success status. It does not
// depend on the resource or the cardinality of the field involved.
func errorResponse(reg *SchemaRegistry, status int, mediaType string) *Response {
	return &Response{
		Description: http.StatusText(status),
		Content: map[string]*MediaType{
			mediaType: {Schema: reg.Errors().Schema()},
		},
	}
}

// NotFoundResponse is the 404 response shared by all {id} operations.
func NotFoundResponse(reg *SchemaRegistry, mediaType string) *Response {
	return errorResponse(reg, http.StatusNotFound, mediaType)
}

func noContentResponse() *Response {
	return &Response{Description: http.StatusText(http.StatusNoContent)}
}

func statusKey(status int) string {
	return strconv.Itoa(status)
}
