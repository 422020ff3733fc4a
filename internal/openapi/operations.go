package openapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/conduit-lang/jsonapi-oas/internal/metadata"
)

// OperationKind is the closed set of operations the generator can emit.
type OperationKind int

const (
	ReadOne OperationKind = iota
	ReadMany
	Create
	Update
	Delete
	RelationshipGet
	RelationshipUpdate

	// Related-resource endpoints, only emitted when enabled in Config.
	RelatedGet
	RelationshipAdd
	RelationshipRemove
)

// PrimaryKinds are built once per resource, in path emission order.
var PrimaryKinds = []OperationKind{ReadMany, Create, ReadOne, Update, Delete}

// RelationshipKinds are built once per relationship field.
var RelationshipKinds = []OperationKind{RelationshipGet, RelationshipUpdate}

// RelatedKinds are the opt-in relationship operations.
var RelatedKinds = []OperationKind{RelatedGet, RelationshipAdd, RelationshipRemove}

// String returns the kind name
func (k OperationKind) String() string {
	switch k {
	case ReadOne:
		return "ReadOne"
	case ReadMany:
		return "ReadMany"
	case Create:
		return "Create"
	case Update:
		return "Update"
	case Delete:
		return "Delete"
	case RelationshipGet:
		return "RelationshipGet"
	case RelationshipUpdate:
		return "RelationshipUpdate"
	case RelatedGet:
		return "RelatedGet"
	case RelationshipAdd:
		return "RelationshipAdd"
	case RelationshipRemove:
		return "RelationshipRemove"
	default:
		return "Unknown"
	}
}

// Method returns the HTTP method of the kind.
func (k OperationKind) Method() string {
	switch k {
	case ReadOne, ReadMany, RelationshipGet, RelatedGet:
		return http.MethodGet
	case Create, RelationshipAdd:
		return http.MethodPost
	case Update, RelationshipUpdate:
		return http.MethodPatch
	case Delete, RelationshipRemove:
		return http.MethodDelete
	default:
		return ""
	}
}

// IsRelationship reports whether the kind operates on a relationship field.
func (k OperationKind) IsRelationship() bool {
	switch k {
	case RelationshipGet, RelationshipUpdate, RelatedGet, RelationshipAdd, RelationshipRemove:
		return true
	}
	return false
}

// OperationDescriptor is the result of building one operation.
type OperationDescriptor struct {
	Kind        OperationKind
	Owner       string // owning resource type
	Field       string // relationship field, empty for primary operations
	Related     string // related resource type, empty for primary operations
	Method      string
	Path        string
	Description string
	Enabled     bool
	Responses   map[string]*Response
	Operation   *Operation
}

// OperationID returns the document-wide operation identifier.
func (d *OperationDescriptor) OperationID() string {
	return operationID(d.Kind, d.Owner, d.Field)
}

// idSeparator joins the parts of an operation id. Resource types and field
// names cannot contain it, so distinct (kind, owner, field) triples never
// share an id.
const idSeparator = ":"

func operationID(kind OperationKind, owner, field string) string {
	name := kind.String()
	id := strings.ToLower(name[:1]) + name[1:] + idSeparator + owner
	if field != "" {
		id += idSeparator + field
	}
	return id
}

// OperationBuilder is implemented by one type per OperationKind.
type OperationBuilder interface {
	Kind() OperationKind
	Enabled() bool
	Description() string
	Path() string
	Build() (*OperationDescriptor, error)
}

// Target is everything a builder needs: the owning resource, and for
// relationship kinds the field and its related resource.
type Target struct {
	Registry        *SchemaRegistry
	Resource        *metadata.ResourceDescriptor
	Field           *metadata.FieldDescriptor
	Related         *metadata.ResourceDescriptor
	MediaType       string
	QueryParameters bool
}

// NewOperationBuilder returns the builder for kind.
func NewOperationBuilder(kind OperationKind, t Target) (OperationBuilder, error) {
	if t.Registry == nil || t.Resource == nil {
		return nil, fmt.Errorf("openapi: %s builder needs a registry and a resource", kind)
	}
	if kind.IsRelationship() && (t.Field == nil || t.Related == nil) {
		return nil, fmt.Errorf("openapi: %s builder for %s needs a relationship field", kind, t.Resource.Type)
	}
	if t.MediaType == "" {
		t.MediaType = DefaultMediaType
	}

	base := builderBase{Target: t}
	switch kind {
	case ReadOne:
		return &readOneBuilder{base}, nil
	case ReadMany:
		return &readManyBuilder{base}, nil
	case Create:
		return &createBuilder{base}, nil
	case Update:
		return &updateBuilder{base}, nil
	case Delete:
		return &deleteBuilder{base}, nil
	case RelationshipGet:
		return &relationshipGetBuilder{base}, nil
	case RelationshipUpdate:
		return &relationshipUpdateBuilder{base}, nil
	case RelatedGet:
		return &relatedGetBuilder{base}, nil
	case RelationshipAdd, RelationshipRemove:
		return &relationshipMemberBuilder{builderBase: base, kind: kind}, nil
	}
	return nil, fmt.Errorf("openapi: unknown operation kind %d", int(kind))
}

// builderBase carries the target and the helpers every builder shares.
type builderBase struct {
	Target
}

func (b builderBase) fieldName() string {
	if b.Field == nil {
		return ""
	}
	return b.Field.Name
}

func (b builderBase) relatedType() string {
	if b.Related == nil {
		return ""
	}
	return b.Related.Type
}

func (b builderBase) fieldReadable() bool {
	return b.Resource.Readable && b.Field.IsReadable(b.Resource)
}

func (b builderBase) fieldWritable() bool {
	return b.Resource.Writable && b.Field.IsWritable(b.Resource)
}

func (b builderBase) errorResponse(status int) *Response {
	return errorResponse(b.Registry, status, b.MediaType)
}

// descriptor assembles the final descriptor for ob.
func (b builderBase) descriptor(ob OperationBuilder, summary string, responses map[int]*Response, body *RequestBody, params []*Parameter) *OperationDescriptor {
	rendered := make(map[string]*Response, len(responses))
	for status, resp := range responses {
		rendered[statusKey(status)] = resp
	}

	kind := ob.Kind()
	return &OperationDescriptor{
		Kind:        kind,
		Owner:       b.Resource.Type,
		Field:       b.fieldName(),
		Related:     b.relatedType(),
		Method:      kind.Method(),
		Path:        ob.Path(),
		Description: ob.Description(),
		Enabled:     ob.Enabled(),
		Responses:   rendered,
		Operation: &Operation{
			OperationID: operationID(kind, b.Resource.Type, b.fieldName()),
			Summary:     summary,
			Description: ob.Description(),
			Tags:        []string{b.Resource.Type},
			Parameters:  params,
			RequestBody: body,
			Responses:   rendered,
		},
	}
}

func (b builderBase) idParameters() []*Parameter {
	return []*Parameter{{
		Name:        IDParameter,
		In:          "path",
		Description: fmt.Sprintf("Identifier of the %s resource", b.Resource.Type),
		Required:    true,
		Schema:      &Schema{Type: "string"},
	}}
}

// queryParameters returns the JSON:API query parameters. sparse lists the
// resource types whose fieldsets can be selected.
func (b builderBase) queryParameters(collection bool, sparse string) []*Parameter {
	if !b.QueryParameters {
		return nil
	}

	str := func() *Schema { return &Schema{Type: "string"} }
	params := []*Parameter{
		{Name: "include", In: "query", Description: "Comma-separated list of relationship paths to include", Schema: str()},
		{Name: "fields[" + sparse + "]", In: "query", Description: "Comma-separated list of " + sparse + " fields to return", Schema: str()},
	}
	if !collection {
		return params
	}
	return append(params,
		&Parameter{Name: "sort", In: "query", Description: "Comma-separated sort fields, prefix with - for descending", Schema: str()},
		&Parameter{Name: "filter", In: "query", Description: "Filter expression", Schema: str()},
		&Parameter{Name: "page[offset]", In: "query", Description: "Page offset", Schema: &Schema{Type: "integer", Format: "int64"}},
		&Parameter{Name: "page[limit]", In: "query", Description: "Page size", Schema: &Schema{Type: "integer", Format: "int64"}},
	)
}

// --- Primary operations ---

type readManyBuilder struct{ builderBase }

func (b *readManyBuilder) Kind() OperationKind { return ReadMany }
func (b *readManyBuilder) Enabled() bool       { return b.Resource.Readable }
func (b *readManyBuilder) Path() string        { return CollectionPath(b.Resource) }

func (b *readManyBuilder) Description() string {
	return fmt.Sprintf("Retrieve a List of %s resources", b.Resource.Type)
}

func (b *readManyBuilder) Build() (*OperationDescriptor, error) {
	shape, err := ResourceCollectionResponse(b.Registry, b.Resource)
	if err != nil {
		return nil, err
	}
	responses := map[int]*Response{
		http.StatusOK:         shape.Response(http.StatusText(http.StatusOK), b.MediaType),
		http.StatusBadRequest: b.errorResponse(http.StatusBadRequest),
	}
	return b.descriptor(b, "List "+b.Resource.Type, responses, nil, b.queryParameters(true, b.Resource.Type)), nil
}

type readOneBuilder struct{ builderBase }

func (b *readOneBuilder) Kind() OperationKind { return ReadOne }
func (b *readOneBuilder) Enabled() bool       { return b.Resource.Readable }
func (b *readOneBuilder) Path() string        { return ResourcePath(b.Resource) }

func (b *readOneBuilder) Description() string {
	return fmt.Sprintf("Retrieve a %s resource", b.Resource.Type)
}

func (b *readOneBuilder) Build() (*OperationDescriptor, error) {
	shape, err := SingleResourceResponse(b.Registry, b.Resource)
	if err != nil {
		return nil, err
	}
	responses := map[int]*Response{
		http.StatusOK:       shape.Response(http.StatusText(http.StatusOK), b.MediaType),
		http.StatusNotFound: NotFoundResponse(b.Registry, b.MediaType),
	}
	params := append(b.idParameters(), b.queryParameters(false, b.Resource.Type)...)
	return b.descriptor(b, "Get "+b.Resource.Type, responses, nil, params), nil
}

type createBuilder struct{ builderBase }

func (b *createBuilder) Kind() OperationKind { return Create }
func (b *createBuilder) Enabled() bool       { return b.Resource.Creatable }
func (b *createBuilder) Path() string        { return CollectionPath(b.Resource) }

func (b *createBuilder) Description() string {
	return fmt.Sprintf("Create a %s", b.Resource.Type)
}

func (b *createBuilder) Build() (*OperationDescriptor, error) {
	shape, err := SingleResourceResponse(b.Registry, b.Resource)
	if err != nil {
		return nil, err
	}
	responses := map[int]*Response{
		http.StatusCreated:    shape.Response(http.StatusText(http.StatusCreated), b.MediaType),
		http.StatusBadRequest: b.errorResponse(http.StatusBadRequest),
		http.StatusConflict:   b.errorResponse(http.StatusConflict),
	}
	body := shape.Body("The "+b.Resource.Type+" to create", b.MediaType)
	return b.descriptor(b, "Create "+b.Resource.Type, responses, body, nil), nil
}

type updateBuilder struct{ builderBase }

func (b *updateBuilder) Kind() OperationKind { return Update }
func (b *updateBuilder) Enabled() bool       { return b.Resource.Writable }
func (b *updateBuilder) Path() string        { return ResourcePath(b.Resource) }

func (b *updateBuilder) Description() string {
	return fmt.Sprintf("Update a %s resource", b.Resource.Type)
}

func (b *updateBuilder) Build() (*OperationDescriptor, error) {
	shape, err := SingleResourceResponse(b.Registry, b.Resource)
	if err != nil {
		return nil, err
	}
	responses := map[int]*Response{
		http.StatusOK:         shape.Response(http.StatusText(http.StatusOK), b.MediaType),
		http.StatusBadRequest: b.errorResponse(http.StatusBadRequest),
		http.StatusNotFound:   NotFoundResponse(b.Registry, b.MediaType),
		http.StatusConflict:   b.errorResponse(http.StatusConflict),
	}
	body := shape.Body("The "+b.Resource.Type+" attributes and relationships to change", b.MediaType)
	return b.descriptor(b, "Update "+b.Resource.Type, responses, body, b.idParameters()), nil
}

type deleteBuilder struct{ builderBase }

func (b *deleteBuilder) Kind() OperationKind { return Delete }
func (b *deleteBuilder) Enabled() bool       { return b.Resource.Deletable }
func (b *deleteBuilder) Path() string        { return ResourcePath(b.Resource) }

func (b *deleteBuilder) Description() string {
	return fmt.Sprintf("Delete a %s resource", b.Resource.Type)
}

func (b *deleteBuilder) Build() (*OperationDescriptor, error) {
	responses := map[int]*Response{
		http.StatusNoContent: noContentResponse(),
		http.StatusNotFound:  NotFoundResponse(b.Registry, b.MediaType),
	}
	return b.descriptor(b, "Delete "+b.Resource.Type, responses, nil, b.idParameters()), nil
}

// --- Relationship operations ---

type relationshipGetBuilder struct{ builderBase }

func (b *relationshipGetBuilder) Kind() OperationKind { return RelationshipGet }
func (b *relationshipGetBuilder) Enabled() bool       { return b.fieldReadable() }
func (b *relationshipGetBuilder) Path() string        { return RelationshipPath(b.Resource, *b.Field) }

func (b *relationshipGetBuilder) Description() string {
	return fmt.Sprintf("Retrieve %s references related to a %s resource", b.Related.Type, b.Resource.Type)
}

func (b *relationshipGetBuilder) Build() (*OperationDescriptor, error) {
	shape, err := RelationshipResponse(b.Registry, b.Related, b.Field.Cardinality)
	if err != nil {
		return nil, err
	}
	responses := map[int]*Response{
		http.StatusOK:       shape.Response(http.StatusText(http.StatusOK), b.MediaType),
		http.StatusNotFound: NotFoundResponse(b.Registry, b.MediaType),
	}
	summary := fmt.Sprintf("Get %s.%s relationship", b.Resource.Type, b.Field.Name)
	return b.descriptor(b, summary, responses, nil, b.idParameters()), nil
}

type relationshipUpdateBuilder struct{ builderBase }

func (b *relationshipUpdateBuilder) Kind() OperationKind { return RelationshipUpdate }
func (b *relationshipUpdateBuilder) Enabled() bool       { return b.fieldWritable() }
func (b *relationshipUpdateBuilder) Path() string        { return RelationshipPath(b.Resource, *b.Field) }

func (b *relationshipUpdateBuilder) Description() string {
	return fmt.Sprintf("Update %s relationship to a %s resource", b.Resource.Type, b.Related.Type)
}

func (b *relationshipUpdateBuilder) Build() (*OperationDescriptor, error) {
	shape, err := RelationshipResponse(b.Registry, b.Related, b.Field.Cardinality)
	if err != nil {
		return nil, err
	}
	responses := map[int]*Response{
		http.StatusNoContent:  noContentResponse(),
		http.StatusBadRequest: b.errorResponse(http.StatusBadRequest),
		http.StatusNotFound:   NotFoundResponse(b.Registry, b.MediaType),
		http.StatusConflict:   b.errorResponse(http.StatusConflict),
	}
	body := shape.Body("Replacement "+b.Related.Type+" linkage", b.MediaType)
	summary := fmt.Sprintf("Update %s.%s relationship", b.Resource.Type, b.Field.Name)
	return b.descriptor(b, summary, responses, body, b.idParameters()), nil
}

type relatedGetBuilder struct{ builderBase }

func (b *relatedGetBuilder) Kind() OperationKind { return RelatedGet }
func (b *relatedGetBuilder) Enabled() bool       { return b.fieldReadable() }
func (b *relatedGetBuilder) Path() string        { return RelatedPath(b.Resource, *b.Field) }

func (b *relatedGetBuilder) Description() string {
	return fmt.Sprintf("Retrieve %s related to a %s resource", b.Related.Type, b.Resource.Type)
}

func (b *relatedGetBuilder) Build() (*OperationDescriptor, error) {
	shape, err := RelatedResponse(b.Registry, b.Related, b.Field.Cardinality)
	if err != nil {
		return nil, err
	}
	responses := map[int]*Response{
		http.StatusOK:       shape.Response(http.StatusText(http.StatusOK), b.MediaType),
		http.StatusNotFound: NotFoundResponse(b.Registry, b.MediaType),
	}
	params := append(b.idParameters(), b.queryParameters(false, b.Related.Type)...)
	summary := fmt.Sprintf("Get related %s of %s", b.Field.Name, b.Resource.Type)
	return b.descriptor(b, summary, responses, nil, params), nil
}

// relationshipMemberBuilder backs POST and DELETE on to-many relationships.
type relationshipMemberBuilder struct {
	builderBase
	kind OperationKind
}

func (b *relationshipMemberBuilder) Kind() OperationKind { return b.kind }
func (b *relationshipMemberBuilder) Enabled() bool       { return b.Field.IsMany() && b.fieldWritable() }
func (b *relationshipMemberBuilder) Path() string        { return RelationshipPath(b.Resource, *b.Field) }

func (b *relationshipMemberBuilder) Description() string {
	if b.kind == RelationshipAdd {
		return fmt.Sprintf("Create %s relationship to a %s resource", b.Resource.Type, b.Related.Type)
	}
	return fmt.Sprintf("Delete %s relationship to a %s resource", b.Resource.Type, b.Related.Type)
}

func (b *relationshipMemberBuilder) Build() (*OperationDescriptor, error) {
	shape, err := RelationshipReferenceCollectionResponse(b.Registry, b.Related)
	if err != nil {
		return nil, err
	}
	responses := map[int]*Response{
		http.StatusNoContent:  noContentResponse(),
		http.StatusBadRequest: b.errorResponse(http.StatusBadRequest),
		http.StatusNotFound:   NotFoundResponse(b.Registry, b.MediaType),
	}

	verb, summary := "added", fmt.Sprintf("Add to %s.%s relationship", b.Resource.Type, b.Field.Name)
	if b.kind == RelationshipRemove {
		verb, summary = "removed", fmt.Sprintf("Remove from %s.%s relationship", b.Resource.Type, b.Field.Name)
	}
	body := shape.Body(b.Related.Type+" linkage to be "+verb, b.MediaType)
	return b.descriptor(b, summary, responses, body, b.idParameters()), nil
}
