package openapi

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/conduit-lang/jsonapi-oas/internal/metadata"
)

const componentPrefix = "#/components/schemas/"

// ErrorsComponent is the shared JSON:API error document schema.
const ErrorsComponent = "Errors"

// SchemaRef is a named pointer into the component registry. The registry
// hands out exactly one *SchemaRef per component, so refs to the same
// component compare equal by pointer.
type SchemaRef struct {
	name string
}

// Name returns the component name.
func (r *SchemaRef) Name() string {
	return r.name
}

// Pointer returns the JSON reference string.
func (r *SchemaRef) Pointer() string {
	return componentPrefix + r.name
}

// Schema returns a $ref schema pointing at the component.
func (r *SchemaRef) Schema() *Schema {
	return RefSchema(r.Pointer())
}

// SchemaRegistry materializes each component once and hands out refs to it.
// It is the only shared mutable state of a generation run; all methods are
// safe for concurrent use.
type SchemaRegistry struct {
	mu      sync.Mutex
	refs    map[string]*SchemaRef
	schemas map[string]*Schema
}

// NewSchemaRegistry creates an empty registry
func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{
		refs:    make(map[string]*SchemaRef),
		schemas: make(map[string]*Schema),
	}
}

// Resolve returns the resource object component for res, building it on first use.
// Attributes are inlined; relationships point at reference components.
func (r *SchemaRegistry) Resolve(res *metadata.ResourceDescriptor) (*SchemaRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolve(res)
}

// Shape returns the component backing one of the four response shapes for res.
func (r *SchemaRegistry) Shape(kind ShapeKind, res *metadata.ResourceDescriptor) (*SchemaRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shape(kind, res)
}

// Errors returns the shared error document component.
func (r *SchemaRegistry) Errors() *SchemaRef {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, _ := r.component(ErrorsComponent, func() (*Schema, error) {
		return errorsSchema(), nil
	})
	return ref
}

// Has reports whether a component has been registered.
func (r *SchemaRegistry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.schemas[name]
	return ok
}

// Len returns the number of materialized components.
func (r *SchemaRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.schemas)
}

// Snapshot returns a copy of the component map.
func (r *SchemaRegistry) Snapshot() map[string]*Schema {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*Schema, len(r.schemas))
	for name, schema := range r.schemas {
		out[name] = schema
	}
	return out
}

// component must be called with mu held. The ref is stored before build runs
// so a component that (indirectly) refers to itself gets the same ref back.
func (r *SchemaRegistry) component(name string, build func() (*Schema, error)) (*SchemaRef, error) {
	if ref, ok := r.refs[name]; ok {
		return ref, nil
	}

	ref := &SchemaRef{name: name}
	r.refs[name] = ref

	schema, err := build()
	if err != nil {
		delete(r.refs, name)
		return nil, err
	}
	r.schemas[name] = schema
	return ref, nil
}

func (r *SchemaRegistry) resolve(res *metadata.ResourceDescriptor) (*SchemaRef, error) {
	return r.component(ComponentName(res.Type), func() (*Schema, error) {
		return r.resourceObject(res)
	})
}

func (r *SchemaRegistry) shape(kind ShapeKind, res *metadata.ResourceDescriptor) (*SchemaRef, error) {
	name := ComponentName(res.Type) + kind.suffix()

	switch kind {
	case SingleResource:
		return r.component(name, func() (*Schema, error) {
			ref, err := r.resolve(res)
			if err != nil {
				return nil, err
			}
			return documentSchema(ref), nil
		})
	case ResourceCollection:
		return r.component(name, func() (*Schema, error) {
			ref, err := r.resolve(res)
			if err != nil {
				return nil, err
			}
			return listSchema(ref), nil
		})
	case RelationshipReference:
		return r.component(name, func() (*Schema, error) {
			return referenceSchema(r.linkage(res.Type)), nil
		})
	case RelationshipReferenceCollection:
		return r.component(name, func() (*Schema, error) {
			return referenceListSchema(r.linkage(res.Type)), nil
		})
	}
	return nil, fmt.Errorf("openapi: unknown shape kind %d", kind)
}

func (r *SchemaRegistry) linkage(resourceType string) *SchemaRef {
	ref, _ := r.component(ComponentName(resourceType)+"Linkage", func() (*Schema, error) {
		return linkageSchema(resourceType), nil
	})
	return ref
}

// resourceObject builds the JSON:API resource object for res.
func (r *SchemaRegistry) resourceObject(res *metadata.ResourceDescriptor) (*Schema, error) {
	mutable := res.Creatable || res.Writable

	attributes := &Schema{Type: "object", Properties: map[string]*Schema{}}
	for _, field := range metadata.Attributes(res) {
		readable, writable := field.IsReadable(res), field.IsWritable(res)
		if !readable && !writable {
			continue
		}

		schema, ok := attributeSchema(field)
		if !ok {
			return nil, unsupportedFieldType(res.Type, field.Name, field.Type)
		}
		schema.ReadOnly = mutable && readable && !writable
		schema.WriteOnly = !readable && writable
		attributes.Properties[field.Name] = schema
		if field.Required {
			attributes.Required = append(attributes.Required, field.Name)
		}
	}

	properties := map[string]*Schema{
		"type": {Type: "string", Enum: []string{res.Type}},
		"id":   {Type: "string"},
		"links": {
			Type: "object",
			Properties: map[string]*Schema{
				"self": {Type: "string", Format: "uri"},
			},
		},
		"attributes": attributes,
	}
	if ids := metadata.IdentifierFields(res); len(ids) == 1 {
		properties["id"].Description = ids[0].Description
	}

	relationships := &Schema{Type: "object", Properties: map[string]*Schema{}}
	for _, field := range metadata.Relationships(res) {
		if !field.IsReadable(res) && !field.IsWritable(res) {
			continue
		}
		target := &metadata.ResourceDescriptor{Type: field.Target}
		kind := RelationshipReference
		if field.IsMany() {
			kind = RelationshipReferenceCollection
		}
		ref, err := r.shape(kind, target)
		if err != nil {
			return nil, err
		}
		relationships.Properties[field.Name] = ref.Schema()
	}
	if len(relationships.Properties) > 0 {
		properties["relationships"] = relationships
	}

	return &Schema{
		Type:        "object",
		Description: res.Description,
		Required:    []string{"type", "id"},
		Properties:  properties,
	}, nil
}

// ComponentName derives the component name for a resource type:
// "project-task" and "project_task" both become "ProjectTask".
func ComponentName(resourceType string) string {
	var b strings.Builder
	upper := true
	for _, r := range resourceType {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func documentSchema(resource *SchemaRef) *Schema {
	return &Schema{
		Type:     "object",
		Required: []string{"data"},
		Properties: map[string]*Schema{
			"data":     resource.Schema(),
			"included": {Type: "array", Items: &Schema{Type: "object"}},
			"links":    linksSchema("self"),
		},
	}
}

func listSchema(resource *SchemaRef) *Schema {
	return &Schema{
		Type:     "object",
		Required: []string{"data"},
		Properties: map[string]*Schema{
			"data":     {Type: "array", Items: resource.Schema()},
			"included": {Type: "array", Items: &Schema{Type: "object"}},
			"meta": {
				Type: "object",
				Properties: map[string]*Schema{
					"totalResourceCount": {Type: "integer", Format: "int64"},
				},
			},
			"links": linksSchema("self", "first", "last", "prev", "next"),
		},
	}
}

func linkageSchema(resourceType string) *Schema {
	return &Schema{
		Type:     "object",
		Required: []string{"type", "id"},
		Properties: map[string]*Schema{
			"type": {Type: "string", Enum: []string{resourceType}},
			"id":   {Type: "string"},
		},
	}
}

func referenceSchema(linkage *SchemaRef) *Schema {
	return &Schema{
		Type:     "object",
		Required: []string{"data"},
		Properties: map[string]*Schema{
			"data": linkage.Schema(),
		},
	}
}

func referenceListSchema(linkage *SchemaRef) *Schema {
	return &Schema{
		Type:     "object",
		Required: []string{"data"},
		Properties: map[string]*Schema{
			"data": {Type: "array", Items: linkage.Schema()},
		},
	}
}

func linksSchema(names ...string) *Schema {
	props := make(map[string]*Schema, len(names))
	for _, name := range names {
		props[name] = &Schema{Type: "string", Format: "uri"}
	}
	return &Schema{Type: "object", Properties: props}
}

func errorsSchema() *Schema {
	str := func() *Schema { return &Schema{Type: "string"} }
	return &Schema{
		Type:     "object",
		Required: []string{"errors"},
		Properties: map[string]*Schema{
			"errors": {
				Type: "array",
				Items: &Schema{
					Type: "object",
					Properties: map[string]*Schema{
						"id":     str(),
						"status": str(),
						"code":   str(),
						"title":  str(),
						"detail": str(),
						"source": {
							Type: "object",
							Properties: map[string]*Schema{
								"pointer":   str(),
								"parameter": str(),
							},
						},
					},
				},
			},
		},
	}
}
