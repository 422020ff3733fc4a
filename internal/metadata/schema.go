// Package metadata describes the resource graph that OpenAPI generation
// consumes: resources, their fields, and the relationships between them.
//
// A Graph is built once (usually by one of the loaders in this package) and
// is treated as immutable for the rest of a generation run.
package metadata

import "fmt"

// Cardinality is the arity of a relationship field.
type Cardinality string

const (
	// CardinalityOne marks a to-one relationship.
	CardinalityOne Cardinality = "one"

	// CardinalityMany marks a to-many relationship.
	CardinalityMany Cardinality = "many"
)

// Valid reports whether c is one of the known cardinalities.
func (c Cardinality) Valid() bool {
	return c == CardinalityOne || c == CardinalityMany
}

// ResourceDescriptor captures a single resource type exposed at the API boundary.
type ResourceDescriptor struct {
	Type        string            `json:"type" yaml:"type"`                                   // Resource type, unique key (e.g. "task")
	Description string            `json:"description,omitempty" yaml:"description,omitempty"` // Optional doc text for the schema component
	Fields      []FieldDescriptor `json:"fields" yaml:"fields"`                               // Ordered field list
	Readable    bool              `json:"readable" yaml:"readable"`                           // GET operations allowed
	Creatable   bool              `json:"creatable" yaml:"creatable"`                         // POST allowed
	Writable    bool              `json:"writable" yaml:"writable"`                           // PATCH allowed
	Deletable   bool              `json:"deletable" yaml:"deletable"`                         // DELETE allowed
}

// FieldDescriptor captures a single attribute or relationship field.
type FieldDescriptor struct {
	Name         string      `json:"name" yaml:"name"`                                   // Field name as it appears on the wire
	Type         string      `json:"type,omitempty" yaml:"type,omitempty"`               // Attribute type (e.g. "string", "integer", "date-time")
	Description  string      `json:"description,omitempty" yaml:"description,omitempty"` // Optional doc text
	ID           bool        `json:"id,omitempty" yaml:"id,omitempty"`                   // Marks the identifier field
	Relationship bool        `json:"relationship,omitempty" yaml:"relationship,omitempty"`
	Target       string      `json:"target,omitempty" yaml:"target,omitempty"`           // Related resource type (relationships only)
	Cardinality  Cardinality `json:"cardinality,omitempty" yaml:"cardinality,omitempty"` // one | many (relationships only)
	Readable     *bool       `json:"readable,omitempty" yaml:"readable,omitempty"`       // nil inherits from the resource
	Writable     *bool       `json:"writable,omitempty" yaml:"writable,omitempty"`       // nil inherits from the resource
	Required     bool        `json:"required,omitempty" yaml:"required,omitempty"`
	Nullable     bool        `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Enum         []string    `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// IsReadable resolves the effective readability of f on its owning resource.
func (f FieldDescriptor) IsReadable(owner *ResourceDescriptor) bool {
	if f.Readable != nil {
		return *f.Readable
	}
	return owner != nil && owner.Readable
}

// IsWritable resolves the effective writability of f on its owning resource.
func (f FieldDescriptor) IsWritable(owner *ResourceDescriptor) bool {
	if f.Writable != nil {
		return *f.Writable
	}
	return owner != nil && owner.Writable
}

// IsMany reports whether f is a to-many relationship.
func (f FieldDescriptor) IsMany() bool {
	return f.Relationship && f.Cardinality == CardinalityMany
}

// String returns "type.field" style identification for diagnostics.
func (f FieldDescriptor) String() string {
	if f.Relationship {
		return fmt.Sprintf("%s -> %s (%s)", f.Name, f.Target, f.Cardinality)
	}
	return fmt.Sprintf("%s: %s", f.Name, f.Type)
}

// Bool returns a pointer to b. Handy for building descriptors in code.
func Bool(b bool) *bool {
	return &b
}
