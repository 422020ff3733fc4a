// Package openapi compiles a resource metadata graph into an OpenAPI 3.0
// document describing a JSON:API style HTTP surface.
//
// The pipeline is: SchemaRegistry (one component per resource type) ->
// response shapes -> per-kind operation builders -> Assembler, which walks the
// graph and merges every enabled operation into an insertion-ordered path map.
package openapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Version is the OpenAPI version emitted by the assembler.
const Version = "3.0.3"

// Document is the root OpenAPI object.
type Document struct {
	OpenAPI    string     `json:"openapi" yaml:"openapi"`
	Info       Info       `json:"info" yaml:"info"`
	Servers    []Server   `json:"servers,omitempty" yaml:"servers,omitempty"`
	Tags       []Tag      `json:"tags,omitempty" yaml:"tags,omitempty"`
	Paths      *Paths     `json:"paths" yaml:"paths"`
	Components Components `json:"components" yaml:"components"`

	operations []*OperationDescriptor
}

// Operations returns the descriptors merged into the document, in emission
// order. Documents that were not produced by an Assembler have none.
func (d *Document) Operations() []*OperationDescriptor {
	return d.operations
}

// Info carries API metadata
type Info struct {
	Title       string `json:"title" yaml:"title"`
	Version     string `json:"version" yaml:"version"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Server is an entry of the servers section
type Server struct {
	URL         string `json:"url" yaml:"url"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Tag groups operations by owning resource type
type Tag struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Components holds the reusable schema definitions.
type Components struct {
	Schemas map[string]*Schema `json:"schemas" yaml:"schemas"`
}

// Schema is the subset of the OpenAPI schema object the generator emits.
type Schema struct {
	Ref         string             `json:"$ref,omitempty" yaml:"$ref,omitempty"`
	Type        string             `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string             `json:"format,omitempty" yaml:"format,omitempty"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Nullable    bool               `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	ReadOnly    bool               `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
	WriteOnly   bool               `json:"writeOnly,omitempty" yaml:"writeOnly,omitempty"`
	Enum        []string           `json:"enum,omitempty" yaml:"enum,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required    []string           `json:"required,omitempty" yaml:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty" yaml:"items,omitempty"`
}

// RefSchema returns a schema that only points at a component.
func RefSchema(ref string) *Schema {
	return &Schema{Ref: ref}
}

// Operation is a single HTTP operation on a path.
type Operation struct {
	OperationID string               `json:"operationId" yaml:"operationId"`
	Summary     string               `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string             `json:"tags,omitempty" yaml:"tags,omitempty"`
	Parameters  []*Parameter         `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	RequestBody *RequestBody         `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
	Responses   map[string]*Response `json:"responses" yaml:"responses"`
}

// Parameter describes a path or query parameter
type Parameter struct {
	Name        string  `json:"name" yaml:"name"`
	In          string  `json:"in" yaml:"in"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool    `json:"required,omitempty" yaml:"required,omitempty"`
	Schema      *Schema `json:"schema" yaml:"schema"`
}

// RequestBody describes an operation payload
type RequestBody struct {
	Description string                `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool                  `json:"required" yaml:"required"`
	Content     map[string]*MediaType `json:"content" yaml:"content"`
}

// Response describes one status of an operation
type Response struct {
	Description string                `json:"description" yaml:"description"`
	Content     map[string]*MediaType `json:"content,omitempty" yaml:"content,omitempty"`
}

// MediaType binds a schema to a content type
type MediaType struct {
	Schema *Schema `json:"schema" yaml:"schema"`
}

// PathItem groups the operations sharing one path template.
type PathItem struct {
	Get    *Operation `json:"get,omitempty" yaml:"get,omitempty"`
	Post   *Operation `json:"post,omitempty" yaml:"post,omitempty"`
	Patch  *Operation `json:"patch,omitempty" yaml:"patch,omitempty"`
	Delete *Operation `json:"delete,omitempty" yaml:"delete,omitempty"`
}

// pathMethods is the fixed emission order of operations within a path item.
var pathMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete}

// Operation returns the operation registered for method, or nil.
func (p *PathItem) Operation(method string) *Operation {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		return p.Get
	case http.MethodPost:
		return p.Post
	case http.MethodPatch:
		return p.Patch
	case http.MethodDelete:
		return p.Delete
	}
	return nil
}

// Methods lists the methods that have an operation, in emission order.
func (p *PathItem) Methods() []string {
	var methods []string
	for _, m := range pathMethods {
		if p.Operation(m) != nil {
			methods = append(methods, m)
		}
	}
	return methods
}

func (p *PathItem) set(method string, op *Operation) error {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		p.Get = op
	case http.MethodPost:
		p.Post = op
	case http.MethodPatch:
		p.Patch = op
	case http.MethodDelete:
		p.Delete = op
	default:
		return fmt.Errorf("unsupported method %q", method)
	}
	return nil
}

// Paths is the insertion-ordered path map of a document.
type Paths struct {
	order []string
	items map[string]*PathItem
}

// NewPaths creates an empty path map
func NewPaths() *Paths {
	return &Paths{items: make(map[string]*PathItem)}
}

// Len returns the number of distinct path templates.
func (p *Paths) Len() int {
	return len(p.order)
}

// Keys returns path templates in insertion order.
func (p *Paths) Keys() []string {
	keys := make([]string, len(p.order))
	copy(keys, p.order)
	return keys
}

// Get returns the item for a path template.
func (p *Paths) Get(path string) (*PathItem, bool) {
	item, ok := p.items[path]
	return item, ok
}

// Lookup returns the operation for (path, method), or nil.
func (p *Paths) Lookup(path, method string) *Operation {
	item, ok := p.items[path]
	if !ok {
		return nil
	}
	return item.Operation(method)
}

func (p *Paths) item(path string) *PathItem {
	if item, ok := p.items[path]; ok {
		return item
	}
	item := &PathItem{}
	p.items[path] = item
	p.order = append(p.order, path)
	return item
}

// MarshalJSON writes paths in insertion order.
func (p *Paths) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range p.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.items[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML writes paths in insertion order.
func (p *Paths) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range p.order {
		var value yaml.Node
		if err := value.Encode(p.items[key]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&value,
		)
	}
	return node, nil
}

// JSON renders the document as indented JSON with a trailing newline.
func (d *Document) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal OpenAPI document: %w", err)
	}
	return append(data, '\n'), nil
}

// YAML renders the document as YAML.
func (d *Document) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("failed to marshal OpenAPI document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal OpenAPI document: %w", err)
	}
	return buf.Bytes(), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
