package metadata

import (
	"sort"
	"strings"
)

// Graph holds the resource metadata for one generation run.
// Indexes are built once in NewGraph; the graph is read-only afterwards.
type Graph struct {
	resources []ResourceDescriptor

	// Pre-computed indexes (built at construction)
	resourcesByType   map[string]int
	relationshipIndex map[string][]RelationshipRef // target type -> incoming relationships
}

// RelationshipRef references a relationship field and its source resource
type RelationshipRef struct {
	SourceResource string
	Field          FieldDescriptor
}

// NewGraph indexes the given resources. Order is preserved; it drives the
// order of paths in the generated document. When a type is declared more
// than once the first declaration wins the index, and Duplicates reports it.
func NewGraph(resources []ResourceDescriptor) *Graph {
	g := &Graph{
		resources:         make([]ResourceDescriptor, len(resources)),
		resourcesByType:   make(map[string]int, len(resources)),
		relationshipIndex: make(map[string][]RelationshipRef),
	}
	copy(g.resources, resources)

	for i := range g.resources {
		res := &g.resources[i]
		if _, exists := g.resourcesByType[res.Type]; !exists {
			g.resourcesByType[res.Type] = i
		}

		for _, field := range res.Fields {
			if !field.Relationship {
				continue
			}
			g.relationshipIndex[field.Target] = append(g.relationshipIndex[field.Target], RelationshipRef{
				SourceResource: res.Type,
				Field:          field,
			})
		}
	}

	return g
}

// Len returns the number of declared resources (duplicates included).
func (g *Graph) Len() int {
	return len(g.resources)
}

// Resources returns all resources in declaration order.
// Returns a copy to prevent external mutation.
func (g *Graph) Resources() []ResourceDescriptor {
	resources := make([]ResourceDescriptor, len(g.resources))
	copy(resources, g.resources)
	return resources
}

// At returns a pointer to the i-th resource. Callers must not mutate it.
func (g *Graph) At(i int) *ResourceDescriptor {
	return &g.resources[i]
}

// Resource finds a resource by type using the pre-computed index.
func (g *Graph) Resource(resourceType string) (*ResourceDescriptor, bool) {
	i, ok := g.resourcesByType[resourceType]
	if !ok {
		return nil, false
	}
	return &g.resources[i], true
}

// Has reports whether resourceType is declared in the graph.
func (g *Graph) Has(resourceType string) bool {
	_, ok := g.resourcesByType[resourceType]
	return ok
}

// Types returns the distinct resource types, sorted.
func (g *Graph) Types() []string {
	types := make([]string, 0, len(g.resourcesByType))
	for t := range g.resourcesByType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Duplicates returns resource types declared more than once, sorted.
func (g *Graph) Duplicates() []string {
	seen := make(map[string]int, len(g.resources))
	for _, res := range g.resources {
		seen[res.Type]++
	}

	var dups []string
	for t, n := range seen {
		if n > 1 {
			dups = append(dups, t)
		}
	}
	sort.Strings(dups)
	return dups
}

// Relationships returns the relationship fields of res in declaration order.
func Relationships(res *ResourceDescriptor) []FieldDescriptor {
	var rels []FieldDescriptor
	for _, field := range res.Fields {
		if field.Relationship {
			rels = append(rels, field)
		}
	}
	return rels
}

// Attributes returns the non-relationship, non-identifier fields of res.
func Attributes(res *ResourceDescriptor) []FieldDescriptor {
	var attrs []FieldDescriptor
	for _, field := range res.Fields {
		if !field.Relationship && !field.ID {
			attrs = append(attrs, field)
		}
	}
	return attrs
}

// IdentifierFields returns every field flagged as identifier.
func IdentifierFields(res *ResourceDescriptor) []FieldDescriptor {
	var ids []FieldDescriptor
	for _, field := range res.Fields {
		if field.ID {
			ids = append(ids, field)
		}
	}
	return ids
}

// ReferencesTo returns all relationships pointing to a resource type.
// This finds reverse dependencies (what depends on this resource).
func (g *Graph) ReferencesTo(resourceType string) []RelationshipRef {
	refs, ok := g.relationshipIndex[resourceType]
	if !ok {
		return []RelationshipRef{}
	}
	result := make([]RelationshipRef, len(refs))
	copy(result, refs)
	return result
}

// MatchTypes returns resource types matching a pattern.
// Pattern supports wildcards: "*" matches any characters.
func (g *Graph) MatchTypes(pattern string) []string {
	var result []string
	for _, t := range g.Types() {
		if matchPattern(t, pattern) {
			result = append(result, t)
		}
	}
	return result
}

// matchPattern matches a string against a pattern with wildcards
func matchPattern(s, pattern string) bool {
	if pattern == s || pattern == "*" {
		return true
	}

	// Prefix match (pattern ends with *)
	if strings.HasSuffix(pattern, "*") && !strings.HasPrefix(pattern, "*") {
		return strings.HasPrefix(s, strings.TrimSuffix(pattern, "*"))
	}

	// Suffix match (pattern starts with *)
	if strings.HasPrefix(pattern, "*") && !strings.HasSuffix(pattern, "*") {
		return strings.HasSuffix(s, strings.TrimPrefix(pattern, "*"))
	}

	// Contains match (*foo*) or infix (a*b)
	if strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") {
		return strings.Contains(s, strings.Trim(pattern, "*"))
	}
	if parts := strings.Split(pattern, "*"); len(parts) == 2 {
		return len(s) >= len(parts[0])+len(parts[1]) &&
			strings.HasPrefix(s, parts[0]) && strings.HasSuffix(s, parts[1])
	}

	return false
}
