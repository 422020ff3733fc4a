package openapi

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/jsonapi-oas/internal/metadata"
)

func idField() metadata.FieldDescriptor {
	return metadata.FieldDescriptor{Name: "id", Type: "string", ID: true}
}

// taskProject is the two-resource graph used across the package tests: a
// fully mutable task with a to-one project relationship, and a read-only
// project.
func taskProject() []metadata.ResourceDescriptor {
	return []metadata.ResourceDescriptor{
		{
			Type:        "task",
			Description: "A unit of work",
			Readable:    true,
			Creatable:   true,
			Writable:    true,
			Deletable:   true,
			Fields: []metadata.FieldDescriptor{
				idField(),
				{Name: "title", Type: "string", Required: true},
				{Name: "done", Type: "boolean"},
				{Name: "project", Relationship: true, Target: "project", Cardinality: metadata.CardinalityOne, Readable: metadata.Bool(true)},
			},
		},
		{
			Type:     "project",
			Readable: true,
			Fields: []metadata.FieldDescriptor{
				idField(),
				{Name: "name", Type: "string"},
			},
		},
	}
}

func taskProjectGraph() *metadata.Graph {
	return metadata.NewGraph(taskProject())
}

func mustAssemble(t *testing.T, cfg Config, resources []metadata.ResourceDescriptor) *Document {
	t.Helper()
	doc, err := NewAssembler(cfg, nil).Assemble(metadata.NewGraph(resources))
	require.NoError(t, err)
	return doc
}

// routes lists "METHOD path" for every operation of doc, in emission order.
func routes(doc *Document) []string {
	var out []string
	for _, path := range doc.Paths.Keys() {
		item, _ := doc.Paths.Get(path)
		for _, method := range item.Methods() {
			out = append(out, method+" "+path)
		}
	}
	return out
}

func responseRef(t *testing.T, op *Operation, status int, mediaType string) string {
	t.Helper()
	require.NotNil(t, op)
	resp, ok := op.Responses[statusKey(status)]
	require.True(t, ok, "no %d response", status)
	mt, ok := resp.Content[mediaType]
	require.True(t, ok, "no %s content for %d", mediaType, status)
	return mt.Schema.Ref
}
