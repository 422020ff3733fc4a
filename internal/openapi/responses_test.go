package openapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/jsonapi-oas/internal/metadata"
)

func TestResponseBuilders(t *testing.T) {
	project, _ := taskProjectGraph().Resource("project")

	tests := []struct {
		name  string
		build func(*SchemaRegistry, *metadata.ResourceDescriptor) (ResponseShape, error)
		kind  ShapeKind
		ref   string
	}{
		{"single", SingleResourceResponse, SingleResource, "ProjectDocument"},
		{"collection", ResourceCollectionResponse, ResourceCollection, "ProjectList"},
		{"reference", RelationshipReferenceResponse, RelationshipReference, "ProjectReference"},
		{"reference collection", RelationshipReferenceCollectionResponse, RelationshipReferenceCollection, "ProjectReferenceList"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewSchemaRegistry()
			shape, err := tt.build(reg, project)
			require.NoError(t, err)

			assert.Equal(t, tt.kind, shape.Kind)
			assert.Equal(t, tt.ref, shape.Ref.Name())
			assert.True(t, reg.Has(tt.ref))

			again, err := tt.build(reg, project)
			require.NoError(t, err)
			assert.Same(t, shape.Ref, again.Ref)
		})
	}
}

func TestRelationshipResponse_Cardinality(t *testing.T) {
	project, _ := taskProjectGraph().Resource("project")
	reg := NewSchemaRegistry()

	one, err := RelationshipResponse(reg, project, metadata.CardinalityOne)
	require.NoError(t, err)
	assert.Equal(t, RelationshipReference, one.Kind)

	many, err := RelationshipResponse(reg, project, metadata.CardinalityMany)
	require.NoError(t, err)
	assert.Equal(t, RelationshipReferenceCollection, many.Kind)

	// Both shapes share the linkage component.
	snap := reg.Snapshot()
	assert.Equal(t, "#/components/schemas/ProjectLinkage", snap["ProjectReference"].Properties["data"].Ref)
	assert.Equal(t, "#/components/schemas/ProjectLinkage", snap["ProjectReferenceList"].Properties["data"].Items.Ref)
	assert.Equal(t, []string{"project"}, snap["ProjectLinkage"].Properties["type"].Enum)
	assert.NotContains(t, snap["ProjectLinkage"].Properties, "attributes")
}

func TestRelatedResponse_Cardinality(t *testing.T) {
	project, _ := taskProjectGraph().Resource("project")
	reg := NewSchemaRegistry()

	one, err := RelatedResponse(reg, project, metadata.CardinalityOne)
	require.NoError(t, err)
	assert.Equal(t, SingleResource, one.Kind)

	many, err := RelatedResponse(reg, project, metadata.CardinalityMany)
	require.NoError(t, err)
	assert.Equal(t, ResourceCollection, many.Kind)
}

func TestCollectionSchemaHasPagination(t *testing.T) {
	project, _ := taskProjectGraph().Resource("project")
	reg := NewSchemaRegistry()

	shape, err := ResourceCollectionResponse(reg, project)
	require.NoError(t, err)

	list := reg.Snapshot()[shape.Ref.Name()]
	assert.Equal(t, "array", list.Properties["data"].Type)
	assert.Contains(t, list.Properties["meta"].Properties, "totalResourceCount")
	assert.Equal(t, []string{"first", "last", "next", "prev", "self"}, sortedKeys(list.Properties["links"].Properties))
}

func TestResponseShape_Render(t *testing.T) {
	project, _ := taskProjectGraph().Resource("project")
	reg := NewSchemaRegistry()
	shape, err := SingleResourceResponse(reg, project)
	require.NoError(t, err)

	resp := shape.Response("OK", "application/vnd.api+json")
	assert.Equal(t, "OK", resp.Description)
	assert.Equal(t, "#/components/schemas/ProjectDocument", resp.Content["application/vnd.api+json"].Schema.Ref)

	body := shape.Body("payload", DefaultMediaType)
	assert.True(t, body.Required)
	assert.Equal(t, "#/components/schemas/ProjectDocument", body.Content[DefaultMediaType].Schema.Ref)
}

func TestNotFoundResponse(t *testing.T) {
	reg := NewSchemaRegistry()

	resp := NotFoundResponse(reg, DefaultMediaType)
	assert.Equal(t, http.StatusText(http.StatusNotFound), resp.Description)
	assert.Equal(t, "#/components/schemas/Errors", resp.Content[DefaultMediaType].Schema.Ref)
}

func TestShapeKind_String(t *testing.T) {
	assert.Equal(t, "single_resource", SingleResource.String())
	assert.Equal(t, "relationship_reference_collection", RelationshipReferenceCollection.String())
	assert.Equal(t, "unknown", ShapeKind(42).String())

	_, err := NewSchemaRegistry().Shape(ShapeKind(42), &metadata.ResourceDescriptor{Type: "task"})
	assert.Error(t, err)
}
