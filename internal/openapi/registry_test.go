package openapi

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/jsonapi-oas/internal/metadata"
)

func TestSchemaRegistry_ResolveMemoizes(t *testing.T) {
	g := taskProjectGraph()
	task, _ := g.Resource("task")
	reg := NewSchemaRegistry()

	first, err := reg.Resolve(task)
	require.NoError(t, err)
	n := reg.Len()

	second, err := reg.Resolve(task)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, n, reg.Len())
	assert.Equal(t, "Task", first.Name())
	assert.Equal(t, "#/components/schemas/Task", first.Pointer())
	assert.Equal(t, &Schema{Ref: "#/components/schemas/Task"}, first.Schema())
}

func TestSchemaRegistry_ResourceObject(t *testing.T) {
	task, _ := taskProjectGraph().Resource("task")
	reg := NewSchemaRegistry()

	ref, err := reg.Resolve(task)
	require.NoError(t, err)
	schema := reg.Snapshot()[ref.Name()]
	require.NotNil(t, schema)

	assert.Equal(t, "A unit of work", schema.Description)
	assert.Equal(t, []string{"type", "id"}, schema.Required)
	assert.Equal(t, []string{"task"}, schema.Properties["type"].Enum)

	attrs := schema.Properties["attributes"]
	assert.Equal(t, []string{"done", "title"}, sortedKeys(attrs.Properties), "identifier and relationships are not attributes")
	assert.Equal(t, []string{"title"}, attrs.Required)
	assert.Equal(t, "boolean", attrs.Properties["done"].Type)

	rels := schema.Properties["relationships"]
	require.NotNil(t, rels)
	assert.Equal(t, "#/components/schemas/ProjectReference", rels.Properties["project"].Ref)

	// Relationships are referenced, never inlined.
	assert.True(t, reg.Has("ProjectReference"))
	assert.True(t, reg.Has("ProjectLinkage"))
	assert.False(t, reg.Has("Project"))
}

func TestSchemaRegistry_ReadOnlyWriteOnly(t *testing.T) {
	res := &metadata.ResourceDescriptor{
		Type: "account", Readable: true, Writable: true,
		Fields: []metadata.FieldDescriptor{
			idField(),
			{Name: "email", Type: "email"},
			{Name: "created", Type: "timestamp", Writable: metadata.Bool(false)},
			{Name: "password", Type: "string", Readable: metadata.Bool(false)},
			{Name: "internal", Type: "string", Readable: metadata.Bool(false), Writable: metadata.Bool(false)},
		},
	}
	reg := NewSchemaRegistry()
	ref, err := reg.Resolve(res)
	require.NoError(t, err)

	attrs := reg.Snapshot()[ref.Name()].Properties["attributes"].Properties
	assert.False(t, attrs["email"].ReadOnly)
	assert.False(t, attrs["email"].WriteOnly)
	assert.Equal(t, "email", attrs["email"].Format)
	assert.True(t, attrs["created"].ReadOnly)
	assert.Equal(t, "date-time", attrs["created"].Format)
	assert.True(t, attrs["password"].WriteOnly)
	assert.NotContains(t, attrs, "internal")
}

func TestSchemaRegistry_UnsupportedTypeLeavesNoComponent(t *testing.T) {
	res := &metadata.ResourceDescriptor{
		Type:   "shape",
		Fields: []metadata.FieldDescriptor{idField(), {Name: "outline", Type: "polygon"}},
	}
	reg := NewSchemaRegistry()

	_, err := reg.Resolve(res)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFieldType)
	assert.False(t, reg.Has("Shape"))

	// A second attempt fails the same way rather than returning a placeholder.
	_, err = reg.Resolve(res)
	assert.ErrorIs(t, err, ErrUnsupportedFieldType)
}

func TestSchemaRegistry_ConcurrentResolve(t *testing.T) {
	task, _ := taskProjectGraph().Resource("task")
	reg := NewSchemaRegistry()

	const workers = 32
	refs := make([]*SchemaRef, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref, err := reg.Shape(ResourceCollection, task)
			if err == nil {
				refs[i] = ref
			}
		}(i)
	}
	wg.Wait()

	for _, ref := range refs {
		require.NotNil(t, ref)
		assert.Same(t, refs[0], ref)
	}
	assert.Equal(t, []string{"ProjectLinkage", "ProjectReference", "Task", "TaskList"}, sortedKeys(reg.Snapshot()))
}

func TestSchemaRegistry_Errors(t *testing.T) {
	reg := NewSchemaRegistry()

	a, b := reg.Errors(), reg.Errors()
	assert.Same(t, a, b)
	assert.Equal(t, ErrorsComponent, a.Name())
	assert.Equal(t, 1, reg.Len())

	schema := reg.Snapshot()[ErrorsComponent]
	assert.Equal(t, []string{"errors"}, schema.Required)
	assert.Equal(t, "array", schema.Properties["errors"].Type)
}

func TestSchemaRegistry_SnapshotIsCopy(t *testing.T) {
	reg := NewSchemaRegistry()
	reg.Errors()

	snap := reg.Snapshot()
	delete(snap, ErrorsComponent)

	assert.True(t, reg.Has(ErrorsComponent))
}

func TestComponentName(t *testing.T) {
	tests := map[string]string{
		"task":         "Task",
		"project-task": "ProjectTask",
		"project_task": "ProjectTask",
		"api.v2.user":  "ApiV2User",
		"Task":         "Task",
		"x":            "X",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ComponentName(in))
		})
	}
}
