package openapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/jsonapi-oas/internal/metadata"
)

func builderFor(t *testing.T, kind OperationKind, res *metadata.ResourceDescriptor, field *metadata.FieldDescriptor, related *metadata.ResourceDescriptor) OperationBuilder {
	t.Helper()
	b, err := NewOperationBuilder(kind, Target{
		Registry: NewSchemaRegistry(),
		Resource: res,
		Field:    field,
		Related:  related,
	})
	require.NoError(t, err)
	require.Equal(t, kind, b.Kind())
	return b
}

func TestPrimaryBuilders_Enablement(t *testing.T) {
	tests := []struct {
		name string
		res  metadata.ResourceDescriptor
		want map[OperationKind]bool
	}{
		{
			name: "read only",
			res:  metadata.ResourceDescriptor{Type: "project", Readable: true},
			want: map[OperationKind]bool{ReadMany: true, ReadOne: true, Create: false, Update: false, Delete: false},
		},
		{
			name: "write only",
			res:  metadata.ResourceDescriptor{Type: "event", Creatable: true, Writable: true, Deletable: true},
			want: map[OperationKind]bool{ReadMany: false, ReadOne: false, Create: true, Update: true, Delete: true},
		},
		{
			name: "create only",
			res:  metadata.ResourceDescriptor{Type: "signup", Creatable: true},
			want: map[OperationKind]bool{ReadMany: false, ReadOne: false, Create: true, Update: false, Delete: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for kind, enabled := range tt.want {
				b := builderFor(t, kind, &tt.res, nil, nil)
				assert.Equal(t, enabled, b.Enabled(), kind.String())
			}
		})
	}
}

func TestRelationshipBuilders_Enablement(t *testing.T) {
	related := &metadata.ResourceDescriptor{Type: "project"}
	field := func(readable, writable *bool) *metadata.FieldDescriptor {
		return &metadata.FieldDescriptor{
			Name: "project", Relationship: true, Target: "project",
			Cardinality: metadata.CardinalityOne, Readable: readable, Writable: writable,
		}
	}

	tests := []struct {
		name      string
		res       metadata.ResourceDescriptor
		field     *metadata.FieldDescriptor
		wantGet   bool
		wantPatch bool
	}{
		{"inherits both", metadata.ResourceDescriptor{Type: "task", Readable: true, Writable: true}, field(nil, nil), true, true},
		{"field unreadable", metadata.ResourceDescriptor{Type: "task", Readable: true, Writable: true}, field(metadata.Bool(false), nil), false, true},
		{"field read only", metadata.ResourceDescriptor{Type: "task", Readable: true, Writable: true}, field(nil, metadata.Bool(false)), true, false},
		{"resource unreadable", metadata.ResourceDescriptor{Type: "task", Writable: true}, field(metadata.Bool(true), nil), false, true},
		{"resource not writable", metadata.ResourceDescriptor{Type: "task", Readable: true}, field(nil, metadata.Bool(true)), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			get := builderFor(t, RelationshipGet, &tt.res, tt.field, related)
			patch := builderFor(t, RelationshipUpdate, &tt.res, tt.field, related)
			assert.Equal(t, tt.wantGet, get.Enabled())
			assert.Equal(t, tt.wantPatch, patch.Enabled())
		})
	}
}

func TestRelationshipMemberBuilders(t *testing.T) {
	res := &metadata.ResourceDescriptor{Type: "project", Readable: true, Writable: true}
	related := &metadata.ResourceDescriptor{Type: "person"}
	many := &metadata.FieldDescriptor{Name: "members", Relationship: true, Target: "person", Cardinality: metadata.CardinalityMany}
	one := &metadata.FieldDescriptor{Name: "owner", Relationship: true, Target: "person", Cardinality: metadata.CardinalityOne}

	add := builderFor(t, RelationshipAdd, res, many, related)
	remove := builderFor(t, RelationshipRemove, res, many, related)
	assert.True(t, add.Enabled())
	assert.True(t, remove.Enabled())
	assert.False(t, builderFor(t, RelationshipAdd, res, one, related).Enabled())
	assert.Equal(t, "Create project relationship to a person resource", add.Description())
	assert.Equal(t, "Delete project relationship to a person resource", remove.Description())

	op, err := add.Build()
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, op.Method)
	assert.Equal(t, "/project/{id}/relationships/members", op.Path)
	assert.Equal(t, "relationshipAdd:project:members", op.OperationID())
	assert.Equal(t, "#/components/schemas/PersonReferenceList", op.Operation.RequestBody.Content[DefaultMediaType].Schema.Ref)
	assert.Equal(t, []string{"204", "400", "404"}, sortedKeys(op.Responses))
}

func TestBuilders_Descriptions(t *testing.T) {
	task := &metadata.ResourceDescriptor{Type: "task", Readable: true, Creatable: true, Writable: true, Deletable: true}
	project := &metadata.ResourceDescriptor{Type: "project"}
	field := &metadata.FieldDescriptor{Name: "project", Relationship: true, Target: "project", Cardinality: metadata.CardinalityOne}

	tests := map[OperationKind]string{
		ReadMany:           "Retrieve a List of task resources",
		ReadOne:            "Retrieve a task resource",
		Create:             "Create a task",
		Update:             "Update a task resource",
		Delete:             "Delete a task resource",
		RelationshipGet:    "Retrieve project references related to a task resource",
		RelationshipUpdate: "Update task relationship to a project resource",
		RelatedGet:         "Retrieve project related to a task resource",
	}
	for kind, want := range tests {
		t.Run(kind.String(), func(t *testing.T) {
			b := builderFor(t, kind, task, field, project)
			assert.Equal(t, want, b.Description())

			op, err := b.Build()
			require.NoError(t, err)
			assert.Equal(t, want, op.Operation.Description)
			assert.Equal(t, b.Path(), op.Path)
			assert.Equal(t, kind.Method(), op.Method)
			assert.True(t, op.Enabled)
			assert.Equal(t, []string{"task"}, op.Operation.Tags)
		})
	}
}

func TestBuilders_OperationIDs(t *testing.T) {
	tests := []struct {
		kind  OperationKind
		owner string
		field string
		want  string
	}{
		{ReadMany, "task", "", "readMany:task"},
		{ReadOne, "task", "", "readOne:task"},
		{RelationshipGet, "task", "project", "relationshipGet:task:project"},
		{RelationshipUpdate, "task", "project", "relationshipUpdate:task:project"},
		{RelationshipGet, "a", "b_c", "relationshipGet:a:b_c"},
		{RelationshipGet, "a_b", "c", "relationshipGet:a_b:c"},
		{RelationshipGet, "a.b", "c", "relationshipGet:a.b:c"},
		{RelationshipGet, "a", "b.c", "relationshipGet:a:b.c"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, operationID(tt.kind, tt.owner, tt.field))
		})
	}
}

func TestBuilders_OperationIDSeparatorNotInNames(t *testing.T) {
	assert.False(t, validSegment("a"+idSeparator+"b"))
}

func TestBuilders_RequestBodies(t *testing.T) {
	task := &metadata.ResourceDescriptor{Type: "task", Readable: true, Creatable: true, Writable: true, Deletable: true}
	project := &metadata.ResourceDescriptor{Type: "project"}
	field := &metadata.FieldDescriptor{Name: "project", Relationship: true, Target: "project", Cardinality: metadata.CardinalityOne}

	body := func(kind OperationKind) *RequestBody {
		op, err := builderFor(t, kind, task, field, project).Build()
		require.NoError(t, err)
		return op.Operation.RequestBody
	}

	assert.Nil(t, body(ReadMany))
	assert.Nil(t, body(ReadOne))
	assert.Nil(t, body(Delete))
	assert.Equal(t, "#/components/schemas/TaskDocument", body(Create).Content[DefaultMediaType].Schema.Ref)
	assert.Equal(t, "#/components/schemas/TaskDocument", body(Update).Content[DefaultMediaType].Schema.Ref)
	assert.Equal(t, "#/components/schemas/ProjectReference", body(RelationshipUpdate).Content[DefaultMediaType].Schema.Ref)
}

func TestNewOperationBuilder_Errors(t *testing.T) {
	task := &metadata.ResourceDescriptor{Type: "task"}

	_, err := NewOperationBuilder(ReadOne, Target{Resource: task})
	assert.Error(t, err, "registry is required")

	_, err = NewOperationBuilder(RelationshipGet, Target{Registry: NewSchemaRegistry(), Resource: task})
	assert.Error(t, err, "relationship kinds need a field")

	_, err = NewOperationBuilder(OperationKind(99), Target{Registry: NewSchemaRegistry(), Resource: task})
	assert.Error(t, err)
}

func TestOperationKind(t *testing.T) {
	assert.Equal(t, http.MethodGet, ReadOne.Method())
	assert.Equal(t, http.MethodPost, Create.Method())
	assert.Equal(t, http.MethodPatch, RelationshipUpdate.Method())
	assert.Equal(t, http.MethodDelete, RelationshipRemove.Method())
	assert.Empty(t, OperationKind(99).Method())
	assert.Equal(t, "Unknown", OperationKind(99).String())

	assert.False(t, Update.IsRelationship())
	assert.True(t, RelatedGet.IsRelationship())
	assert.Len(t, PrimaryKinds, 5)
	assert.Len(t, RelationshipKinds, 2)
}
