package openapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPaths_InsertionOrder(t *testing.T) {
	paths := NewPaths()
	for _, p := range []string{"/zeta", "/alpha", "/mid", "/alpha"} {
		require.NoError(t, paths.item(p).set(http.MethodGet, &Operation{OperationID: p}))
	}

	assert.Equal(t, []string{"/zeta", "/alpha", "/mid"}, paths.Keys())
	assert.Equal(t, 3, paths.Len())

	data, err := json.Marshal(paths)
	require.NoError(t, err)
	s := string(data)
	assert.Less(t, strings.Index(s, "/zeta"), strings.Index(s, "/alpha"))
	assert.Less(t, strings.Index(s, "/alpha"), strings.Index(s, "/mid"))

	out, err := yaml.Marshal(paths)
	require.NoError(t, err)
	y := string(out)
	assert.Less(t, strings.Index(y, "/zeta"), strings.Index(y, "/alpha"))
	assert.Less(t, strings.Index(y, "/alpha"), strings.Index(y, "/mid"))
}

func TestPaths_KeysReturnsCopy(t *testing.T) {
	paths := NewPaths()
	paths.item("/task")

	keys := paths.Keys()
	keys[0] = "/mutated"

	assert.Equal(t, []string{"/task"}, paths.Keys())
}

func TestPathItem_Methods(t *testing.T) {
	item := &PathItem{}
	require.NoError(t, item.set("delete", &Operation{OperationID: "d"}))
	require.NoError(t, item.set(http.MethodGet, &Operation{OperationID: "g"}))
	require.NoError(t, item.set(http.MethodPatch, &Operation{OperationID: "p"}))

	assert.Equal(t, []string{http.MethodGet, http.MethodPatch, http.MethodDelete}, item.Methods())
	assert.Equal(t, "d", item.Operation("DELETE").OperationID)
	assert.Nil(t, item.Operation(http.MethodPost))
	assert.Nil(t, item.Operation(http.MethodPut))
	assert.Error(t, item.set(http.MethodPut, &Operation{}))
}

func TestPaths_Lookup(t *testing.T) {
	paths := NewPaths()
	op := &Operation{OperationID: "readOne:task"}
	require.NoError(t, paths.item("/task/{id}").set(http.MethodGet, op))

	assert.Same(t, op, paths.Lookup("/task/{id}", http.MethodGet))
	assert.Nil(t, paths.Lookup("/task/{id}", http.MethodDelete))
	assert.Nil(t, paths.Lookup("/nope", http.MethodGet))
}

func TestDocument_JSON(t *testing.T) {
	doc, err := Assemble(taskProjectGraph())
	require.NoError(t, err)

	data, err := doc.JSON()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "}\n"))

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "3.0.3", raw["openapi"])

	paths := raw["paths"].(map[string]interface{})
	rel := paths["/task/{id}/relationships/project"].(map[string]interface{})
	assert.Contains(t, rel, "get")
	assert.Contains(t, rel, "patch")
	assert.NotContains(t, rel, "post")

	get := rel["get"].(map[string]interface{})
	schema := get["responses"].(map[string]interface{})["200"].(map[string]interface{})["content"].(map[string]interface{})["application/json"].(map[string]interface{})["schema"].(map[string]interface{})
	assert.Equal(t, "#/components/schemas/ProjectReference", schema["$ref"])

	// Paths keep emission order in the rendered bytes.
	s := string(data)
	assert.Less(t, strings.Index(s, `"/task"`), strings.Index(s, `"/project"`))
	assert.NotContains(t, s, "operations")
}

func TestDocument_YAML(t *testing.T) {
	doc, err := Assemble(taskProjectGraph())
	require.NoError(t, err)

	data, err := doc.YAML()
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Equal(t, "3.0.3", raw["openapi"])

	paths := raw["paths"].(map[string]interface{})
	assert.Len(t, paths, 5)
	assert.Contains(t, paths, "/task/{id}/relationships/project")

	schemas := raw["components"].(map[string]interface{})["schemas"].(map[string]interface{})
	assert.Contains(t, schemas, "TaskList")
	assert.Contains(t, string(data), "$ref: '#/components/schemas/TaskList'")
}
