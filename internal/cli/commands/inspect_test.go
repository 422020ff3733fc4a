package commands

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectCommand(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		workspace(t)

		stdout, stderr, err := execute(t, "inspect")
		require.NoError(t, err, stderr)

		lines := strings.Split(stdout, "\n")
		require.GreaterOrEqual(t, len(lines), 4)
		assert.Equal(t, "JSON:API 1.0.0", lines[0])
		assert.True(t, strings.HasPrefix(lines[2], "METHOD"))
		assert.Contains(t, lines[2], "PATH")
		assert.Contains(t, lines[2], "KIND")
		assert.Contains(t, lines[2], "DESCRIPTION")

		assert.Contains(t, stdout, "/task/{id}/relationships/project")
		assert.Contains(t, stdout, "RelationshipUpdate")
		assert.Contains(t, stdout, "Operations: 9")
		assert.Contains(t, stdout, "Resources:  2")
		assert.NotContains(t, stdout, "Listed:")
	})

	t.Run("table lists incoming references", func(t *testing.T) {
		workspace(t)

		stdout, stderr, err := execute(t, "inspect")
		require.NoError(t, err, stderr)

		var refRow string
		for _, line := range strings.Split(stdout, "\n") {
			if strings.Contains(line, "task.project") {
				refRow = line
			}
		}
		assert.Contains(t, stdout, "REFERENCED BY")
		require.NotEmpty(t, refRow)
		assert.True(t, strings.HasPrefix(refRow, "project"), refRow)
		assert.Contains(t, refRow, "one")
	})

	t.Run("json", func(t *testing.T) {
		workspace(t)

		stdout, stderr, err := execute(t, "inspect", "--format", "json")
		require.NoError(t, err, stderr)

		var ops []operationInfo
		require.NoError(t, json.Unmarshal([]byte(stdout), &ops))
		require.Len(t, ops, 9)

		assert.Equal(t, "GET", ops[0].Method)
		assert.Equal(t, "/task", ops[0].Path)
		assert.Equal(t, "ReadMany", ops[0].Kind)
		assert.Equal(t, "readMany:task", ops[0].OperationID)
		assert.Equal(t, "task", ops[0].Resource)
		assert.Empty(t, ops[0].Field)

		var relationship *operationInfo
		for i := range ops {
			if ops[i].Field == "project" {
				relationship = &ops[i]
				break
			}
		}
		require.NotNil(t, relationship)
		assert.Equal(t, "/task/{id}/relationships/project", relationship.Path)
	})

	t.Run("related endpoints", func(t *testing.T) {
		workspace(t)

		stdout, stderr, err := execute(t, "inspect", "--format", "json", "--related")
		require.NoError(t, err, stderr)

		var ops []operationInfo
		require.NoError(t, json.Unmarshal([]byte(stdout), &ops))
		assert.Len(t, ops, 10)
	})

	t.Run("only filters operations by resource type", func(t *testing.T) {
		tests := []struct {
			pattern   string
			resources []string
			count     int
		}{
			{"task", []string{"task"}, 7},
			{"proj*", []string{"project"}, 2},
			{"*a*", []string{"task"}, 7},
			{"*", []string{"task", "project"}, 9},
		}

		for _, tt := range tests {
			t.Run(tt.pattern, func(t *testing.T) {
				workspace(t)

				stdout, stderr, err := execute(t, "inspect", "--format", "json", "--only", tt.pattern)
				require.NoError(t, err, stderr)

				var ops []operationInfo
				require.NoError(t, json.Unmarshal([]byte(stdout), &ops))
				assert.Len(t, ops, tt.count)

				seen := make(map[string]bool)
				for _, op := range ops {
					seen[op.Resource] = true
				}
				for _, res := range tt.resources {
					assert.True(t, seen[res], res)
				}
				assert.Len(t, seen, len(tt.resources))
			})
		}
	})

	t.Run("only narrows the table", func(t *testing.T) {
		workspace(t)

		stdout, stderr, err := execute(t, "inspect", "--only", "project")
		require.NoError(t, err, stderr)

		assert.Contains(t, stdout, "/project/{id}")
		assert.NotContains(t, stdout, "/task")
		assert.Contains(t, stdout, "task.project")
		assert.Contains(t, stdout, "Operations: 9")
		assert.Contains(t, stdout, "2 operations on 1 resources")
	})

	t.Run("only without references omits the reference table", func(t *testing.T) {
		workspace(t)

		stdout, stderr, err := execute(t, "inspect", "--only", "task")
		require.NoError(t, err, stderr)

		assert.NotContains(t, stdout, "REFERENCED BY")
		assert.Contains(t, stdout, "7 operations on 1 resources")
	})

	t.Run("only with no match", func(t *testing.T) {
		workspace(t)

		stdout, stderr, err := execute(t, "inspect", "--only", "projcet")
		require.Error(t, err)
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, `no resource type matches "projcet"`)
		assert.Contains(t, stderr, "Did you mean: project?")
	})

	t.Run("invalid format", func(t *testing.T) {
		workspace(t)

		_, _, err := execute(t, "inspect", "--format", "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid format")
	})

	t.Run("generation errors are reported", func(t *testing.T) {
		workspace(t)
		writeFile(t, "resources.json", `{"resources": [{"type": "task", "readable": true, "fields": []}]}`)

		_, stderr, err := execute(t, "inspect")
		require.Error(t, err)
		assert.Contains(t, stderr, "GEN100")
	})
}
