package assistant

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate_AccumulatesEveryError(t *testing.T) {
	tool, ok := Lookup(string(ToolAddTask))
	require.True(t, ok)

	msgs := Validate(tool.Parameters, map[string]any{"priority": "whenever"})

	require.GreaterOrEqual(t, len(msgs), 3)
	require.Contains(t, msgs, `missing required field "title"`)
	require.Contains(t, msgs, `missing required field "assignee"`)
	require.Contains(t, msgs, `field "priority" must be one of [low, medium, high, urgent], got "whenever"`)
}

func TestValidate_Order(t *testing.T) {
	schema := object([]string{"a"}, map[string]Property{
		"a": {Type: TypeString},
		"b": {Type: TypeInteger, Minimum: bound(1)},
	})

	msgs := Validate(schema, map[string]any{"b": 0.0})
	require.Equal(t, []string{
		`missing required field "a"`,
		`field "b" must be >= 1, got 0`,
	}, msgs)
}

func TestValidate_Types(t *testing.T) {
	schema := object(nil, map[string]Property{
		"s":    {Type: TypeString},
		"i":    {Type: TypeInteger},
		"n":    {Type: TypeNumber},
		"b":    {Type: TypeBoolean},
		"list": {Type: TypeArray, Items: &Property{Type: TypeString}},
		"obj":  {Type: TypeObject},
	})

	tests := []struct {
		name  string
		args  map[string]any
		valid bool
	}{
		{name: "all good", args: map[string]any{"s": "x", "i": 3.0, "n": 2.5, "b": true}, valid: true},
		{name: "go ints", args: map[string]any{"i": 3, "n": int64(7)}, valid: true},
		{name: "json number", args: map[string]any{"i": json.Number("12")}, valid: true},
		{name: "fractional integer", args: map[string]any{"i": 2.5}},
		{name: "string for number", args: map[string]any{"n": "2"}},
		{name: "number for string", args: map[string]any{"s": 1.0}},
		{name: "string for bool", args: map[string]any{"b": "true"}},
		{name: "arrays unchecked", args: map[string]any{"list": "not a list", "obj": 1}, valid: true},
		{name: "null is absent", args: map[string]any{"s": nil}, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := Validate(schema, tt.args)
			if tt.valid {
				require.Empty(t, msgs)
			} else {
				require.Len(t, msgs, 1)
			}
		})
	}
}

func TestValidate_TypeErrorSkipsEnumAndRange(t *testing.T) {
	schema := object(nil, map[string]Property{
		"status": {Type: TypeString, Enum: []string{"a"}},
		"limit":  {Type: TypeInteger, Maximum: bound(10)},
	})

	msgs := Validate(schema, map[string]any{"status": 4.0, "limit": "eleven"})
	require.Equal(t, []string{
		`field "limit" must be of type integer, got string`,
		`field "status" must be of type string, got number`,
	}, msgs)
}

func TestCatalog_EveryToolDecodes(t *testing.T) {
	tools := Catalog()
	require.Len(t, tools, 15)

	seen := map[ToolName]bool{}
	for _, tool := range tools {
		require.False(t, seen[tool.Name], "duplicate tool %s", tool.Name)
		seen[tool.Name] = true
		require.NotEmpty(t, tool.Description)
		require.Equal(t, TypeObject, tool.Parameters.Type)
		for _, req := range tool.Parameters.Required {
			require.Contains(t, tool.Parameters.Properties, req)
		}

		c, err := decode(tool.Name, map[string]any{})
		require.NoError(t, err)
		require.NotNil(t, c)
	}
}

func TestCatalog_SchemaEncoding(t *testing.T) {
	tool, ok := Lookup(string(ToolUpdateTaskStatus))
	require.True(t, ok)

	data, err := json.Marshal(tool.Parameters)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"type": "object",
		"properties": {
			"task_id": {"type": "string", "description": "Task id"},
			"status": {"type": "string", "description": "Target column", "enum": ["todo", "in_progress", "review", "done"]}
		},
		"required": ["task_id", "status"]
	}`, string(data))
}
