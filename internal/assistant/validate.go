package assistant

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
)

// ValidationError lists every constraint a call violated.
type ValidationError struct {
	Tool     ToolName
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, strings.Join(e.Messages, "; "))
}

// Validate checks args against the schema: required presence first, then for
// each supplied property its type, enum membership and numeric range. All
// problems are reported, not only the first.
func Validate(schema Schema, args map[string]any) []string {
	var msgs []string
	for _, name := range schema.Required {
		v, ok := args[name]
		if !ok || v == nil {
			msgs = append(msgs, fmt.Sprintf("missing required field %q", name))
		}
	}

	for _, name := range schema.PropertyNames() {
		v, ok := args[name]
		if !ok || v == nil {
			continue
		}
		prop := schema.Properties[name]
		if !typeMatches(prop.Type, v) {
			msgs = append(msgs, fmt.Sprintf("field %q must be of type %s, got %s", name, prop.Type, describe(v)))
			continue
		}
		if len(prop.Enum) > 0 {
			if s, isString := v.(string); isString && !slices.Contains(prop.Enum, s) {
				msgs = append(msgs, fmt.Sprintf("field %q must be one of [%s], got %q", name, strings.Join(prop.Enum, ", "), s))
			}
		}
		if n, isNum := number(v); isNum {
			if prop.Minimum != nil && n < *prop.Minimum {
				msgs = append(msgs, fmt.Sprintf("field %q must be >= %v, got %v", name, *prop.Minimum, n))
			}
			if prop.Maximum != nil && n > *prop.Maximum {
				msgs = append(msgs, fmt.Sprintf("field %q must be <= %v, got %v", name, *prop.Maximum, n))
			}
		}
	}
	return msgs
}

func typeMatches(typ string, v any) bool {
	switch typ {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeNumber:
		_, ok := number(v)
		return ok
	case TypeInteger:
		n, ok := number(v)
		return ok && n == math.Trunc(n)
	}
	// arrays, objects and undeclared types are not checked
	return true
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func describe(v any) string {
	switch v.(type) {
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case []any:
		return TypeArray
	case map[string]any:
		return TypeObject
	}
	if _, ok := number(v); ok {
		return TypeNumber
	}
	return fmt.Sprintf("%T", v)
}
