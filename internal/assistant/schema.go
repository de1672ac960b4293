// Package assistant holds the AI-facing tool catalog, its validator and
// dispatcher, and the conversation loop that drives them from an LLM.
package assistant

import "sort"

// Primitive types a property can declare.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Property describes one tool parameter.
type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Minimum     *float64  `json:"minimum,omitempty"`
	Maximum     *float64  `json:"maximum,omitempty"`
	Default     any       `json:"default,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

// Schema is a tool's parameter object. It is the contract with the LLM:
// renaming a required field or an enum value breaks existing prompts.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// PropertyNames returns the declared property names, sorted.
func (s Schema) PropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tool is a catalog entry.
type Tool struct {
	Name        ToolName `json:"name"`
	Description string   `json:"description"`
	Parameters  Schema   `json:"parameters"`
	// Writes marks tools with side effects in the data store.
	Writes bool `json:"writes"`
}

func bound(v float64) *float64 { return &v }

func object(required []string, props map[string]Property) Schema {
	if props == nil {
		props = map[string]Property{}
	}
	return Schema{Type: TypeObject, Properties: props, Required: required}
}
