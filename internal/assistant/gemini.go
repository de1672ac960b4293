package assistant

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini is a Model backed by the Gemini API with function calling.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini client.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Generate sends the conversation and returns text or function calls.
func (g *Gemini) Generate(ctx context.Context, req ModelRequest) (*ModelResponse, error) {
	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{FunctionDeclarations: FunctionDeclarations(req.Tools)}},
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents(req.History), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}

	out := &ModelResponse{}
	for _, fc := range result.FunctionCalls() {
		out.Calls = append(out.Calls, FunctionCall{ID: fc.ID, Name: fc.Name, Args: fc.Args})
	}
	if len(out.Calls) == 0 {
		out.Text = result.Text()
	}
	return out, nil
}

func contents(history []Turn) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, t := range history {
		role := genai.Role(genai.RoleUser)
		if t.Role == RoleModel {
			role = genai.RoleModel
		}
		var parts []*genai.Part
		if t.Text != "" {
			parts = append(parts, genai.NewPartFromText(t.Text))
		}
		for _, c := range t.Calls {
			p := genai.NewPartFromFunctionCall(c.Name, c.Args)
			p.FunctionCall.ID = c.ID
			parts = append(parts, p)
		}
		for _, r := range t.Responses {
			p := genai.NewPartFromFunctionResponse(r.Name, r.Response)
			p.FunctionResponse.ID = r.ID
			parts = append(parts, p)
		}
		if len(parts) == 0 {
			continue
		}
		out = append(out, genai.NewContentFromParts(parts, role))
	}
	return out
}

// FunctionDeclarations converts catalog tools to Gemini declarations.
func FunctionDeclarations(tools []Tool) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        string(t.Name),
			Description: t.Description,
			Parameters:  schemaOf(t.Parameters),
		})
	}
	return decls
}

func schemaOf(s Schema) *genai.Schema {
	out := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(s.Properties)),
		Required:   s.Required,
	}
	for _, name := range s.PropertyNames() {
		out.Properties[name] = propertyOf(s.Properties[name])
	}
	return out
}

func propertyOf(p Property) *genai.Schema {
	out := &genai.Schema{
		Type:        genaiType(p.Type),
		Description: p.Description,
		Enum:        p.Enum,
		Minimum:     p.Minimum,
		Maximum:     p.Maximum,
		Default:     p.Default,
	}
	if p.Items != nil {
		out.Items = propertyOf(*p.Items)
	}
	if len(p.Enum) > 0 {
		out.Format = "enum"
	}
	return out
}

func genaiType(t string) genai.Type {
	switch t {
	case TypeString:
		return genai.TypeString
	case TypeInteger:
		return genai.TypeInteger
	case TypeNumber:
		return genai.TypeNumber
	case TypeBoolean:
		return genai.TypeBoolean
	case TypeArray:
		return genai.TypeArray
	}
	return genai.TypeObject
}
