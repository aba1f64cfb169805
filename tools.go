package geminisdk

import (
	"google.golang.org/genai"

	"github.com/OEvortex/geminicli-sdk/client"
)

// NewTool creates a tool definition. A nil parameters schema means the
// tool takes no arguments; an empty object schema is declared so the API
// still accepts the function declaration.
func NewTool(name, description string, parameters *genai.Schema, handler client.ToolHandler) client.Tool {
	if parameters == nil {
		parameters = &genai.Schema{
			Type:       genai.TypeObject,
			Properties: map[string]*genai.Schema{},
		}
	}
	return client.Tool{
		Name:        name,
		Description: description,
		Parameters:  parameters,
		Handler:     handler,
	}
}

// ToolWithParams creates a tool from parameter descriptors instead of a
// hand-written schema.
func ToolWithParams(name, description string, params []ParameterSpec, handler client.ToolHandler) client.Tool {
	return NewTool(name, description, BuildSchema(params), handler)
}

// ParameterSpec describes one named parameter of a tool. BuildSchema turns
// a list of these into the object schema the API expects, which keeps
// simple tool declarations free of hand-written schema literals.
type ParameterSpec struct {
	Name        string
	Type        genai.Type
	Description string
	Required    bool

	// Enum restricts a string parameter to fixed values.
	Enum []string
	// Items describes array element types when Type is TypeArray.
	Items *genai.Schema
}

// BuildSchema builds an object schema from parameter descriptors.
func BuildSchema(params []ParameterSpec) *genai.Schema {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(params)),
	}
	for _, p := range params {
		prop := &genai.Schema{
			Type:        p.Type,
			Description: p.Description,
		}
		if len(p.Enum) > 0 {
			prop.Enum = p.Enum
		}
		if p.Items != nil {
			prop.Items = p.Items
		}
		schema.Properties[p.Name] = prop
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	return schema
}
