package geminisdk

import (
	"testing"

	"google.golang.org/genai"
)

func TestBuildSchema(t *testing.T) {
	schema := BuildSchema([]ParameterSpec{
		{Name: "city", Type: genai.TypeString, Description: "City name", Required: true},
		{Name: "days", Type: genai.TypeInteger, Description: "Forecast days"},
		{Name: "unit", Type: genai.TypeString, Enum: []string{"celsius", "fahrenheit"}},
	})

	if schema.Type != genai.TypeObject {
		t.Errorf("schema type = %v", schema.Type)
	}
	if len(schema.Properties) != 3 {
		t.Fatalf("properties = %v", schema.Properties)
	}

	city := schema.Properties["city"]
	if city.Type != genai.TypeString || city.Description != "City name" {
		t.Errorf("city = %+v", city)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "city" {
		t.Errorf("required = %v", schema.Required)
	}
	if got := schema.Properties["unit"].Enum; len(got) != 2 || got[0] != "celsius" {
		t.Errorf("enum = %v", got)
	}
}

func TestBuildSchemaEmpty(t *testing.T) {
	schema := BuildSchema(nil)
	if schema.Type != genai.TypeObject || len(schema.Properties) != 0 || len(schema.Required) != 0 {
		t.Errorf("empty schema = %+v", schema)
	}
}

func TestNewToolDefaultsParameters(t *testing.T) {
	tool := NewTool("noop", "does nothing", nil, nil)
	if tool.Parameters == nil || tool.Parameters.Type != genai.TypeObject {
		t.Errorf("parameters = %+v", tool.Parameters)
	}
}

func TestToolWithParams(t *testing.T) {
	tool := ToolWithParams("weather", "Current weather", []ParameterSpec{
		{Name: "city", Type: genai.TypeString, Required: true},
	}, nil)
	if tool.Name != "weather" || tool.Description != "Current weather" {
		t.Errorf("tool = %+v", tool)
	}
	if tool.Parameters == nil || tool.Parameters.Properties["city"] == nil {
		t.Fatalf("parameters = %+v", tool.Parameters)
	}
	if len(tool.Parameters.Required) != 1 || tool.Parameters.Required[0] != "city" {
		t.Errorf("required = %v", tool.Parameters.Required)
	}
}

func TestModelCatalog(t *testing.T) {
	m, ok := ModelByID(DefaultModel)
	if !ok {
		t.Fatalf("default model %q missing from catalog", DefaultModel)
	}
	if m.ContextWindow == 0 || m.MaxOutput == 0 {
		t.Errorf("model = %+v", m)
	}
	if _, ok := ModelByID("no-such-model"); ok {
		t.Error("unknown model reported as found")
	}
}
