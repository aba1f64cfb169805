package client

import (
	"testing"
)

func TestPrepareContentsRoleMapping(t *testing.T) {
	contents := prepareContents([]Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	})

	if len(contents) != 3 {
		t.Fatalf("got %d contents", len(contents))
	}
	if contents[0]["role"] != "user" {
		t.Errorf("system message role = %v, want user", contents[0]["role"])
	}
	if contents[1]["role"] != "user" {
		t.Errorf("user role = %v", contents[1]["role"])
	}
	if contents[2]["role"] != "model" {
		t.Errorf("assistant role = %v, want model", contents[2]["role"])
	}
}

func TestPrepareContentsToolResponse(t *testing.T) {
	contents := prepareContents([]Message{
		{
			Role:       RoleUser,
			Content:    "42 degrees",
			Name:       "get_weather",
			ToolCallID: "call-1",
		},
	})

	if len(contents) != 1 {
		t.Fatalf("got %d contents", len(contents))
	}
	parts := contents[0]["parts"].([]map[string]any)
	fr, ok := parts[0]["functionResponse"].(map[string]any)
	if !ok {
		t.Fatalf("no functionResponse part: %v", parts[0])
	}
	if fr["name"] != "get_weather" {
		t.Errorf("name = %v", fr["name"])
	}
	response := fr["response"].(map[string]any)
	if response["result"] != "42 degrees" {
		t.Errorf("result = %v", response["result"])
	}
}

func TestPrepareContentsFunctionCalls(t *testing.T) {
	contents := prepareContents([]Message{
		{
			Role:    RoleAssistant,
			Content: "checking",
			ToolCalls: []ToolCall{{
				ID:   "call-1",
				Type: "function",
				Function: FunctionCall{
					Name:      "get_weather",
					Arguments: map[string]any{"city": "Oslo"},
				},
			}},
		},
	})

	parts := contents[0]["parts"].([]map[string]any)
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want text + functionCall", len(parts))
	}
	fc, ok := parts[1]["functionCall"].(map[string]any)
	if !ok {
		t.Fatalf("no functionCall part: %v", parts[1])
	}
	if fc["name"] != "get_weather" {
		t.Errorf("name = %v", fc["name"])
	}
}

func TestBuildRequestPayloadDefaults(t *testing.T) {
	payload := buildRequestPayload("gemini-2.5-pro", []Message{{Role: RoleUser, Content: "hi"}}, nil, nil, nil, "", "")

	if _, ok := payload["project"]; ok {
		t.Error("empty project must be omitted for free-tier requests")
	}
	if payload["model"] != "gemini-2.5-pro" {
		t.Errorf("model = %v", payload["model"])
	}

	request := payload["request"].(map[string]any)
	generation := request["generationConfig"].(map[string]any)
	if generation["temperature"] != 0.7 {
		t.Errorf("default temperature = %v", generation["temperature"])
	}
	if _, ok := request["tools"]; ok {
		t.Error("tools present without declarations")
	}
}

func TestBuildRequestPayloadThinkingAndTools(t *testing.T) {
	tools := []Tool{{Name: "calc", Description: "calculate"}}
	think := &ThinkingConfig{IncludeThoughts: true, ThinkingBudget: 2048}

	payload := buildRequestPayload("m", []Message{{Role: RoleUser, Content: "hi"}}, nil, think, tools, "proj", "prompt-7")

	if payload["project"] != "proj" {
		t.Errorf("project = %v", payload["project"])
	}
	if payload["user_prompt_id"] != "prompt-7" {
		t.Errorf("user_prompt_id = %v", payload["user_prompt_id"])
	}

	request := payload["request"].(map[string]any)
	generation := request["generationConfig"].(map[string]any)
	thinking, ok := generation["thinkingConfig"].(map[string]any)
	if !ok {
		t.Fatalf("no thinkingConfig: %v", generation)
	}
	if thinking["includeThoughts"] != true || thinking["thinkingBudget"] != 2048 {
		t.Errorf("thinkingConfig = %v", thinking)
	}

	toolDecls := request["tools"].([]map[string]any)
	decls := toolDecls[0]["functionDeclarations"].([]map[string]any)
	if decls[0]["name"] != "calc" {
		t.Errorf("tool declaration = %v", decls[0])
	}
}
