package client

import "encoding/base64"

// prepareContents converts conversation history into the Code Assist
// contents format. The API knows only "user" and "model" roles: assistant
// messages map to "model", everything else (user, system, tool responses)
// to "user".
func prepareContents(messages []Message) []map[string]any {
	contents := make([]map[string]any, 0, len(messages))

	for _, msg := range messages {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}

		var parts []map[string]any

		if msg.ToolCallID != "" {
			// Tool response: encoded as a functionResponse part; the plain
			// content becomes the result body.
			parts = append(parts, map[string]any{
				"functionResponse": map[string]any{
					"name":     msg.Name,
					"response": map[string]any{"result": msg.Content},
				},
			})
		} else {
			if len(msg.Parts) > 0 {
				for _, p := range msg.Parts {
					switch {
					case p.Text != "":
						parts = append(parts, map[string]any{"text": p.Text})
					case len(p.ImageData) > 0 && p.ImageMIMEType != "":
						parts = append(parts, map[string]any{
							"inlineData": map[string]any{
								"mimeType": p.ImageMIMEType,
								"data":     base64.StdEncoding.EncodeToString(p.ImageData),
							},
						})
					}
				}
			} else if msg.Content != "" {
				parts = append(parts, map[string]any{"text": msg.Content})
			}
		}

		for _, tc := range msg.ToolCalls {
			parts = append(parts, map[string]any{
				"functionCall": map[string]any{
					"name": tc.Function.Name,
					"args": tc.Function.Arguments,
				},
			})
		}

		if len(parts) > 0 {
			contents = append(contents, map[string]any{
				"role":  role,
				"parts": parts,
			})
		}
	}

	return contents
}

// prepareTools converts tool declarations into the API's
// [{functionDeclarations: [...]}] shape. Parameter schemas are forwarded
// verbatim.
func prepareTools(tools []Tool) []map[string]any {
	if len(tools) == 0 {
		return nil
	}

	decls := make([]map[string]any, 0, len(tools))
	for _, tool := range tools {
		decl := map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
		}
		if tool.Parameters != nil {
			decl["parameters"] = tool.Parameters
		}
		decls = append(decls, decl)
	}

	return []map[string]any{{"functionDeclarations": decls}}
}

// buildRequestPayload assembles the full Code Assist request body. The
// project field is omitted for free-tier callers (empty projectID).
func buildRequestPayload(model string, messages []Message, genCfg *GenerationConfig, thinkCfg *ThinkingConfig, tools []Tool, projectID, userPromptID string) map[string]any {
	if genCfg == nil {
		genCfg = &GenerationConfig{Temperature: 0.7}
	}

	generation := map[string]any{
		"temperature": genCfg.Temperature,
	}
	if genCfg.MaxOutputTokens > 0 {
		generation["maxOutputTokens"] = genCfg.MaxOutputTokens
	}
	if genCfg.TopP > 0 {
		generation["topP"] = genCfg.TopP
	}
	if genCfg.TopK > 0 {
		generation["topK"] = genCfg.TopK
	}
	if len(genCfg.StopSequences) > 0 {
		generation["stopSequences"] = genCfg.StopSequences
	}

	if thinkCfg != nil && thinkCfg.IncludeThoughts {
		thinking := map[string]any{"includeThoughts": true}
		if thinkCfg.ThinkingBudget > 0 {
			thinking["thinkingBudget"] = thinkCfg.ThinkingBudget
		}
		generation["thinkingConfig"] = thinking
	}

	request := map[string]any{
		"contents":         prepareContents(messages),
		"generationConfig": generation,
	}
	if toolDecls := prepareTools(tools); toolDecls != nil {
		request["tools"] = toolDecls
	}

	payload := map[string]any{
		"model":   model,
		"request": request,
	}
	if projectID != "" {
		payload["project"] = projectID
	}
	if userPromptID != "" {
		payload["user_prompt_id"] = userPromptID
	}

	return payload
}
