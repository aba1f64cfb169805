package geminisdk

// ModelInfo describes a model reachable through the Code Assist API.
// Prices are per million tokens; the OAuth tier is free, so they are zero.
type ModelInfo struct {
	ID                  string
	Name                string
	ContextWindow       int
	MaxOutput           int
	InputPrice          float64
	OutputPrice         float64
	SupportsNativeTools bool
	SupportsThinking    bool
}

// DefaultModel is used when a session config names no model.
const DefaultModel = "gemini-2.5-pro"

// GeminiCLIModels lists the models the Gemini CLI surface exposes, in
// display order. The "auto" entries let the server pick within a family.
var GeminiCLIModels = []ModelInfo{
	{
		ID:                  "gemini-3-pro-preview",
		Name:                "Gemini 3 Pro Preview",
		ContextWindow:       1_000_000,
		MaxOutput:           65_536,
		SupportsNativeTools: true,
		SupportsThinking:    true,
	},
	{
		ID:                  "gemini-3-flash-preview",
		Name:                "Gemini 3 Flash Preview",
		ContextWindow:       1_000_000,
		MaxOutput:           65_536,
		SupportsNativeTools: true,
		SupportsThinking:    true,
	},
	{
		ID:                  "gemini-2.5-pro",
		Name:                "Gemini 2.5 Pro",
		ContextWindow:       1_048_576,
		MaxOutput:           65_536,
		SupportsNativeTools: true,
		SupportsThinking:    true,
	},
	{
		ID:                  "gemini-2.5-flash",
		Name:                "Gemini 2.5 Flash",
		ContextWindow:       1_048_576,
		MaxOutput:           65_536,
		SupportsNativeTools: true,
		SupportsThinking:    true,
	},
	{
		ID:                  "gemini-2.5-flash-lite",
		Name:                "Gemini 2.5 Flash Lite",
		ContextWindow:       1_000_000,
		MaxOutput:           32_768,
		SupportsNativeTools: true,
		SupportsThinking:    false,
	},
	{
		ID:                  "auto-gemini-3",
		Name:                "Auto (Gemini 3)",
		ContextWindow:       1_000_000,
		MaxOutput:           65_536,
		SupportsNativeTools: true,
		SupportsThinking:    true,
	},
	{
		ID:                  "auto-gemini-2.5",
		Name:                "Auto (Gemini 2.5)",
		ContextWindow:       1_048_576,
		MaxOutput:           65_536,
		SupportsNativeTools: true,
		SupportsThinking:    true,
	},
	{
		ID:                  "auto",
		Name:                "Auto (Default)",
		ContextWindow:       1_048_576,
		MaxOutput:           65_536,
		SupportsNativeTools: true,
		SupportsThinking:    true,
	},
}

// ModelByID looks up a catalog entry.
func ModelByID(id string) (ModelInfo, bool) {
	for _, m := range GeminiCLIModels {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}
