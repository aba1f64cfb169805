package client

import (
	"encoding/json"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

// completionPart is one part inside a candidate's content. Thought carries
// reasoning text when the model streams it separately from answer text.
type completionPart struct {
	Text         string `json:"text,omitempty"`
	Thought      string `json:"thought,omitempty"`
	FunctionCall *struct {
		Name string         `json:"name"`
		Args map[string]any `json:"args"`
	} `json:"functionCall,omitempty"`
}

type completionCandidate struct {
	Content struct {
		Role  string           `json:"role"`
		Parts []completionPart `json:"parts"`
	} `json:"content"`
	FinishReason string `json:"finishReason,omitempty"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type completionResponse struct {
	Candidates    []completionCandidate `json:"candidates"`
	UsageMetadata *usageMetadata        `json:"usageMetadata,omitempty"`
}

// completionEnvelope accepts both the Code Assist wrapper
// {"response": {...}} and the direct candidates form, plus a top-level
// error payload for mid-stream failures.
type completionEnvelope struct {
	Response *completionResponse `json:"response,omitempty"`
	completionResponse
	Error *providerError `json:"error,omitempty"`
}

type providerError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
}

// parseCompletionData decodes one JSON response body (a full response or
// one SSE frame) into an LLMChunk. A provider error payload surfaces as a
// StreamError.
func parseCompletionData(data []byte) (LLMChunk, error) {
	var envelope completionEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return LLMChunk{}, err
	}

	if envelope.Error != nil && envelope.Error.Message != "" {
		return LLMChunk{}, &StreamError{Message: envelope.Error.Message}
	}

	resp := envelope.Response
	if resp == nil {
		resp = &envelope.completionResponse
	}

	chunk := LLMChunk{}

	if resp.UsageMetadata != nil {
		chunk.Usage = &LLMUsage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}

	if len(resp.Candidates) == 0 {
		return chunk, nil
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason != "" {
		chunk.FinishReason = genai.FinishReason(candidate.FinishReason)
	}

	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			chunk.Content += part.Text
		}
		if part.Thought != "" {
			// Last thought part wins within a frame; text parts concatenate
			// but thoughts overwrite, preserving upstream behavior.
			chunk.ReasoningContent = part.Thought
		}
		if part.FunctionCall != nil {
			chunk.ToolCalls = append(chunk.ToolCalls, ToolCall{
				ID:   uuid.NewString(),
				Type: "function",
				Function: FunctionCall{
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				},
			})
		}
	}

	return chunk, nil
}
