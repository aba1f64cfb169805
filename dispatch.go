package geminisdk

import (
	"context"
	"fmt"

	"github.com/OEvortex/geminicli-sdk/client"
	"github.com/OEvortex/geminicli-sdk/internal/logging"
)

// dispatchToolCalls executes a round's tool calls sequentially in the
// order the model issued them. Every call produces exactly one
// tool-response message in the history, so the model sees an answer for
// each call on the next round. A missing handler or a failing handler is
// reported to the model as text, not surfaced as a session failure.
func (s *Session) dispatchToolCalls(ctx context.Context, toolCalls []client.ToolCall) {
	for _, call := range toolCalls {
		name := call.Function.Name

		s.emit(EventToolCall, EventData{
			Name:      name,
			Arguments: call.Function.Arguments,
			CallID:    call.ID,
		})

		s.mu.Lock()
		handler := s.handlers[name]
		s.mu.Unlock()

		if handler == nil {
			logging.Warn("no handler for tool", "sessionID", s.id, "tool", name)
			s.appendToolResponse(call, fmt.Sprintf("Error: Tool '%s' not found", name))
			continue
		}

		invocation := client.ToolInvocation{
			Name:      name,
			Arguments: call.Function.Arguments,
			CallID:    call.ID,
		}

		result, err := invokeHandler(ctx, handler, invocation)
		if err != nil {
			logging.Error("tool execution failed", "sessionID", s.id, "tool", name, "error", err)
			s.emit(EventToolResult, EventData{
				Name:   name,
				CallID: call.ID,
				Err:    err,
			})
			s.appendToolResponse(call, fmt.Sprintf("Error executing tool '%s': %v", name, err))
			continue
		}

		s.emit(EventToolResult, EventData{
			Name:   name,
			CallID: call.ID,
			Result: result.TextForModel,
		})
		s.appendToolResponse(call, result.TextForModel)
	}
}

// invokeHandler runs one tool handler, converting a panic into an error so
// a misbehaving tool cannot take down the session.
func invokeHandler(ctx context.Context, handler client.ToolHandler, invocation client.ToolInvocation) (result client.ToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool handler panicked: %v", r)
		}
	}()
	return handler(ctx, invocation)
}

// appendToolResponse records the answer to one tool call. The message
// carries the call ID so the request builder can pair it back up as a
// function response part.
func (s *Session) appendToolResponse(call client.ToolCall, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, client.Message{
		Role:       client.RoleUser,
		Content:    content,
		Name:       call.Function.Name,
		ToolCallID: call.ID,
	})
}
