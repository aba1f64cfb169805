package geminisdk

import (
	"github.com/OEvortex/geminicli-sdk/client"
)

// EventType identifies what a session event describes.
type EventType string

const (
	EventSessionCreated          EventType = "session.created"
	EventSessionIdle             EventType = "session.idle"
	EventSessionError            EventType = "session.error"
	EventAssistantMessage        EventType = "assistant.message"
	EventAssistantMessageDelta   EventType = "assistant.message_delta"
	EventAssistantReasoning      EventType = "assistant.reasoning"
	EventAssistantReasoningDelta EventType = "assistant.reasoning_delta"
	EventToolCall                EventType = "tool.call"
	EventToolResult              EventType = "tool.result"
)

// EventData carries the payload of a session event. Which fields are set
// depends on the event type:
//
//   - assistant.message_delta and assistant.reasoning_delta set
//     DeltaContent (this chunk) and Content (accumulated so far)
//   - assistant.reasoning and assistant.message set Content; the message
//     additionally sets ToolCalls and Usage when present
//   - tool.call sets Name, Arguments and CallID
//   - tool.result sets Name, CallID and either Result or Err
//   - session.error sets Err
type EventData struct {
	Content      string
	DeltaContent string

	ToolCalls []client.ToolCall
	Usage     *client.LLMUsage

	Name      string
	Arguments map[string]any
	CallID    string
	Result    string

	Err error
}

// SessionEvent is delivered to every subscribed handler of a session.
type SessionEvent struct {
	Type      EventType
	SessionID string
	Data      EventData
}

// EventHandler receives session events. Handlers run synchronously on the
// sending goroutine; a panicking handler is recovered and logged without
// affecting the session or other handlers.
type EventHandler func(SessionEvent)
