package geminisdk

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/OEvortex/geminicli-sdk/client"
	"github.com/OEvortex/geminicli-sdk/internal/logging"
)

// SessionConfig configures a new session. Zero values fall back to
// defaults: a random session ID, DefaultModel, and streaming responses.
type SessionConfig struct {
	SessionID        string
	Model            string
	Tools            []client.Tool
	SystemMessage    string
	GenerationConfig *client.GenerationConfig
	ThinkingConfig   *client.ThinkingConfig

	// Streaming selects between the streaming and non-streaming
	// endpoints. Nil means streaming.
	Streaming *bool
}

// MessageOptions describes one user turn. Context, when set, is prepended
// to the prompt separated by a blank line.
type MessageOptions struct {
	Prompt  string
	Context string
}

// SessionMetadata is a summary row for ListSessions.
type SessionMetadata struct {
	SessionID    string
	Model        string
	StartTime    time.Time
	ModifiedTime time.Time
}

type subscriber struct {
	id      int
	handler EventHandler
}

// Session is one conversation: it accumulates history, runs completion
// rounds against the backend, executes tool calls, and notifies
// subscribers of progress through events.
//
// A Send call runs the full round synchronously on the calling goroutine,
// so event handlers observe a strict order: deltas, then tool call/result
// pairs, then the final reasoning and message, then idle. Methods are safe
// to call from multiple goroutines, but rounds themselves are serialized.
type Session struct {
	id      string
	model   string
	backend *client.Backend

	systemMessage string
	genConfig     *client.GenerationConfig
	thinkConfig   *client.ThinkingConfig
	streaming     bool

	mu           sync.Mutex
	tools        []client.Tool
	handlers     map[string]client.ToolHandler
	messages     []client.Message
	subscribers  []subscriber
	nextSubID    int
	closed       bool
	startTime    time.Time
	modifiedTime time.Time

	sendMu sync.Mutex
}

func newSession(backend *client.Backend, cfg SessionConfig) *Session {
	now := time.Now().UTC()
	s := &Session{
		id:            cfg.SessionID,
		model:         cfg.Model,
		backend:       backend,
		systemMessage: cfg.SystemMessage,
		genConfig:     cfg.GenerationConfig,
		thinkConfig:   cfg.ThinkingConfig,
		streaming:     cfg.Streaming == nil || *cfg.Streaming,
		handlers:      make(map[string]client.ToolHandler),
		startTime:     now,
		modifiedTime:  now,
	}

	for _, tool := range cfg.Tools {
		s.tools = append(s.tools, tool)
		if tool.Handler != nil {
			s.handlers[tool.Name] = tool.Handler
		}
	}

	if cfg.SystemMessage != "" {
		s.messages = append(s.messages, client.Message{
			Role:    client.RoleSystem,
			Content: cfg.SystemMessage,
		})
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Model returns the model this session talks to.
func (s *Session) Model() string { return s.model }

// StartTime returns when the session was created.
func (s *Session) StartTime() time.Time { return s.startTime }

// ModifiedTime returns when the conversation last changed.
func (s *Session) ModifiedTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modifiedTime
}

// Messages returns a copy of the conversation history.
func (s *Session) Messages() []client.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]client.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// On subscribes a handler to session events and returns its unsubscribe
// function. Unsubscribing twice is harmless.
func (s *Session) On(handler EventHandler) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers = append(s.subscribers, subscriber{id: id, handler: handler})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// emit delivers an event to a snapshot of the current subscribers, so a
// handler that unsubscribes (or subscribes) mid-delivery does not affect
// this delivery. Handler panics are contained.
func (s *Session) emit(eventType EventType, data EventData) {
	s.mu.Lock()
	subs := make([]subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	event := SessionEvent{Type: eventType, SessionID: s.id, Data: data}
	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logging.Warn("session event handler panicked", "sessionID", s.id, "eventType", eventType, "panic", r)
				}
			}()
			sub.handler(event)
		}()
	}
}

// Send appends a user turn and runs one completion round, delivering
// progress through events. It blocks until the round finishes. A failed
// round emits session.error and returns the error; history keeps the user
// turn so the next Send can retry.
func (s *Session) Send(ctx context.Context, opts MessageOptions) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return &SessionClosedError{SessionID: s.id}
	}

	content := opts.Prompt
	if opts.Context != "" {
		content = opts.Context + "\n\n" + opts.Prompt
	}
	s.messages = append(s.messages, client.Message{Role: client.RoleUser, Content: content})
	s.modifiedTime = time.Now().UTC()
	s.mu.Unlock()

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	var err error
	if s.streaming {
		err = s.streamRound(ctx)
	} else {
		err = s.completeRound(ctx)
	}
	if err != nil {
		s.emit(EventSessionError, EventData{Err: err})
		return err
	}
	return nil
}

// SendAndWait sends a message and returns the final assistant.message
// event of the round.
func (s *Session) SendAndWait(ctx context.Context, opts MessageOptions) (SessionEvent, error) {
	var response *SessionEvent
	unsubscribe := s.On(func(event SessionEvent) {
		if event.Type == EventAssistantMessage {
			e := event
			response = &e
		}
	})
	defer unsubscribe()

	if err := s.Send(ctx, opts); err != nil {
		return SessionEvent{}, err
	}
	if response == nil {
		return SessionEvent{}, errors.New("no response received")
	}
	return *response, nil
}

func (s *Session) completionRequest() client.CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := make([]client.Message, len(s.messages))
	copy(messages, s.messages)
	tools := make([]client.Tool, len(s.tools))
	copy(tools, s.tools)

	return client.CompletionRequest{
		Model:            s.model,
		Messages:         messages,
		GenerationConfig: s.genConfig,
		ThinkingConfig:   s.thinkConfig,
		Tools:            tools,
	}
}

// streamRound consumes one streaming completion: deltas are emitted as
// they arrive, tool calls are dispatched after the stream ends, and the
// aggregated message closes the round.
func (s *Session) streamRound(ctx context.Context) error {
	stream, err := s.backend.CompleteStreaming(ctx, s.completionRequest())
	if err != nil {
		return err
	}
	defer stream.Close()

	var content, reasoning strings.Builder
	var toolCalls []client.ToolCall
	var usage *client.LLMUsage

	for stream.Next() {
		chunk := stream.Current()

		if chunk.Content != "" {
			content.WriteString(chunk.Content)
			s.emit(EventAssistantMessageDelta, EventData{
				DeltaContent: chunk.Content,
				Content:      content.String(),
			})
		}
		if chunk.ReasoningContent != "" {
			reasoning.WriteString(chunk.ReasoningContent)
			s.emit(EventAssistantReasoningDelta, EventData{
				DeltaContent: chunk.ReasoningContent,
				Content:      reasoning.String(),
			})
		}
		toolCalls = append(toolCalls, chunk.ToolCalls...)
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
	}
	if err := stream.Err(); err != nil {
		return err
	}
	if n := stream.Dropped(); n > 0 {
		logging.Debug("stream finished with dropped frames", "sessionID", s.id, "dropped", n)
	}

	s.finishRound(ctx, content.String(), reasoning.String(), toolCalls, usage)
	return nil
}

// completeRound runs one non-streaming completion. No delta events fire;
// the round goes straight to tool dispatch and the final message.
func (s *Session) completeRound(ctx context.Context) error {
	chunk, err := s.backend.Complete(ctx, s.completionRequest())
	if err != nil {
		return err
	}

	s.finishRound(ctx, chunk.Content, chunk.ReasoningContent, chunk.ToolCalls, chunk.Usage)
	return nil
}

// finishRound dispatches tool calls, records the assistant turn, and
// emits the closing event sequence.
func (s *Session) finishRound(ctx context.Context, content, reasoning string, toolCalls []client.ToolCall, usage *client.LLMUsage) {
	if len(toolCalls) > 0 {
		s.dispatchToolCalls(ctx, toolCalls)
	}

	s.mu.Lock()
	s.messages = append(s.messages, client.Message{
		Role:      client.RoleAssistant,
		Content:   content,
		ToolCalls: toolCalls,
	})
	s.modifiedTime = time.Now().UTC()
	s.mu.Unlock()

	if reasoning != "" {
		s.emit(EventAssistantReasoning, EventData{Content: reasoning})
	}
	s.emit(EventAssistantMessage, EventData{
		Content:   content,
		ToolCalls: toolCalls,
		Usage:     usage,
	})
	s.emit(EventSessionIdle, EventData{})
}

// AddTool makes a tool available for subsequent rounds.
func (s *Session) AddTool(tool client.Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools = append(s.tools, tool)
	if tool.Handler != nil {
		s.handlers[tool.Name] = tool.Handler
	}
}

// RemoveTool removes a tool by name.
func (s *Session) RemoveTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.tools[:0]
	for _, t := range s.tools {
		if t.Name != name {
			kept = append(kept, t)
		}
	}
	s.tools = kept
	delete(s.handlers, name)
}

// ClearHistory drops the conversation, keeping the system message if one
// was configured.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = s.messages[:0]
	if s.systemMessage != "" {
		s.messages = append(s.messages, client.Message{
			Role:    client.RoleSystem,
			Content: s.systemMessage,
		})
	}
	s.modifiedTime = time.Now().UTC()
}

// Destroy closes the session: subscribers, tool handlers and history are
// released and further Sends fail with SessionClosedError. Destroying an
// already destroyed session is a no-op.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.subscribers = nil
	s.handlers = make(map[string]client.ToolHandler)
	s.messages = nil
	logging.Debug("session destroyed", "sessionID", s.id)
}

func (s *Session) metadata() SessionMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionMetadata{
		SessionID:    s.id,
		Model:        s.model,
		StartTime:    s.startTime,
		ModifiedTime: s.modifiedTime,
	}
}
