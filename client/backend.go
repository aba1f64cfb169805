package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/OEvortex/geminicli-sdk/auth"
	"github.com/OEvortex/geminicli-sdk/internal/logging"
)

const (
	// defaultResponseTimeout bounds the wait for response headers. Long
	// generations answer slowly on the non-streaming endpoint, so this is
	// generous; body reads are bounded by the request context instead.
	defaultResponseTimeout = 720 * time.Second

	// Project provisioning for new free-tier accounts is a long-running
	// operation polled until done.
	onboardMaxPolls     = 30
	onboardPollInterval = 2 * time.Second
)

// CompletionRequest is one generateContent call: the model, the full
// conversation so far, and optional tuning and tool declarations.
type CompletionRequest struct {
	Model            string
	Messages         []Message
	GenerationConfig *GenerationConfig
	ThinkingConfig   *ThinkingConfig
	Tools            []Tool
	UserPromptID     string
}

// Backend talks to the Gemini Code Assist API using OAuth credentials from
// a CredentialStore. It resolves the Cloud project once (onboarding new
// free-tier users if necessary) and retries a request exactly once after a
// 401/403 with a force-refreshed token. Safe for concurrent use.
type Backend struct {
	store      *auth.CredentialStore
	httpClient *http.Client
	baseURL    string

	projectMu       sync.Mutex
	projectID       string
	projectResolved bool
}

// BackendOption customizes a Backend.
type BackendOption func(*Backend)

// WithBaseURL overrides the Code Assist endpoint, mainly for tests.
func WithBaseURL(url string) BackendOption {
	return func(b *Backend) {
		if url != "" {
			b.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithHTTPClient overrides the transport.
func WithHTTPClient(c *http.Client) BackendOption {
	return func(b *Backend) {
		if c != nil {
			b.httpClient = c
		}
	}
}

// WithProjectID pins the Cloud project, skipping discovery entirely.
func WithProjectID(projectID string) BackendOption {
	return func(b *Backend) {
		if projectID != "" {
			b.projectID = projectID
			b.projectResolved = true
		}
	}
}

// NewBackend creates a Backend over the given credential store.
func NewBackend(store *auth.CredentialStore, opts ...BackendOption) *Backend {
	b := &Backend{
		store:      store,
		httpClient: newHTTPClient(defaultResponseTimeout),
		baseURL:    auth.GeminiCodeAssistEndpoint,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Close releases pooled connections. The backend must not be used after.
func (b *Backend) Close() {
	b.httpClient.CloseIdleConnections()
}

func (b *Backend) endpoint(method string) string {
	return b.baseURL + "/" + auth.GeminiCodeAssistAPIVersion + ":" + method
}

// Complete performs a single non-streaming generation and returns the
// decoded response as one chunk.
func (b *Backend) Complete(ctx context.Context, req CompletionRequest) (LLMChunk, error) {
	projectID, err := b.ProjectID(ctx)
	if err != nil {
		return LLMChunk{}, err
	}

	payload, err := json.Marshal(buildRequestPayload(
		req.Model, req.Messages, req.GenerationConfig, req.ThinkingConfig,
		req.Tools, projectID, req.UserPromptID,
	))
	if err != nil {
		return LLMChunk{}, fmt.Errorf("failed to encode completion request: %w", err)
	}

	resp, err := b.doAuthorized(ctx, b.endpoint("generateContent"), payload, "application/json")
	if err != nil {
		return LLMChunk{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return LLMChunk{}, fmt.Errorf("failed to read completion response: %w", err)
	}
	return parseCompletionData(body)
}

// CompleteStreaming performs a streaming generation. The caller owns the
// returned stream and must Close it.
func (b *Backend) CompleteStreaming(ctx context.Context, req CompletionRequest) (*ChunkStream, error) {
	projectID, err := b.ProjectID(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(buildRequestPayload(
		req.Model, req.Messages, req.GenerationConfig, req.ThinkingConfig,
		req.Tools, projectID, req.UserPromptID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	resp, err := b.doAuthorized(ctx, b.endpoint("streamGenerateContent")+"?alt=sse", payload, "text/event-stream")
	if err != nil {
		return nil, err
	}

	if ct, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); ct != "text/event-stream" {
		// The API answers errors (and some proxies answer everything)
		// with a plain JSON body on the streaming endpoint.
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, &StreamError{Message: fmt.Sprintf("expected event stream, got %q: %s", ct, truncateBody(body))}
	}

	return newChunkStream(resp.Body), nil
}

// doAuthorized sends an authenticated POST. On a 401 or 403 it invalidates
// the cached credentials, force-refreshes, and retries exactly once; a
// second failure is classified and returned. Any other non-200 response is
// classified immediately. On success the caller owns resp.Body.
func (b *Backend) doAuthorized(ctx context.Context, url string, payload []byte, accept string) (*http.Response, error) {
	token, err := b.store.EnsureAuthenticated(ctx, false)
	if err != nil {
		return nil, err
	}

	resp, err := b.send(ctx, url, payload, token, accept)
	if err != nil {
		return nil, err
	}

	if IsRetryableStatus(resp.StatusCode) {
		status := resp.StatusCode
		drainAndClose(resp.Body)
		logging.Debug("auth rejected, refreshing token and retrying once", "status", status, "url", url)

		b.store.Invalidate()
		token, err = b.store.EnsureAuthenticated(ctx, true)
		if err != nil {
			return nil, err
		}

		resp, err = b.send(ctx, url, payload, token, accept)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, classifyHTTPError(resp)
	}
	return resp, nil
}

func (b *Backend) send(ctx context.Context, url string, payload []byte, token, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	for k, v := range auth.CodeAssistHeaders {
		req.Header.Set(k, v)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	return resp, nil
}

// classifyHTTPError turns a non-200 response into a typed error. The body
// is consumed; the caller closes it.
func classifyHTTPError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	msg := extractErrorMessage(body)

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    msg,
			RetryAfter: ParseRetryAfter(resp),
			Body:       string(body),
		}
	case http.StatusForbidden:
		return &PermissionError{Message: msg, Body: string(body)}
	default:
		return &APIError{StatusCode: resp.StatusCode, Message: msg, Body: string(body)}
	}
}

// extractErrorMessage pulls error.message out of a Google API error body,
// falling back to the raw body.
func extractErrorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return truncateBody(body)
}

func truncateBody(body []byte) string {
	const max = 512
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

func drainAndClose(body io.ReadCloser) {
	io.Copy(io.Discard, io.LimitReader(body, 1<<20))
	body.Close()
}
