package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/OEvortex/geminicli-sdk/auth"
)

// testStore returns a credential store backed by a temp file holding a
// token that stays valid for the whole test.
func testStore(t *testing.T, accessToken string) *auth.CredentialStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oauth_creds.json")
	creds := auth.Credentials{
		AccessToken:  accessToken,
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		ExpiryDate:   time.Now().Add(time.Hour).UnixMilli(),
	}
	data, err := json.Marshal(creds)
	if err != nil {
		t.Fatalf("marshal creds: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write creds: %v", err)
	}
	return auth.NewCredentialStore(auth.WithCredentialPath(path))
}

// testStoreWithRefresh additionally wires a fake token endpoint so forced
// refreshes succeed with newToken.
func testStoreWithRefresh(t *testing.T, accessToken, newToken string) *auth.CredentialStore {
	t.Helper()
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"` + newToken + `","expires_in":3600}`))
	}))
	t.Cleanup(tokenSrv.Close)

	path := filepath.Join(t.TempDir(), "oauth_creds.json")
	creds := auth.Credentials{
		AccessToken:  accessToken,
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		ExpiryDate:   time.Now().Add(time.Hour).UnixMilli(),
	}
	data, _ := json.Marshal(creds)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write creds: %v", err)
	}
	return auth.NewCredentialStore(
		auth.WithCredentialPath(path),
		auth.WithOAuthManager(auth.NewOAuthManager(auth.WithTokenEndpoint(tokenSrv.URL))),
	)
}

func TestCompleteRoundTrip(t *testing.T) {
	var gotPath string
	var gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":{"candidates":[{"content":{"parts":[{"text":"pong"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":1,"candidatesTokenCount":2,"totalTokenCount":3}}}`))
	}))
	defer srv.Close()

	b := NewBackend(testStore(t, "token-1"), WithBaseURL(srv.URL), WithProjectID("proj-1"))
	defer b.Close()

	chunk, err := b.Complete(context.Background(), CompletionRequest{
		Model:    "gemini-2.5-pro",
		Messages: []Message{{Role: RoleUser, Content: "ping"}},
	})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if gotPath != "/v1internal:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer token-1" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotBody["project"] != "proj-1" || gotBody["model"] != "gemini-2.5-pro" {
		t.Errorf("payload envelope = %v", gotBody)
	}
	req, ok := gotBody["request"].(map[string]any)
	if !ok {
		t.Fatalf("no request object in payload: %v", gotBody)
	}
	if _, ok := req["contents"]; !ok {
		t.Errorf("request has no contents: %v", req)
	}

	if chunk.Content != "pong" {
		t.Errorf("content = %q", chunk.Content)
	}
	if chunk.Usage == nil || chunk.Usage.TotalTokens != 3 {
		t.Errorf("usage = %#v", chunk.Usage)
	}
}

func TestCompleteRetriesOnceOn401(t *testing.T) {
	var calls atomic.Int64
	var tokens []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		tokens = append(tokens, r.Header.Get("Authorization"))
		if calls.Load() == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"token expired"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}}`))
	}))
	defer srv.Close()

	store := testStoreWithRefresh(t, "stale-token", "fresh-token")
	b := NewBackend(store, WithBaseURL(srv.URL), WithProjectID("proj"))
	defer b.Close()

	chunk, err := b.Complete(context.Background(), CompletionRequest{
		Model:    "gemini-2.5-pro",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if chunk.Content != "ok" {
		t.Errorf("content = %q", chunk.Content)
	}
	if calls.Load() != 2 {
		t.Fatalf("api called %d times, want 2", calls.Load())
	}
	if tokens[0] != "Bearer stale-token" || tokens[1] != "Bearer fresh-token" {
		t.Errorf("tokens = %v", tokens)
	}
}

func TestCompleteSecondAuthFailureIsTerminal(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"blocked"}}`))
	}))
	defer srv.Close()

	store := testStoreWithRefresh(t, "t1", "t2")
	b := NewBackend(store, WithBaseURL(srv.URL), WithProjectID("proj"))
	defer b.Close()

	_, err := b.Complete(context.Background(), CompletionRequest{
		Model:    "gemini-2.5-pro",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	var permErr *PermissionError
	if !errors.As(err, &permErr) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("api called %d times, want exactly 2", calls.Load())
	}
}

func TestCompleteRateLimitClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()

	b := NewBackend(testStore(t, "t"), WithBaseURL(srv.URL), WithProjectID("proj"))
	defer b.Close()

	_, err := b.Complete(context.Background(), CompletionRequest{
		Model:    "gemini-2.5-pro",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rl.RetryAfter != 7*time.Second {
		t.Errorf("retry after = %v", rl.RetryAfter)
	}
	if rl.Message != "slow down" {
		t.Errorf("message = %q", rl.Message)
	}
}

func TestCompleteStreamingRejectsNonSSE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"unexpected":"full body"}`))
	}))
	defer srv.Close()

	b := NewBackend(testStore(t, "t"), WithBaseURL(srv.URL), WithProjectID("proj"))
	defer b.Close()

	_, err := b.CompleteStreaming(context.Background(), CompletionRequest{
		Model:    "gemini-2.5-pro",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("expected StreamError, got %v", err)
	}
}

func TestCompleteStreaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1internal:streamGenerateContent" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("alt") != "sse" {
			t.Errorf("alt = %q", r.URL.Query().Get("alt"))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"response\":{\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"a\"}]}}]}}\n\n"))
		w.Write([]byte("data: {\"response\":{\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"b\"}]}}]}}\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	b := NewBackend(testStore(t, "t"), WithBaseURL(srv.URL), WithProjectID("proj"))
	defer b.Close()

	stream, err := b.CompleteStreaming(context.Background(), CompletionRequest{
		Model:    "gemini-2.5-pro",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("streaming failed: %v", err)
	}
	defer stream.Close()

	var got string
	for stream.Next() {
		got += stream.Current().Content
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if got != "ab" {
		t.Errorf("content = %q, want ab", got)
	}
}

func TestProjectDiscoveryExistingUser(t *testing.T) {
	var loadCalls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1internal:loadCodeAssist" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		loadCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cloudaicompanionProject":"discovered-proj","currentTier":{"id":"standard-tier"}}`))
	}))
	defer srv.Close()

	b := NewBackend(testStore(t, "t"), WithBaseURL(srv.URL))
	defer b.Close()

	for i := 0; i < 3; i++ {
		project, err := b.ProjectID(context.Background())
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if project != "discovered-proj" {
			t.Errorf("project = %q", project)
		}
	}
	if loadCalls.Load() != 1 {
		t.Errorf("loadCodeAssist called %d times, want 1 (cached)", loadCalls.Load())
	}
}

func TestProjectDiscoveryObjectForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cloudaicompanionProject":{"id":"obj-proj"},"currentTier":{"id":"free-tier"}}`))
	}))
	defer srv.Close()

	b := NewBackend(testStore(t, "t"), WithBaseURL(srv.URL))
	defer b.Close()

	project, err := b.ProjectID(context.Background())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if project != "obj-proj" {
		t.Errorf("project = %q", project)
	}
}

func TestProjectOnboardingNewUser(t *testing.T) {
	var onboardCalls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1internal:loadCodeAssist":
			w.Write([]byte(`{"allowedTiers":[{"id":"free-tier","isDefault":true}]}`))
		case "/v1internal:onboardUser":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if body["tierId"] != "free-tier" {
				t.Errorf("tierId = %v", body["tierId"])
			}
			if onboardCalls.Add(1) == 1 {
				w.Write([]byte(`{"name":"operations/op-1","done":false}`))
				return
			}
			w.Write([]byte(`{"name":"operations/op-1","done":true,"response":{"cloudaicompanionProject":{"id":"new-proj"}}}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer srv.Close()

	b := NewBackend(testStore(t, "t"), WithBaseURL(srv.URL))
	defer b.Close()

	project, err := b.ProjectID(context.Background())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if project != "new-proj" {
		t.Errorf("project = %q", project)
	}
	if onboardCalls.Load() != 2 {
		t.Errorf("onboardUser called %d times, want 2", onboardCalls.Load())
	}
}

func TestProjectFromEnvSkipsDiscovery(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "env-proj")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected API call to %q", r.URL.Path)
	}))
	defer srv.Close()

	b := NewBackend(testStore(t, "t"), WithBaseURL(srv.URL))
	defer b.Close()

	project, err := b.ProjectID(context.Background())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if project != "env-proj" {
		t.Errorf("project = %q", project)
	}
}
