// Package geminisdk is a client SDK for Google's Gemini models through the
// Code Assist API, using the same OAuth credentials as the official Gemini
// CLI. It offers session-based conversations with streaming responses,
// thinking output and client-side tool calling.
package geminisdk

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/OEvortex/geminicli-sdk/auth"
	"github.com/OEvortex/geminicli-sdk/client"
	"github.com/OEvortex/geminicli-sdk/internal/logging"
)

// ConnectionState is the lifecycle state of a Client.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateError        ConnectionState = "error"
)

// ClientOptions configures a Client. The zero value works for a machine
// where `gemini auth login` has run: credentials are read from the default
// path with the official CLI's OAuth client.
type ClientOptions struct {
	// CredentialPath overrides ~/.gemini/oauth_creds.json.
	CredentialPath string

	// ClientID and ClientSecret override the official OAuth client pair.
	ClientID     string
	ClientSecret string

	// BaseURL overrides the Code Assist endpoint, mainly for tests.
	BaseURL string

	// ProjectID pins the Cloud project, skipping discovery.
	ProjectID string

	// DisableAutoRefresh turns off the background token refresh loop.
	DisableAutoRefresh bool

	// RefreshCheckInterval is how often the background loop checks token
	// validity. Zero means 30 seconds.
	RefreshCheckInterval time.Duration
}

// AuthStatus reports whether usable credentials are available.
type AuthStatus struct {
	Authenticated bool
	TokenType     string
	ExpiresAt     time.Time
}

// Client owns the credential store, the backend, and the set of live
// sessions. Sessions created from one client share a connection pool and
// a resolved project. Safe for concurrent use.
type Client struct {
	opts ClientOptions

	mu       sync.Mutex
	state    ConnectionState
	started  bool
	store    *auth.CredentialStore
	backend  *client.Backend
	sessions map[string]*Session

	refreshCancel context.CancelFunc
	refreshDone   chan struct{}
}

// NewClient creates a client. No network or disk access happens until
// Start (or the first CreateSession).
func NewClient(opts ClientOptions) *Client {
	return &Client{
		opts:     opts,
		state:    StateDisconnected,
		sessions: make(map[string]*Session),
	}
}

// Start loads credentials, verifies they can produce a valid access token,
// and begins the background refresh loop. Calling Start on a started
// client is a no-op.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}
	c.state = StateConnecting

	var managerOpts []auth.OAuthOption
	if c.opts.ClientID != "" && c.opts.ClientSecret != "" {
		managerOpts = append(managerOpts, auth.WithClientCredentials(c.opts.ClientID, c.opts.ClientSecret))
	}
	store := auth.NewCredentialStore(
		auth.WithCredentialPath(c.opts.CredentialPath),
		auth.WithOAuthManager(auth.NewOAuthManager(managerOpts...)),
	)

	if _, err := store.EnsureAuthenticated(ctx, false); err != nil {
		c.state = StateError
		return err
	}

	c.store = store
	c.backend = client.NewBackend(store,
		client.WithBaseURL(c.opts.BaseURL),
		client.WithProjectID(c.opts.ProjectID),
	)
	c.state = StateConnected
	c.started = true

	if !c.opts.DisableAutoRefresh {
		c.startAutoRefresh()
	}

	logging.Info("gemini client started")
	return nil
}

// startAutoRefresh keeps the access token fresh in the background so long
// streams do not start with a token about to lapse. Caller holds c.mu.
func (c *Client) startAutoRefresh() {
	interval := c.opts.RefreshCheckInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.refreshCancel = cancel
	c.refreshDone = make(chan struct{})
	store := c.store

	go func() {
		defer close(c.refreshDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := store.EnsureAuthenticated(ctx, false); err != nil {
					logging.Debug("background token refresh failed", "error", err)
				}
			}
		}
	}()
}

// Close stops the refresh loop, destroys all sessions, and releases the
// backend's connections. The client returns to disconnected and can be
// started again.
func (c *Client) Close() {
	c.mu.Lock()
	if c.refreshCancel != nil {
		c.refreshCancel()
		done := c.refreshDone
		c.refreshCancel = nil
		c.refreshDone = nil
		c.mu.Unlock()
		<-done
		c.mu.Lock()
	}

	sessions := c.sessions
	c.sessions = make(map[string]*Session)
	backend := c.backend
	c.backend = nil
	c.store = nil
	c.state = StateDisconnected
	c.started = false
	c.mu.Unlock()

	for _, s := range sessions {
		s.Destroy()
	}
	if backend != nil {
		backend.Close()
	}
	logging.Info("gemini client stopped")
}

// State returns the connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CreateSession creates a conversation session, starting the client first
// if needed.
func (c *Client) CreateSession(ctx context.Context, cfg SessionConfig) (*Session, error) {
	if err := c.Start(ctx); err != nil {
		return nil, err
	}

	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	c.mu.Lock()
	session := newSession(c.backend, cfg)
	c.sessions[cfg.SessionID] = session
	c.mu.Unlock()

	logging.Debug("created session", "sessionID", cfg.SessionID, "model", cfg.Model)
	return session, nil
}

// GetSession returns a live session by ID.
func (c *Client) GetSession(sessionID string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	session, ok := c.sessions[sessionID]
	if !ok {
		return nil, &SessionNotFoundError{SessionID: sessionID}
	}
	return session, nil
}

// ListSessions returns metadata for every live session.
func (c *Client) ListSessions() []SessionMetadata {
	c.mu.Lock()
	sessions := make([]*Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		sessions = append(sessions, s)
	}
	c.mu.Unlock()

	out := make([]SessionMetadata, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.metadata())
	}
	return out
}

// DeleteSession destroys a session and forgets it. Unknown IDs are
// ignored.
func (c *Client) DeleteSession(sessionID string) {
	c.mu.Lock()
	session := c.sessions[sessionID]
	delete(c.sessions, sessionID)
	c.mu.Unlock()

	if session != nil {
		session.Destroy()
		logging.Debug("deleted session", "sessionID", sessionID)
	}
}

// AuthStatus reports whether the client currently holds usable
// credentials.
func (c *Client) AuthStatus(ctx context.Context) AuthStatus {
	c.mu.Lock()
	store := c.store
	c.mu.Unlock()

	if store == nil {
		return AuthStatus{}
	}
	creds, err := store.Credentials(ctx)
	if err != nil {
		return AuthStatus{}
	}
	return AuthStatus{
		Authenticated: true,
		TokenType:     creds.TokenType,
		ExpiresAt:     creds.ExpiresAt(),
	}
}

// RefreshAuth forces a token refresh regardless of expiry.
func (c *Client) RefreshAuth(ctx context.Context) error {
	c.mu.Lock()
	store := c.store
	c.mu.Unlock()

	if store == nil {
		return &auth.CredentialsNotFoundError{Path: auth.DefaultCredentialPath()}
	}
	_, err := store.EnsureAuthenticated(ctx, true)
	return err
}

// ListModels returns the model catalog.
func (c *Client) ListModels() []ModelInfo {
	out := make([]ModelInfo, len(GeminiCLIModels))
	copy(out, GeminiCLIModels)
	return out
}
