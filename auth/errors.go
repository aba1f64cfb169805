package auth

import (
	"errors"
	"fmt"
)

// CredentialsNotFoundError indicates no cached credential file exists.
// The user has to run the Gemini CLI login flow (or ExchangeCode) first.
type CredentialsNotFoundError struct {
	Path string
}

func (e *CredentialsNotFoundError) Error() string {
	return fmt.Sprintf("gemini OAuth credentials not found at %s: login with the Gemini CLI first", e.Path)
}

// TokenRefreshError indicates the identity provider rejected a token
// refresh or code exchange.
type TokenRefreshError struct {
	Message    string
	StatusCode int
	Body       string
}

func (e *TokenRefreshError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("token refresh failed (%d): %s", e.StatusCode, e.Message)
	}
	return "token refresh failed: " + e.Message
}

// IsAuthError reports whether err is any authentication-class failure
// produced by this package.
func IsAuthError(err error) bool {
	var notFound *CredentialsNotFoundError
	var refresh *TokenRefreshError
	return errors.As(err, &notFound) || errors.As(err, &refresh)
}
