package auth

import "time"

// Credentials holds an OAuth token set in the on-disk format used by the
// Gemini CLI (`~/.gemini/oauth_creds.json`). ExpiryDate is milliseconds
// since epoch, matching the file format.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiryDate   int64  `json:"expiry_date"`
}

// ExpiresAt returns the expiry as a time.Time.
func (c *Credentials) ExpiresAt() time.Time {
	return time.UnixMilli(c.ExpiryDate)
}

// Valid reports whether the access token is usable at time now, applying
// the refresh buffer: a token inside the buffer window counts as expired.
func (c *Credentials) Valid(now time.Time) bool {
	if c == nil || c.AccessToken == "" || c.ExpiryDate == 0 {
		return false
	}
	return now.UnixMilli() < c.ExpiryDate-TokenRefreshBuffer.Milliseconds()
}

// tokenResponse is the JSON body returned by the Google token endpoint for
// both the refresh_token and authorization_code grants.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
