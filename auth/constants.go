package auth

import "time"

// Google OAuth endpoints used by the Gemini CLI authentication flow.
const (
	GeminiOAuthBaseURL       = "https://accounts.google.com"
	GeminiOAuthTokenEndpoint = GeminiOAuthBaseURL + "/o/oauth2/token"
	GeminiOAuthAuthEndpoint  = GeminiOAuthBaseURL + "/o/oauth2/v2/auth"
	GeminiOAuthRedirectURI   = "http://localhost:45289"
)

// Official Google OAuth client credentials for the Gemini CLI.
// These identify the installed application, not the user; every Gemini CLI
// install ships the same pair.
const (
	GeminiOAuthClientID     = "681255809395-oo8ft2oprdrnp9e3aqf6av3hmdib135j.apps.googleusercontent.com"
	GeminiOAuthClientSecret = "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"
)

// GeminiOAuthScopes are the scopes required for Cloud Code API access.
var GeminiOAuthScopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// Code Assist API endpoint and version.
const (
	GeminiCodeAssistEndpoint   = "https://cloudcode-pa.googleapis.com"
	GeminiCodeAssistAPIVersion = "v1internal"
)

// Credential storage defaults. Credentials are shared with the official
// Gemini CLI, which writes them after `gemini auth login`.
const (
	GeminiDir                = ".gemini"
	GeminiCredentialFilename = "oauth_creds.json"
	GeminiEnvFilename        = ".env"
)

// CodeAssistHeaders are set on every Code Assist API request in addition
// to Authorization and Content-Type. The API gates some behavior on the
// client identifying itself as the Gemini CLI.
var CodeAssistHeaders = map[string]string{
	"User-Agent": "GeminiCLI/v18.0.0 (linux; x64)",
}

// ClientMetadata identifies the calling surface to loadCodeAssist and
// onboardUser.
var ClientMetadata = map[string]string{
	"ideType":    "IDE_UNSPECIFIED",
	"platform":   "PLATFORM_UNSPECIFIED",
	"pluginType": "GEMINI",
}

// TokenRefreshBuffer is subtracted from the token expiry when checking
// validity, so a token is refreshed before it actually lapses mid-request.
const TokenRefreshBuffer = 5 * time.Minute

// ProjectIDEnvVar overrides project discovery when set.
const ProjectIDEnvVar = "GOOGLE_CLOUD_PROJECT"

// OAuthHTTPTimeout bounds token endpoint calls.
const OAuthHTTPTimeout = 30 * time.Second
