package auth

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/OEvortex/geminicli-sdk/internal/logging"
)

// ProjectIDFromEnv resolves a Google Cloud project id override without
// touching the network: the GOOGLE_CLOUD_PROJECT environment variable
// first, then a KEY=value line in the Gemini CLI env file next to the
// credential file (~/.gemini/.env by default). Returns "" when neither is
// set; the transport then resolves a project through the Code Assist API.
func ProjectIDFromEnv(credentialPath string) string {
	if v := os.Getenv(ProjectIDEnvVar); v != "" {
		logging.Debug("using project id from environment", "projectID", v)
		return v
	}

	envFile := filepath.Join(filepath.Dir(credentialPath), GeminiEnvFilename)
	vars, err := godotenv.Read(envFile)
	if err != nil {
		return ""
	}
	if v := vars[ProjectIDEnvVar]; v != "" {
		logging.Debug("using project id from env file", "path", envFile, "projectID", v)
		return v
	}
	return ""
}
