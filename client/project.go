package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/OEvortex/geminicli-sdk/auth"
	"github.com/OEvortex/geminicli-sdk/internal/logging"
)

// loadCodeAssistResponse is the answer to :loadCodeAssist. The project
// field arrives either as a plain string or as an object with an id.
type loadCodeAssistResponse struct {
	CloudaicompanionProject any `json:"cloudaicompanionProject"`
	CurrentTier             *struct {
		ID string `json:"id"`
	} `json:"currentTier"`
	AllowedTiers []struct {
		ID        string `json:"id"`
		IsDefault bool   `json:"isDefault"`
	} `json:"allowedTiers"`
}

func projectIDFromField(v any) string {
	switch p := v.(type) {
	case string:
		return p
	case map[string]any:
		if id, ok := p["id"].(string); ok {
			return id
		}
	}
	return ""
}

// selectTierID picks the onboarding tier: the default if one is flagged,
// otherwise the first offered, otherwise free.
func (r *loadCodeAssistResponse) selectTierID() string {
	for _, t := range r.AllowedTiers {
		if t.IsDefault {
			return t.ID
		}
	}
	if len(r.AllowedTiers) > 0 {
		return r.AllowedTiers[0].ID
	}
	return "free-tier"
}

// ProjectID resolves the Cloud project for Code Assist calls, in order:
// the pinned value, the GOOGLE_CLOUD_PROJECT environment (or the .env file
// next to the credentials), then discovery through :loadCodeAssist with
// onboarding for accounts that have no project yet. Free-tier accounts
// resolve to an empty project, which the API accepts. The result is cached
// for the backend's lifetime.
func (b *Backend) ProjectID(ctx context.Context) (string, error) {
	b.projectMu.Lock()
	defer b.projectMu.Unlock()

	if b.projectResolved {
		return b.projectID, nil
	}

	if env := auth.ProjectIDFromEnv(b.store.Path()); env != "" {
		logging.Debug("using project ID from environment", "projectID", env)
		b.projectID = env
		b.projectResolved = true
		return env, nil
	}

	projectID, err := b.discoverProject(ctx)
	if err != nil {
		return "", err
	}
	b.projectID = projectID
	b.projectResolved = true
	return projectID, nil
}

func (b *Backend) discoverProject(ctx context.Context) (string, error) {
	reqBody := map[string]any{
		"metadata": auth.ClientMetadata,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode loadCodeAssist request: %w", err)
	}

	resp, err := b.doAuthorized(ctx, b.endpoint("loadCodeAssist"), payload, "application/json")
	if err != nil {
		return "", fmt.Errorf("loadCodeAssist failed: %w", err)
	}
	defer resp.Body.Close()

	var result loadCodeAssistResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to parse loadCodeAssist response: %w", err)
	}

	if result.CurrentTier != nil {
		projectID := projectIDFromField(result.CloudaicompanionProject)
		logging.Debug("code assist user already onboarded",
			"tierID", result.CurrentTier.ID, "projectID", projectID)
		return projectID, nil
	}

	tierID := result.selectTierID()
	logging.Info("onboarding code assist user", "tierID", tierID)
	return b.onboardUser(ctx, tierID, projectIDFromField(result.CloudaicompanionProject))
}

// lroOperation is the long-running operation returned by :onboardUser.
type lroOperation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response *struct {
		CloudaicompanionProject any `json:"cloudaicompanionProject"`
	} `json:"response"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (op *lroOperation) projectID() string {
	if op.Response == nil {
		return ""
	}
	return projectIDFromField(op.Response.CloudaicompanionProject)
}

// onboardUser provisions the account on the given tier. The call is
// repeated until the operation reports done; the API treats it as
// idempotent while provisioning is in flight.
func (b *Backend) onboardUser(ctx context.Context, tierID, knownProject string) (string, error) {
	reqBody := map[string]any{
		"tierId":   tierID,
		"metadata": auth.ClientMetadata,
	}
	if knownProject != "" {
		reqBody["cloudaicompanionProject"] = knownProject
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode onboardUser request: %w", err)
	}

	for attempt := 0; attempt < onboardMaxPolls; attempt++ {
		op, err := b.postOnboard(ctx, payload)
		if err != nil {
			return "", err
		}
		if op.Error != nil {
			return "", &OnboardingError{TierID: tierID, Message: op.Error.Message}
		}
		if op.Done {
			projectID := op.projectID()
			logging.Debug("code assist onboarding complete", "tierID", tierID, "projectID", projectID)
			return projectID, nil
		}

		logging.Debug("code assist onboarding in progress", "attempt", attempt+1, "operation", op.Name)
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("onboarding cancelled: %w", ctx.Err())
		case <-time.After(onboardPollInterval):
		}
	}

	return "", &OnboardingError{
		TierID:  tierID,
		Message: fmt.Sprintf("provisioning did not finish after %d attempts", onboardMaxPolls),
	}
}

func (b *Backend) postOnboard(ctx context.Context, payload []byte) (*lroOperation, error) {
	resp, err := b.doAuthorized(ctx, b.endpoint("onboardUser"), payload, "application/json")
	if err != nil {
		return nil, fmt.Errorf("onboardUser failed: %w", err)
	}
	defer resp.Body.Close()

	var op lroOperation
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&op); err != nil {
		return nil, fmt.Errorf("failed to parse onboardUser response: %w", err)
	}
	return &op, nil
}
