package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultIdentityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// FirebaseConfig holds Firebase Authentication configuration.
type FirebaseConfig struct {
	// APIKey is the web API key of the Firebase project.
	APIKey string

	// BaseURL overrides the Identity Toolkit endpoint, mainly for tests.
	BaseURL string

	// HTTPClient defaults to a client with a 10s timeout.
	HTTPClient *http.Client

	// Profiles, when set, receives a Profile write on every sign-up.
	Profiles ProfileStore
}

// Firebase implements Provider against the Firebase Identity Toolkit
// REST API.
type Firebase struct {
	config FirebaseConfig
	hub    *stateHub
}

// NewFirebase creates a Firebase authentication provider.
func NewFirebase(config FirebaseConfig) (*Firebase, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	// Set defaults
	if config.BaseURL == "" {
		config.BaseURL = defaultIdentityToolkitURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Firebase{
		config: config,
		hub:    newStateHub(),
	}, nil
}

type toolkitAuthResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
}

type toolkitErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SignUp implements Provider. It creates the account, sets the display
// name, and writes the profile when a ProfileStore is configured.
func (f *Firebase) SignUp(ctx context.Context, name, email, password string) (Identity, error) {
	var resp toolkitAuthResponse
	err := f.post(ctx, "accounts:signUp", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return Identity{}, err
	}

	if name != "" {
		err = f.post(ctx, "accounts:update", map[string]interface{}{
			"idToken":           resp.IDToken,
			"displayName":       name,
			"returnSecureToken": false,
		}, &toolkitAuthResponse{})
		if err != nil {
			return Identity{}, fmt.Errorf("failed to set display name: %w", err)
		}
	}

	id := Identity{UID: resp.LocalID, Email: resp.Email, DisplayName: name}

	if f.config.Profiles != nil {
		profile := Profile{
			Name:         name,
			Email:        email,
			RegisteredAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := f.config.Profiles.SaveProfile(ctx, id.UID, profile); err != nil {
			return Identity{}, fmt.Errorf("failed to save profile: %w", err)
		}
	}

	f.hub.set(State{Identity: id, SignedIn: true})
	return id, nil
}

// SignIn implements Provider.
func (f *Firebase) SignIn(ctx context.Context, email, password string) (Identity, error) {
	var resp toolkitAuthResponse
	err := f.post(ctx, "accounts:signInWithPassword", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return Identity{}, err
	}

	id := Identity{UID: resp.LocalID, Email: resp.Email, DisplayName: resp.DisplayName}
	f.hub.set(State{Identity: id, SignedIn: true})
	return id, nil
}

// SignOut implements Provider. Sign-out is local; the toolkit has no
// server-side session to revoke for password accounts.
func (f *Firebase) SignOut(ctx context.Context) error {
	f.hub.set(State{})
	return nil
}

// CurrentUser implements Provider.
func (f *Firebase) CurrentUser() (Identity, bool) {
	s := f.hub.get()
	return s.Identity, s.SignedIn
}

// Subscribe implements Provider.
func (f *Firebase) Subscribe(ctx context.Context) <-chan State {
	return f.hub.subscribe(ctx)
}

func (f *Firebase) post(ctx context.Context, endpoint string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s?key=%s", f.config.BaseURL, endpoint, f.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.config.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity toolkit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var toolkitErr toolkitErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&toolkitErr); err == nil {
			return mapToolkitError(toolkitErr.Error.Message)
		}
		return fmt.Errorf("identity toolkit returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func mapToolkitError(message string) error {
	switch {
	case strings.HasPrefix(message, "EMAIL_EXISTS"):
		return ErrEmailInUse
	case strings.HasPrefix(message, "EMAIL_NOT_FOUND"),
		strings.HasPrefix(message, "INVALID_PASSWORD"),
		strings.HasPrefix(message, "INVALID_LOGIN_CREDENTIALS"):
		return ErrInvalidCredentials
	default:
		return fmt.Errorf("identity toolkit error: %s", message)
	}
}
