// Package upstream isolates all network contact with the identity provider.
// No retries live here: retrying a refresh with a now-expired token is never
// valid, so retry policy belongs to the session service.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 15 * time.Second

// ErrInvalidCredentials is returned when the provider rejects a login.
// Never retried; the presentation layer maps it to a localized message.
var ErrInvalidCredentials = errors.New("invalid credentials")

// RefreshError reports a failed refresh call with the provider's response,
// so the session service can classify it against the token's expiry.
type RefreshError struct {
	StatusCode int
	Body       string
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("upstream: refresh failed status=%d body=%s", e.StatusCode, e.Body)
}

// User is the provider's user payload, denormalized into the session identity.
type User struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	Name      string   `json:"name"`
	AvatarURL string   `json:"avatarUrl"`
	ProfileID string   `json:"profileId"`
}

// LoginResult is a successful login response. Exp is nil when the provider
// sent no expiry claim; callers fall back to decoding the token.
type LoginResult struct {
	Token string
	User  User
	Exp   *time.Time
}

// RefreshResult is a successful refresh response.
type RefreshResult struct {
	Token string
	Exp   *time.Time
}

// Client wraps the identity provider's login, refresh, and logout endpoints.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Log        zerolog.Logger
}

// NewClient returns a Client for the provider at baseURL with a bounded timeout.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		Log:        log,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
	Exp   *int64 `json:"exp"`
}

type refreshResponse struct {
	RefreshedToken string `json:"refreshedToken"`
	Exp            *int64 `json:"exp"`
}

type errorResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Login authenticates with the provider. A non-2xx response yields
// ErrInvalidCredentials wrapped with the provider's first error message.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	raw, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/login", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		var er errorResponse
		if err := json.Unmarshal(body, &er); err == nil && len(er.Errors) > 0 {
			return nil, fmt.Errorf("%s: %w", er.Errors[0].Message, ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("login status=%d: %w", resp.StatusCode, ErrInvalidCredentials)
	}
	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("upstream: decode login response: %w", err)
	}
	return &LoginResult{Token: lr.Token, User: lr.User, Exp: unixTime(lr.Exp)}, nil
}

// Refresh exchanges a still-valid bearer token for a fresh one. The token must
// not be expired; the provider rejects expired bearers. Non-2xx responses
// yield a *RefreshError carrying status and body.
func (c *Client) Refresh(ctx context.Context, token string) (*RefreshResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/refresh-token", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &RefreshError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	var rr refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("upstream: decode refresh response: %w", err)
	}
	return &RefreshResult{Token: rr.RefreshedToken, Exp: unixTime(rr.Exp)}, nil
}

// Logout notifies the provider that the session ended. Fire-and-forget:
// failures are logged and never returned, because logout notification must not
// block session invalidation.
func (c *Client) Logout(ctx context.Context, token string, allSessions bool) {
	url := fmt.Sprintf("%s/logout?allSessions=%t", c.BaseURL, allSessions)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		c.Log.Warn().Err(err).Msg("upstream logout request build failed")
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Log.Warn().Err(err).Msg("upstream logout notification failed")
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.Log.Warn().Int("status", resp.StatusCode).Msg("upstream logout returned non-2xx")
	}
}

func unixTime(sec *int64) *time.Time {
	if sec == nil || *sec == 0 {
		return nil
	}
	t := time.Unix(*sec, 0).UTC()
	return &t
}
