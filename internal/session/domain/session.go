// Package domain holds the session token entity owned by the session service.
package domain

import "time"

// ErrorKind classifies session failures with a stable identifier. Localized
// message mapping is a presentation concern and lives outside this package.
type ErrorKind string

const (
	// ErrorNone means the session carries no error.
	ErrorNone ErrorKind = ""
	// ErrorTokenExpired means the effective expiry passed; the session was
	// forcibly invalidated and the upstream provider notified best-effort.
	ErrorTokenExpired ErrorKind = "TokenExpired"
	// ErrorRefreshAccessToken marks a refresh failure. It is transient while
	// the token is still valid, terminal once the token is gone or expired.
	ErrorRefreshAccessToken ErrorKind = "RefreshAccessTokenError"
	// ErrorSessionExpired is surfaced to consumers detecting an invalidated session.
	ErrorSessionExpired ErrorKind = "SessionExpired"
	// ErrorSessionMaxAgeExceeded means the local maximum session lifetime elapsed.
	ErrorSessionMaxAgeExceeded ErrorKind = "SessionMaxAgeExceeded"
)

// Terminal reports whether the kind forces invalidation (access token must be absent).
func (k ErrorKind) Terminal() bool {
	switch k {
	case ErrorTokenExpired, ErrorSessionExpired, ErrorSessionMaxAgeExceeded:
		return true
	}
	return false
}

// Identity holds denormalized user attributes refreshed opportunistically from
// the upstream provider's user payload.
type Identity struct {
	ID          string
	Email       string
	Roles       []string
	DisplayName string
	AvatarURL   string
	ProfileID   string
}

// Token is the mutable session credential state for one authenticated identity.
// It is exclusively owned by the session service; nothing else mutates it.
type Token struct {
	AccessToken        string // empty when logged out
	IssuedAt           time.Time
	AccessTokenExpires time.Time  // effective expiry: min(upstream exp, IssuedAt+max lifetime)
	LastRefresh        *time.Time // nil until the first refresh attempt; drives cooldown
	RememberMe         bool
	Identity           Identity
	Error              ErrorKind
}

// Key returns the single-flight key for this token: the user ID, or the email
// when the upstream payload carried no ID.
func (t *Token) Key() string {
	if t.Identity.ID != "" {
		return t.Identity.ID
	}
	return t.Identity.Email
}

// Authenticated reports whether the token currently holds a usable credential.
func (t *Token) Authenticated() bool {
	return t != nil && t.AccessToken != "" && !t.Error.Terminal()
}

// EverAuthenticated reports whether this token ever completed a login,
// even if the credential has since been lost.
func (t *Token) EverAuthenticated() bool {
	return t != nil && !t.IssuedAt.IsZero()
}

// Invalidate clears the credential and records kind. Terminal per session
// instance: only a new login produces a usable token again.
func (t *Token) Invalidate(kind ErrorKind) {
	t.AccessToken = ""
	t.Error = kind
}

// Session is the externally exposed view of an authenticated session.
// It is never produced for tokens with a terminal error set.
type Session struct {
	User        Identity
	AccessToken string
	ExpiresAt   time.Time
	// Warning carries the transient ErrorRefreshAccessToken tag while the
	// last refresh attempt failed but the token is still valid. Cleared by
	// the next successful refresh.
	Warning ErrorKind
}
