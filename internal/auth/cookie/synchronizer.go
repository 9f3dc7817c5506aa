// Package cookie mirrors the current bearer token into a cookie on a shared
// parent domain so a sibling subdomain app can reuse the session. This is the
// only component allowed to touch that secondary transport.
package cookie

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"eventfair/backend/internal/auth/expiry"
)

// Name is the shared cookie read by the sibling application.
const Name = "payload-token"

// Synchronizer writes and clears the shared-domain token cookie.
// When no shared parent domain is configured both operations are no-ops.
type Synchronizer struct {
	// SharedDomain is the parent domain the cookie is scoped to
	// (e.g. ".example.ro"). Empty disables cross-domain sharing.
	SharedDomain string
	// Secure marks the cookie Secure; set in production.
	Secure bool
	Log    zerolog.Logger
}

// NewSynchronizer returns a Synchronizer for the given shared parent domain.
func NewSynchronizer(sharedDomain string, secure bool, log zerolog.Logger) *Synchronizer {
	return &Synchronizer{SharedDomain: sharedDomain, Secure: secure, Log: log}
}

// Enabled reports whether cross-domain sharing is configured.
func (s *Synchronizer) Enabled() bool {
	return s != nil && s.SharedDomain != ""
}

// Set mirrors token into the shared cookie with a max-age derived from the
// remember-me choice. No-op when sharing is not configured or w is nil;
// cookie mutation is best-effort relative to the primary session state.
func (s *Synchronizer) Set(w http.ResponseWriter, token string, rememberMe bool) {
	if !s.Enabled() || w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    token,
		Path:     "/",
		Domain:   s.SharedDomain,
		MaxAge:   int(expiry.Lifetime(rememberMe) / time.Second),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: s.sameSite(),
	})
}

// Clear deletes the shared cookie. Idempotent and never fails: clearing an
// absent cookie just rewrites the deletion header.
func (s *Synchronizer) Clear(w http.ResponseWriter) {
	if !s.Enabled() {
		return
	}
	if w == nil {
		s.Log.Warn().Msg("cookie: clear requested with no response writer")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    "",
		Path:     "/",
		Domain:   s.SharedDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: s.sameSite(),
	})
}

// SameSite=None is required for a cookie served across sibling subdomains;
// without sharing the stricter Lax default applies.
func (s *Synchronizer) sameSite() http.SameSite {
	if s.Enabled() {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}
