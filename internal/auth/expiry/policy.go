// Package expiry computes effective session expiry, refresh-due windows, and
// cooldown eligibility. Pure functions: no I/O, no shared state.
package expiry

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultRefreshBuffer is how long before expiry a refresh becomes due.
	DefaultRefreshBuffer = 5 * time.Minute
	// DefaultRefreshCooldown is the minimum gap between refresh attempts per session key.
	DefaultRefreshCooldown = time.Minute
	// ShortSessionLifetime caps sessions created without remember-me.
	ShortSessionLifetime = 24 * time.Hour
	// RememberedSessionLifetime caps sessions created with remember-me.
	RememberedSessionLifetime = 7 * 24 * time.Hour
)

// Lifetime returns the maximum session lifetime for the remember-me choice.
func Lifetime(rememberMe bool) time.Duration {
	if rememberMe {
		return RememberedSessionLifetime
	}
	return ShortSessionLifetime
}

// EffectiveExpiry returns the expiry to enforce for a token issued at issuedAt.
// upstreamExp is the expiry claim decoded from the provider's token; nil when
// absent or malformed. The result never exceeds issuedAt + lifetime.
func EffectiveExpiry(upstreamExp *time.Time, issuedAt time.Time, lifetime time.Duration) time.Time {
	max := issuedAt.Add(lifetime)
	if upstreamExp == nil || upstreamExp.IsZero() {
		return max
	}
	if upstreamExp.Before(max) {
		return *upstreamExp
	}
	return max
}

// RefreshDue reports whether a refresh should be attempted: the expiry is
// within buffer of now, or no expiry is known at all.
func RefreshDue(now, expiresAt time.Time, buffer time.Duration) bool {
	if expiresAt.IsZero() {
		return true
	}
	return !expiresAt.Add(-buffer).After(now)
}

// Expired reports whether the effective expiry has passed.
func Expired(now, expiresAt time.Time) bool {
	return !expiresAt.After(now)
}

// CanAttemptRefresh reports whether the cooldown since the last attempt has
// elapsed. lastRefresh is nil when no attempt was ever made.
func CanAttemptRefresh(now time.Time, lastRefresh *time.Time, cooldown time.Duration) bool {
	if lastRefresh == nil || lastRefresh.IsZero() {
		return true
	}
	return now.Sub(*lastRefresh) >= cooldown
}

// DecodeExpiryClaim extracts the exp claim from a JWT bearer token without
// verifying the signature; signature validation is the provider's job. Returns
// nil for opaque tokens or tokens with no usable exp claim, so callers fall
// back to the local maximum lifetime.
func DecodeExpiryClaim(token string) *time.Time {
	if token == "" {
		return nil
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time.UTC()
	return &t
}
