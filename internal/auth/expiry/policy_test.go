package expiry

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestEffectiveExpiry_NoUpstreamClaim(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	got := EffectiveExpiry(nil, issued, Lifetime(false))
	if want := issued.Add(24 * time.Hour); !got.Equal(want) {
		t.Errorf("short lifetime: got %v, want %v", got, want)
	}

	got = EffectiveExpiry(nil, issued, Lifetime(true))
	if want := issued.Add(7 * 24 * time.Hour); !got.Equal(want) {
		t.Errorf("remembered lifetime: got %v, want %v", got, want)
	}
}

func TestEffectiveExpiry_UpstreamClaimWins(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	upstream := issued.Add(2 * time.Hour)

	got := EffectiveExpiry(&upstream, issued, Lifetime(false))
	if !got.Equal(upstream) {
		t.Errorf("earlier upstream exp should win: got %v, want %v", got, upstream)
	}
}

func TestEffectiveExpiry_LifetimeCaps(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	upstream := issued.Add(30 * 24 * time.Hour)

	got := EffectiveExpiry(&upstream, issued, Lifetime(false))
	if want := issued.Add(24 * time.Hour); !got.Equal(want) {
		t.Errorf("lifetime cap: got %v, want %v", got, want)
	}
	got = EffectiveExpiry(&upstream, issued, Lifetime(true))
	if want := issued.Add(7 * 24 * time.Hour); !got.Equal(want) {
		t.Errorf("remembered lifetime cap: got %v, want %v", got, want)
	}
}

// The bound result <= issuedAt + Lifetime(rememberMe) must hold for all inputs,
// and recomputing with the result as upstream exp must be a fixed point.
func TestEffectiveExpiry_BoundAndIdempotence(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	exps := []*time.Time{nil}
	for _, d := range []time.Duration{-time.Hour, time.Minute, 12 * time.Hour, 24 * time.Hour, 8 * 24 * time.Hour} {
		e := issued.Add(d)
		exps = append(exps, &e)
	}
	for _, rememberMe := range []bool{false, true} {
		for _, exp := range exps {
			got := EffectiveExpiry(exp, issued, Lifetime(rememberMe))
			if max := issued.Add(Lifetime(rememberMe)); got.After(max) {
				t.Errorf("exp=%v rememberMe=%v: result %v exceeds bound %v", exp, rememberMe, got, max)
			}
			if again := EffectiveExpiry(&got, issued, Lifetime(rememberMe)); !again.Equal(got) {
				t.Errorf("exp=%v rememberMe=%v: not idempotent: %v then %v", exp, rememberMe, got, again)
			}
		}
	}
}

func TestRefreshDue(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := issued.Add(24 * time.Hour)

	// 200s before expiry is inside the 300s buffer.
	now := expires.Add(-200 * time.Second)
	if !RefreshDue(now, expires, DefaultRefreshBuffer) {
		t.Error("inside buffer window: want due")
	}
	// Well before the window.
	if RefreshDue(issued, expires, DefaultRefreshBuffer) {
		t.Error("immediately after issue: want not due")
	}
	// Boundary: exactly expiry-buffer.
	if !RefreshDue(expires.Add(-DefaultRefreshBuffer), expires, DefaultRefreshBuffer) {
		t.Error("at buffer boundary: want due")
	}
	// Unknown expiry is always due.
	if !RefreshDue(now, time.Time{}, DefaultRefreshBuffer) {
		t.Error("zero expiry: want due")
	}
}

func TestExpired(t *testing.T) {
	expires := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	if Expired(expires.Add(-time.Second), expires) {
		t.Error("before expiry: want not expired")
	}
	if !Expired(expires, expires) {
		t.Error("at expiry: want expired")
	}
	if !Expired(expires.Add(time.Second), expires) {
		t.Error("after expiry: want expired")
	}
}

func TestCanAttemptRefresh(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if !CanAttemptRefresh(now, nil, DefaultRefreshCooldown) {
		t.Error("no previous attempt: want allowed")
	}
	last := now.Add(-30 * time.Second)
	if CanAttemptRefresh(now, &last, DefaultRefreshCooldown) {
		t.Error("30s after attempt: want blocked by cooldown")
	}
	last = now.Add(-DefaultRefreshCooldown)
	if !CanAttemptRefresh(now, &last, DefaultRefreshCooldown) {
		t.Error("exactly cooldown elapsed: want allowed")
	}
	zero := time.Time{}
	if !CanAttemptRefresh(now, &zero, DefaultRefreshCooldown) {
		t.Error("zero lastRefresh: want allowed")
	}
}

func TestDecodeExpiryClaim(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second).UTC()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got := DecodeExpiryClaim(signed)
	if got == nil {
		t.Fatal("expected exp claim")
	}
	if !got.Equal(exp) {
		t.Errorf("exp: got %v, want %v", got, exp)
	}

	if DecodeExpiryClaim("") != nil {
		t.Error("empty token: want nil")
	}
	if DecodeExpiryClaim("not-a-jwt") != nil {
		t.Error("opaque token: want nil")
	}

	// JWT without exp claim falls back to nil.
	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"})
	signed, err = noExp.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if DecodeExpiryClaim(signed) != nil {
		t.Error("token without exp: want nil")
	}
}
