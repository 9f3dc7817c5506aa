// Package service implements the session state machine: every session read
// validates the held credential, refreshes it before expiry under a
// single-flight lock, mirrors it into the shared cookie, and invalidates
// cleanly when the credential is beyond recovery.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"eventfair/backend/internal/auth/expiry"
	"eventfair/backend/internal/auth/refreshlock"
	"eventfair/backend/internal/auth/upstream"
	"eventfair/backend/internal/session/domain"
	"eventfair/backend/internal/session/store"
)

// ErrNotAuthenticated is returned for a caller that never logged in.
// Unlike an invalidated session, this carries no error kind to surface.
var ErrNotAuthenticated = errors.New("not authenticated")

// errRefreshSettled marks a flight abandoned because another flight settled
// and stamped the cooldown after this caller's check passed. Never escapes
// the service.
var errRefreshSettled = errors.New("refresh settled by another flight")

// SessionError is the terminal failure of an invalidated session. The accessor
// returns it instead of a half-valid session so no caller can keep using a
// dead credential.
type SessionError struct {
	Kind domain.ErrorKind
	// MaxAgeExceeded is set when the expiry that elapsed was the local
	// maximum session lifetime rather than the upstream token's own claim.
	MaxAgeExceeded bool
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session invalidated: %s", e.Kind)
}

// ConsumerKind returns the kind the presentation layer localizes for the user.
func (e *SessionError) ConsumerKind() domain.ErrorKind {
	if e.MaxAgeExceeded {
		return domain.ErrorSessionMaxAgeExceeded
	}
	if e.Kind == domain.ErrorTokenExpired {
		return domain.ErrorSessionExpired
	}
	return e.Kind
}

// AuthClient is the slice of the upstream client the session service needs.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (*upstream.LoginResult, error)
	Refresh(ctx context.Context, token string) (*upstream.RefreshResult, error)
	Logout(ctx context.Context, token string, allSessions bool)
}

// CookieWriter propagates the bearer token into the shared-domain cookie.
type CookieWriter interface {
	Set(w http.ResponseWriter, token string, rememberMe bool)
	Clear(w http.ResponseWriter)
}

// EventRecorder receives session lifecycle events. Best-effort: implementations
// must not block or fail the caller.
type EventRecorder interface {
	RecordSessionEvent(ctx context.Context, userID, eventType, metadata string)
}

// Service owns every session token in the process and is the only component
// that mutates them.
type Service struct {
	sessions store.Store
	auth     AuthClient
	locks    *refreshlock.Coordinator
	cookies  CookieWriter
	recorder EventRecorder // may be nil

	refreshBuffer      time.Duration
	refreshCooldown    time.Duration
	shortLifetime      time.Duration
	rememberedLifetime time.Duration

	now    func() time.Time
	log    zerolog.Logger
	tracer trace.Tracer
}

// New returns a session Service with the given collaborators. recorder may be
// nil; durations fall back to the policy defaults when zero.
func New(sessions store.Store, auth AuthClient, locks *refreshlock.Coordinator, cookies CookieWriter, recorder EventRecorder, buffer, cooldown, shortLifetime, rememberedLifetime time.Duration, log zerolog.Logger) *Service {
	if buffer <= 0 {
		buffer = expiry.DefaultRefreshBuffer
	}
	if cooldown <= 0 {
		cooldown = expiry.DefaultRefreshCooldown
	}
	if shortLifetime <= 0 {
		shortLifetime = expiry.ShortSessionLifetime
	}
	if rememberedLifetime <= 0 {
		rememberedLifetime = expiry.RememberedSessionLifetime
	}
	return &Service{
		sessions:           sessions,
		auth:               auth,
		locks:              locks,
		cookies:            cookies,
		recorder:           recorder,
		refreshBuffer:      buffer,
		refreshCooldown:    cooldown,
		shortLifetime:      shortLifetime,
		rememberedLifetime: rememberedLifetime,
		now:                time.Now,
		log:                log,
		tracer:             otel.Tracer("eventfair.session"),
	}
}

func (s *Service) lifetime(rememberMe bool) time.Duration {
	if rememberMe {
		return s.rememberedLifetime
	}
	return s.shortLifetime
}

// Login authenticates against the upstream provider and creates a session.
// Returns the opaque session ID for the primary transport and the exposed
// session view. The bearer token is mirrored into the shared cookie.
func (s *Service) Login(ctx context.Context, w http.ResponseWriter, email, password string, rememberMe bool) (string, *domain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.login", trace.WithAttributes(
		attribute.Bool("session.remember_me", rememberMe),
	))
	defer span.End()

	res, err := s.auth.Login(ctx, email, password)
	if err != nil {
		span.RecordError(err)
		return "", nil, fmt.Errorf("login %q: %w", email, err)
	}

	now := s.now().UTC()
	upstreamExp := res.Exp
	if upstreamExp == nil {
		upstreamExp = expiry.DecodeExpiryClaim(res.Token)
	}
	tok := domain.Token{
		AccessToken:        res.Token,
		IssuedAt:           now,
		AccessTokenExpires: expiry.EffectiveExpiry(upstreamExp, now, s.lifetime(rememberMe)),
		RememberMe:         rememberMe,
		Identity:           identityFromUser(res.User),
	}

	sid, err := s.sessions.Create(tok)
	if err != nil {
		span.RecordError(err)
		return "", nil, fmt.Errorf("create session: %w", err)
	}
	s.cookies.Set(w, res.Token, rememberMe)
	s.record(ctx, tok.Identity.ID, "session.login", "")

	span.SetAttributes(attribute.String("user.id", tok.Identity.ID))
	return sid, exposed(&tok), nil
}

// Read is the session accessor invoked on every session read. It runs the
// state machine: validate, refresh when due, invalidate when irrecoverable.
// Terminal failures return *SessionError; a caller that never logged in gets
// ErrNotAuthenticated with no error kind attached.
func (s *Service) Read(ctx context.Context, w http.ResponseWriter, sid string) (*domain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.read")
	defer span.End()

	ent := s.sessions.Get(sid)
	if ent == nil {
		return nil, ErrNotAuthenticated
	}

	ent.Mu.Lock()
	tok := &ent.Token
	now := s.now().UTC()

	// Already invalidated: keep failing until a new login replaces the session.
	if tok.Error.Terminal() || (tok.Error == domain.ErrorRefreshAccessToken && tok.AccessToken == "") {
		serr := s.invalidationError(tok)
		ent.Mu.Unlock()
		return nil, serr
	}

	// Credential lost without a normal expiry.
	if tok.AccessToken == "" {
		if !tok.EverAuthenticated() {
			ent.Mu.Unlock()
			return nil, ErrNotAuthenticated
		}
		tok.Invalidate(domain.ErrorRefreshAccessToken)
		serr := s.invalidationError(tok)
		userID := tok.Identity.ID
		ent.Mu.Unlock()
		s.cookies.Clear(w)
		s.record(ctx, userID, "session.invalidated", string(domain.ErrorRefreshAccessToken))
		span.RecordError(serr)
		return nil, serr
	}

	// Effective expiry passed: notify upstream best-effort, drop the shared
	// cookie, and invalidate.
	if expiry.Expired(now, tok.AccessTokenExpires) {
		return s.expire(ctx, span, w, ent, tok)
	}

	if expiry.RefreshDue(now, tok.AccessTokenExpires, s.refreshBuffer) &&
		expiry.CanAttemptRefresh(now, tok.LastRefresh, s.refreshCooldown) {
		return s.refresh(ctx, span, w, ent, tok)
	}

	sess := exposed(tok)
	ent.Mu.Unlock()
	return sess, nil
}

// refresh performs the lock-protected refresh and applies the outcome.
// Called with ent.Mu held; releases it around the network call.
func (s *Service) refresh(ctx context.Context, span trace.Span, w http.ResponseWriter, ent *store.Entry, tok *domain.Token) (*domain.Session, error) {
	key := tok.Key()
	current := tok.AccessToken
	rememberMe := tok.RememberMe
	ent.Mu.Unlock()

	span.AddEvent("session.refresh.attempt")
	refreshed, refreshErr := s.locks.Do(ctx, key, func(ctx context.Context) (*domain.Token, error) {
		// The cooldown check ran before the entry mutex was released; a
		// flight settling in that gap already counts as the attempt for
		// this window, so re-check before going upstream.
		ent.Mu.Lock()
		allowed := expiry.CanAttemptRefresh(s.now().UTC(), ent.Token.LastRefresh, s.refreshCooldown)
		ent.Mu.Unlock()
		if !allowed {
			return nil, errRefreshSettled
		}
		res, err := s.auth.Refresh(ctx, current)
		if err != nil {
			return nil, err
		}
		// The lifetime cap re-anchors at refresh time; a refreshed session
		// gets a full window again, bounded by the server's own exp claim.
		issuedAt := s.now().UTC()
		upstreamExp := res.Exp
		if upstreamExp == nil {
			upstreamExp = expiry.DecodeExpiryClaim(res.Token)
		}
		return &domain.Token{
			AccessToken:        res.Token,
			IssuedAt:           issuedAt,
			AccessTokenExpires: expiry.EffectiveExpiry(upstreamExp, issuedAt, s.lifetime(rememberMe)),
			RememberMe:         rememberMe,
		}, nil
	})

	ent.Mu.Lock()
	if errors.Is(refreshErr, errRefreshSettled) {
		// Serve whatever state the settled flight left behind; its stamp
		// keeps the cooldown window, so do not restamp here.
		if tok.Error.Terminal() || tok.AccessToken == "" {
			serr := s.invalidationError(tok)
			ent.Mu.Unlock()
			return nil, serr
		}
		sess := exposed(tok)
		ent.Mu.Unlock()
		return sess, nil
	}

	// Cooldown stamps after the locked operation settled, success or failure,
	// so attached callers do not count as separate attempts.
	now := s.now().UTC()
	tok.LastRefresh = &now

	if refreshErr != nil {
		if expiry.Expired(now, tok.AccessTokenExpires) {
			span.RecordError(refreshErr)
			return s.expire(ctx, span, w, ent, tok)
		}
		// Transient: keep serving the still-valid token, tag the failure so
		// callers can warn, retry after cooldown on a later read.
		tok.Error = domain.ErrorRefreshAccessToken
		sess := exposed(tok)
		userID := tok.Identity.ID
		ent.Mu.Unlock()
		s.log.Warn().Err(refreshErr).Str("user_id", userID).Msg("token refresh failed; session still valid")
		s.record(ctx, userID, "session.refresh_failed", refreshErr.Error())
		return sess, nil
	}

	tok.AccessToken = refreshed.AccessToken
	tok.IssuedAt = refreshed.IssuedAt
	tok.AccessTokenExpires = refreshed.AccessTokenExpires
	tok.Error = domain.ErrorNone
	sess := exposed(tok)
	userID := tok.Identity.ID
	newToken := tok.AccessToken
	ent.Mu.Unlock()

	s.cookies.Set(w, newToken, rememberMe)
	s.record(ctx, userID, "session.refreshed", "")
	span.AddEvent("session.refresh.success")
	return sess, nil
}

// expire invalidates with TokenExpired and runs the cleanup path. Called with
// ent.Mu held; releases it before the best-effort upstream call.
func (s *Service) expire(ctx context.Context, span trace.Span, w http.ResponseWriter, ent *store.Entry, tok *domain.Token) (*domain.Session, error) {
	expiredToken := tok.AccessToken
	tok.Invalidate(domain.ErrorTokenExpired)
	serr := s.invalidationError(tok)
	userID := tok.Identity.ID
	ent.Mu.Unlock()

	if expiredToken != "" {
		s.auth.Logout(ctx, expiredToken, false)
	}
	s.cookies.Clear(w)
	s.record(ctx, userID, "session.invalidated", string(domain.ErrorTokenExpired))
	span.RecordError(serr)
	return nil, serr
}

// Logout ends the session: best-effort upstream notification, shared cookie
// removal, and session entry deletion. Never fails.
func (s *Service) Logout(ctx context.Context, w http.ResponseWriter, sid string, allSessions bool) {
	ctx, span := s.tracer.Start(ctx, "session.logout")
	defer span.End()

	if ent := s.sessions.Get(sid); ent != nil {
		ent.Mu.Lock()
		token := ent.Token.AccessToken
		userID := ent.Token.Identity.ID
		ent.Mu.Unlock()
		if token != "" {
			s.auth.Logout(ctx, token, allSessions)
		}
		s.sessions.Delete(sid)
		s.record(ctx, userID, "session.logout", "")
	}
	s.cookies.Clear(w)
}

// invalidationError builds the terminal error for an invalidated token.
// Called with the entry mutex held.
func (s *Service) invalidationError(tok *domain.Token) *SessionError {
	maxAge := !tok.IssuedAt.IsZero() &&
		tok.AccessTokenExpires.Equal(tok.IssuedAt.Add(s.lifetime(tok.RememberMe)))
	kind := tok.Error
	if kind == domain.ErrorNone {
		kind = domain.ErrorRefreshAccessToken
	}
	return &SessionError{Kind: kind, MaxAgeExceeded: maxAge && kind == domain.ErrorTokenExpired}
}

func (s *Service) record(ctx context.Context, userID, eventType, metadata string) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordSessionEvent(ctx, userID, eventType, metadata)
}

func exposed(tok *domain.Token) *domain.Session {
	sess := &domain.Session{
		User:        tok.Identity,
		AccessToken: tok.AccessToken,
		ExpiresAt:   tok.AccessTokenExpires,
	}
	// A non-terminal tag rides along so consumers can surface a warning.
	if tok.Error == domain.ErrorRefreshAccessToken {
		sess.Warning = tok.Error
	}
	return sess
}

func identityFromUser(u upstream.User) domain.Identity {
	return domain.Identity{
		ID:          u.ID,
		Email:       u.Email,
		Roles:       u.Roles,
		DisplayName: u.Name,
		AvatarURL:   u.AvatarURL,
		ProfileID:   u.ProfileID,
	}
}
