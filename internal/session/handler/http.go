// Package handler exposes the session lifecycle over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"eventfair/backend/internal/auth/upstream"
	"eventfair/backend/internal/session/domain"
	"eventfair/backend/internal/session/service"
)

// SIDCookieName carries the opaque server-side session id on the primary host.
// Distinct from the shared-domain bearer cookie, which holds the token itself.
const SIDCookieName = "eventfair_sid"

const maxBodySize = 64 << 10

// Handler owns the /api/auth routes.
type Handler struct {
	svc    *service.Service
	secure bool
	log    zerolog.Logger
}

// New returns a session Handler. secure controls the Secure flag on the sid cookie.
func New(svc *service.Service, secure bool, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, secure: secure, log: log}
}

// Routes returns the /api/auth router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/session", h.Session)
	return r
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type userResponse struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles,omitempty"`
	Name      string   `json:"name,omitempty"`
	AvatarURL string   `json:"avatarUrl,omitempty"`
	ProfileID string   `json:"profileId,omitempty"`
}

type sessionResponse struct {
	User        userResponse `json:"user"`
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	// Warning carries a transient refresh-failure kind on an otherwise
	// valid session; absent in the common case.
	Warning string `json:"warning,omitempty"`
}

// ErrorResponse is the JSON error body. Error carries a stable kind the
// frontend localizes; it is never display text.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[loginRequest](w, r)
	if !ok {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "emailAndPasswordRequired")
		return
	}

	sid, sess, err := h.svc.Login(r.Context(), w, req.Email, req.Password, req.RememberMe)
	if err != nil {
		if errors.Is(err, upstream.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalidCredentials")
			return
		}
		h.log.Error().Err(err).Msg("login failed")
		writeError(w, http.StatusBadGateway, "authProviderUnavailable")
		return
	}

	h.setSIDCookie(w, sid, sess.ExpiresAt)
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// Session handles GET /api/auth/session. Runs the full session state machine:
// a due token is refreshed before the response is written.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Read(r.Context(), w, sidFromRequest(r))
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// Logout handles POST /api/auth/logout. Always succeeds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	allSessions := r.URL.Query().Get("allSessions") == "true"
	h.svc.Logout(r.Context(), w, sidFromRequest(r), allSessions)
	h.clearSIDCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// writeSessionError maps state machine failures to responses. Terminal kinds
// reach the client so the frontend can show the right message and re-prompt.
func (h *Handler) writeSessionError(w http.ResponseWriter, err error) {
	var serr *service.SessionError
	if errors.As(err, &serr) {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: string(serr.ConsumerKind())})
		return
	}
	if errors.Is(err, service.ErrNotAuthenticated) {
		writeError(w, http.StatusUnauthorized, "notAuthenticated")
		return
	}
	h.log.Error().Err(err).Msg("session read failed")
	writeError(w, http.StatusInternalServerError, "internal")
}

func (h *Handler) setSIDCookie(w http.ResponseWriter, sid string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SIDCookieName,
		Value:    sid,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSIDCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SIDCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func sidFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SIDCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func toSessionResponse(sess *domain.Session) sessionResponse {
	return sessionResponse{
		User: userResponse{
			ID:        sess.User.ID,
			Email:     sess.User.Email,
			Roles:     sess.User.Roles,
			Name:      sess.User.DisplayName,
			AvatarURL: sess.User.AvatarURL,
			ProfileID: sess.User.ProfileID,
		},
		AccessToken: sess.AccessToken,
		ExpiresAt:   sess.ExpiresAt,
		Warning:     string(sess.Warning),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind string) {
	writeJSON(w, status, ErrorResponse{Error: kind})
}

func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalidJSON")
		return v, false
	}
	return v, true
}
