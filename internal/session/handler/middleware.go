package handler

import (
	"context"
	"net/http"

	"eventfair/backend/internal/session/domain"
)

type contextKey int

const sessionKey contextKey = iota

// Require authenticates the request through the session state machine and
// stores the session on the request context. The refresh path runs here, so a
// due token is renewed before the wrapped handler sees the request.
func (h *Handler) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.svc.Read(r.Context(), w, sidFromRequest(r))
		if err != nil {
			h.writeSessionError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the session stored by Require, or nil.
func FromContext(ctx context.Context) *domain.Session {
	sess, _ := ctx.Value(sessionKey).(*domain.Session)
	return sess
}
