package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"eventfair/backend/internal/auth/refreshlock"
	"eventfair/backend/internal/auth/upstream"
	"eventfair/backend/internal/listing/repository"
	"eventfair/backend/internal/listing/service"
	sessionhandler "eventfair/backend/internal/session/handler"
	sessionservice "eventfair/backend/internal/session/service"
	"eventfair/backend/internal/session/store"
)

type fakeAuth struct{}

func (fakeAuth) Login(ctx context.Context, email, password string) (*upstream.LoginResult, error) {
	return &upstream.LoginResult{
		Token: "t1",
		User:  upstream.User{ID: "u1", Email: email, ProfileID: "org-1"},
	}, nil
}

func (fakeAuth) Refresh(ctx context.Context, token string) (*upstream.RefreshResult, error) {
	return &upstream.RefreshResult{Token: "t2"}, nil
}

func (fakeAuth) Logout(ctx context.Context, token string, allSessions bool) {}

type noCookies struct{}

func (noCookies) Set(w http.ResponseWriter, token string, rememberMe bool) {}
func (noCookies) Clear(w http.ResponseWriter)                              {}

// newTestRouter wires the listing routes behind the session middleware the way
// the server does, and returns a logged-in sid cookie.
func newTestRouter(t *testing.T) (http.Handler, *http.Cookie) {
	t.Helper()
	sessSvc := sessionservice.New(store.NewMemoryStore(), fakeAuth{}, refreshlock.New(), noCookies{}, nil, 0, 0, 0, 0, zerolog.Nop())
	sessHandler := sessionhandler.New(sessSvc, false, zerolog.Nop())
	h := New(service.New(repository.NewMemoryRepository()), zerolog.Nop())

	mux := http.NewServeMux()
	mux.Handle("/api/listings/", http.StripPrefix("/api/listings", sessHandler.Require(h.Routes())))
	mux.Handle("/api/auth/", http.StripPrefix("/api/auth", sessHandler.Routes()))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"ana@example.com","password":"pw"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionhandler.SIDCookieName {
			return mux, c
		}
	}
	t.Fatal("no sid cookie from login")
	return nil, nil
}

func TestCreateAndGet(t *testing.T) {
	mux, sid := newTestRouter(t)

	body := `{"title":"Sala Palatului","kind":"venue","city":"Bucharest","capacity":4000,"priceCents":250000}`
	req := httptest.NewRequest(http.MethodPost, "/api/listings/", strings.NewReader(body))
	req.AddCookie(sid)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var created listingResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.TenantID != "org-1" {
		t.Errorf("tenant = %q, want org-1 (from session profile)", created.TenantID)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/listings/"+created.ID, nil)
	req.AddCookie(sid)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestCreate_InvalidKind(t *testing.T) {
	mux, sid := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/listings/", strings.NewReader(`{"title":"x","kind":"festival"}`))
	req.AddCookie(sid)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGet_NotFound(t *testing.T) {
	mux, sid := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/listings/does-not-exist", nil)
	req.AddCookie(sid)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRoutes_RequireSession(t *testing.T) {
	mux, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/listings/", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSetPublished(t *testing.T) {
	mux, sid := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/listings/", strings.NewReader(`{"title":"Untold","kind":"event"}`))
	req.AddCookie(sid)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var created listingResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/listings/"+created.ID+"/published", strings.NewReader(`{"published":true}`))
	req.AddCookie(sid)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish status = %d, body %s", rec.Code, rec.Body)
	}
	var updated listingResponse
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !updated.Published {
		t.Error("listing should be published")
	}
}
