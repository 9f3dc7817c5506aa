package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testClient(url string) *Client {
	return NewClient(url, zerolog.Nop())
}

func TestLogin_Success(t *testing.T) {
	exp := time.Now().Add(24 * time.Hour).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["email"] != "ana@example.com" || body["password"] != "pass" {
			t.Errorf("credentials not forwarded: %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "t1",
			"exp":   exp,
			"user": map[string]any{
				"id":    "u1",
				"email": "ana@example.com",
				"roles": []string{"organizer"},
				"name":  "Ana",
			},
		})
	}))
	defer srv.Close()

	res, err := testClient(srv.URL).Login(context.Background(), "ana@example.com", "pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token != "t1" {
		t.Errorf("token: got %q, want %q", res.Token, "t1")
	}
	if res.User.ID != "u1" || res.User.Email != "ana@example.com" {
		t.Errorf("user: got %+v", res.User)
	}
	if res.Exp == nil || res.Exp.Unix() != exp {
		t.Errorf("exp: got %v, want unix %d", res.Exp, exp)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]string{{"message": "The email or password provided is incorrect."}},
		})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Login(context.Background(), "ana@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_NoExpClaim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "t1",
			"user":  map[string]any{"id": "u1", "email": "a@b.ro"},
		})
	}))
	defer srv.Close()

	res, err := testClient(srv.URL).Login(context.Background(), "a@b.ro", "pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Exp != nil {
		t.Errorf("exp: got %v, want nil", res.Exp)
	}
}

func TestRefresh_Success(t *testing.T) {
	exp := time.Now().Add(24 * time.Hour).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/refresh-token" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer t1" {
			t.Errorf("authorization: got %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"refreshedToken": "t2", "exp": exp})
	}))
	defer srv.Close()

	res, err := testClient(srv.URL).Refresh(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if res.Token != "t2" {
		t.Errorf("token: got %q, want %q", res.Token, "t2")
	}
	if res.Exp == nil || res.Exp.Unix() != exp {
		t.Errorf("exp: got %v, want unix %d", res.Exp, exp)
	}
}

func TestRefresh_NonOKIsRefreshError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("token revoked"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Refresh(context.Background(), "t1")
	var re *RefreshError
	if !errors.As(err, &re) {
		t.Fatalf("want *RefreshError, got %v", err)
	}
	if re.StatusCode != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", re.StatusCode, http.StatusForbidden)
	}
	if re.Body != "token revoked" {
		t.Errorf("body: got %q", re.Body)
	}
}

func TestLogout_BestEffort(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/logout" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("allSessions"); got != "false" {
			t.Errorf("allSessions: got %q", got)
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// Must not panic or surface the 500; logout is fire-and-forget.
	testClient(srv.URL).Logout(context.Background(), "t1", false)
	if calls.Load() != 1 {
		t.Error("logout endpoint not called")
	}

	// Unreachable provider must also be swallowed.
	testClient("http://127.0.0.1:1").Logout(context.Background(), "t1", true)
}
