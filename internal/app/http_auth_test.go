package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"folio/api/internal/store"
)

func seedUser(t *testing.T, fs *fakeStore, email, password, role string) store.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := store.User{
		ID:           "user-1",
		DisplayName:  "Avery",
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	fs.users[user.ID] = user
	return user
}

func postJSON(t *testing.T, server *HTTPServer, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(payload))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}

func TestSignInIssuesUsableSession(t *testing.T) {
	fs := newFakeStore()
	seedUser(t, fs, "owner@example.com", "hunter2hunter2", "admin")
	server := NewHTTPServer(newTestService(fs), "*")

	rr := postJSON(t, server, "/api/auth/signin", map[string]string{
		"email":    "owner@example.com",
		"password": "hunter2hunter2",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var payload struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
		Role         string `json:"role"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload.Token == "" || payload.RefreshToken == "" {
		t.Fatal("expected both tokens in the response")
	}
	if payload.Role != "admin" {
		t.Errorf("expected role admin, got %q", payload.Role)
	}

	// The access token works against a protected route.
	req := httptest.NewRequest(http.MethodGet, "/api/redirects", nil)
	req.Header.Set("Authorization", "Bearer "+payload.Token)
	check := httptest.NewRecorder()
	server.Handler().ServeHTTP(check, req)
	if check.Code != http.StatusOK {
		t.Fatalf("protected route with fresh token: expected 200, got %d", check.Code)
	}
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	fs := newFakeStore()
	seedUser(t, fs, "owner@example.com", "hunter2hunter2", "admin")
	server := NewHTTPServer(newTestService(fs), "*")

	rr := postJSON(t, server, "/api/auth/signin", map[string]string{
		"email":    "owner@example.com",
		"password": "wrong",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", rr.Code)
	}

	rr = postJSON(t, server, "/api/auth/signin", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: expected 401, got %d", rr.Code)
	}
}

func TestRefreshRotatesTheToken(t *testing.T) {
	fs := newFakeStore()
	seedUser(t, fs, "owner@example.com", "hunter2hunter2", "admin")
	server := NewHTTPServer(newTestService(fs), "*")

	rr := postJSON(t, server, "/api/auth/signin", map[string]string{
		"email":    "owner@example.com",
		"password": "hunter2hunter2",
	})
	var signin struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &signin); err != nil {
		t.Fatalf("parse signin: %v", err)
	}

	rr = postJSON(t, server, "/api/auth/refresh", map[string]string{"refreshToken": signin.RefreshToken})
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	// The rotated-out token is single use.
	rr = postJSON(t, server, "/api/auth/refresh", map[string]string{"refreshToken": signin.RefreshToken})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh token: expected 401, got %d", rr.Code)
	}
}

func TestLogoutRevokesTheAccessToken(t *testing.T) {
	fs := newFakeStore()
	seedUser(t, fs, "owner@example.com", "hunter2hunter2", "admin")
	server := NewHTTPServer(newTestService(fs), "*")

	rr := postJSON(t, server, "/api/auth/signin", map[string]string{
		"email":    "owner@example.com",
		"password": "hunter2hunter2",
	})
	var signin struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &signin); err != nil {
		t.Fatalf("parse signin: %v", err)
	}

	payload, _ := json.Marshal(map[string]string{"refreshToken": signin.RefreshToken})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", bytes.NewBuffer(payload))
	req.Header.Set("Authorization", "Bearer "+signin.Token)
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/redirects", nil)
	req.Header.Set("Authorization", "Bearer "+signin.Token)
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("revoked token: expected 401, got %d", rr.Code)
	}
}

func TestSessionEndpointReportsAnonymous(t *testing.T) {
	server := NewHTTPServer(newTestService(newFakeStore()), "*")

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload["authenticated"] != false {
		t.Errorf("expected authenticated false, got %v", payload["authenticated"])
	}
}
