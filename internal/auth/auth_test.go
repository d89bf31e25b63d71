package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	a := New("secret")

	if a == nil {
		t.Fatal("expected auth to be created")
	}
	if a.token != "secret" {
		t.Error("expected token to be set")
	}
	if !a.Enabled() {
		t.Error("expected auth to be enabled")
	}
}

func TestEnabled_EmptyOrNil(t *testing.T) {
	if New("").Enabled() {
		t.Error("expected empty token to disable auth")
	}
	var a *Auth
	if a.Enabled() {
		t.Error("expected nil auth to be disabled")
	}
}

func TestGenerateToken(t *testing.T) {
	token := GenerateToken()
	if len(token) != 64 {
		t.Errorf("expected 64-char token, got %d chars", len(token))
	}
	if token == GenerateToken() {
		t.Error("expected different tokens on each call")
	}
}

func TestValidate(t *testing.T) {
	a := New("secret")

	if !a.Validate("secret") {
		t.Error("expected matching token to validate")
	}
	if a.Validate("wrong") {
		t.Error("expected wrong token to fail")
	}
	if a.Validate("") {
		t.Error("expected empty token to fail")
	}
	if !New("").Validate("") {
		t.Error("expected disabled auth to accept anything")
	}
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer", "Bearer abc", "abc"},
		{"lowercase scheme", "bearer abc", "abc"},
		{"padded", "Bearer   abc  ", "abc"},
		{"basic", "Basic abc", ""},
		{"no scheme", "abc", ""},
		{"missing", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(HeaderName, tt.header)
			}
			if got := TokenFromRequest(req); got != tt.want {
				t.Errorf("TokenFromRequest() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequireAuthAPI_WithValidToken(t *testing.T) {
	a := New("secret")
	called := false
	handler := a.RequireAuthAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/admin/sweep", nil)
	req.Header.Set(HeaderName, "Bearer secret")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Error("expected handler to be called")
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRequireAuthAPI_WithoutToken(t *testing.T) {
	a := New("secret")
	called := false
	handler := a.RequireAuthAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/admin/sweep", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if called {
		t.Error("expected handler not to be called")
	}
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}
	if !strings.Contains(w.Body.String(), "UNAUTHORIZED") {
		t.Errorf("expected UNAUTHORIZED code in body, got %s", w.Body.String())
	}
}

func TestRequireAuthAPI_Disabled(t *testing.T) {
	a := New("")
	called := false
	handler := a.RequireAuthAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/admin/sweep", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("expected disabled auth to pass requests through")
	}
}
