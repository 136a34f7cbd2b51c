package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func runJWT(t *testing.T, cfg JWTConfig, header string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/beds", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c := e.NewContext(req, httptest.NewRecorder())
	var seen echo.Context
	err := JWTMiddleware(cfg)(func(c echo.Context) error {
		seen = c
		return nil
	})(c)
	return seen, err
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	expired := createTestToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
	}, testSigningKey)
	wrongKey := createTestToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}, []byte("another-key-another-key-another-key"))
	noExp := createTestToken(t, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}, testSigningKey)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"no bearer prefix", "Token abc123"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"expired", "Bearer " + expired},
		{"wrong key", "Bearer " + wrongKey},
		{"no expiry", "Bearer " + noExp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runJWT(t, JWTConfig{SigningKey: testSigningKey}, tt.header)
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %v", err)
			}
		})
	}
}

func TestJWTMiddleware_ValidTokenSetsIdentity(t *testing.T) {
	cfg := JWTConfig{SigningKey: testSigningKey, Issuer: "hms"}
	tok, err := IssueToken(cfg, "nurse-4", []string{RoleNurse}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	c, err := runJWT(t, cfg, "Bearer "+tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := c.Request().Context()
	if UserIDFromContext(ctx) != "nurse-4" {
		t.Errorf("expected nurse-4, got %q", UserIDFromContext(ctx))
	}
	if roles := RolesFromContext(ctx); len(roles) != 1 || roles[0] != RoleNurse {
		t.Errorf("unexpected roles %v", roles)
	}
	if c.Get("user_id") != "nurse-4" {
		t.Error("expected user_id on echo context")
	}
}

func TestJWTMiddleware_IssuerMismatch(t *testing.T) {
	tok, _ := IssueToken(JWTConfig{SigningKey: testSigningKey, Issuer: "other"}, "u", nil, time.Hour)
	if _, err := runJWT(t, JWTConfig{SigningKey: testSigningKey, Issuer: "hms"}, "Bearer "+tok); err == nil {
		t.Fatal("expected issuer mismatch to be rejected")
	}
}

func TestJWTMiddleware_Skipper(t *testing.T) {
	cfg := JWTConfig{SigningKey: testSigningKey, Skipper: func(echo.Context) bool { return true }}
	if _, err := runJWT(t, cfg, ""); err != nil {
		t.Fatalf("skipped request should pass: %v", err)
	}
}

func TestIssueToken_RejectsUnknownRole(t *testing.T) {
	if _, err := IssueToken(JWTConfig{SigningKey: testSigningKey}, "u", []string{"janitor"}, time.Hour); err == nil {
		t.Fatal("expected unknown role error")
	}
	if _, err := IssueToken(JWTConfig{}, "u", nil, time.Hour); err == nil {
		t.Fatal("expected missing key error")
	}
}

func TestDevAuthMiddleware_DefaultsToAdmin(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	var roles []string
	err := DevAuthMiddleware(JWTConfig{SigningKey: testSigningKey})(func(c echo.Context) error {
		roles = RolesFromContext(c.Request().Context())
		return nil
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roles) != 1 || roles[0] != RoleAdmin {
		t.Errorf("expected admin, got %v", roles)
	}
}

func TestDevAuthMiddleware_ValidatesPresentedToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	c := e.NewContext(req, httptest.NewRecorder())

	err := DevAuthMiddleware(JWTConfig{SigningKey: testSigningKey})(func(c echo.Context) error { return nil })(c)
	if err == nil {
		t.Fatal("expected invalid token to be rejected")
	}
}
