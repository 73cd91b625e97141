package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-signing-key")

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString(testSigningKey)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func runMiddleware(mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, context.Context) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var handlerCtx context.Context
	handler := mw(func(c echo.Context) error {
		handlerCtx = c.Request().Context()
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, handlerCtx
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	raw := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "9a7e1a6e-0000-0000-0000-000000000042",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "medic",
		Name: "Dr. Example",
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)

	rec, ctx := runMiddleware(JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := UserIDFromContext(ctx); got != "9a7e1a6e-0000-0000-0000-000000000042" {
		t.Errorf("unexpected user id %q", got)
	}
	if got := RoleFromContext(ctx); got != "medic" {
		t.Errorf("unexpected role %q", got)
	}
}

func TestJWTMiddleware_MissingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec, _ := runMiddleware(JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddleware_BadSignature(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "someone",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "medic",
	})
	raw, err := token.SignedString([]byte("wrong-key"))
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec, _ := runMiddleware(JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	raw := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "someone",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		Role: "patient",
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec, _ := runMiddleware(JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec, ctx := runMiddleware(DevAuthMiddleware(), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if RoleFromContext(ctx) != "medic" {
		t.Errorf("expected dev identity to be a medic, got %q", RoleFromContext(ctx))
	}
}
