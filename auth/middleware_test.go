package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
)

func authRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	v, err := NewTokenVerifier(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("verifier create failed: %v", err)
	}

	engine := gin.New()
	engine.GET("/whoami", Middleware(v), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})
	return engine
}

func TestMiddleware_AcceptsBearerHeader(t *testing.T) {
	engine := authRouter(t)
	token := signToken(t, testSecret, gojwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Body.String(); got != "u1" {
		t.Errorf("expected user id u1, got %q", got)
	}
}

func TestMiddleware_AcceptsQueryToken(t *testing.T) {
	engine := authRouter(t)
	token := signToken(t, testSecret, gojwt.MapClaims{
		"sub": "u2",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami?access_token="+token, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Body.String(); got != "u2" {
		t.Errorf("expected user id u2, got %q", got)
	}
}

func TestMiddleware_RejectsMissingAndInvalidTokens(t *testing.T) {
	engine := authRouter(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for invalid token, got %d", w.Code)
	}
}
