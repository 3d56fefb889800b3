package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"auth-api/internal/service"
)

func setupProtectedRoute(sessions *service.SessionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", SessionAuthMiddleware(sessions), func(c *gin.Context) {
		userID, _ := GetAuthUserID(c)
		respondOK(c, http.StatusOK, "", gin.H{"user_id": userID})
	})
	return r
}

func TestSessionAuthMiddleware_CookieToken(t *testing.T) {
	sessions := service.NewSessionService("secret", 0)
	r := setupProtectedRoute(sessions)

	token, err := sessions.IssueToken("u1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	rec := performRequest(r, http.MethodGet, "/protected", nil, &http.Cookie{Name: SessionCookieName, Value: token})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestSessionAuthMiddleware_BearerFallback(t *testing.T) {
	sessions := service.NewSessionService("secret", 0)
	r := setupProtectedRoute(sessions)

	token, err := sessions.IssueToken("u1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with bearer token, got %d", rec.Code)
	}
}

func TestSessionAuthMiddleware_MissingToken(t *testing.T) {
	sessions := service.NewSessionService("secret", 0)
	r := setupProtectedRoute(sessions)

	rec := performRequest(r, http.MethodGet, "/protected", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if resp := decodeEnvelope(t, rec); resp.Success || resp.Code != "not_authenticated" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}

func TestSessionAuthMiddleware_InvalidToken(t *testing.T) {
	sessions := service.NewSessionService("secret", 0)
	r := setupProtectedRoute(sessions)

	rec := performRequest(r, http.MethodGet, "/protected", nil, &http.Cookie{Name: SessionCookieName, Value: "garbage"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
