package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"auth-api/internal/service"
)

const (
	// SessionCookieName es el nombre de la cookie que carga el token firmado.
	SessionCookieName = "token"

	authUserIDKey = "auth_user_id"
)

// SessionAuthMiddleware valida el token de sesion de la cookie (o del header
// Authorization como fallback) y guarda el id de usuario en el contexto.
func SessionAuthMiddleware(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessions == nil {
			respondError(c, http.StatusInternalServerError, "server_error", "session service not configured")
			c.Abort()
			return
		}

		token := sessionTokenFromRequest(c)
		if token == "" {
			respondError(c, http.StatusUnauthorized, "not_authenticated", "Not authorized. Login again")
			c.Abort()
			return
		}

		claims, err := sessions.ParseToken(token)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "not_authenticated", "Not authorized. Login again")
			c.Abort()
			return
		}

		c.Set(authUserIDKey, claims.UserID)
		c.Next()
	}
}

// GetAuthUserID obtiene el id de usuario autenticado desde el contexto.
func GetAuthUserID(c *gin.Context) (string, bool) {
	val, ok := c.Get(authUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := val.(string)
	return id, ok && id != ""
}

func sessionTokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie)
	}
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}

// setSessionCookie emite la cookie HTTP-only con el token. En produccion la
// cookie viaja cross-site (SameSite=None + Secure), fuera de produccion queda
// Strict para desarrollo local.
func setSessionCookie(c *gin.Context, token string, maxAge int, production bool) {
	sameSite := http.SameSiteStrictMode
	if production {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(SessionCookieName, token, maxAge, "/", "", production, true)
}

func clearSessionCookie(c *gin.Context, production bool) {
	sameSite := http.SameSiteStrictMode
	if production {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(SessionCookieName, "", -1, "/", "", production, true)
}
