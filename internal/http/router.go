package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"auth-api/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	sessions *service.SessionService,
	authH *AuthHandler,
	userH *UserHandler,
	corsOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y CORS con credenciales.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware(corsOrigins))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "API WORKING")
	})

	requireSession := SessionAuthMiddleware(sessions)

	auth := r.Group("/api/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.POST("/logout", authH.Logout)
	auth.POST("/send-verify-otp", requireSession, authH.SendVerifyOTP)
	auth.POST("/verify-account", requireSession, authH.VerifyAccount)
	auth.GET("/is-auth", requireSession, authH.IsAuthenticated)
	auth.POST("/send-reset-otp", authH.SendResetOTP)
	auth.POST("/reset-password", authH.ResetPassword)

	user := r.Group("/api/user")
	user.GET("/data", requireSession, userH.GetUserData)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
