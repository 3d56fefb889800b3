package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"auth-api/internal/service"
)

// AuthHandler mantiene dependencias para los endpoints de autenticacion.
type AuthHandler struct {
	logger     *zap.Logger
	authServ   *service.AuthService
	sessions   *service.SessionService
	production bool
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(logger *zap.Logger, authServ *service.AuthService, sessions *service.SessionService, production bool) *AuthHandler {
	return &AuthHandler{
		logger:     logger,
		authServ:   authServ,
		sessions:   sessions,
		production: production,
	}
}

// Register maneja POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "bad_request", "invalid request")
		return
	}

	user, err := h.authServ.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.respondServiceError(c, err, "register failed")
		return
	}

	if !h.issueSession(c, user.ID) {
		return
	}
	respondOK(c, http.StatusCreated, "User Registered", gin.H{"user": user})
}

// Login maneja POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "bad_request", "invalid request")
		return
	}

	user, err := h.authServ.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondServiceError(c, err, "login failed")
		return
	}

	if !h.issueSession(c, user.ID) {
		return
	}
	respondOK(c, http.StatusOK, "User Logged In", nil)
}

// Logout maneja POST /api/auth/logout. El servidor no guarda sesiones: basta
// con borrar la cookie del cliente.
func (h *AuthHandler) Logout(c *gin.Context) {
	clearSessionCookie(c, h.production)
	respondOK(c, http.StatusOK, "User Logged Out", nil)
}

// SendVerifyOTP maneja POST /api/auth/send-verify-otp (requiere sesion).
func (h *AuthHandler) SendVerifyOTP(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "not_authenticated", "Not authorized. Login again")
		return
	}

	if err := h.authServ.SendVerifyOTP(c.Request.Context(), userID); err != nil {
		h.respondServiceError(c, err, "send verify otp failed")
		return
	}
	respondOK(c, http.StatusOK, "Verification OTP sent to your email", nil)
}

// VerifyAccount maneja POST /api/auth/verify-account (requiere sesion).
func (h *AuthHandler) VerifyAccount(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "not_authenticated", "Not authorized. Login again")
		return
	}

	var req struct {
		OTP string `json:"otp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid verify account request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "bad_request", "invalid request")
		return
	}

	if err := h.authServ.VerifyEmail(c.Request.Context(), userID, req.OTP); err != nil {
		h.respondServiceError(c, err, "verify account failed")
		return
	}
	respondOK(c, http.StatusOK, "Email verified successfully", nil)
}

// IsAuthenticated maneja GET /api/auth/is-auth (requiere sesion). Confirma
// que la sesion corresponde a un usuario existente.
func (h *AuthHandler) IsAuthenticated(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "not_authenticated", "Not authorized. Login again")
		return
	}

	if _, err := h.authServ.GetUserData(c.Request.Context(), userID); err != nil {
		h.respondServiceError(c, err, "is-auth lookup failed")
		return
	}
	respondOK(c, http.StatusOK, "Authenticated Account", nil)
}

// SendResetOTP maneja POST /api/auth/send-reset-otp.
func (h *AuthHandler) SendResetOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid send reset otp request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "bad_request", "invalid request")
		return
	}

	if err := h.authServ.SendResetOTP(c.Request.Context(), req.Email); err != nil {
		h.respondServiceError(c, err, "send reset otp failed")
		return
	}
	respondOK(c, http.StatusOK, "Password reset OTP sent to your email", nil)
}

// ResetPassword maneja POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid reset password request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "bad_request", "invalid request")
		return
	}

	if err := h.authServ.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		h.respondServiceError(c, err, "reset password failed")
		return
	}
	respondOK(c, http.StatusOK, "Password has been reset successfully", nil)
}

func (h *AuthHandler) issueSession(c *gin.Context, userID string) bool {
	if h.sessions == nil {
		respondError(c, http.StatusInternalServerError, "server_error", "session service not configured")
		return false
	}
	token, err := h.sessions.IssueToken(userID)
	if err != nil {
		h.logger.Error("session token issue failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "server_error", "could not issue session")
		return false
	}
	setSessionCookie(c, token, int(h.sessions.TTL().Seconds()), h.production)
	return true
}

// respondServiceError traduce los errores del servicio al envelope con su
// status y code. Cada causa queda distinguible para el cliente.
func (h *AuthHandler) respondServiceError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		respondError(c, http.StatusBadRequest, "missing_fields", "Missing details")
	case errors.Is(err, service.ErrEmailTaken):
		respondError(c, http.StatusConflict, "already_registered", "Email already registered")
	case errors.Is(err, service.ErrNotRegistered):
		respondError(c, http.StatusNotFound, "not_registered", "User not registered with this email")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "bad_credentials", "Incorrect Password")
	case errors.Is(err, service.ErrUserNotFound):
		respondError(c, http.StatusNotFound, "not_found", "Account does not exist")
	case errors.Is(err, service.ErrAlreadyVerified):
		respondError(c, http.StatusConflict, "already_verified", "Account already verified")
	case errors.Is(err, service.ErrOTPNotRequested), errors.Is(err, service.ErrOTPInvalid):
		respondError(c, http.StatusBadRequest, "invalid_otp", "Invalid OTP")
	case errors.Is(err, service.ErrOTPExpired):
		respondError(c, http.StatusGone, "otp_expired", "OTP expired")
	case errors.Is(err, service.ErrEmailSendFailure):
		respondError(c, http.StatusBadGateway, "delivery_failed", "Could not deliver email")
	case errors.Is(err, service.ErrRateLimited):
		respondError(c, http.StatusTooManyRequests, "rate_limited", "Too many OTP requests. Try again later")
	default:
		h.logger.Error(logMsg, zap.Error(err))
		respondError(c, http.StatusInternalServerError, "store_failure", "could not process request")
	}
}
