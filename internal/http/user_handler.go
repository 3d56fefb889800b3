package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"auth-api/internal/service"
)

// UserHandler mantiene dependencias para endpoints de usuarios.
type UserHandler struct {
	logger   *zap.Logger
	authServ *service.AuthService
}

func NewUserHandler(logger *zap.Logger, authServ *service.AuthService) *UserHandler {
	return &UserHandler{
		logger:   logger,
		authServ: authServ,
	}
}

// GetUserData maneja GET /api/user/data (requiere sesion).
func (h *UserHandler) GetUserData(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "not_authenticated", "Not authorized. Login again")
		return
	}

	user, err := h.authServ.GetUserData(c.Request.Context(), userID)
	if err != nil {
		respondError(c, http.StatusNotFound, "not_found", "User not found")
		return
	}

	respondOK(c, http.StatusOK, "", gin.H{
		"name":              user.Name,
		"email":             user.Email,
		"isAccountVerified": user.IsVerified,
	})
}
