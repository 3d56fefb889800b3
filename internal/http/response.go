package http

import "github.com/gin-gonic/gin"

// envelope es la forma de respuesta de todos los endpoints. code es el
// identificador de error legible por maquinas; message es para el usuario.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, envelope{Success: false, Message: message, Code: code})
}
