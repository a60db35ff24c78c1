package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the public auth endpoints
func RegisterRoutes(router *gin.RouterGroup, h *Handler) {
	router.POST("/signup", h.Signup)
	router.POST("/login", h.Login)
}
