package transcription

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/sermon-api/api/types"
)

// RegisterRoutes registers the transcription job endpoints. upload runs in
// front of the upload handler only (size and rate limits).
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies, upload ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, upload...), Upload(deps))
	router.POST("/transcribe", handlers...)
	router.GET("/transcribe/:job_id", Status(deps))
}
