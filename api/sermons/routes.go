package sermons

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/sermon-api/api/types"
)

// RegisterRoutes registers the saved-sermon endpoints
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.POST("", Create(deps))
	router.GET("", List(deps))
	router.GET("/:id", Get(deps))
}
