package version

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/sermon-api/api/types"
)

// RegisterRoutes registers version routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies) {
	var info types.BuildInfo
	if deps != nil {
		info = deps.Build
	}
	engine.GET("/", Get(info))
	engine.GET("/version", Get(info))
}
