package subscriptions

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/sermon-api/api/types"
)

// RegisterPlanRoutes registers the public plan catalog
func RegisterPlanRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.GET("", ListPlans(deps))
}

// RegisterRoutes registers the caller's subscription endpoints
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.GET("", GetCurrent(deps))
	router.POST("/cancel", Cancel(deps))
}
