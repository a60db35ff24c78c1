package version

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/sermon-api/api/types"
)

const (
	Name        = "Sermon Notes API"
	Description = "Transcribes sermon audio into notes with scripture references"
)

// Response is the body of the version endpoint
type Response struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	types.BuildInfo
}

// Get handles version requests
// @Summary Build information
// @Tags health
// @Produce json
// @Success 200 {object} Response
// @Router /version [get]
func Get(info types.BuildInfo) gin.HandlerFunc {
	if info.Version == "" {
		info.Version = "dev"
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, Response{
			Name:        Name,
			Description: Description,
			Status:      "running",
			BuildInfo:   info,
		})
	}
}
