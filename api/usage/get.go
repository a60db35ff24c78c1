package usage

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/sermon-api/api/types"
)

// Get handles usage requests for the current month
// @Summary Current month usage
// @Description Transcriptions and seconds used this month against the active plan. Remaining values of -1 mean unlimited.
// @Tags usage
// @Security BearerAuth
// @Produce json
// @Success 200 {object} usage.Snapshot
// @Failure 401 {object} types.ErrorResponse
// @Router /api/v1/usage [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := types.UserID(c)
		if !ok {
			return
		}

		snapshot, err := deps.Usage.CurrentUsage(c.Request.Context(), userID)
		if err != nil {
			slog.Error("loading usage failed", "user_id", userID, "error", err)
			types.SendInternalError(c, "Failed to load usage")
			return
		}
		types.SendSuccess(c, snapshot)
	}
}
