package transcription

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/sermon-api/api/types"
	"github.com/killallgit/sermon-api/internal/services/jobs"
	apperrors "github.com/killallgit/sermon-api/pkg/errors"
)

// Status reports a transcription job's progress or result
// @Summary Poll a transcription job
// @Tags transcription
// @Security BearerAuth
// @Produce json
// @Param job_id path string true "Job ID"
// @Success 200 {object} DoneResponse "Finished; queued or processing jobs return only status"
// @Failure 404 {object} types.ErrorResponse
// @Failure 500 {object} FailedResponse
// @Router /api/v1/sermons/transcribe/{job_id} [get]
func Status(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := types.UserID(c)
		if !ok {
			return
		}

		jobID := c.Param("job_id")
		job, err := deps.Jobs.Get(jobID)
		if err != nil {
			if !errors.Is(err, jobs.ErrJobNotFound) {
				slog.Error("job lookup failed", "job_id", jobID, "error", err)
			}
			types.SendAppError(c, apperrors.NotFound("job", jobID))
			return
		}
		// other users' jobs are indistinguishable from missing ones
		if job.OwnerID != userID {
			types.SendAppError(c, apperrors.NotFound("job", jobID))
			return
		}

		switch job.Status {
		case jobs.StatusDone:
			resp := DoneResponse{Status: string(job.Status), Summary: []string{}, BibleReferences: []string{}}
			if job.Result != nil {
				resp.Transcript = job.Result.Transcript
				if job.Result.Summary != nil {
					resp.Summary = job.Result.Summary
				}
				if job.Result.BibleReferences != nil {
					resp.BibleReferences = job.Result.BibleReferences
				}
			}
			c.JSON(http.StatusOK, resp)
		case jobs.StatusError:
			c.JSON(http.StatusInternalServerError, FailedResponse{Status: string(job.Status), Error: job.Error})
		default:
			c.JSON(http.StatusOK, PendingResponse{Status: string(job.Status)})
		}
	}
}
