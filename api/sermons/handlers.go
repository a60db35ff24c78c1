package sermons

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/sermon-api/api/types"
	"github.com/killallgit/sermon-api/internal/services/jobs"
	sermonService "github.com/killallgit/sermon-api/internal/services/sermons"
	apperrors "github.com/killallgit/sermon-api/pkg/errors"
)

// Create saves a transcription to the caller's library
// @Summary Save a sermon
// @Tags sermons
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CreateRequest true "Sermon"
// @Success 201 {object} SermonResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 404 {object} types.ErrorResponse "Job not found"
// @Failure 409 {object} types.ErrorResponse "Job not finished"
// @Router /api/v1/sermons [post]
func Create(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := types.UserID(c)
		if !ok {
			return
		}

		var req CreateRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		in := sermonService.SaveInput{
			Title:           req.Title,
			Transcript:      req.Transcript,
			Summary:         req.Summary,
			BibleReferences: req.BibleReferences,
		}
		if req.JobID != "" {
			if !fillFromJob(c, deps.Jobs, userID, req.JobID, &in) {
				return
			}
		}

		sermon, err := deps.Sermons.Save(c.Request.Context(), userID, in)
		if err != nil {
			if errors.Is(err, sermonService.ErrTitleRequired) {
				types.SendAppError(c, apperrors.MissingFieldError("title"))
				return
			}
			slog.Error("saving sermon failed", "user_id", userID, "code", apperrors.GetCode(err), "error", err)
			types.SendInternalError(c, "Failed to save sermon")
			return
		}

		slog.Info("sermon saved", "sermon_id", sermon.ID, "user_id", userID, "job_id", req.JobID)
		types.SendCreated(c, toResponse(sermon))
	}
}

func fillFromJob(c *gin.Context, jobService jobs.Service, userID uint, jobID string, in *sermonService.SaveInput) bool {
	job, err := jobService.Get(jobID)
	if err != nil || job.OwnerID != userID {
		types.SendAppError(c, apperrors.NotFound("job", jobID))
		return false
	}
	if job.Status != jobs.StatusDone || job.Result == nil {
		types.SendAppError(c, apperrors.Newf(apperrors.ErrCodeConflict, "Job is %s, not done", job.Status))
		return false
	}

	in.Transcript = job.Result.Transcript
	in.Summary = job.Result.Summary
	in.BibleReferences = job.Result.BibleReferences
	in.DurationSeconds = job.DurationSeconds
	return true
}

// List returns the caller's sermons, newest first
// @Summary List saved sermons
// @Tags sermons
// @Security BearerAuth
// @Produce json
// @Success 200 {object} ListResponse
// @Router /api/v1/sermons [get]
func List(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := types.UserID(c)
		if !ok {
			return
		}

		sermons, err := deps.Sermons.List(c.Request.Context(), userID)
		if err != nil {
			slog.Error("listing sermons failed", "user_id", userID, "code", apperrors.GetCode(err), "error", err)
			types.SendInternalError(c, "Failed to list sermons")
			return
		}

		resp := ListResponse{Sermons: make([]SermonResponse, 0, len(sermons)), Count: len(sermons)}
		for i := range sermons {
			resp.Sermons = append(resp.Sermons, toResponse(&sermons[i]))
		}
		types.SendSuccess(c, resp)
	}
}

// Get returns one of the caller's sermons
// @Summary Get a saved sermon
// @Tags sermons
// @Security BearerAuth
// @Produce json
// @Param id path int true "Sermon ID"
// @Success 200 {object} SermonResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /api/v1/sermons/{id} [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := types.UserID(c)
		if !ok {
			return
		}
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		sermon, err := deps.Sermons.Get(c.Request.Context(), userID, id)
		if err != nil {
			if errors.Is(err, sermonService.ErrSermonNotFound) {
				types.SendAppError(c, apperrors.NotFound("sermon", id))
				return
			}
			slog.Error("getting sermon failed", "user_id", userID, "sermon_id", id, "code", apperrors.GetCode(err), "error", err)
			types.SendInternalError(c, "Failed to get sermon")
			return
		}
		types.SendSuccess(c, toResponse(sermon))
	}
}
