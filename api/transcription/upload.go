package transcription

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/sermon-api/api/types"
	"github.com/killallgit/sermon-api/internal/services/jobs"
	apperrors "github.com/killallgit/sermon-api/pkg/errors"
)

// FormField is the multipart field carrying the audio file
const FormField = "file"

var errNoFile = errors.New("no file part in request")

// Upload accepts sermon audio and queues it for transcription
// @Summary Upload sermon audio for transcription
// @Description Streams the file to temporary storage, checks the caller's monthly allowance against the probed duration and queues a transcription job. Poll the returned job id for the result.
// @Tags transcription
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Audio file"
// @Success 202 {object} AcceptedResponse
// @Failure 400 {object} types.ErrorResponse "Empty, unreadable or unsupported file"
// @Failure 401 {object} types.ErrorResponse
// @Failure 403 {object} types.ErrorResponse "Usage limit reached"
// @Failure 413 {object} types.ErrorResponse
// @Failure 429 {object} types.ErrorResponse
// @Failure 503 {object} types.ErrorResponse "Queue full"
// @Router /api/v1/sermons/transcribe [post]
func Upload(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := types.UserID(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		upload, err := stageFile(c, deps.Jobs)
		if err != nil {
			var maxErr *http.MaxBytesError
			switch {
			case errors.As(err, &maxErr):
				c.JSON(http.StatusRequestEntityTooLarge, types.ErrorResponse{
					Status:  types.StatusError,
					Message: "Uploaded file is too large",
					Error:   string(apperrors.ErrCodeInvalidInput),
				})
			case errors.Is(err, errNoFile):
				types.SendAppError(c, apperrors.MissingFieldError(FormField))
			case errors.Is(err, jobs.ErrEmptyUpload):
				types.SendBadRequest(c, "Uploaded file is empty")
			default:
				slog.Error("staging upload failed", "user_id", userID, "error", err)
				types.SendBadRequest(c, "Could not read uploaded file")
			}
			return
		}

		meta, err := deps.Prober.Probe(ctx, upload.Path)
		if err != nil || meta.Duration <= 0 {
			slog.Info("rejected unreadable upload", "user_id", userID, "filename", upload.Filename, "error", err)
			removeUpload(upload)
			types.SendBadRequest(c, "Unsupported or unreadable audio file")
			return
		}
		seconds := int(math.Ceil(meta.Duration))

		admission, err := deps.Usage.Admit(ctx, userID, seconds)
		if err != nil {
			slog.Error("usage check failed", "user_id", userID, "error", err)
			removeUpload(upload)
			types.SendInternalError(c, "Failed to check usage")
			return
		}
		if !admission.Allowed {
			removeUpload(upload)
			types.SendAppError(c, apperrors.QuotaExceeded(admission.Reason).WithDetail("duration_seconds", seconds))
			return
		}

		job, err := deps.Jobs.Enqueue(upload,
			jobs.WithOwner(userID),
			jobs.WithSubscription(admission.SubscriptionID),
			jobs.WithDuration(seconds))
		if err != nil {
			if errors.Is(err, jobs.ErrQueueFull) {
				types.SendAppError(c, apperrors.New(apperrors.ErrCodeQueueFull, "Transcription queue is full, please retry shortly"))
				return
			}
			slog.Error("enqueue failed", "user_id", userID, "error", err)
			removeUpload(upload)
			types.SendInternalError(c, "Failed to queue transcription")
			return
		}

		slog.Info("transcription queued",
			"job_id", job.ID,
			"user_id", userID,
			"filename", job.Filename,
			"duration_seconds", seconds,
			"codec", meta.Codec)

		c.JSON(http.StatusAccepted, AcceptedResponse{JobID: job.ID, Status: string(job.Status)})
	}
}

// stageFile streams the first part named FormField to temporary storage
// without buffering the whole body.
func stageFile(c *gin.Context, staging jobs.Service) (*jobs.Upload, error) {
	reader, err := c.Request.MultipartReader()
	if err != nil {
		return nil, errNoFile
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil, errNoFile
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() != FormField {
			_ = part.Close()
			continue
		}
		return stagePart(staging, part)
	}
}

func stagePart(staging jobs.Service, part *multipart.Part) (*jobs.Upload, error) {
	defer part.Close()
	return staging.Stage(part, part.FileName())
}

func removeUpload(upload *jobs.Upload) {
	if err := upload.Remove(); err != nil {
		slog.Warn("failed to remove upload", "path", upload.Path, "error", err)
	}
}
