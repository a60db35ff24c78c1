package types

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/killallgit/sermon-api/pkg/errors"
)

// ContextUserID is the gin context key holding the authenticated user's id
const ContextUserID = "user_id"

// Handler utility functions to reduce duplication across handlers

// ParseUintParam extracts and parses a URL parameter as uint
// Returns the parsed value and sends error response if parsing fails
func ParseUintParam(c *gin.Context, paramName string) (uint, bool) {
	paramStr := c.Param(paramName)
	value, err := strconv.ParseUint(paramStr, 10, 32)
	if err != nil {
		SendBadRequest(c, "Invalid "+paramName)
		return 0, false
	}
	return uint(value), true
}

// BindJSONOrError attempts to bind JSON request body to target struct
// Returns false and sends error response if binding fails
func BindJSONOrError(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Status:  StatusError,
			Message: "Invalid request body",
			Error:   string(apperrors.ErrCodeInvalidInput),
			Details: err.Error(),
		})
		return false
	}
	return true
}

// UserID returns the authenticated user's id. Handlers behind AuthMiddleware can
// rely on it; when missing a 401 is written and false returned.
func UserID(c *gin.Context) (uint, bool) {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(uint); ok && id != 0 {
			return id, true
		}
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Status:  StatusError,
		Message: "Unauthorized",
		Error:   string(apperrors.ErrCodeUnauthorized),
	})
	return 0, false
}

// SendAppError writes err using its AppError code and HTTP status.
// Errors outside the AppError family are reported as a generic 500.
func SendAppError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Wrap(err, apperrors.ErrCodeInternal, "Internal server error")
	}
	c.JSON(appErr.GetHTTPCode(), ErrorResponse{
		Status:  StatusError,
		Message: appErr.Message,
		Error:   string(appErr.Code),
		Details: detailsOrNil(appErr.Details),
	})
}

func detailsOrNil(d map[string]interface{}) interface{} {
	if len(d) == 0 {
		return nil
	}
	return d
}

// SendBadRequest sends a standardized bad request response
func SendBadRequest(c *gin.Context, message string) {
	SendAppError(c, apperrors.New(apperrors.ErrCodeInvalidInput, message))
}

// SendUnauthorized sends a standardized unauthorized response
func SendUnauthorized(c *gin.Context, message string) {
	SendAppError(c, apperrors.New(apperrors.ErrCodeUnauthorized, message))
}

// SendNotFound sends a standardized not found response
func SendNotFound(c *gin.Context, message string) {
	SendAppError(c, apperrors.New(apperrors.ErrCodeNotFound, message))
}

// SendInternalError sends a standardized internal server error response
func SendInternalError(c *gin.Context, message string) {
	SendAppError(c, apperrors.New(apperrors.ErrCodeInternal, message))
}

// SendSuccess sends a standardized success response with data
func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// SendCreated sends a standardized created response with data
func SendCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}
