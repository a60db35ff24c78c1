package types

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	apperrors "github.com/killallgit/sermon-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSendAppError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
		expectedMsg  string
	}{
		{
			name:         "quota exceeded",
			err:          apperrors.QuotaExceeded("No active subscription"),
			expectedCode: http.StatusForbidden,
			expectedErr:  "QUOTA_EXCEEDED",
			expectedMsg:  "No active subscription",
		},
		{
			name:         "queue full",
			err:          apperrors.New(apperrors.ErrCodeQueueFull, "busy"),
			expectedCode: http.StatusServiceUnavailable,
			expectedErr:  "QUEUE_FULL",
			expectedMsg:  "busy",
		},
		{
			name:         "plain error hides its text",
			err:          errors.New("connection refused"),
			expectedCode: http.StatusInternalServerError,
			expectedErr:  "INTERNAL",
			expectedMsg:  "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			SendAppError(c, tt.err)

			assert.Equal(t, tt.expectedCode, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, StatusError, resp.Status)
			assert.Equal(t, tt.expectedErr, resp.Error)
			assert.Equal(t, tt.expectedMsg, resp.Message)
		})
	}
}

func TestParseUintParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, ok := ParseUintParam(c, "id")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	_, ok = ParseUintParam(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid id", decodeError(t, w).Message)
}

func TestUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(ContextUserID, uint(7))
	id, ok := UserID(c)
	assert.True(t, ok)
	assert.Equal(t, uint(7), id)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	_, ok = UserID(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())
}
