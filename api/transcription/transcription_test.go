package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/sermon-api/api/types"
	"github.com/killallgit/sermon-api/internal/services/jobs"
	"github.com/killallgit/sermon-api/internal/services/usage"
	"github.com/killallgit/sermon-api/pkg/ffmpeg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProber struct {
	mock.Mock
}

func (m *mockProber) Probe(ctx context.Context, path string) (*ffmpeg.AudioMetadata, error) {
	args := m.Called(ctx, path)
	if meta, ok := args.Get(0).(*ffmpeg.AudioMetadata); ok {
		return meta, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockUsage struct {
	mock.Mock
}

func (m *mockUsage) RecordTranscription(ctx context.Context, userID, subscriptionID uint, seconds int) error {
	return m.Called(ctx, userID, subscriptionID, seconds).Error(0)
}

func (m *mockUsage) CurrentUsage(ctx context.Context, userID uint) (*usage.Snapshot, error) {
	args := m.Called(ctx, userID)
	snap, _ := args.Get(0).(*usage.Snapshot)
	return snap, args.Error(1)
}

func (m *mockUsage) CanTranscribe(ctx context.Context, userID uint, seconds int) (bool, string, error) {
	args := m.Called(ctx, userID, seconds)
	return args.Bool(0), args.String(1), args.Error(2)
}

func (m *mockUsage) Admit(ctx context.Context, userID uint, seconds int) (*usage.Admission, error) {
	args := m.Called(ctx, userID, seconds)
	admission, _ := args.Get(0).(*usage.Admission)
	return admission, args.Error(1)
}

func admitted(subscriptionID uint) *usage.Admission {
	return &usage.Admission{Allowed: true, SubscriptionID: subscriptionID}
}

type fixture struct {
	manager *jobs.Manager
	prober  *mockProber
	usage   *mockUsage
	router  *gin.Engine
	tempDir string
}

func newFixture(t *testing.T, queueSize int) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		tempDir: t.TempDir(),
		prober:  &mockProber{},
		usage:   &mockUsage{},
	}
	f.manager = jobs.NewManager(f.tempDir, queueSize)

	deps := &types.Dependencies{Jobs: f.manager, Prober: f.prober, Usage: f.usage}

	f.router = gin.New()
	group := f.router.Group("/api/v1/sermons", func(c *gin.Context) {
		if c.GetHeader("X-User") == "2" {
			c.Set(types.ContextUserID, uint(2))
		} else {
			c.Set(types.ContextUserID, uint(1))
		}
		c.Next()
	})
	RegisterRoutes(group, deps)
	return f
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("title", "no file here"))
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func (f *fixture) upload(t *testing.T, field string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, field, "sermon.mp3", content)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sermons/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) poll(t *testing.T, id, user string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sermons/transcribe/"+id, nil)
	if user != "" {
		req.Header.Set("X-User", user)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) stagedFiles(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(f.tempDir)
	require.NoError(t, err)
	return len(entries)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestUpload_Accepted(t *testing.T) {
	f := newFixture(t, 4)
	f.prober.On("Probe", mock.Anything, mock.Anything).Return(&ffmpeg.AudioMetadata{Duration: 61.2, Codec: "mp3"}, nil)
	f.usage.On("Admit", mock.Anything, uint(1), 62).Return(admitted(7), nil)

	w := f.upload(t, FormField, []byte("ID3 audio bytes"))

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "queued", body["status"])
	jobID, _ := body["job_id"].(string)
	require.NotEmpty(t, jobID)

	job, err := f.manager.Get(jobID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), job.OwnerID)
	assert.Equal(t, 62, job.DurationSeconds)
	assert.Equal(t, uint(7), job.SubscriptionID, "charged to the subscription that admitted it")
	assert.Equal(t, "sermon.mp3", job.Filename)
	assert.Equal(t, 1, f.stagedFiles(t))
	f.usage.AssertExpectations(t)
}

func TestUpload_Rejections(t *testing.T) {
	tests := []struct {
		name           string
		field          string
		content        []byte
		setup          func(f *fixture)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:           "missing file field",
			field:          "",
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "required field 'file' is missing",
		},
		{
			name:           "empty file",
			field:          FormField,
			content:        nil,
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Uploaded file is empty",
		},
		{
			name:    "unreadable audio",
			field:   FormField,
			content: []byte("not audio"),
			setup: func(f *fixture) {
				f.prober.On("Probe", mock.Anything, mock.Anything).Return(nil, errors.New("invalid data found"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Unsupported or unreadable audio file",
		},
		{
			name:    "zero duration",
			field:   FormField,
			content: []byte("silence"),
			setup: func(f *fixture) {
				f.prober.On("Probe", mock.Anything, mock.Anything).Return(&ffmpeg.AudioMetadata{}, nil)
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Unsupported or unreadable audio file",
		},
		{
			name:    "usage limit reached",
			field:   FormField,
			content: []byte("audio"),
			setup: func(f *fixture) {
				f.prober.On("Probe", mock.Anything, mock.Anything).Return(&ffmpeg.AudioMetadata{Duration: 600}, nil)
				f.usage.On("Admit", mock.Anything, uint(1), 600).
					Return(&usage.Admission{Reason: "You have reached your monthly limit of 3 transcriptions"}, nil)
			},
			expectedStatus: http.StatusForbidden,
			expectedMsg:    "You have reached your monthly limit of 3 transcriptions",
		},
		{
			name:    "usage lookup error",
			field:   FormField,
			content: []byte("audio"),
			setup: func(f *fixture) {
				f.prober.On("Probe", mock.Anything, mock.Anything).Return(&ffmpeg.AudioMetadata{Duration: 5}, nil)
				f.usage.On("Admit", mock.Anything, uint(1), 5).Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "Failed to check usage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 4)
			if tt.setup != nil {
				tt.setup(f)
			}

			w := f.upload(t, tt.field, tt.content)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedMsg, decode(t, w)["message"])
			assert.Zero(t, f.stagedFiles(t), "rejected uploads leave no temp files")
			assert.Equal(t, 0, f.manager.Counts()[jobs.StatusQueued])
		})
	}
}

func TestUpload_QueueFull(t *testing.T) {
	f := newFixture(t, 1)
	f.prober.On("Probe", mock.Anything, mock.Anything).Return(&ffmpeg.AudioMetadata{Duration: 10}, nil)
	f.usage.On("Admit", mock.Anything, uint(1), 10).Return(admitted(1), nil)

	require.Equal(t, http.StatusAccepted, f.upload(t, FormField, []byte("first")).Code)

	w := f.upload(t, FormField, []byte("second"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "QUEUE_FULL", decode(t, w)["error"])
	assert.Equal(t, 1, f.stagedFiles(t), "only the queued upload remains")
}

func TestStatus(t *testing.T) {
	f := newFixture(t, 4)

	stage := func(t *testing.T) *jobs.Job {
		upload, err := f.manager.Stage(bytes.NewReader([]byte("audio")), "a.mp3")
		require.NoError(t, err)
		job, err := f.manager.Enqueue(upload, jobs.WithOwner(1))
		require.NoError(t, err)
		return job
	}

	t.Run("unknown job", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, f.poll(t, "does-not-exist", "").Code)
	})

	queued := stage(t)

	t.Run("other owner", func(t *testing.T) {
		w := f.poll(t, queued.ID, "2")
		assert.Equal(t, http.StatusNotFound, w.Code)
		body := decode(t, w)
		assert.Equal(t, "NOT_FOUND", body["error"])
		assert.Equal(t, "job not found", body["message"])
	})

	t.Run("queued", func(t *testing.T) {
		w := f.poll(t, queued.ID, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, map[string]interface{}{"status": "queued"}, decode(t, w))
	})

	t.Run("processing", func(t *testing.T) {
		_, err := f.manager.MarkProcessing(queued.ID)
		require.NoError(t, err)
		w := f.poll(t, queued.ID, "")
		assert.Equal(t, map[string]interface{}{"status": "processing"}, decode(t, w))
	})

	t.Run("done", func(t *testing.T) {
		require.NoError(t, f.manager.Complete(queued.ID, jobs.Result{
			Transcript:      "In the beginning",
			Summary:         []string{"Creation is good"},
			BibleReferences: []string{"Genesis"},
		}))
		w := f.poll(t, queued.ID, "")
		assert.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "done", body["status"])
		assert.Equal(t, "In the beginning", body["transcript"])
		assert.Equal(t, []interface{}{"Creation is good"}, body["summary"])
		assert.Equal(t, []interface{}{"Genesis"}, body["bible_references"])
	})

	t.Run("error", func(t *testing.T) {
		failed := stage(t)
		_, err := f.manager.MarkProcessing(failed.ID)
		require.NoError(t, err)
		require.NoError(t, f.manager.Fail(failed.ID, errors.New("speech recognition failed: boom"), []byte("stack")))

		w := f.poll(t, failed.ID, "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decode(t, w)
		assert.Equal(t, "error", body["status"])
		assert.Equal(t, "speech recognition failed: boom", body["error"])
		assert.NotContains(t, w.Body.String(), "stack")
	})
}
