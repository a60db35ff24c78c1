package sermons

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/sermon-api/api/types"
	"github.com/killallgit/sermon-api/internal/database"
	"github.com/killallgit/sermon-api/internal/models"
	"github.com/killallgit/sermon-api/internal/services/jobs"
	sermonService "github.com/killallgit/sermon-api/internal/services/sermons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router  *gin.Engine
	manager *jobs.Manager
}

// newFixture serves the sermon routes with the caller taken from X-User
func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Initialize(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	for _, email := range []string{"one@example.com", "two@example.com"} {
		require.NoError(t, db.Create(&models.User{Email: email, IsActive: true}).Error)
	}

	f := &fixture{manager: jobs.NewManager(t.TempDir(), 4)}
	deps := &types.Dependencies{DB: db, Jobs: f.manager, Sermons: sermonService.NewService(db.DB)}

	f.router = gin.New()
	group := f.router.Group("/api/v1/sermons", func(c *gin.Context) {
		id, err := strconv.ParseUint(c.GetHeader("X-User"), 10, 64)
		if err != nil {
			id = 1
		}
		c.Set(types.ContextUserID, uint(id))
	})
	RegisterRoutes(group, deps)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, user uint, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", fmt.Sprint(user))

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// finishedJob runs a job through the queue to done for owner
func (f *fixture) finishedJob(t *testing.T, owner uint) *jobs.Job {
	t.Helper()
	upload, err := f.manager.Stage(strings.NewReader("audio"), "sermon.mp3")
	require.NoError(t, err)
	job, err := f.manager.Enqueue(upload, jobs.WithOwner(owner), jobs.WithDuration(1800))
	require.NoError(t, err)

	_, err = f.manager.MarkProcessing(job.ID)
	require.NoError(t, err)
	require.NoError(t, f.manager.Complete(job.ID, jobs.Result{
		Transcript:      "In the beginning was the Word.",
		Summary:         []string{"The Word was with God"},
		BibleReferences: []string{"John"},
	}))
	return job
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	t.Run("from fields", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/sermons", 1, CreateRequest{
			Title:      "Sunday Service",
			Transcript: "Blessed are the meek.",
			Summary:    []string{"Meekness is strength"},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp SermonResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotZero(t, resp.ID)
		assert.Equal(t, "Sunday Service", resp.Title)
		assert.Equal(t, []string{"Meekness is strength"}, resp.Summary)
		assert.Equal(t, []string{}, resp.BibleReferences)
	})

	t.Run("from finished job", func(t *testing.T) {
		job := f.finishedJob(t, 1)

		w := f.do(t, http.MethodPost, "/api/v1/sermons", 1, CreateRequest{
			Title:      "Advent",
			JobID:      job.ID,
			Transcript: "ignored",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp SermonResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "In the beginning was the Word.", resp.Transcript)
		assert.Equal(t, []string{"John"}, resp.BibleReferences)
		assert.Equal(t, 1800, resp.DurationSeconds)
	})

	t.Run("job owned by someone else", func(t *testing.T) {
		job := f.finishedJob(t, 1)
		w := f.do(t, http.MethodPost, "/api/v1/sermons", 2, CreateRequest{Title: "Stolen", JobID: job.ID})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown job", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/sermons", 1, CreateRequest{Title: "Missing", JobID: "nope"})
		assert.Equal(t, http.StatusNotFound, w.Code)

		var resp types.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "NOT_FOUND", resp.Error)
		assert.Equal(t, "job not found", resp.Message)
		assert.Equal(t, map[string]interface{}{"resource": "job", "id": "nope"}, resp.Details)
	})

	t.Run("job still queued", func(t *testing.T) {
		upload, err := f.manager.Stage(strings.NewReader("audio"), "pending.mp3")
		require.NoError(t, err)
		job, err := f.manager.Enqueue(upload, jobs.WithOwner(1))
		require.NoError(t, err)

		w := f.do(t, http.MethodPost, "/api/v1/sermons", 1, CreateRequest{Title: "Early", JobID: job.ID})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("missing title", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/sermons", 1, map[string]string{"transcript": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListAndGet(t *testing.T) {
	f := newFixture(t)

	for _, title := range []string{"First", "Second"} {
		w := f.do(t, http.MethodPost, "/api/v1/sermons", 1, CreateRequest{Title: title})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := f.do(t, http.MethodPost, "/api/v1/sermons", 2, CreateRequest{Title: "Other"})
	require.Equal(t, http.StatusCreated, w.Code)
	var other SermonResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &other))

	w = f.do(t, http.MethodGet, "/api/v1/sermons", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "Second", list.Sermons[0].Title)
	assert.Equal(t, "First", list.Sermons[1].Title)

	w = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/sermons/%d", list.Sermons[1].ID), 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got SermonResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "First", got.Title)

	tests := []struct {
		name string
		path string
		want int
	}{
		{name: "another user's sermon", path: fmt.Sprintf("/api/v1/sermons/%d", other.ID), want: http.StatusNotFound},
		{name: "missing sermon", path: "/api/v1/sermons/9999", want: http.StatusNotFound},
		{name: "bad id", path: "/api/v1/sermons/abc", want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodGet, tt.path, 1, nil)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusNotFound {
				var resp types.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "sermon not found", resp.Message)
			}
		})
	}
}
