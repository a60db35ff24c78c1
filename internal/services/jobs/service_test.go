package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, queueSize int) *Manager {
	t.Helper()
	return NewManager(t.TempDir(), queueSize)
}

func TestManager_StageStreamsToDisk(t *testing.T) {
	m := newTestManager(t, 4)
	payload := bytes.Repeat([]byte("a"), 3*blockSize+17)

	upload, err := m.Stage(bytes.NewReader(payload), "sermon.webm")
	require.NoError(t, err)

	assert.Equal(t, int64(len(payload)), upload.Size)
	assert.True(t, strings.HasSuffix(upload.Path, ".webm"))
	assert.Contains(t, upload.Path, UploadPrefix)

	written, err := os.ReadFile(upload.Path)
	require.NoError(t, err)
	assert.Equal(t, payload, written)
}

func TestManager_StageEmptyUpload(t *testing.T) {
	m := newTestManager(t, 4)

	_, err := m.Stage(strings.NewReader(""), "empty.mp3")
	assert.ErrorIs(t, err, ErrEmptyUpload)

	entries, err := os.ReadDir(m.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries, "empty uploads must not leave files behind")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestManager_StageReadError(t *testing.T) {
	m := newTestManager(t, 4)

	_, err := m.Stage(failingReader{}, "broken.wav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	entries, _ := os.ReadDir(m.TempDir())
	assert.Empty(t, entries)
}

func TestManager_SubmitAndGet(t *testing.T) {
	m := newTestManager(t, 4)

	job, err := m.Submit(context.Background(), strings.NewReader("audio"), "a.m4a", WithOwner(7), WithDuration(600))
	require.NoError(t, err)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, StatusQueued, job.Status)
	assert.Equal(t, uint(7), job.OwnerID)
	assert.Equal(t, 600, job.DurationSeconds)

	got, err := m.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)

	select {
	case id := <-m.Next():
		assert.Equal(t, job.ID, id)
	default:
		t.Fatal("job id was not queued")
	}
}

func TestManager_SubmitCanceledContext(t *testing.T) {
	m := newTestManager(t, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Submit(ctx, strings.NewReader("audio"), "a.mp3")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestManager_GetUnknown(t *testing.T) {
	m := newTestManager(t, 4)

	_, err := m.Get("does-not-exist")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestManager_QueueFullRemovesUpload(t *testing.T) {
	m := newTestManager(t, 1)

	_, err := m.Submit(context.Background(), strings.NewReader("first"), "1.mp3")
	require.NoError(t, err)

	upload, err := m.Stage(strings.NewReader("second"), "2.mp3")
	require.NoError(t, err)

	_, err = m.Enqueue(upload)
	assert.ErrorIs(t, err, ErrQueueFull)

	_, statErr := os.Stat(upload.Path)
	assert.True(t, os.IsNotExist(statErr), "upload should be removed when the queue is full")
}

func TestManager_Lifecycle(t *testing.T) {
	tests := []struct {
		name       string
		run        func(m *Manager, id string) error
		wantStatus Status
	}{
		{
			name: "queued to processing to done",
			run: func(m *Manager, id string) error {
				if _, err := m.MarkProcessing(id); err != nil {
					return err
				}
				return m.Complete(id, Result{Transcript: "text", Summary: []string{"point"}, BibleReferences: []string{}})
			},
			wantStatus: StatusDone,
		},
		{
			name: "queued to processing to error",
			run: func(m *Manager, id string) error {
				if _, err := m.MarkProcessing(id); err != nil {
					return err
				}
				return m.Fail(id, errors.New("conversion failed"), []byte("goroutine 1 [running]"))
			},
			wantStatus: StatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t, 4)
			job, err := m.Submit(context.Background(), strings.NewReader("audio"), "a.mp3")
			require.NoError(t, err)

			require.NoError(t, tt.run(m, job.ID))

			got, err := m.Get(job.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
		})
	}
}

func TestManager_TransitionsAreMonotonic(t *testing.T) {
	m := newTestManager(t, 4)
	job, err := m.Submit(context.Background(), strings.NewReader("audio"), "a.mp3")
	require.NoError(t, err)

	// Cannot finish before processing
	assert.ErrorIs(t, m.Complete(job.ID, Result{}), ErrInvalidTransition)
	assert.ErrorIs(t, m.Fail(job.ID, errors.New("x"), nil), ErrInvalidTransition)

	_, err = m.MarkProcessing(job.ID)
	require.NoError(t, err)
	_, err = m.MarkProcessing(job.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, m.Fail(job.ID, errors.New("stt crashed"), nil))

	// Error is terminal: polling after Error never reports Done
	assert.ErrorIs(t, m.Complete(job.ID, Result{Transcript: "late"}), ErrInvalidTransition)
	got, err := m.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, "stt crashed", got.Error)
	assert.Nil(t, got.Result)

	assert.ErrorIs(t, m.Complete("missing", Result{}), ErrJobNotFound)
}

func TestManager_DiagnosticsNotSerialized(t *testing.T) {
	m := newTestManager(t, 4)
	job, err := m.Submit(context.Background(), strings.NewReader("audio"), "a.mp3")
	require.NoError(t, err)
	_, err = m.MarkProcessing(job.ID)
	require.NoError(t, err)
	require.NoError(t, m.Fail(job.ID, errors.New("boom"), []byte("panic: secret stack")))

	got, err := m.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, "panic: secret stack", got.Diagnostics)

	body, err := json.Marshal(got)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "secret stack")
	assert.NotContains(t, string(body), got.InputPath)
}

func TestManager_GetReturnsSnapshot(t *testing.T) {
	m := newTestManager(t, 4)
	job, err := m.Submit(context.Background(), strings.NewReader("audio"), "a.mp3")
	require.NoError(t, err)
	_, err = m.MarkProcessing(job.ID)
	require.NoError(t, err)
	require.NoError(t, m.Complete(job.ID, Result{Summary: []string{"one"}}))

	got, err := m.Get(job.ID)
	require.NoError(t, err)
	got.Result.Summary[0] = "mutated"
	got.Status = StatusQueued

	again, err := m.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, "one", again.Result.Summary[0])
	assert.Equal(t, StatusDone, again.Status)
}

func TestManager_Sweep(t *testing.T) {
	m := newTestManager(t, 4)
	base := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	done, err := m.Submit(context.Background(), strings.NewReader("a"), "a.mp3")
	require.NoError(t, err)
	_, err = m.MarkProcessing(done.ID)
	require.NoError(t, err)
	require.NoError(t, m.Complete(done.ID, Result{}))

	pending, err := m.Submit(context.Background(), strings.NewReader("b"), "b.mp3")
	require.NoError(t, err)

	m.now = func() time.Time { return base.Add(2 * time.Hour) }
	assert.Equal(t, 1, m.Sweep(time.Hour))

	_, err = m.Get(done.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = m.Get(pending.ID)
	assert.NoError(t, err, "non-terminal jobs are never swept")
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := newTestManager(t, 64)

	var wg sync.WaitGroup
	ids := make(chan string, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job, err := m.Submit(context.Background(), strings.NewReader("audio"), "a.mp3")
			if assert.NoError(t, err) {
				ids <- job.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	for id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = m.Get(id)
			if _, err := m.MarkProcessing(id); assert.NoError(t, err) {
				assert.NoError(t, m.Complete(id, Result{}))
			}
		}(id)
	}
	wg.Wait()

	counts := m.Counts()
	assert.Equal(t, 32, counts[StatusDone])
	assert.Equal(t, 0, counts[StatusQueued])
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".mp3", extension("Sermon.MP3"))
	assert.Equal(t, "", extension("noext"))
	assert.Equal(t, "", extension("weird.m$a"))
	assert.Equal(t, "", extension("x.toolongext"))
}

func TestManager_InFlight(t *testing.T) {
	m := newTestManager(t, 8)
	ctx := context.Background()

	submit := func(owner uint, seconds int) *Job {
		job, err := m.Submit(ctx, strings.NewReader("audio"), "s.mp3", WithOwner(owner), WithDuration(seconds))
		require.NoError(t, err)
		return job
	}
	queued := submit(1, 600)
	processing := submit(1, 300)
	done := submit(1, 900)
	submit(2, 1200)

	_, err := m.MarkProcessing(processing.ID)
	require.NoError(t, err)
	_, err = m.MarkProcessing(done.ID)
	require.NoError(t, err)
	require.NoError(t, m.Complete(done.ID, Result{}))

	count, seconds := m.InFlight(1)
	assert.Equal(t, 2, count)
	assert.Equal(t, 900, seconds)

	require.NoError(t, m.Fail(queued.ID, errors.New("x"), nil))
	count, seconds = m.InFlight(1)
	assert.Equal(t, 1, count)
	assert.Equal(t, 300, seconds)

	count, _ = m.InFlight(3)
	assert.Zero(t, count)
}

func TestManager_ActiveFiles(t *testing.T) {
	m := newTestManager(t, 8)
	ctx := context.Background()

	queued, err := m.Submit(ctx, strings.NewReader("audio"), "a.webm", WithOwner(1))
	require.NoError(t, err)
	done, err := m.Submit(ctx, strings.NewReader("audio"), "b.webm", WithOwner(1))
	require.NoError(t, err)
	_, err = m.MarkProcessing(done.ID)
	require.NoError(t, err)
	require.NoError(t, m.Complete(done.ID, Result{}))

	active := m.ActiveFiles()
	assert.Len(t, active, 2)
	assert.Contains(t, active, FileStem(queued.InputPath))
	assert.Contains(t, active, PCMPrefix+queued.ID)
	assert.NotContains(t, active, PCMPrefix+done.ID)
}

func TestFileStem(t *testing.T) {
	assert.Equal(t, "upload_123", FileStem("/tmp/sermons/upload_123.webm"))
	assert.Equal(t, "pcm_abc", FileStem("pcm_abc.whisper.json"))
	assert.Equal(t, "upload_9", FileStem("upload_9"))
}
