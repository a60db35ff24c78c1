package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// UploadPrefix and PCMPrefix name per-job temp files so the cleanup
	// sweep can find leftovers
	UploadPrefix = "upload_"
	PCMPrefix    = "pcm_"

	blockSize        = 32 * 1024
	DefaultQueueSize = 100
)

// Manager owns the in-memory job table and the work queue. Jobs are not
// durable and are lost on restart.
type Manager struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	queue   chan string
	tempDir string
	now     func() time.Time
}

var (
	_ Service = (*Manager)(nil)
	_ Queue   = (*Manager)(nil)
)

// NewManager creates a manager staging uploads under tempDir
func NewManager(tempDir string, queueSize int) *Manager {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Manager{
		jobs:    make(map[string]*Job),
		queue:   make(chan string, queueSize),
		tempDir: tempDir,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// TempDir returns the directory uploads are staged in
func (m *Manager) TempDir() string {
	return m.tempDir
}

func (m *Manager) Stage(r io.Reader, filename string) (*Upload, error) {
	if err := os.MkdirAll(m.tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}

	f, err := os.CreateTemp(m.tempDir, UploadPrefix+"*"+extension(filename))
	if err != nil {
		return nil, fmt.Errorf("creating upload file: %w", err)
	}

	n, copyErr := io.CopyBuffer(f, r, make([]byte, blockSize))
	closeErr := f.Close()

	upload := &Upload{Path: f.Name(), Filename: filename, Size: n}
	switch {
	case copyErr != nil:
		_ = upload.Remove()
		return nil, fmt.Errorf("writing upload: %w", copyErr)
	case closeErr != nil:
		_ = upload.Remove()
		return nil, fmt.Errorf("closing upload: %w", closeErr)
	case n == 0:
		_ = upload.Remove()
		return nil, ErrEmptyUpload
	}
	return upload, nil
}

func (m *Manager) Enqueue(upload *Upload, opts ...SubmitOption) (*Job, error) {
	cfg := &submitConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	now := m.now()
	job := &Job{
		ID:              uuid.NewString(),
		Status:          StatusQueued,
		OwnerID:         cfg.OwnerID,
		SubscriptionID:  cfg.SubscriptionID,
		Filename:        upload.Filename,
		DurationSeconds: cfg.DurationSeconds,
		InputPath:       upload.Path,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	m.mu.Lock()
	select {
	case m.queue <- job.ID:
		m.jobs[job.ID] = job
		m.mu.Unlock()
	default:
		m.mu.Unlock()
		_ = upload.Remove()
		return nil, ErrQueueFull
	}

	slog.Debug("Enqueued transcription job", "job_id", job.ID, "owner_id", job.OwnerID, "bytes", upload.Size)
	return job.clone(), nil
}

func (m *Manager) Submit(ctx context.Context, r io.Reader, filename string, opts ...SubmitOption) (*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	upload, err := m.Stage(r, filename)
	if err != nil {
		return nil, err
	}
	return m.Enqueue(upload, opts...)
}

func (m *Manager) Get(id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.clone(), nil
}

// Next delivers queued job IDs to workers
func (m *Manager) Next() <-chan string {
	return m.queue
}

// MarkProcessing moves a queued job to processing and returns a snapshot
func (m *Manager) MarkProcessing(id string) (*Job, error) {
	var snapshot *Job
	err := m.transition(id, StatusQueued, StatusProcessing, func(j *Job) {
		snapshot = j.clone()
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Complete records a successful result
func (m *Manager) Complete(id string, result Result) error {
	return m.transition(id, StatusProcessing, StatusDone, func(j *Job) {
		j.Result = &result
	})
}

// Fail records the failure message; stack is kept for diagnostics only
func (m *Manager) Fail(id string, cause error, stack []byte) error {
	return m.transition(id, StatusProcessing, StatusError, func(j *Job) {
		if cause != nil {
			j.Error = cause.Error()
		} else {
			j.Error = "transcription failed"
		}
		j.Diagnostics = string(stack)
	})
}

func (m *Manager) transition(id string, from, to Status, apply func(*Job)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if job.Status != from {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, to)
	}

	job.Status = to
	job.UpdatedAt = m.now()
	if apply != nil {
		apply(job)
	}
	return nil
}

// Sweep evicts terminal jobs last updated more than olderThan ago
func (m *Manager) Sweep(olderThan time.Duration) int {
	cutoff := m.now().Add(-olderThan)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, job := range m.jobs {
		if job.Status.Terminal() && job.UpdatedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed
}

// Counts returns the number of jobs in each status
func (m *Manager) Counts() map[Status]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := map[Status]int{
		StatusQueued:     0,
		StatusProcessing: 0,
		StatusDone:       0,
		StatusError:      0,
	}
	for _, job := range m.jobs {
		counts[job.Status]++
	}
	return counts
}

// InFlight returns how many of the owner's jobs are queued or processing
// and their combined probed duration
func (m *Manager) InFlight(ownerID uint) (count, seconds int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, job := range m.jobs {
		if job.OwnerID == ownerID && !job.Status.Terminal() {
			count++
			seconds += job.DurationSeconds
		}
	}
	return count, seconds
}

// ActiveFiles returns the temp file stems (name up to the first dot) that
// belong to unfinished jobs and must survive the stale-file sweep
func (m *Manager) ActiveFiles() map[string]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stems := make(map[string]struct{})
	for _, job := range m.jobs {
		if job.Status.Terminal() {
			continue
		}
		stems[PCMPrefix+job.ID] = struct{}{}
		if job.InputPath != "" {
			stems[FileStem(job.InputPath)] = struct{}{}
		}
	}
	return stems
}

// FileStem strips the directory and every extension from path
func FileStem(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}

// extension keeps a short alphanumeric suffix so ffmpeg can sniff the container
func extension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
