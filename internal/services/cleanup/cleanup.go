package cleanup

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/killallgit/sermon-api/internal/services/jobs"
)

// JobSweeper evicts finished jobs from the in-memory table
type JobSweeper interface {
	Sweep(olderThan time.Duration) int
}

// FileOwner lists the temp file stems still in use by unfinished jobs
type FileOwner interface {
	ActiveFiles() map[string]struct{}
}

// SubscriptionExpirer moves ended subscriptions out of the active state
type SubscriptionExpirer interface {
	ExpireEnded(ctx context.Context) (int64, error)
}

// Report summarizes one cleanup pass
type Report struct {
	FilesRemoved         int
	JobsSwept            int
	SubscriptionsExpired int64
}

// Option configures the cleanup service
type Option func(*Service)

// WithJobSweeper evicts terminal jobs older than retention on each pass
func WithJobSweeper(sweeper JobSweeper, retention time.Duration) Option {
	return func(s *Service) {
		s.jobs = sweeper
		s.retention = retention
	}
}

// WithFileOwner keeps files of queued and processing jobs regardless of age
func WithFileOwner(owner FileOwner) Option {
	return func(s *Service) {
		s.owner = owner
	}
}

// WithSubscriptionExpirer expires ended subscriptions on each pass
func WithSubscriptionExpirer(expirer SubscriptionExpirer) Option {
	return func(s *Service) {
		s.subscriptions = expirer
	}
}

// Service removes temp files left behind by crashed jobs and performs
// periodic housekeeping
type Service struct {
	tempDir         string
	maxAge          time.Duration
	cleanupInterval time.Duration
	retention       time.Duration
	jobs            JobSweeper
	owner           FileOwner
	subscriptions   SubscriptionExpirer
	now             func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a new cleanup service
func NewService(tempDir string, maxAge, cleanupInterval time.Duration, opts ...Option) *Service {
	if cleanupInterval <= 0 {
		cleanupInterval = 30 * time.Minute
	}
	s := &Service{
		tempDir:         tempDir,
		maxAge:          maxAge,
		cleanupInterval: cleanupInterval,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs one pass immediately and then one per interval until ctx ends
func (s *Service) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.RunOnce(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.RunOnce(ctx)
			case <-ctx.Done():
				slog.Info("Cleanup service stopped")
				return
			}
		}
	}()

	slog.Info("Cleanup service started", "interval", s.cleanupInterval, "max_age", s.maxAge)
}

// Stop stops the cleanup service
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// RunOnce performs a single cleanup pass
func (s *Service) RunOnce(ctx context.Context) Report {
	report := Report{FilesRemoved: s.removeStaleFiles()}

	if s.jobs != nil && s.retention > 0 {
		report.JobsSwept = s.jobs.Sweep(s.retention)
	}

	if s.subscriptions != nil {
		expired, err := s.subscriptions.ExpireEnded(ctx)
		if err != nil {
			slog.Error("Failed to expire subscriptions", "error", err)
		}
		report.SubscriptionsExpired = expired
	}

	if report != (Report{}) {
		slog.Info("Cleanup pass finished",
			"files_removed", report.FilesRemoved,
			"jobs_swept", report.JobsSwept,
			"subscriptions_expired", report.SubscriptionsExpired)
	}
	return report
}

// removeStaleFiles deletes per-job temp files older than maxAge unless an
// unfinished job still owns them
func (s *Service) removeStaleFiles() int {
	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("Cleanup read dir error", "dir", s.tempDir, "error", err)
		}
		return 0
	}

	var active map[string]struct{}
	if s.owner != nil {
		active = s.owner.ActiveFiles()
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !isJobFile(entry.Name()) {
			continue
		}
		if _, inUse := active[jobs.FileStem(entry.Name())]; inUse {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if s.now().Sub(info.ModTime()) <= s.maxAge {
			continue
		}

		path := filepath.Join(s.tempDir, entry.Name())
		slog.Debug("Removing stale temp file", "path", path)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove temp file", "path", path, "error", err)
			continue
		}
		removed++
	}
	return removed
}

func isJobFile(name string) bool {
	return strings.HasPrefix(name, jobs.UploadPrefix) || strings.HasPrefix(name, jobs.PCMPrefix)
}
