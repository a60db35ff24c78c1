package types

import (
	"context"

	"github.com/killallgit/sermon-api/internal/database"
	"github.com/killallgit/sermon-api/internal/services/auth"
	"github.com/killallgit/sermon-api/internal/services/jobs"
	"github.com/killallgit/sermon-api/internal/services/sermons"
	"github.com/killallgit/sermon-api/internal/services/subscriptions"
	"github.com/killallgit/sermon-api/internal/services/usage"
	"github.com/killallgit/sermon-api/internal/services/users"
	"github.com/killallgit/sermon-api/internal/services/workers"
	"github.com/killallgit/sermon-api/pkg/ffmpeg"
)

// Prober reads the duration and codec of a staged upload
type Prober interface {
	Probe(ctx context.Context, path string) (*ffmpeg.AudioMetadata, error)
}

// Limiter admits or rejects a request for a key
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// BuildInfo describes the running binary
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB            *database.DB
	Auth          *auth.Service
	Users         users.Service
	Jobs          jobs.Service
	Prober        Prober
	Usage         usage.Service
	Subscriptions subscriptions.Service
	Sermons       sermons.Service
	WorkerPool    *workers.WorkerPool
	Build         BuildInfo

	// UploadLimiter is applied to the transcription upload route when set
	UploadLimiter  Limiter
	UploadMaxBytes int64
}
