package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/killallgit/sermon-api/api"
	"github.com/killallgit/sermon-api/api/types"
	"github.com/killallgit/sermon-api/internal/database"
	"github.com/killallgit/sermon-api/internal/models"
	"github.com/killallgit/sermon-api/internal/services/auth"
	"github.com/killallgit/sermon-api/internal/services/cleanup"
	"github.com/killallgit/sermon-api/internal/services/jobs"
	"github.com/killallgit/sermon-api/internal/services/ratelimit"
	"github.com/killallgit/sermon-api/internal/services/sermons"
	"github.com/killallgit/sermon-api/internal/services/subscriptions"
	"github.com/killallgit/sermon-api/internal/services/usage"
	"github.com/killallgit/sermon-api/internal/services/users"
	"github.com/killallgit/sermon-api/internal/services/workers"
	"github.com/killallgit/sermon-api/pkg/config"
	"github.com/killallgit/sermon-api/pkg/ffmpeg"
	"github.com/killallgit/sermon-api/pkg/llm"
	"github.com/killallgit/sermon-api/pkg/stt"
	"github.com/killallgit/sermon-api/pkg/summarize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	serverHost string
	serverPort int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the Sermon Notes API server with the configured settings.

The server accepts sermon uploads, runs transcription jobs on a fixed
worker pool and serves job status, saved sermons and usage.

Example:
  sermon-api serve
  sermon-api serve --port 9090
  sermon-api serve --host 0.0.0.0 --port 8080`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server flags
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (overrides config)")
}

// serverRuntime holds everything serve starts so it can be stopped in order
type serverRuntime struct {
	deps    *types.Dependencies
	manager *jobs.Manager
	pool    *workers.WorkerPool
	cleanup *cleanup.Service
	closers []io.Closer
}

func (r *serverRuntime) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			slog.Warn("Failed to close resource", "error", err)
		}
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Use config values if flags not provided
	if serverHost == "" {
		serverHost = cfg.Server.Host
	}
	if serverPort == 0 {
		serverPort = cfg.Server.Port
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	defer db.Close()

	rt, err := buildRuntime(cfg, db)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(serverHost, strconv.Itoa(serverPort))
	server := api.NewServer(addr, api.ServerOptions{
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	})
	server.SetDependencies(rt.deps)
	if err := server.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	if err := rt.pool.Start(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	rt.cleanup.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting Sermon Notes API server", "addr", addr, "version", Version, "workers", rt.pool.Size())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		// In-flight jobs finish or observe cancellation before the pool returns
		rt.pool.Stop()
		rt.cleanup.Stop()
		if err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("Server gracefully stopped")
	return nil
}

// buildRuntime wires the services behind the HTTP handlers
func buildRuntime(cfg *config.Config, db *database.DB) (*serverRuntime, error) {
	rt := &serverRuntime{}

	secret, err := jwtSecret(cfg)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewService(secret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	media := ffmpeg.New(cfg.Processing.FFmpegPath, cfg.Processing.FFprobePath, cfg.Processing.FFmpegTimeout)
	if err := media.ValidateBinaries(); err != nil {
		return nil, fmt.Errorf("ffmpeg is required: %w", err)
	}

	recognizer, err := stt.New(stt.Config{
		Backend:     cfg.Whisper.Backend,
		BinaryPath:  cfg.Whisper.BinaryPath,
		ModelPath:   cfg.Whisper.ModelPath,
		Language:    cfg.Whisper.Language,
		Threads:     cfg.Whisper.Threads,
		APIURL:      cfg.Whisper.APIURL,
		APIKey:      cfg.Whisper.APIKey,
		Model:       cfg.Whisper.Model,
		MaxFileSize: cfg.Whisper.MaxFileSize,
		Timeout:     cfg.Whisper.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create speech recognizer: %w", err)
	}

	completer := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, llm.WithTimeout(cfg.LLM.Timeout))
	summarizer := summarize.New(completer,
		summarize.WithChunkChars(cfg.Summarizer.ChunkChars),
		summarize.WithReduceCeiling(cfg.Summarizer.ReduceCeiling),
		summarize.WithTemperature(cfg.Summarizer.Temperature),
		summarize.WithMaxTokens(cfg.Summarizer.MapMaxTokens, cfg.Summarizer.ReduceMaxTokens),
	)

	if err := os.MkdirAll(cfg.Storage.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	rt.manager = jobs.NewManager(cfg.Storage.TempDir, cfg.Processing.MaxQueueSize)
	usageService := usage.NewService(usage.NewRepository(db.DB), usage.WithInFlight(rt.manager.InFlight))
	subscriptionService := subscriptions.NewService(subscriptions.NewRepository(db.DB))

	processor := workers.NewTranscriptionProcessor(rt.manager, media, recognizer, summarizer, usageService, cfg.Storage.TempDir)
	rt.pool = workers.NewWorkerPool(rt.manager, processor, cfg.Processing.Workers)

	rt.cleanup = cleanup.NewService(cfg.Storage.TempDir, cfg.Storage.MaxTempAge, cfg.Storage.CleanupInterval,
		cleanup.WithJobSweeper(rt.manager, cfg.Jobs.Retention),
		cleanup.WithFileOwner(rt.manager),
		cleanup.WithSubscriptionExpirer(subscriptionService),
	)

	limiter, err := uploadLimiter(cfg)
	if err != nil {
		return nil, err
	}
	if limiter != nil {
		rt.closers = append(rt.closers, limiter)
	}

	rt.deps = &types.Dependencies{
		DB:             db,
		Auth:           tokens,
		Users:          users.NewService(db.DB),
		Jobs:           rt.manager,
		Prober:         media,
		Usage:          usageService,
		Subscriptions:  subscriptionService,
		Sermons:        sermons.NewService(db.DB),
		WorkerPool:     rt.pool,
		Build:          buildInfo(),
		UploadMaxBytes: cfg.Storage.UploadMaxBytes,
	}
	if limiter != nil {
		rt.deps.UploadLimiter = limiter
	}
	return rt, nil
}

type closingLimiter interface {
	types.Limiter
	io.Closer
}

// uploadLimiter prefers Redis so every replica shares one window
func uploadLimiter(cfg *config.Config) (closingLimiter, error) {
	if !cfg.RateLimiting.Enabled || cfg.RateLimiting.UploadPerMinute <= 0 {
		return nil, nil
	}
	if cfg.Redis.Addr == "" {
		slog.Info("Upload rate limiting is process-local", "per_minute", cfg.RateLimiting.UploadPerMinute)
		return api.NewLocalLimiter(cfg.RateLimiting.UploadPerMinute), nil
	}

	limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.Prefix,
		cfg.RateLimiting.UploadPerMinute, time.Minute)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := limiter.Ping(ctx); err != nil {
		_ = limiter.Close()
		return nil, fmt.Errorf("redis unavailable at %s: %w", cfg.Redis.Addr, err)
	}
	slog.Info("Upload rate limiting uses redis", "addr", cfg.Redis.Addr, "per_minute", cfg.RateLimiting.UploadPerMinute)
	return limiter, nil
}

// jwtSecret falls back to a random per-process secret outside production
func jwtSecret(cfg *config.Config) (string, error) {
	if cfg.Auth.JWTSecret != "" {
		return cfg.Auth.JWTSecret, nil
	}
	if cfg.Environment == "production" || cfg.Environment == "prod" {
		return "", errors.New("auth.jwt_secret is required in production")
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate jwt secret: %w", err)
	}
	slog.Warn("auth.jwt_secret is empty; using a random secret, tokens will not survive a restart")
	return hex.EncodeToString(buf), nil
}
