// Package ffmpeg wraps the ffmpeg and ffprobe binaries.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/killallgit/sermon-api/pkg/command"
)

// FFmpeg wraps ffmpeg and ffprobe functionality
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
	runner      command.Runner
}

// New creates a new FFmpeg instance
func New(ffmpegPath, ffprobePath string, timeout time.Duration) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     timeout,
		runner:      command.Exec{},
	}
}

// WithRunner replaces the process runner (used by tests).
func (f *FFmpeg) WithRunner(r command.Runner) *FFmpeg {
	f.runner = r
	return f
}

// ValidateBinaries checks if ffmpeg and ffprobe are available
func (f *FFmpeg) ValidateBinaries() error {
	if _, err := exec.LookPath(f.ffmpegPath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, f.ffmpegPath)
	}
	if _, err := exec.LookPath(f.ffprobePath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFprobeNotFound, f.ffprobePath)
	}
	return nil
}

// ConvertToPCM transcodes input into a 16 kHz mono 16-bit PCM WAV at output,
// overwriting any existing file. Video streams are dropped.
func (f *FFmpeg) ConvertToPCM(ctx context.Context, input, output string) error {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", input,
		"-vn",
		"-ac", strconv.Itoa(TargetChannels),
		"-ar", strconv.Itoa(TargetSampleRate),
		"-c:a", TargetCodec,
		"-f", "wav",
		output,
	}

	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	res, err := f.runner.Run(ctx, f.ffmpegPath, args...)
	if err != nil {
		return NewProcessingError("pcm_conversion", input, f.timeoutOr(ctx, err), strings.TrimSpace(res.Stderr))
	}
	return nil
}

func (f *FFmpeg) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.timeout)
}

func (f *FFmpeg) timeoutOr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrProcessingTimeout, f.timeout)
	}
	return err
}
