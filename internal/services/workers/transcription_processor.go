package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/killallgit/sermon-api/internal/services/jobs"
	"github.com/killallgit/sermon-api/internal/services/usage"
	"github.com/killallgit/sermon-api/pkg/bible"
	"github.com/killallgit/sermon-api/pkg/ffmpeg"
	"github.com/killallgit/sermon-api/pkg/stt"
)

// ErrNoSpeech is returned when recognition yields no text
var ErrNoSpeech = errors.New("no speech was recognized in the audio")

// Converter produces the canonical PCM file the recognizer expects
type Converter interface {
	ConvertToPCM(ctx context.Context, input, output string) error
}

// Summarizer turns a transcript into bullet points
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) ([]string, error)
}

// TranscriptionProcessor runs upload -> PCM -> transcript -> summary -> references
type TranscriptionProcessor struct {
	queue      jobs.Queue
	converter  Converter
	recognizer stt.Recognizer
	summarizer Summarizer
	recorder   usage.Recorder
	tempDir    string
	measure    func(path string) (float64, error)
}

var _ JobProcessor = (*TranscriptionProcessor)(nil)

// NewTranscriptionProcessor wires the pipeline stages. recorder may be nil.
func NewTranscriptionProcessor(
	queue jobs.Queue,
	converter Converter,
	recognizer stt.Recognizer,
	summarizer Summarizer,
	recorder usage.Recorder,
	tempDir string,
) *TranscriptionProcessor {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &TranscriptionProcessor{
		queue:      queue,
		converter:  converter,
		recognizer: recognizer,
		summarizer: summarizer,
		recorder:   recorder,
		tempDir:    tempDir,
		measure:    ffmpeg.PCMDuration,
	}
}

// Process never lets a failure escape: every outcome ends in Done or Error
// and the job's temp files are removed on every path.
func (p *TranscriptionProcessor) Process(ctx context.Context, jobID string) (err error) {
	job, err := p.queue.MarkProcessing(jobID)
	if err != nil {
		return fmt.Errorf("claiming job: %w", err)
	}

	wavPath := filepath.Join(p.tempDir, jobs.PCMPrefix+job.ID+".wav")
	defer removeFiles(job.ID, job.InputPath, wavPath)

	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			slog.Error("Transcription panicked", "job_id", job.ID, "panic", r, "stack", string(stack))
			err = fmt.Errorf("internal error: %v", r)
			p.fail(job.ID, err, stack)
		}
	}()

	started := time.Now()
	result, seconds, err := p.run(ctx, job, wavPath)
	if err != nil {
		p.fail(job.ID, err, debug.Stack())
		return err
	}

	// charge before Done: the job is always counted as in flight or as used
	p.recordUsage(ctx, job, seconds)

	if err := p.queue.Complete(job.ID, *result); err != nil {
		return fmt.Errorf("completing job: %w", err)
	}
	slog.Info("Transcription finished",
		"job_id", job.ID,
		"audio_seconds", seconds,
		"bullets", len(result.Summary),
		"references", len(result.BibleReferences),
		"elapsed", time.Since(started).Round(time.Millisecond))
	return nil
}

func (p *TranscriptionProcessor) run(ctx context.Context, job *jobs.Job, wavPath string) (*jobs.Result, int, error) {
	if err := p.converter.ConvertToPCM(ctx, job.InputPath, wavPath); err != nil {
		return nil, 0, fmt.Errorf("audio conversion failed: %w", err)
	}

	segments, err := p.recognizer.Transcribe(ctx, wavPath)
	if err != nil {
		return nil, 0, fmt.Errorf("speech recognition failed: %w", err)
	}
	transcript := stt.JoinSegments(segments)
	if transcript == "" {
		return nil, 0, ErrNoSpeech
	}

	summary, err := p.summarizer.Summarize(ctx, transcript)
	if err != nil {
		return nil, 0, err
	}
	if summary == nil {
		summary = []string{}
	}

	result := &jobs.Result{
		Transcript:      transcript,
		Summary:         summary,
		BibleReferences: bible.Detect(strings.Join(summary, "\n")),
	}
	return result, p.duration(job, wavPath), nil
}

// duration prefers the converted file's length over the upload-time probe
func (p *TranscriptionProcessor) duration(job *jobs.Job, wavPath string) int {
	seconds, err := p.measure(wavPath)
	if err != nil || seconds <= 0 {
		return job.DurationSeconds
	}
	return int(math.Ceil(seconds))
}

func (p *TranscriptionProcessor) fail(jobID string, cause error, stack []byte) {
	slog.Warn("Transcription failed", "job_id", jobID, "error", cause)
	if err := p.queue.Fail(jobID, cause, stack); err != nil {
		slog.Error("Failed to record job failure", "job_id", jobID, "error", err)
	}
}

func (p *TranscriptionProcessor) recordUsage(ctx context.Context, job *jobs.Job, seconds int) {
	if p.recorder == nil || job.OwnerID == 0 {
		return
	}
	if err := p.recorder.RecordTranscription(ctx, job.OwnerID, job.SubscriptionID, seconds); err != nil {
		slog.Error("Failed to record usage",
			"job_id", job.ID,
			"user_id", job.OwnerID,
			"subscription_id", job.SubscriptionID,
			"seconds", seconds,
			"error", err)
	}
}

func removeFiles(jobID string, paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove temp file", "job_id", jobID, "path", path, "error", err)
		}
	}
}
