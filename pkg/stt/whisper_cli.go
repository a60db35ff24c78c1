package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/killallgit/sermon-api/pkg/command"
)

// WhisperCLI runs a local whisper.cpp binary and reads its JSON output file.
type WhisperCLI struct {
	binary   string
	model    string
	language string
	threads  int
	runner   command.Runner
}

// NewWhisperCLI creates a whisper.cpp backend.
func NewWhisperCLI(binary, model, language string, threads int) *WhisperCLI {
	if binary == "" {
		binary = "whisper-cli"
	}
	if language == "" {
		language = "en"
	}
	if threads <= 0 {
		threads = 4
	}
	return &WhisperCLI{
		binary:   binary,
		model:    model,
		language: language,
		threads:  threads,
		runner:   command.Exec{},
	}
}

// WithRunner replaces the process runner (used by tests).
func (w *WhisperCLI) WithRunner(r command.Runner) *WhisperCLI {
	w.runner = r
	return w
}

type whisperOutput struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// Transcribe implements Recognizer.
func (w *WhisperCLI) Transcribe(ctx context.Context, wavPath string) ([]Segment, error) {
	prefix := strings.TrimSuffix(wavPath, filepath.Ext(wavPath)) + ".whisper"
	outPath := prefix + ".json"
	defer os.Remove(outPath)

	args := []string{
		"-m", w.model,
		"-f", wavPath,
		"-l", w.language,
		"-t", strconv.Itoa(w.threads),
		"-oj",
		"-of", prefix,
		"-np",
	}

	res, err := w.runner.Run(ctx, w.binary, args...)
	if err != nil {
		return nil, fmt.Errorf("whisper-cli failed: %w (stderr: %s)", err, strings.TrimSpace(res.Stderr))
	}

	raw, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("reading whisper output: %w", err)
	}

	var out whisperOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parsing whisper output: %w", err)
	}

	segments := make([]Segment, 0, len(out.Transcription))
	for _, t := range out.Transcription {
		segments = append(segments, Segment{
			Start: float64(t.Offsets.From) / 1000,
			End:   float64(t.Offsets.To) / 1000,
			Text:  t.Text,
		})
	}
	return segments, nil
}
