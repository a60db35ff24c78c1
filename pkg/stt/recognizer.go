// Package stt adapts speech-to-text engines to a single Recognizer contract.
package stt

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Segment is one recognized span of speech. Times are in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Recognizer transcribes a canonical 16 kHz mono PCM WAV file into ordered segments.
type Recognizer interface {
	Transcribe(ctx context.Context, wavPath string) ([]Segment, error)
}

// JoinSegments trims each segment and joins the non-empty ones with single spaces.
func JoinSegments(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if text := strings.TrimSpace(s.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Backend names accepted by New.
const (
	BackendWhisperCLI = "cli"
	BackendOpenAI     = "openai"
)

// Config selects and configures a backend.
type Config struct {
	Backend string

	// whisper.cpp
	BinaryPath string
	ModelPath  string
	Language   string
	Threads    int

	// OpenAI-compatible transcription API
	APIURL      string
	APIKey      string
	Model       string
	MaxFileSize int64
	Timeout     time.Duration
}

// New builds the Recognizer named by cfg.Backend.
func New(cfg Config) (Recognizer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendWhisperCLI:
		return NewWhisperCLI(cfg.BinaryPath, cfg.ModelPath, cfg.Language, cfg.Threads), nil
	case BackendOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("whisper api key required for %q backend", BackendOpenAI)
		}
		return NewOpenAI(cfg.APIURL, cfg.APIKey, cfg.Model, cfg.MaxFileSize, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown speech-to-text backend %q", cfg.Backend)
	}
}
