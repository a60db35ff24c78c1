// Package summarize turns a sermon transcript into bullet-point notes using a
// map-reduce pass over a language model.
package summarize

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/killallgit/sermon-api/pkg/chunker"
	"github.com/killallgit/sermon-api/pkg/llm"
)

const (
	DefaultChunkChars      = chunker.DefaultMaxChars
	DefaultReduceCeiling   = 12000
	DefaultTemperature     = 0.2
	DefaultMapMaxTokens    = 600
	DefaultReduceMaxTokens = 800
)

// Pipeline runs split, map and reduce against a Completer.
type Pipeline struct {
	completer       llm.Completer
	chunkChars      int
	reduceCeiling   int
	temperature     float64
	mapMaxTokens    int
	reduceMaxTokens int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithChunkChars sets the per-chunk character budget.
func WithChunkChars(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.chunkChars = n
		}
	}
}

// WithReduceCeiling caps the size of the merged partials sent to reduce.
func WithReduceCeiling(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.reduceCeiling = n
		}
	}
}

// WithTemperature sets the sampling temperature for every call.
func WithTemperature(t float64) Option {
	return func(p *Pipeline) {
		p.temperature = t
	}
}

// WithMaxTokens sets the output limits for map and reduce calls.
func WithMaxTokens(mapTokens, reduceTokens int) Option {
	return func(p *Pipeline) {
		if mapTokens > 0 {
			p.mapMaxTokens = mapTokens
		}
		if reduceTokens > 0 {
			p.reduceMaxTokens = reduceTokens
		}
	}
}

// New creates a Pipeline with default budgets.
func New(completer llm.Completer, opts ...Option) *Pipeline {
	p := &Pipeline{
		completer:       completer,
		chunkChars:      DefaultChunkChars,
		reduceCeiling:   DefaultReduceCeiling,
		temperature:     DefaultTemperature,
		mapMaxTokens:    DefaultMapMaxTokens,
		reduceMaxTokens: DefaultReduceMaxTokens,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Summarize returns the merged bullet list for transcript. Empty input returns
// an empty list without calling the model. Failures are returned as *Error and
// are never retried here.
func (p *Pipeline) Summarize(ctx context.Context, transcript string) ([]string, error) {
	if strings.TrimSpace(transcript) == "" {
		return []string{}, nil
	}

	chunks := chunker.Split(transcript, p.chunkChars)
	total := len(chunks)
	slog.Debug("summarizing transcript", "chars", utf8.RuneCountInString(transcript), "chunks", total)

	partials := make([]string, 0, total)
	for i, chunk := range chunks {
		content, err := p.completer.Complete(ctx, llm.Request{
			System:      systemPrompt,
			User:        mapPrompt(chunk, i+1, total),
			Temperature: p.temperature,
			MaxTokens:   p.mapMaxTokens,
		})
		if err != nil {
			return nil, classify(err, PhaseMap, i+1, total)
		}
		partials = append(partials, formatPartial(parseBullets(content)))
	}

	content, err := p.completer.Complete(ctx, llm.Request{
		System:      systemPrompt,
		User:        reducePrompt(truncate(strings.Join(partials, "\n\n"), p.reduceCeiling)),
		Temperature: p.temperature,
		MaxTokens:   p.reduceMaxTokens,
	})
	if err != nil {
		return nil, classify(err, PhaseReduce, 0, total)
	}
	return parseBullets(content), nil
}

func classify(err error, phase Phase, chunk, total int) *Error {
	kind := KindFailed
	switch {
	case llm.IsBadRequest(err):
		kind = KindBadRequest
	case llm.IsRateLimited(err):
		kind = KindRateLimited
	}
	return &Error{Kind: kind, Phase: phase, Chunk: chunk, Total: total, Err: err}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
