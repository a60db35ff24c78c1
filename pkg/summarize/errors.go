package summarize

import (
	"errors"
	"fmt"
)

// ErrRateLimited matches any pipeline failure caused by provider rate limiting.
var ErrRateLimited = errors.New("language model rate limit hit; please retry shortly")

// Kind classifies a pipeline failure.
type Kind string

const (
	KindBadRequest  Kind = "bad_request"
	KindRateLimited Kind = "rate_limited"
	KindFailed      Kind = "failed"
)

// Phase names the pipeline step that failed.
type Phase string

const (
	PhaseMap    Phase = "map"
	PhaseReduce Phase = "reduce"
)

// Error is returned for any failed model call. Chunk and Total are 1-based and
// only meaningful for PhaseMap.
type Error struct {
	Kind  Kind
	Phase Phase
	Chunk int
	Total int
	Err   error
}

func (e *Error) Error() string {
	where := "reduce step"
	if e.Phase == PhaseMap {
		where = fmt.Sprintf("chunk %d of %d", e.Chunk, e.Total)
	}

	switch e.Kind {
	case KindBadRequest:
		return fmt.Sprintf("language model bad request (%s): %v", where, e.Err)
	case KindRateLimited:
		return fmt.Sprintf("language model rate limit hit (%s); please retry shortly", where)
	default:
		return fmt.Sprintf("%s summarization failed: %v", where, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrRateLimited) match rate-limit failures.
func (e *Error) Is(target error) bool {
	return target == ErrRateLimited && e.Kind == KindRateLimited
}
