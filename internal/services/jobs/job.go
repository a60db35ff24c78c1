package jobs

import (
	"errors"
	"os"
	"time"
)

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrEmptyUpload       = errors.New("uploaded file is empty")
	ErrQueueFull         = errors.New("transcription queue is full")
	ErrInvalidTransition = errors.New("invalid job status transition")
)

// Status is the lifecycle state of a job
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Terminal reports whether no further transitions are possible
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// Result is attached to a job once it reaches StatusDone
type Result struct {
	Transcript      string   `json:"transcript"`
	Summary         []string `json:"summary"`
	BibleReferences []string `json:"bible_references"`
}

// Job is a single transcription request
type Job struct {
	ID              string    `json:"job_id"`
	Status          Status    `json:"status"`
	Result          *Result   `json:"result,omitempty"`
	Error           string    `json:"error,omitempty"`
	OwnerID         uint      `json:"owner_id"`
	SubscriptionID  uint      `json:"-"` // charged on completion; 0 means the owner's active one
	Filename        string    `json:"filename"`
	DurationSeconds int       `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	InputPath   string `json:"-"`
	Diagnostics string `json:"-"` // stack trace of the failure, never returned to clients
}

func (j *Job) clone() *Job {
	cp := *j
	if j.Result != nil {
		r := *j.Result
		r.Summary = append([]string(nil), j.Result.Summary...)
		r.BibleReferences = append([]string(nil), j.Result.BibleReferences...)
		cp.Result = &r
	}
	return &cp
}

// Upload is an audio file staged on disk awaiting a job
type Upload struct {
	Path     string
	Filename string
	Size     int64
}

// Remove deletes the staged file; a missing file is not an error
func (u *Upload) Remove() error {
	if u == nil || u.Path == "" {
		return nil
	}
	if err := os.Remove(u.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
