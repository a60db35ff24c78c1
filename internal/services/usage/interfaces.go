package usage

import (
	"context"
	"time"
)

// Unlimited is reported as the remaining value of a dimension with no ceiling
const Unlimited = -1

// Status reported when a user has no active subscription
const (
	StatusNone   = "none"
	PlanNameNone = "None"
)

// Snapshot is a user's usage for the current month against their plan
type Snapshot struct {
	TranscriptionCount           int    `json:"transcription_count"`
	TranscriptionDurationSeconds int    `json:"transcription_duration_seconds"`
	CountLimit                   int    `json:"count_limit"`
	TimeLimit                    int    `json:"time_limit"`
	CountRemaining               int    `json:"count_remaining"`
	TimeRemaining                int    `json:"time_remaining"`
	CanTranscribe                bool   `json:"can_transcribe"`
	SubscriptionStatus           string `json:"subscription_status"`
	PlanName                     string `json:"plan_name"`

	SubscriptionID uint `json:"-"`
}

// Admission is the outcome of an admission check. SubscriptionID is the
// subscription the transcription will be charged to once it completes.
type Admission struct {
	Allowed        bool
	Reason         string
	SubscriptionID uint
}

// InFlightFunc reports a user's accepted but unfinished transcriptions. They
// are not in the usage record yet, so admission counts them separately.
type InFlightFunc func(userID uint) (count, seconds int)

// Recorder is the write side used by workers once a transcription completes.
// A zero subscriptionID charges the user's current active subscription.
type Recorder interface {
	RecordTranscription(ctx context.Context, userID, subscriptionID uint, durationSeconds int) error
}

// Service defines the usage tracker
type Service interface {
	Recorder
	CurrentUsage(ctx context.Context, userID uint) (*Snapshot, error)
	// CanTranscribe returns a human-readable reason when the request is denied
	CanTranscribe(ctx context.Context, userID uint, durationSeconds int) (bool, string, error)
	// Admit is CanTranscribe plus the subscription to charge
	Admit(ctx context.Context, userID uint, durationSeconds int) (*Admission, error)
}

// Clock returns the current time; months are derived from it in UTC
type Clock func() time.Time
