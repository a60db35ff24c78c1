package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/killallgit/sermon-api/internal/models"
)

type service struct {
	repo     Repository
	clock    Clock
	inFlight InFlightFunc
}

// Option configures the usage service
type Option func(*service)

// WithClock overrides the time source used to pick the usage month
func WithClock(clock Clock) Option {
	return func(s *service) {
		s.clock = clock
	}
}

// WithInFlight counts unfinished transcriptions against the remaining allowance
func WithInFlight(fn InFlightFunc) Option {
	return func(s *service) {
		s.inFlight = fn
	}
}

// NewService creates a usage tracker backed by repo
func NewService(repo Repository, opts ...Option) Service {
	s := &service{
		repo:  repo,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func noAccess() *Snapshot {
	return &Snapshot{
		SubscriptionStatus: StatusNone,
		PlanName:           PlanNameNone,
	}
}

func (s *service) CurrentUsage(ctx context.Context, userID uint) (*Snapshot, error) {
	sub, err := s.repo.GetActiveSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoActiveSubscription) {
			return noAccess(), nil
		}
		return nil, err
	}

	plan, err := s.repo.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.GetOrCreateRecord(ctx, userID, sub.ID, models.MonthStart(s.clock()))
	if err != nil {
		return nil, err
	}

	count := record.TranscriptionCount
	duration := record.TranscriptionDurationSeconds
	countLimit := plan.TranscriptionCountLimit
	timeLimit := plan.TranscriptionTimeLimit

	return &Snapshot{
		TranscriptionCount:           count,
		TranscriptionDurationSeconds: duration,
		CountLimit:                   countLimit,
		TimeLimit:                    timeLimit,
		CountRemaining:               remaining(countLimit, count),
		TimeRemaining:                remaining(timeLimit, duration),
		CanTranscribe:                within(countLimit, count) && within(timeLimit, duration),
		SubscriptionStatus:           string(sub.Status),
		PlanName:                     plan.Name,
		SubscriptionID:               sub.ID,
	}, nil
}

func (s *service) CanTranscribe(ctx context.Context, userID uint, durationSeconds int) (bool, string, error) {
	admission, err := s.Admit(ctx, userID, durationSeconds)
	if err != nil {
		return false, "", err
	}
	return admission.Allowed, admission.Reason, nil
}

func (s *service) Admit(ctx context.Context, userID uint, durationSeconds int) (*Admission, error) {
	snap, err := s.CurrentUsage(ctx, userID)
	if err != nil {
		return nil, err
	}
	if snap.SubscriptionStatus == StatusNone {
		return &Admission{Reason: "No active subscription"}, nil
	}

	countLeft, timeLeft := snap.CountRemaining, snap.TimeRemaining
	if s.inFlight != nil {
		pending, pendingSeconds := s.inFlight(userID)
		countLeft = minusPending(countLeft, pending)
		timeLeft = minusPending(timeLeft, pendingSeconds)
	}

	admission := &Admission{SubscriptionID: snap.SubscriptionID}
	switch {
	case countLeft == 0:
		admission.Reason = fmt.Sprintf("You have reached your monthly limit of %d transcriptions", snap.CountLimit)
	case timeLeft != Unlimited && (timeLeft == 0 || durationSeconds > timeLeft):
		admission.Reason = "Insufficient time remaining. You have " + formatRemaining(timeLeft) + " left"
	default:
		admission.Allowed = true
	}
	return admission, nil
}

func (s *service) RecordTranscription(ctx context.Context, userID, subscriptionID uint, durationSeconds int) error {
	if subscriptionID == 0 {
		sub, err := s.repo.GetActiveSubscription(ctx, userID)
		if err != nil {
			return err
		}
		subscriptionID = sub.ID
	}
	if durationSeconds < 0 {
		durationSeconds = 0
	}

	month := models.MonthStart(s.clock())
	if err := s.repo.Increment(ctx, userID, subscriptionID, month, durationSeconds); err != nil {
		return err
	}

	slog.Debug("Recorded transcription usage",
		"user_id", userID,
		"subscription_id", subscriptionID,
		"seconds", durationSeconds,
		"month", month.Format("2006-01"))
	return nil
}

func minusPending(left, pending int) int {
	if left == Unlimited {
		return Unlimited
	}
	return max(0, left-pending)
}

// formatRemaining uses whole minutes, or seconds when less than a minute is left
func formatRemaining(seconds int) string {
	if seconds > 0 && seconds < 60 {
		return plural(seconds, "second")
	}
	return plural(seconds/60, "minute")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// remaining clamps at zero; a limit <= 0 has no ceiling
func remaining(limit, used int) int {
	if limit <= 0 {
		return Unlimited
	}
	return max(0, limit-used)
}

func within(limit, used int) bool {
	return limit <= 0 || used < limit
}
