package subscriptions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/killallgit/sermon-api/internal/models"
	"gorm.io/datatypes"
)

// BillingPeriod is the length of a monthly billing period
const BillingPeriod = 30 * 24 * time.Hour

// DefaultPlans is the catalog installed by SeedDefaultPlans
var DefaultPlans = []models.SubscriptionPlan{
	{
		Name:                    "Free",
		Slug:                    "free",
		PriceMonthly:            0,
		TranscriptionCountLimit: 3,
		TranscriptionTimeLimit:  30 * 60,
		Features:                datatypes.JSONMap{"summaries": true, "export": false},
		IsActive:                true,
	},
	{
		Name:                    "Basic",
		Slug:                    "basic",
		PriceMonthly:            9.99,
		TranscriptionCountLimit: 20,
		TranscriptionTimeLimit:  10 * 60 * 60,
		Features:                datatypes.JSONMap{"summaries": true, "export": true},
		IsActive:                true,
	},
	{
		Name:                    "Pro",
		Slug:                    "pro",
		PriceMonthly:            29.99,
		TranscriptionCountLimit: 0,
		TranscriptionTimeLimit:  0,
		Features:                datatypes.JSONMap{"summaries": true, "export": true, "priority": true},
		IsActive:                true,
	},
}

// providerStatuses maps billing provider statuses onto ours
var providerStatuses = map[string]models.SubscriptionStatus{
	"active":             models.SubscriptionActive,
	"trialing":           models.SubscriptionTrialing,
	"past_due":           models.SubscriptionPastDue,
	"unpaid":             models.SubscriptionPastDue,
	"canceled":           models.SubscriptionCanceled,
	"incomplete_expired": models.SubscriptionExpired,
	"expired":            models.SubscriptionExpired,
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new subscription service
func NewService(repo Repository) Service {
	return &service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	return s.repo.ListActivePlans(ctx)
}

func (s *service) GetPlanBySlug(ctx context.Context, slug string) (*models.SubscriptionPlan, error) {
	return s.repo.GetPlanBySlug(ctx, slug)
}

func (s *service) SeedDefaultPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	seeded := make([]models.SubscriptionPlan, 0, len(DefaultPlans))
	for _, p := range DefaultPlans {
		plan := p
		if err := s.repo.UpsertPlan(ctx, &plan); err != nil {
			return nil, err
		}
		seeded = append(seeded, plan)
	}
	slog.Info("Seeded subscription plans", "count", len(seeded))
	return seeded, nil
}

func (s *service) GetActive(ctx context.Context, userID uint) (*models.UserSubscription, error) {
	return s.repo.GetActive(ctx, userID)
}

func (s *service) Create(ctx context.Context, userID uint, planSlug string, opts ...CreateOption) (*models.UserSubscription, error) {
	plan, err := s.repo.GetPlanBySlug(ctx, planSlug)
	if err != nil {
		return nil, err
	}

	sub := s.newSubscription(userID, plan)
	for _, opt := range opts {
		opt(sub)
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}

	slog.Info("Created subscription", "user_id", userID, "plan", plan.Slug, "subscription_id", sub.ID)
	return sub, nil
}

// Upgrade moves the user to another plan. The current subscription is
// canceled and a new one starts a fresh billing period.
func (s *service) Upgrade(ctx context.Context, userID uint, planSlug string) (*models.UserSubscription, error) {
	current, err := s.repo.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	plan, err := s.repo.GetPlanBySlug(ctx, planSlug)
	if err != nil {
		return nil, err
	}
	if current.PlanID == plan.ID {
		return current, nil
	}

	now := s.now()
	current.Status = models.SubscriptionCanceled
	current.CanceledAt = &now

	next := s.newSubscription(userID, plan)
	next.ProviderCustomerID = current.ProviderCustomerID
	if err := s.repo.Replace(ctx, current, next); err != nil {
		return nil, err
	}

	slog.Info("Changed subscription plan", "user_id", userID, "from_plan_id", current.PlanID, "to_plan", plan.Slug)
	return next, nil
}

// Cancel keeps the subscription usable until the end of its period
func (s *service) Cancel(ctx context.Context, userID uint) (*models.UserSubscription, error) {
	sub, err := s.repo.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub.CancelAtPeriodEnd {
		return sub, nil
	}

	now := s.now()
	sub.CancelAtPeriodEnd = true
	sub.CanceledAt = &now
	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *service) SyncProviderStatus(ctx context.Context, providerSubscriptionID, status string) (*models.UserSubscription, error) {
	mapped, ok := providerStatuses[status]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	sub, err := s.repo.GetByProviderID(ctx, providerSubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status == mapped {
		return sub, nil
	}

	previous := sub.Status
	sub.Status = mapped
	if mapped == models.SubscriptionCanceled && sub.CanceledAt == nil {
		now := s.now()
		sub.CanceledAt = &now
	}
	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, err
	}

	slog.Info("Synced subscription status", "subscription_id", sub.ID, "from", previous, "to", mapped)
	return sub, nil
}

func (s *service) ExpireEnded(ctx context.Context) (int64, error) {
	return s.repo.ExpireEnded(ctx, s.now())
}

func (s *service) newSubscription(userID uint, plan *models.SubscriptionPlan) *models.UserSubscription {
	now := s.now()
	return &models.UserSubscription{
		UserID:             userID,
		PlanID:             plan.ID,
		Status:             models.SubscriptionActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.Add(BillingPeriod),
		Plan:               *plan,
	}
}
