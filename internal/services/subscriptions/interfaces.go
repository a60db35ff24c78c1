package subscriptions

import (
	"context"
	"errors"

	"github.com/killallgit/sermon-api/internal/models"
)

var (
	ErrPlanNotFound         = errors.New("subscription plan not found")
	ErrNoActiveSubscription = errors.New("user has no active subscription")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrUnknownStatus        = errors.New("unknown provider subscription status")
)

// Service manages the plan catalog and user subscriptions
type Service interface {
	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	GetPlanBySlug(ctx context.Context, slug string) (*models.SubscriptionPlan, error)
	SeedDefaultPlans(ctx context.Context) ([]models.SubscriptionPlan, error)

	GetActive(ctx context.Context, userID uint) (*models.UserSubscription, error)
	Create(ctx context.Context, userID uint, planSlug string, opts ...CreateOption) (*models.UserSubscription, error)
	Upgrade(ctx context.Context, userID uint, planSlug string) (*models.UserSubscription, error)
	Cancel(ctx context.Context, userID uint) (*models.UserSubscription, error)

	// SyncProviderStatus applies a status reported by the billing provider
	SyncProviderStatus(ctx context.Context, providerSubscriptionID, status string) (*models.UserSubscription, error)
	// ExpireEnded expires active subscriptions that were canceled and whose period is over
	ExpireEnded(ctx context.Context) (int64, error)
}

// CreateOption is a functional option for new subscriptions
type CreateOption func(*models.UserSubscription)

// WithProviderIDs links the subscription to the billing provider's records
func WithProviderIDs(customerID, subscriptionID string) CreateOption {
	return func(sub *models.UserSubscription) {
		sub.ProviderCustomerID = customerID
		if subscriptionID != "" {
			sub.ProviderSubscriptionID = &subscriptionID
		}
	}
}
