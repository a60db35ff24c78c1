package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/killallgit/sermon-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines persistence for plans and user subscriptions
type Repository interface {
	ListActivePlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	GetPlanBySlug(ctx context.Context, slug string) (*models.SubscriptionPlan, error)
	UpsertPlan(ctx context.Context, plan *models.SubscriptionPlan) error

	GetActive(ctx context.Context, userID uint) (*models.UserSubscription, error)
	GetByProviderID(ctx context.Context, providerSubscriptionID string) (*models.UserSubscription, error)
	Create(ctx context.Context, sub *models.UserSubscription) error
	Save(ctx context.Context, sub *models.UserSubscription) error
	// Replace cancels current and creates next in one transaction
	Replace(ctx context.Context, current, next *models.UserSubscription) error
	ExpireEnded(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new subscription repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListActivePlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("price_monthly ASC, id ASC").
		Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	return plans, nil
}

func (r *repository) GetPlanBySlug(ctx context.Context, slug string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("getting plan: %w", err)
	}
	return &plan, nil
}

// UpsertPlan inserts the plan or refreshes the catalog row with the same slug
func (r *repository) UpsertPlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "price_monthly", "transcription_time_limit", "transcription_count_limit",
			"features", "is_active", "updated_at",
		}),
	}).Create(plan).Error
	if err != nil {
		return fmt.Errorf("upserting plan %s: %w", plan.Slug, err)
	}
	return nil
}

func (r *repository) GetActive(ctx context.Context, userID uint) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).
		Order("created_at DESC, id DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveSubscription
		}
		return nil, fmt.Errorf("getting active subscription: %w", err)
	}
	return &sub, nil
}

func (r *repository) GetByProviderID(ctx context.Context, providerSubscriptionID string) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := r.db.WithContext(ctx).
		Where("provider_subscription_id = ?", providerSubscriptionID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("getting subscription by provider id: %w", err)
	}
	return &sub, nil
}

func (r *repository) Create(ctx context.Context, sub *models.UserSubscription) error {
	if err := r.db.WithContext(ctx).Omit("Plan").Create(sub).Error; err != nil {
		return fmt.Errorf("creating subscription: %w", err)
	}
	return nil
}

func (r *repository) Save(ctx context.Context, sub *models.UserSubscription) error {
	if err := r.db.WithContext(ctx).Omit("Plan").Save(sub).Error; err != nil {
		return fmt.Errorf("saving subscription: %w", err)
	}
	return nil
}

func (r *repository) Replace(ctx context.Context, current, next *models.UserSubscription) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Plan").Save(current).Error; err != nil {
			return fmt.Errorf("canceling current subscription: %w", err)
		}
		if err := tx.Omit("Plan").Create(next).Error; err != nil {
			return fmt.Errorf("creating replacement subscription: %w", err)
		}
		return nil
	})
}

func (r *repository) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.UserSubscription{}).
		Where("status = ? AND cancel_at_period_end = ? AND current_period_end < ?", models.SubscriptionActive, true, now).
		Updates(map[string]interface{}{
			"status":     models.SubscriptionExpired,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("expiring subscriptions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
