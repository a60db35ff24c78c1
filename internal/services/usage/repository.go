package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/killallgit/sermon-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository errors
var (
	ErrNoActiveSubscription = errors.New("user has no active subscription")
	ErrPlanNotFound         = errors.New("subscription plan not found")
)

// Repository defines persistence for subscriptions, plans and usage records
type Repository interface {
	GetActiveSubscription(ctx context.Context, userID uint) (*models.UserSubscription, error)
	GetPlan(ctx context.Context, id uint) (*models.SubscriptionPlan, error)
	GetOrCreateRecord(ctx context.Context, userID, subscriptionID uint, month time.Time) (*models.UsageRecord, error)
	Increment(ctx context.Context, userID, subscriptionID uint, month time.Time, seconds int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new usage repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// GetActiveSubscription returns the most recently created active subscription.
// Ties on created_at fall back to the highest id.
func (r *repository) GetActiveSubscription(ctx context.Context, userID uint) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := r.db.WithContext(ctx).
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

func (r *repository) GetPlan(ctx context.Context, id uint) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := r.db.WithContext(ctx).First(&plan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("getting plan: %w", err)
	}
	return &plan, nil
}

// GetOrCreateRecord lazily creates the month's record. Concurrent creators
// converge on the same row through the unique (user_id, usage_month) index.
func (r *repository) GetOrCreateRecord(ctx context.Context, userID, subscriptionID uint, month time.Time) (*models.UsageRecord, error) {
	db := r.db.WithContext(ctx)

	record := models.UsageRecord{
		UserID:         userID,
		SubscriptionID: subscriptionID,
		UsageMonth:     month,
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "usage_month"}},
		DoNothing: true,
	}).Create(&record).Error
	if err != nil {
		return nil, fmt.Errorf("creating usage record: %w", err)
	}

	var existing models.UsageRecord
	if err := db.Where("user_id = ? AND usage_month = ?", userID, month).First(&existing).Error; err != nil {
		return nil, fmt.Errorf("getting usage record: %w", err)
	}
	return &existing, nil
}

// Increment adds one transcription and its duration in a single upsert
// statement so concurrent completions cannot lose an update.
func (r *repository) Increment(ctx context.Context, userID, subscriptionID uint, month time.Time, seconds int) error {
	record := models.UsageRecord{
		UserID:                       userID,
		SubscriptionID:               subscriptionID,
		UsageMonth:                   month,
		TranscriptionCount:           1,
		TranscriptionDurationSeconds: seconds,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "usage_month"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"transcription_count":            gorm.Expr("usage_records.transcription_count + ?", 1),
			"transcription_duration_seconds": gorm.Expr("usage_records.transcription_duration_seconds + ?", seconds),
			"subscription_id":                subscriptionID,
			"updated_at":                     time.Now().UTC(),
		}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("incrementing usage: %w", err)
	}
	return nil
}
