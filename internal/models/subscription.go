package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubscriptionStatus is the lifecycle state of a UserSubscription
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionExpired  SubscriptionStatus = "expired"
)

// Valid reports whether s is one of the known statuses
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionCanceled, SubscriptionPastDue, SubscriptionTrialing, SubscriptionExpired:
		return true
	}
	return false
}

// SubscriptionPlan is a catalog tier. A limit <= 0 means unlimited.
type SubscriptionPlan struct {
	gorm.Model
	Name                    string            `json:"name" gorm:"uniqueIndex;not null"` // "Free", "Basic", "Pro"
	Slug                    string            `json:"slug" gorm:"uniqueIndex;not null"` // "free", "basic", "pro"
	PriceMonthly            float64           `json:"price_monthly" gorm:"default:0"`
	TranscriptionTimeLimit  int               `json:"transcription_time_limit"`  // seconds per month
	TranscriptionCountLimit int               `json:"transcription_count_limit"` // transcriptions per month
	Features                datatypes.JSONMap `json:"features"`
	ProviderPriceID         string            `json:"provider_price_id,omitempty" gorm:"index"`
	IsActive                bool              `json:"is_active" gorm:"default:true"`
}

// UserSubscription binds a user to a plan for a billing period
type UserSubscription struct {
	gorm.Model
	UserID                 uint               `json:"user_id" gorm:"not null;index"`
	PlanID                 uint               `json:"plan_id" gorm:"not null;index"`
	ProviderSubscriptionID *string            `json:"provider_subscription_id,omitempty" gorm:"uniqueIndex"`
	ProviderCustomerID     string             `json:"provider_customer_id,omitempty" gorm:"index"`
	Status                 SubscriptionStatus `json:"status" gorm:"type:varchar(20);not null;default:active;index"`
	CurrentPeriodStart     time.Time          `json:"current_period_start"`
	CurrentPeriodEnd       time.Time          `json:"current_period_end"`
	CancelAtPeriodEnd      bool               `json:"cancel_at_period_end" gorm:"default:false"`
	CanceledAt             *time.Time         `json:"canceled_at,omitempty"`
	Plan                   SubscriptionPlan   `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
}
