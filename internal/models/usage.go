package models

import (
	"time"

	"gorm.io/gorm"
)

// UsageRecord accumulates one user's transcription usage for one calendar
// month. (user_id, usage_month) is unique.
type UsageRecord struct {
	gorm.Model
	UserID                       uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_usage_user_month"`
	SubscriptionID               uint      `json:"subscription_id" gorm:"index"`
	UsageMonth                   time.Time `json:"usage_month" gorm:"not null;uniqueIndex:idx_usage_user_month"`
	TranscriptionCount           int       `json:"transcription_count" gorm:"not null;default:0"`
	TranscriptionDurationSeconds int       `json:"transcription_duration_seconds" gorm:"not null;default:0"`
}

// MonthStart truncates t to midnight UTC on the first day of its month
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
