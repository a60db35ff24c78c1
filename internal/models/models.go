package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User represents an account that owns sermons and subscriptions
type User struct {
	gorm.Model
	Email         string             `json:"email" gorm:"uniqueIndex;not null"`
	Name          string             `json:"name"`
	PasswordHash  string             `json:"-"`
	IsActive      bool               `json:"is_active" gorm:"default:true"`
	Subscriptions []UserSubscription `json:"subscriptions,omitempty" gorm:"foreignKey:UserID"`
}

// Sermon is a saved transcription result
type Sermon struct {
	gorm.Model
	UserID          uint                        `json:"user_id" gorm:"not null;index"`
	Title           string                      `json:"title" gorm:"not null"`
	Transcript      string                      `json:"transcript" gorm:"type:text"`
	Summary         datatypes.JSONSlice[string] `json:"summary"`
	BibleReferences datatypes.JSONSlice[string] `json:"bible_references"`
	DurationSeconds int                         `json:"duration_seconds"`
	User            User                        `json:"-" gorm:"foreignKey:UserID"`
}

// All returns every persisted model in migration order
func All() []any {
	return []any{
		&User{},
		&SubscriptionPlan{},
		&UserSubscription{},
		&UsageRecord{},
		&Sermon{},
	}
}
