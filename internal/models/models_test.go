package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(All()...))
	return db
}

func TestMonthStart(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "mid month",
			in:   time.Date(2026, 10, 14, 16, 30, 0, 0, time.UTC),
			want: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "first instant of month",
			in:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			want: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "non-UTC input normalized",
			in:   time.Date(2026, 3, 1, 1, 0, 0, 0, time.FixedZone("CET", 2*60*60)),
			want: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(MonthStart(tt.in)), "got %s", MonthStart(tt.in))
		})
	}
}

func TestSubscriptionStatus_Valid(t *testing.T) {
	for _, s := range []SubscriptionStatus{
		SubscriptionActive, SubscriptionCanceled, SubscriptionPastDue, SubscriptionTrialing, SubscriptionExpired,
	} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, SubscriptionStatus("unpaid").Valid())
	assert.False(t, SubscriptionStatus("").Valid())
}

func TestUsageRecord_UniquePerUserMonth(t *testing.T) {
	db := setupTestDB(t)
	month := MonthStart(time.Now())

	require.NoError(t, db.Create(&UsageRecord{UserID: 1, UsageMonth: month}).Error)
	err := db.Create(&UsageRecord{UserID: 1, UsageMonth: month}).Error
	assert.Error(t, err, "second record for the same user and month must be rejected")

	// Another month or another user is fine
	require.NoError(t, db.Create(&UsageRecord{UserID: 1, UsageMonth: month.AddDate(0, 1, 0)}).Error)
	require.NoError(t, db.Create(&UsageRecord{UserID: 2, UsageMonth: month}).Error)
}

func TestSermon_JSONColumnsRoundTrip(t *testing.T) {
	db := setupTestDB(t)

	user := User{Email: "pastor@example.com", Name: "Pastor"}
	require.NoError(t, db.Create(&user).Error)

	sermon := Sermon{
		UserID:          user.ID,
		Title:           "Grace",
		Summary:         []string{"Grace is unearned", "Faith responds"},
		BibleReferences: []string{"Ephesians 2:8"},
	}
	require.NoError(t, db.Create(&sermon).Error)

	var loaded Sermon
	require.NoError(t, db.First(&loaded, sermon.ID).Error)
	assert.Equal(t, []string{"Grace is unearned", "Faith responds"}, []string(loaded.Summary))
	assert.Equal(t, []string{"Ephesians 2:8"}, []string(loaded.BibleReferences))
}

func TestSubscriptionPlan_Features(t *testing.T) {
	db := setupTestDB(t)

	plan := SubscriptionPlan{
		Name:     "Pro",
		Slug:     "pro",
		Features: map[string]any{"export": true},
	}
	require.NoError(t, db.Create(&plan).Error)

	var loaded SubscriptionPlan
	require.NoError(t, db.Where("slug = ?", "pro").First(&loaded).Error)
	assert.Equal(t, true, loaded.Features["export"])
	assert.True(t, loaded.IsActive)
}
