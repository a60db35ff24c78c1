package usage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/killallgit/sermon-api/internal/database"
	"github.com/killallgit/sermon-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Initialize(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db.DB
}

func newTestService(db *gorm.DB) Service {
	return NewService(NewRepository(db), WithClock(func() time.Time { return testNow }))
}

func createPlan(t *testing.T, db *gorm.DB, slug string, countLimit, timeLimit int) *models.SubscriptionPlan {
	t.Helper()
	plan := &models.SubscriptionPlan{
		Name:                    slug + " plan",
		Slug:                    slug,
		TranscriptionCountLimit: countLimit,
		TranscriptionTimeLimit:  timeLimit,
	}
	require.NoError(t, db.Create(plan).Error)
	return plan
}

func subscribe(t *testing.T, db *gorm.DB, userID uint, plan *models.SubscriptionPlan, status models.SubscriptionStatus, createdAt time.Time) *models.UserSubscription {
	t.Helper()
	sub := &models.UserSubscription{
		UserID:             userID,
		PlanID:             plan.ID,
		Status:             status,
		CurrentPeriodStart: createdAt,
		CurrentPeriodEnd:   createdAt.AddDate(0, 0, 30),
	}
	sub.CreatedAt = createdAt
	require.NoError(t, db.Create(sub).Error)
	return sub
}

func setUsage(t *testing.T, db *gorm.DB, userID, subID uint, count, seconds int) {
	t.Helper()
	require.NoError(t, db.Create(&models.UsageRecord{
		UserID:                       userID,
		SubscriptionID:               subID,
		UsageMonth:                   models.MonthStart(testNow),
		TranscriptionCount:           count,
		TranscriptionDurationSeconds: seconds,
	}).Error)
}

func TestCurrentUsage_NoSubscription(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	snap, err := svc.CurrentUsage(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, &Snapshot{SubscriptionStatus: "none", PlanName: "None"}, snap)
	assert.False(t, snap.CanTranscribe)
}

func TestCurrentUsage(t *testing.T) {
	tests := []struct {
		name       string
		countLimit int
		timeLimit  int
		count      int
		seconds    int
		want       Snapshot
	}{
		{
			name:       "under both limits",
			countLimit: 10, timeLimit: 3600,
			count: 3, seconds: 1200,
			want: Snapshot{
				TranscriptionCount: 3, TranscriptionDurationSeconds: 1200,
				CountLimit: 10, TimeLimit: 3600,
				CountRemaining: 7, TimeRemaining: 2400,
				CanTranscribe: true,
			},
		},
		{
			name:       "count limit reached",
			countLimit: 5, timeLimit: 3600,
			count: 5, seconds: 100,
			want: Snapshot{
				TranscriptionCount: 5, TranscriptionDurationSeconds: 100,
				CountLimit: 5, TimeLimit: 3600,
				CountRemaining: 0, TimeRemaining: 3500,
				CanTranscribe: false,
			},
		},
		{
			name:       "time exceeded clamps remaining at zero",
			countLimit: 5, timeLimit: 600,
			count: 1, seconds: 900,
			want: Snapshot{
				TranscriptionCount: 1, TranscriptionDurationSeconds: 900,
				CountLimit: 5, TimeLimit: 600,
				CountRemaining: 4, TimeRemaining: 0,
				CanTranscribe: false,
			},
		},
		{
			name:       "zero limits are unlimited",
			countLimit: 0, timeLimit: 0,
			count: 500, seconds: 90000,
			want: Snapshot{
				TranscriptionCount: 500, TranscriptionDurationSeconds: 90000,
				CountRemaining: Unlimited, TimeRemaining: Unlimited,
				CanTranscribe: true,
			},
		},
		{
			name:       "negative limits are unlimited",
			countLimit: -1, timeLimit: -1,
			want: Snapshot{
				CountLimit: -1, TimeLimit: -1,
				CountRemaining: Unlimited, TimeRemaining: Unlimited,
				CanTranscribe: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			plan := createPlan(t, db, "basic", tt.countLimit, tt.timeLimit)
			sub := subscribe(t, db, 1, plan, models.SubscriptionActive, testNow.AddDate(0, 0, -3))
			if tt.count > 0 || tt.seconds > 0 {
				setUsage(t, db, 1, sub.ID, tt.count, tt.seconds)
			}

			snap, err := newTestService(db).CurrentUsage(context.Background(), 1)
			require.NoError(t, err)

			want := tt.want
			want.SubscriptionStatus = "active"
			want.PlanName = "basic plan"
			want.SubscriptionID = sub.ID
			assert.Equal(t, want, *snap)
		})
	}
}

func TestCurrentUsage_CreatesRecordLazily(t *testing.T) {
	db := setupTestDB(t)
	plan := createPlan(t, db, "basic", 10, 3600)
	subscribe(t, db, 1, plan, models.SubscriptionActive, testNow)
	svc := newTestService(db)

	for i := 0; i < 2; i++ {
		_, err := svc.CurrentUsage(context.Background(), 1)
		require.NoError(t, err)
	}

	var count int64
	db.Model(&models.UsageRecord{}).Where("user_id = ?", 1).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCurrentUsage_MostRecentActiveSubscriptionWins(t *testing.T) {
	db := setupTestDB(t)
	basic := createPlan(t, db, "basic", 5, 0)
	pro := createPlan(t, db, "pro", 50, 0)
	free := createPlan(t, db, "free", 1, 0)

	subscribe(t, db, 1, basic, models.SubscriptionActive, testNow.AddDate(0, -2, 0))
	subscribe(t, db, 1, pro, models.SubscriptionActive, testNow.AddDate(0, 0, -1))
	// Newer but not active
	subscribe(t, db, 1, free, models.SubscriptionCanceled, testNow)

	snap, err := newTestService(db).CurrentUsage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "pro plan", snap.PlanName)
	assert.Equal(t, 50, snap.CountLimit)
}

func TestCurrentUsage_SameCreatedAtTieBreaksOnID(t *testing.T) {
	db := setupTestDB(t)
	basic := createPlan(t, db, "basic", 5, 0)
	pro := createPlan(t, db, "pro", 50, 0)

	subscribe(t, db, 1, basic, models.SubscriptionActive, testNow)
	subscribe(t, db, 1, pro, models.SubscriptionActive, testNow)

	snap, err := newTestService(db).CurrentUsage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "pro plan", snap.PlanName)
}

func TestCanTranscribe(t *testing.T) {
	tests := []struct {
		name       string
		subscribed bool
		countLimit int
		timeLimit  int
		count      int
		seconds    int
		request    int
		allowed    bool
		reason     string
	}{
		{
			name:       "no subscription",
			subscribed: false,
			request:    600,
			reason:     "No active subscription",
		},
		{
			name:       "count limit reached",
			subscribed: true,
			countLimit: 5, timeLimit: 36000,
			count: 5, seconds: 100,
			request: 600,
			reason:  "You have reached your monthly limit of 5 transcriptions",
		},
		{
			name:       "under both limits",
			subscribed: true,
			countLimit: 5, timeLimit: 36000,
			count: 2, seconds: 100,
			request: 600,
			allowed: true,
		},
		{
			name:       "duration exceeds remaining time",
			subscribed: true,
			countLimit: 5, timeLimit: 3600,
			count: 1, seconds: 3300,
			request: 600,
			reason:  "Insufficient time remaining. You have 5 minutes left",
		},
		{
			name:       "time fully used",
			subscribed: true,
			countLimit: 5, timeLimit: 3600,
			count: 1, seconds: 3600,
			request: 1,
			reason:  "Insufficient time remaining. You have 0 minutes left",
		},
		{
			name:       "under a minute left reports seconds",
			subscribed: true,
			countLimit: 5, timeLimit: 3600,
			count: 1, seconds: 3555,
			request: 120,
			reason:  "Insufficient time remaining. You have 45 seconds left",
		},
		{
			name:       "singular minute",
			subscribed: true,
			countLimit: 5, timeLimit: 3600,
			count: 1, seconds: 3500,
			request: 600,
			reason:  "Insufficient time remaining. You have 1 minute left",
		},
		{
			name:       "exactly the remaining time",
			subscribed: true,
			countLimit: 5, timeLimit: 3600,
			count: 1, seconds: 3000,
			request: 600,
			allowed: true,
		},
		{
			name:       "unlimited plan",
			subscribed: true,
			count:      1000, seconds: 1000000,
			request: 7200,
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			if tt.subscribed {
				plan := createPlan(t, db, "basic", tt.countLimit, tt.timeLimit)
				sub := subscribe(t, db, 1, plan, models.SubscriptionActive, testNow)
				setUsage(t, db, 1, sub.ID, tt.count, tt.seconds)
			}

			allowed, reason, err := newTestService(db).CanTranscribe(context.Background(), 1, tt.request)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, allowed)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestRecordTranscription(t *testing.T) {
	db := setupTestDB(t)
	plan := createPlan(t, db, "basic", 10, 0)
	sub := subscribe(t, db, 1, plan, models.SubscriptionActive, testNow)
	svc := newTestService(db)
	ctx := context.Background()

	require.NoError(t, svc.RecordTranscription(ctx, 1, 0, 120))
	require.NoError(t, svc.RecordTranscription(ctx, 1, 0, 30))

	var record models.UsageRecord
	require.NoError(t, db.Where("user_id = ?", 1).First(&record).Error)
	assert.Equal(t, 2, record.TranscriptionCount)
	assert.Equal(t, 150, record.TranscriptionDurationSeconds)
	assert.Equal(t, sub.ID, record.SubscriptionID)

	snap, err := svc.CurrentUsage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 8, snap.CountRemaining)
}

func TestRecordTranscription_NewMonthStartsFresh(t *testing.T) {
	db := setupTestDB(t)
	plan := createPlan(t, db, "basic", 10, 0)
	subscribe(t, db, 1, plan, models.SubscriptionActive, testNow)
	repo := NewRepository(db)
	ctx := context.Background()

	october := NewService(repo, WithClock(func() time.Time { return testNow }))
	november := NewService(repo, WithClock(func() time.Time { return testNow.AddDate(0, 1, 0) }))

	require.NoError(t, october.RecordTranscription(ctx, 1, 0, 60))
	require.NoError(t, november.RecordTranscription(ctx, 1, 0, 60))

	snap, err := november.CurrentUsage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.TranscriptionCount)

	var records int64
	db.Model(&models.UsageRecord{}).Count(&records)
	assert.Equal(t, int64(2), records)
}

func TestRecordTranscription_NoSubscription(t *testing.T) {
	db := setupTestDB(t)

	err := newTestService(db).RecordTranscription(context.Background(), 99, 0, 60)
	assert.ErrorIs(t, err, ErrNoActiveSubscription)
}

func TestRecordTranscription_ConcurrentIncrementsAreNotLost(t *testing.T) {
	db := setupTestDB(t)
	plan := createPlan(t, db, "basic", 0, 0)
	subscribe(t, db, 1, plan, models.SubscriptionActive, testNow)
	svc := newTestService(db)

	const workers = 20
	var wg sync.WaitGroup
	for i := 1; i <= workers; i++ {
		wg.Add(1)
		go func(seconds int) {
			defer wg.Done()
			assert.NoError(t, svc.RecordTranscription(context.Background(), 1, 0, seconds))
		}(i)
	}
	wg.Wait()

	var record models.UsageRecord
	require.NoError(t, db.Where("user_id = ?", 1).First(&record).Error)
	assert.Equal(t, workers, record.TranscriptionCount)
	assert.Equal(t, workers*(workers+1)/2, record.TranscriptionDurationSeconds)
}

func TestAdmit_CountsInFlightJobs(t *testing.T) {
	tests := []struct {
		name           string
		countLimit     int
		timeLimit      int
		pending        int
		pendingSeconds int
		request        int
		allowed        bool
		reason         string
	}{
		{
			name:       "last transcription already queued",
			countLimit: 3, timeLimit: 0,
			pending: 1,
			request: 60,
			reason:  "You have reached your monthly limit of 3 transcriptions",
		},
		{
			name:       "queued audio uses up the time",
			countLimit: 0, timeLimit: 3600,
			pending: 2, pendingSeconds: 1800,
			request: 1000,
			reason:  "Insufficient time remaining. You have 10 minutes left",
		},
		{
			name:       "room left after pending",
			countLimit: 5, timeLimit: 3600,
			pending: 1, pendingSeconds: 600,
			request: 1200,
			allowed: true,
		},
		{
			name:    "unlimited plan ignores pending",
			pending: 50, pendingSeconds: 100000,
			request: 7200,
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			plan := createPlan(t, db, "basic", tt.countLimit, tt.timeLimit)
			sub := subscribe(t, db, 1, plan, models.SubscriptionActive, testNow)
			setUsage(t, db, 1, sub.ID, 2, 1200)

			var askedFor uint
			svc := NewService(NewRepository(db),
				WithClock(func() time.Time { return testNow }),
				WithInFlight(func(userID uint) (int, int) {
					askedFor = userID
					return tt.pending, tt.pendingSeconds
				}),
			)

			admission, err := svc.Admit(context.Background(), 1, tt.request)
			require.NoError(t, err)
			assert.Equal(t, uint(1), askedFor)
			assert.Equal(t, tt.allowed, admission.Allowed)
			assert.Equal(t, tt.reason, admission.Reason)
			assert.Equal(t, sub.ID, admission.SubscriptionID)
		})
	}
}

func TestAdmit_NoSubscription(t *testing.T) {
	db := setupTestDB(t)

	admission, err := newTestService(db).Admit(context.Background(), 1, 60)
	require.NoError(t, err)
	assert.False(t, admission.Allowed)
	assert.Zero(t, admission.SubscriptionID)
}

func TestRecordTranscription_PinnedSubscriptionSurvivesExpiry(t *testing.T) {
	db := setupTestDB(t)
	plan := createPlan(t, db, "basic", 10, 0)
	sub := subscribe(t, db, 1, plan, models.SubscriptionActive, testNow)
	svc := newTestService(db)
	ctx := context.Background()

	admission, err := svc.Admit(ctx, 1, 60)
	require.NoError(t, err)
	require.True(t, admission.Allowed)

	// the period ends while the job is still running
	require.NoError(t, db.Model(sub).Update("status", models.SubscriptionExpired).Error)
	require.ErrorIs(t, svc.RecordTranscription(ctx, 1, 0, 60), ErrNoActiveSubscription)

	require.NoError(t, svc.RecordTranscription(ctx, 1, admission.SubscriptionID, 60))

	var record models.UsageRecord
	require.NoError(t, db.Where("user_id = ?", 1).First(&record).Error)
	assert.Equal(t, 1, record.TranscriptionCount)
	assert.Equal(t, 60, record.TranscriptionDurationSeconds)
	assert.Equal(t, sub.ID, record.SubscriptionID)
}
