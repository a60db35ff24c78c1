package subscriptions

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/sermon-api/api/types"
	"github.com/killallgit/sermon-api/internal/models"
	subscriptionService "github.com/killallgit/sermon-api/internal/services/subscriptions"
)

// PlanResponse is the public view of a plan
type PlanResponse struct {
	Name                    string                 `json:"name"`
	Slug                    string                 `json:"slug"`
	PriceMonthly            float64                `json:"price_monthly"`
	TranscriptionCountLimit int                    `json:"transcription_count_limit"`
	TranscriptionTimeLimit  int                    `json:"transcription_time_limit"`
	Features                map[string]interface{} `json:"features"`
}

// PlansResponse lists the plan catalog
type PlansResponse struct {
	Plans []PlanResponse `json:"plans"`
	Count int            `json:"count"`
}

// SubscriptionResponse is the caller's current subscription
type SubscriptionResponse struct {
	ID                 uint         `json:"id"`
	Status             string       `json:"status"`
	Plan               PlanResponse `json:"plan"`
	CurrentPeriodStart time.Time    `json:"current_period_start"`
	CurrentPeriodEnd   time.Time    `json:"current_period_end"`
	CancelAtPeriodEnd  bool         `json:"cancel_at_period_end"`
	CanceledAt         *time.Time   `json:"canceled_at,omitempty"`
}

func toPlanResponse(p *models.SubscriptionPlan) PlanResponse {
	features := map[string]interface{}(p.Features)
	if features == nil {
		features = map[string]interface{}{}
	}
	return PlanResponse{
		Name:                    p.Name,
		Slug:                    p.Slug,
		PriceMonthly:            p.PriceMonthly,
		TranscriptionCountLimit: p.TranscriptionCountLimit,
		TranscriptionTimeLimit:  p.TranscriptionTimeLimit,
		Features:                features,
	}
}

func toSubscriptionResponse(s *models.UserSubscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:                 s.ID,
		Status:             string(s.Status),
		Plan:               toPlanResponse(&s.Plan),
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		CanceledAt:         s.CanceledAt,
	}
}

// ListPlans returns the active plan catalog
// @Summary List subscription plans
// @Tags subscriptions
// @Produce json
// @Success 200 {object} PlansResponse
// @Router /api/v1/plans [get]
func ListPlans(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		plans, err := deps.Subscriptions.ListPlans(c.Request.Context())
		if err != nil {
			slog.Error("listing plans failed", "error", err)
			types.SendInternalError(c, "Failed to list plans")
			return
		}

		resp := PlansResponse{Plans: make([]PlanResponse, 0, len(plans)), Count: len(plans)}
		for i := range plans {
			resp.Plans = append(resp.Plans, toPlanResponse(&plans[i]))
		}
		types.SendSuccess(c, resp)
	}
}

// GetCurrent returns the caller's active subscription
// @Summary Current subscription
// @Tags subscriptions
// @Security BearerAuth
// @Produce json
// @Success 200 {object} SubscriptionResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /api/v1/subscription [get]
func GetCurrent(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := types.UserID(c)
		if !ok {
			return
		}

		sub, err := deps.Subscriptions.GetActive(c.Request.Context(), userID)
		if err != nil {
			sendSubscriptionError(c, userID, err, "Failed to load subscription")
			return
		}
		types.SendSuccess(c, toSubscriptionResponse(sub))
	}
}

// Cancel stops renewal; the plan stays usable until the period ends
// @Summary Cancel subscription at period end
// @Tags subscriptions
// @Security BearerAuth
// @Produce json
// @Success 200 {object} SubscriptionResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /api/v1/subscription/cancel [post]
func Cancel(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := types.UserID(c)
		if !ok {
			return
		}

		sub, err := deps.Subscriptions.Cancel(c.Request.Context(), userID)
		if err != nil {
			sendSubscriptionError(c, userID, err, "Failed to cancel subscription")
			return
		}

		slog.Info("subscription canceled", "user_id", userID, "subscription_id", sub.ID, "period_end", sub.CurrentPeriodEnd)
		types.SendSuccess(c, toSubscriptionResponse(sub))
	}
}

func sendSubscriptionError(c *gin.Context, userID uint, err error, message string) {
	if errors.Is(err, subscriptionService.ErrNoActiveSubscription) {
		types.SendNotFound(c, "No active subscription")
		return
	}
	slog.Error(message, "user_id", userID, "error", err)
	types.SendInternalError(c, message)
}
