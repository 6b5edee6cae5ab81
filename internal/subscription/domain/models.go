// Package domain contains the subscription model and service contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
)

// Status represents lifecycle states for a user subscription.
type Status string

const (
	StatusActive    Status = "active"
	StatusTrialing  Status = "trialing"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Entitling reports whether the status grants the plan's limits.
func (s Status) Entitling() bool {
	return s == StatusActive || s == StatusTrialing
}

// UserSubscription binds one user to one plan. user_id is unique.
type UserSubscription struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID      string       `gorm:"type:text;not null;uniqueIndex:ux_user_subscriptions_user_id" json:"user_id"`
	PlanID      snowflake.ID `gorm:"not null;index" json:"plan_id"`
	Status      Status       `gorm:"type:text;not null" json:"status"`
	PeriodStart time.Time    `gorm:"not null" json:"period_start"`
	PeriodEnd   time.Time    `gorm:"not null" json:"period_end"`
	IsTrial     bool         `gorm:"not null;default:false" json:"is_trial"`
	TrialStart  *time.Time   `json:"trial_start,omitempty"`
	TrialEnd    *time.Time   `json:"trial_end,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (UserSubscription) TableName() string { return "user_subscriptions" }

// EntitledAt reports whether the subscription grants its plan at t.
func (s UserSubscription) EntitledAt(t time.Time) bool {
	return s.Status.Entitling() && t.Before(s.PeriodEnd)
}

// ActivePlan is a subscription joined with the plan row it references.
type ActivePlan struct {
	Subscription UserSubscription            `json:"subscription"`
	Plan         plandomain.SubscriptionPlan `json:"plan"`
}
