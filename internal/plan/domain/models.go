package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubscriptionPlan is the persisted reference row a subscription points at.
type SubscriptionPlan struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name            string            `gorm:"type:text;not null;uniqueIndex:ux_subscription_plans_name" json:"name"`
	Limits          datatypes.JSONMap `gorm:"type:jsonb;not null" json:"limits"`
	FastAIAccess    bool              `gorm:"column:fast_ai_access;not null;default:false" json:"fast_ai_access"`
	PrioritySupport bool              `gorm:"column:priority_support;not null;default:false" json:"priority_support"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (SubscriptionPlan) TableName() string { return "subscription_plans" }

// NewSubscriptionPlan builds the seed row for ls.
func NewSubscriptionPlan(id snowflake.ID, ls LimitSet) SubscriptionPlan {
	limits := datatypes.JSONMap{}
	for action, limit := range ls.Limits {
		limits[string(action)] = limit
	}
	return SubscriptionPlan{
		ID:              id,
		Name:            string(ls.Plan),
		Limits:          limits,
		FastAIAccess:    ls.Flags.FastAIAccess,
		PrioritySupport: ls.Flags.PrioritySupport,
	}
}

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*SubscriptionPlan, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*SubscriptionPlan, error)
	List(ctx context.Context, db *gorm.DB) ([]SubscriptionPlan, error)
	Upsert(ctx context.Context, db *gorm.DB, plan *SubscriptionPlan) error
}
