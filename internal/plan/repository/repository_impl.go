package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() plandomain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*plandomain.SubscriptionPlan, error) {
	var plan plandomain.SubscriptionPlan
	err := db.WithContext(ctx).Where("id = ?", id).Take(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*plandomain.SubscriptionPlan, error) {
	var plan plandomain.SubscriptionPlan
	err := db.WithContext(ctx).Where("name = ?", name).Take(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]plandomain.SubscriptionPlan, error) {
	var plans []plandomain.SubscriptionPlan
	if err := db.WithContext(ctx).Order("name ASC").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// Upsert inserts plan or refreshes its limits and flags when the name exists.
// plan.ID is replaced by the stored id afterwards.
func (r *repo) Upsert(ctx context.Context, db *gorm.DB, plan *plandomain.SubscriptionPlan) error {
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"limits", "fast_ai_access", "priority_support", "updated_at"}),
	}).Create(plan).Error
	if err != nil {
		return err
	}

	stored, err := r.FindByName(ctx, db, plan.Name)
	if err != nil {
		return err
	}
	if stored != nil {
		*plan = *stored
	}
	return nil
}
