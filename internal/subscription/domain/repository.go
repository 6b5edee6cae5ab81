package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	// InsertIfAbsent inserts sub unless the user already has a row and reports
	// whether a row was created.
	InsertIfAbsent(ctx context.Context, db *gorm.DB, sub *UserSubscription) (bool, error)
	// UpsertByUserID replaces the plan, status and windows of the user's row,
	// creating it when missing.
	UpsertByUserID(ctx context.Context, db *gorm.DB, sub *UserSubscription) error
	FindByUserID(ctx context.Context, db *gorm.DB, userID string) (*UserSubscription, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, userID string, status Status) (bool, error)
	ExpireLapsed(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}
