package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// AccountStatus carries per-account onboarding flags.
type AccountStatus struct {
	UserID     string    `gorm:"primaryKey;type:text" json:"user_id"`
	NewAccount bool      `gorm:"not null;default:true" json:"new_account"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (AccountStatus) TableName() string { return "account_status" }

type Repository interface {
	// Ensure creates the status row with new_account=true unless one exists.
	Ensure(ctx context.Context, db *gorm.DB, userID string) error
	// ConsumeNewAccount flips new_account from true to false and reports
	// whether this call performed the flip.
	ConsumeNewAccount(ctx context.Context, db *gorm.DB, userID string) (bool, error)
	FindByUserID(ctx context.Context, db *gorm.DB, userID string) (*AccountStatus, error)
}
