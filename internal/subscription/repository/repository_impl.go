package repository

import (
	"context"
	"errors"
	"time"

	subscriptiondomain "github.com/smallbiznis/eventtria/internal/subscription/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

var userIDConflict = []clause.Column{{Name: "user_id"}}

func (r *repo) InsertIfAbsent(ctx context.Context, db *gorm.DB, sub *subscriptiondomain.UserSubscription) (bool, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: userIDConflict, DoNothing: true}).
		Create(sub)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) UpsertByUserID(ctx context.Context, db *gorm.DB, sub *subscriptiondomain.UserSubscription) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: userIDConflict,
			DoUpdates: clause.AssignmentColumns([]string{
				"plan_id",
				"status",
				"period_start",
				"period_end",
				"is_trial",
				"trial_start",
				"trial_end",
				"updated_at",
			}),
		}).
		Create(sub).Error
}

func (r *repo) FindByUserID(ctx context.Context, db *gorm.DB, userID string) (*subscriptiondomain.UserSubscription, error) {
	var sub subscriptiondomain.UserSubscription
	err := db.WithContext(ctx).Where("user_id = ?", userID).Take(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, userID string, status subscriptiondomain.Status) (bool, error) {
	res := db.WithContext(ctx).
		Model(&subscriptiondomain.UserSubscription{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ExpireLapsed marks entitling subscriptions whose window closed at or before now.
func (r *repo) ExpireLapsed(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&subscriptiondomain.UserSubscription{}).
		Where("status IN ?", []subscriptiondomain.Status{
			subscriptiondomain.StatusActive,
			subscriptiondomain.StatusTrialing,
		}).
		Where("period_end <= ?", now).
		Updates(map[string]interface{}{
			"status":     subscriptiondomain.StatusExpired,
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
