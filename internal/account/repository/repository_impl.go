package repository

import (
	"context"
	"errors"
	"time"

	accountdomain "github.com/smallbiznis/eventtria/internal/account/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() accountdomain.Repository {
	return &repo{}
}

func (r *repo) Ensure(ctx context.Context, db *gorm.DB, userID string) error {
	status := accountdomain.AccountStatus{UserID: userID, NewAccount: true}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&status).Error
}

func (r *repo) ConsumeNewAccount(ctx context.Context, db *gorm.DB, userID string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&accountdomain.AccountStatus{}).
		Where("user_id = ? AND new_account = ?", userID, true).
		Updates(map[string]interface{}{
			"new_account": false,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) FindByUserID(ctx context.Context, db *gorm.DB, userID string) (*accountdomain.AccountStatus, error) {
	var status accountdomain.AccountStatus
	err := db.WithContext(ctx).Where("user_id = ?", userID).Take(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}
