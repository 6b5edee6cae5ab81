package repository

import (
	"context"

	usagedomain "github.com/smallbiznis/eventtria/internal/usage/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() usagedomain.Repository {
	return &repo{}
}

// CountEvents counts events organised by the user that were not cancelled.
func (r *repo) CountEvents(ctx context.Context, db *gorm.DB, q usagedomain.Query) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Table("events").
		Where("organizer_id = ? AND status <> ?", q.UserID, "cancelled").
		Count(&count).Error
	return count, err
}

func (r *repo) CountInvites(ctx context.Context, db *gorm.DB, q usagedomain.Query) (int64, error) {
	stmt := db.WithContext(ctx).
		Table("event_invites").
		Where("inviter_id = ?", q.UserID)
	if q.ScopeID != nil {
		stmt = stmt.Where("event_id = ?", *q.ScopeID)
	}
	var count int64
	err := stmt.Count(&count).Error
	return count, err
}

// CountChatMessages counts messages the user sent; assistant replies are free.
func (r *repo) CountChatMessages(ctx context.Context, db *gorm.DB, q usagedomain.Query) (int64, error) {
	stmt := db.WithContext(ctx).
		Table("chat_messages").
		Where("user_id = ? AND role = ?", q.UserID, "user")
	if q.ScopeID != nil {
		stmt = stmt.Where("event_id = ?", *q.ScopeID)
	}
	var count int64
	err := stmt.Count(&count).Error
	return count, err
}

func (r *repo) InsertLedgerEntry(ctx context.Context, db *gorm.DB, entry *usagedomain.LedgerEntry) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) ListLedger(ctx context.Context, db *gorm.DB, userID string, limit int) ([]usagedomain.LedgerEntry, error) {
	var entries []usagedomain.LedgerEntry
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("recorded_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
