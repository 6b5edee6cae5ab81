package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	eventdomain "github.com/smallbiznis/eventtria/internal/event/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() eventdomain.Repository {
	return &repo{}
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, ev *eventdomain.Event) error {
	return db.WithContext(ctx).Create(ev).Error
}

func (r *repo) FindEvent(ctx context.Context, db *gorm.DB, organizerID string, id snowflake.ID) (*eventdomain.Event, error) {
	var ev eventdomain.Event
	err := db.WithContext(ctx).
		Where("id = ? AND organizer_id = ?", id, organizerID).
		First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *repo) UpdateEventStatus(ctx context.Context, db *gorm.DB, organizerID string, id snowflake.ID, status eventdomain.EventStatus) (bool, error) {
	res := db.WithContext(ctx).
		Model(&eventdomain.Event{}).
		Where("id = ? AND organizer_id = ? AND status <> ?", id, organizerID, status).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListEvents returns up to filter.Limit+1 rows so callers can detect another page.
func (r *repo) ListEvents(ctx context.Context, db *gorm.DB, filter eventdomain.ListFilter) ([]*eventdomain.Event, error) {
	stmt := db.WithContext(ctx).
		Model(&eventdomain.Event{}).
		Where("organizer_id = ?", filter.OrganizerID)
	if !filter.IncludeCancelled {
		stmt = stmt.Where("status <> ?", eventdomain.EventStatusCancelled)
	}
	if filter.BeforeID != nil {
		stmt = stmt.Where("id < ?", *filter.BeforeID)
	}

	var events []*eventdomain.Event
	err := stmt.Order("id DESC").Limit(filter.Limit + 1).Find(&events).Error
	return events, err
}

func (r *repo) ExistingInviteEmails(ctx context.Context, db *gorm.DB, eventID snowflake.ID, emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	var existing []string
	err := db.WithContext(ctx).
		Model(&eventdomain.EventInvite{}).
		Where("event_id = ? AND email IN ?", eventID, emails).
		Pluck("email", &existing).Error
	return existing, err
}

// InsertInvites skips rows whose (event_id, email) already exists and reports
// how many were written.
func (r *repo) InsertInvites(ctx context.Context, db *gorm.DB, invites []eventdomain.EventInvite) (int64, error) {
	if len(invites) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "email"}},
			DoNothing: true,
		}).
		CreateInBatches(invites, 200)
	return res.RowsAffected, res.Error
}

func (r *repo) InvitesByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]eventdomain.EventInvite, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var invites []eventdomain.EventInvite
	err := db.WithContext(ctx).Where("id IN ?", ids).Find(&invites).Error
	return invites, err
}

func (r *repo) InsertChatMessage(ctx context.Context, db *gorm.DB, msg *eventdomain.ChatMessage) error {
	return db.WithContext(ctx).Create(msg).Error
}
