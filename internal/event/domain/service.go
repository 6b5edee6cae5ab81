package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/eventtria/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreateEventRequest struct {
	UserID      string     `json:"-"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartsAt    *time.Time `json:"starts_at"`
	Publish     bool       `json:"publish"`
}

type ListEventsRequest struct {
	pagination.Pagination
	UserID           string `form:"-"`
	IncludeCancelled bool   `form:"include_cancelled"`
}

type ListEventsResponse struct {
	pagination.PageInfo
	Events []Event `json:"events"`
}

type InviteRequest struct {
	UserID  string       `json:"-"`
	EventID snowflake.ID `json:"-"`
	Emails  []string     `json:"emails"`
}

// InviteResult lists created invites and the addresses that were already invited.
type InviteResult struct {
	Invited []EventInvite `json:"invited"`
	Skipped []string      `json:"skipped"`
}

type ChatMessageRequest struct {
	UserID  string        `json:"-"`
	EventID *snowflake.ID `json:"event_id,omitempty"`
	Content string        `json:"content"`
}

type Service interface {
	CreateEvent(ctx context.Context, req CreateEventRequest) (*Event, error)
	CancelEvent(ctx context.Context, userID string, eventID snowflake.ID) (*Event, error)
	GetEvent(ctx context.Context, userID string, eventID snowflake.ID) (*Event, error)
	ListEvents(ctx context.Context, req ListEventsRequest) (ListEventsResponse, error)
	InviteAttendees(ctx context.Context, req InviteRequest) (InviteResult, error)
	PostChatMessage(ctx context.Context, req ChatMessageRequest) (*ChatMessage, error)
}

type Repository interface {
	InsertEvent(ctx context.Context, db *gorm.DB, ev *Event) error
	FindEvent(ctx context.Context, db *gorm.DB, organizerID string, id snowflake.ID) (*Event, error)
	UpdateEventStatus(ctx context.Context, db *gorm.DB, organizerID string, id snowflake.ID, status EventStatus) (bool, error)
	ListEvents(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Event, error)
	ExistingInviteEmails(ctx context.Context, db *gorm.DB, eventID snowflake.ID, emails []string) ([]string, error)
	InsertInvites(ctx context.Context, db *gorm.DB, invites []EventInvite) (int64, error)
	InvitesByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]EventInvite, error)
	InsertChatMessage(ctx context.Context, db *gorm.DB, msg *ChatMessage) error
}

// ListFilter selects one page of an organizer's events, newest first.
type ListFilter struct {
	OrganizerID      string
	IncludeCancelled bool
	BeforeID         *snowflake.ID
	Limit            int
}

var (
	ErrInvalidUserID    = errors.New("invalid_user_id")
	ErrInvalidTitle     = errors.New("invalid_title")
	ErrInvalidEmail     = errors.New("invalid_email")
	ErrEmptyInviteList  = errors.New("empty_invite_list")
	ErrInvalidMessage   = errors.New("invalid_message")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrEventNotFound    = errors.New("event_not_found")
	ErrEventCancelled   = errors.New("event_cancelled")
)
