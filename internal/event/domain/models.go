package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
)

type Event struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OrganizerID string       `gorm:"type:text;not null;index:ix_events_organizer_status,priority:1" json:"organizer_id"`
	Title       string       `gorm:"type:text;not null" json:"title"`
	Slug        string       `gorm:"type:text;not null;uniqueIndex:ux_events_slug" json:"slug"`
	Description string       `gorm:"type:text;not null;default:''" json:"description"`
	Status      EventStatus  `gorm:"type:text;not null;index:ix_events_organizer_status,priority:2" json:"status"`
	StartsAt    *time.Time   `json:"starts_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (Event) TableName() string { return "events" }

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
)

type EventInvite struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	EventID   snowflake.ID `gorm:"not null;uniqueIndex:ux_event_invites_event_email,priority:1" json:"event_id"`
	InviterID string       `gorm:"type:text;not null;index" json:"inviter_id"`
	Email     string       `gorm:"type:text;not null;uniqueIndex:ux_event_invites_event_email,priority:2" json:"email"`
	Status    InviteStatus `gorm:"type:text;not null;default:pending" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

func (EventInvite) TableName() string { return "event_invites" }

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	UserID    string        `gorm:"type:text;not null;index:ix_chat_messages_user_role,priority:1" json:"user_id"`
	EventID   *snowflake.ID `gorm:"index" json:"event_id,omitempty"`
	Role      ChatRole      `gorm:"type:text;not null;index:ix_chat_messages_user_role,priority:2" json:"role"`
	Content   string        `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time     `json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_messages" }
