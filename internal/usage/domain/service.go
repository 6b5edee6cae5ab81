package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
	"gorm.io/gorm"
)

type RecordUsageRequest struct {
	UserID   string
	Action   plandomain.ActionType
	ScopeID  *snowflake.ID
	Delta    int64
	Metadata map[string]interface{}
}

type Service interface {
	// GetUsage counts stored rows that represent prior uses of action,
	// optionally limited to one event.
	GetUsage(ctx context.Context, userID string, action plandomain.ActionType, scopeID *snowflake.ID) (int64, error)
	// RecordUsage appends to the usage ledger. Limits keep counting rows.
	RecordUsage(ctx context.Context, req RecordUsageRequest) error
	History(ctx context.Context, userID string, limit int) ([]LedgerEntry, error)
}

type Repository interface {
	CountEvents(ctx context.Context, db *gorm.DB, q Query) (int64, error)
	CountInvites(ctx context.Context, db *gorm.DB, q Query) (int64, error)
	CountChatMessages(ctx context.Context, db *gorm.DB, q Query) (int64, error)
	InsertLedgerEntry(ctx context.Context, db *gorm.DB, entry *LedgerEntry) error
	ListLedger(ctx context.Context, db *gorm.DB, userID string, limit int) ([]LedgerEntry, error)
}

var (
	ErrInvalidUserID = errors.New("invalid_user_id")
	ErrInvalidDelta  = errors.New("invalid_delta")
	ErrNoCounter     = errors.New("no_counter_registered")
)
