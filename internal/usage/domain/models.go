package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
	"gorm.io/datatypes"
)

// LedgerEntry is one append-only usage record. Enforcement never reads it.
type LedgerEntry struct {
	ID            snowflake.ID          `gorm:"primaryKey" json:"id"`
	UserID        string                `gorm:"type:text;not null;index:ix_usage_ledger_user_recorded,priority:1" json:"user_id"`
	Action        plandomain.ActionType `gorm:"type:text;not null" json:"action"`
	ScopeID       *snowflake.ID         `json:"scope_id,omitempty"`
	Delta         int64                 `gorm:"not null" json:"delta"`
	CorrelationID string                `gorm:"type:text;not null" json:"correlation_id"`
	Metadata      datatypes.JSONMap     `gorm:"type:jsonb" json:"metadata,omitempty"`
	RecordedAt    time.Time             `gorm:"not null;index:ix_usage_ledger_user_recorded,priority:2" json:"recorded_at"`
	CreatedAt     time.Time             `json:"created_at"`
}

func (LedgerEntry) TableName() string { return "usage_ledger" }

// Query selects the rows that count as prior uses of an action.
type Query struct {
	UserID  string
	Action  plandomain.ActionType
	ScopeID *snowflake.ID
}
