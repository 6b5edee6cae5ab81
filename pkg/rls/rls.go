package rls

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type scopedUserKey struct{}

// WithUser scopes row level security policies in the current transaction to
// userID. Dialects other than PostgreSQL have no policies and are left untouched.
func WithUser(tx *gorm.DB, userID string) error {
	if tx == nil || tx.Dialector == nil || tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec(
		"SELECT set_config('app.current_user_id', ?, true)",
		strings.TrimSpace(userID),
	).Error
}

// Transaction runs fn inside a transaction scoped to userID. Reads of owner
// rows must go through it, otherwise the policies hide every row.
func Transaction(ctx context.Context, db *gorm.DB, userID string, fn func(tx *gorm.DB) error) error {
	ctx = context.WithValue(ctx, scopedUserKey{}, strings.TrimSpace(userID))
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := WithUser(tx, userID); err != nil {
			return fmt.Errorf("scope transaction: %w", err)
		}
		return fn(tx)
	})
}

// ScopedUser returns the user a handle opened by Transaction is scoped to.
func ScopedUser(db *gorm.DB) (string, bool) {
	if db == nil || db.Statement == nil || db.Statement.Context == nil {
		return "", false
	}
	if _, ok := db.Statement.ConnPool.(gorm.TxCommitter); !ok {
		return "", false
	}
	userID, ok := db.Statement.Context.Value(scopedUserKey{}).(string)
	return userID, ok && userID != ""
}
