package rls

import (
	"context"
	"errors"
	"testing"

	"github.com/smallbiznis/eventtria/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTransactionScopesHandle(t *testing.T) {
	db := testutil.OpenSQLite(t)

	_, ok := ScopedUser(db)
	assert.False(t, ok, "plain handle is not scoped")

	var got string
	err := Transaction(context.Background(), db, " user-1 ", func(tx *gorm.DB) error {
		var ok bool
		got, ok = ScopedUser(tx)
		require.True(t, ok)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", got)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	db := testutil.OpenSQLite(t)
	require.NoError(t, db.Exec("CREATE TABLE notes (id INTEGER PRIMARY KEY)").Error)

	boom := errors.New("boom")
	err := Transaction(context.Background(), db, "user-1", func(tx *gorm.DB) error {
		require.NoError(t, tx.Exec("INSERT INTO notes (id) VALUES (1)").Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM notes").Scan(&count).Error)
	assert.Zero(t, count)
}

func TestWithUserIgnoresOtherDialects(t *testing.T) {
	db := testutil.OpenSQLite(t)
	assert.NoError(t, WithUser(db, "user-1"))
	assert.NoError(t, WithUser(nil, "user-1"))
}
