package repository

import (
	"context"
	"testing"

	accountdomain "github.com/smallbiznis/eventtria/internal/account/domain"
	"github.com/smallbiznis/eventtria/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.OpenSQLite(t, &accountdomain.AccountStatus{})
}

func TestEnsureIsIdempotent(t *testing.T) {
	db := setupDB(t)
	r := Provide()
	ctx := context.Background()

	require.NoError(t, r.Ensure(ctx, db, "u1"))
	require.NoError(t, r.Ensure(ctx, db, "u1"))

	var count int64
	require.NoError(t, db.Model(&accountdomain.AccountStatus{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	status, err := r.FindByUserID(ctx, db, "u1")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.True(t, status.NewAccount)
}

func TestConsumeNewAccountOnlyOnce(t *testing.T) {
	db := setupDB(t)
	r := Provide()
	ctx := context.Background()
	require.NoError(t, r.Ensure(ctx, db, "u1"))

	first, err := r.ConsumeNewAccount(ctx, db, "u1")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := r.ConsumeNewAccount(ctx, db, "u1")
	require.NoError(t, err)
	assert.False(t, second)

	status, err := r.FindByUserID(ctx, db, "u1")
	require.NoError(t, err)
	assert.False(t, status.NewAccount)
}

func TestFindByUserIDMissing(t *testing.T) {
	status, err := Provide().FindByUserID(context.Background(), setupDB(t), "ghost")
	require.NoError(t, err)
	assert.Nil(t, status)
}
