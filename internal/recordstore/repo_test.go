package recordstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRecordsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&Record{}))
	return db
}

func TestRepositoryUpsertReplacesValue(t *testing.T) {
	repo := NewRepository(setupRecordsTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "orders/u1/o1", []byte(`{"status":"preparing"}`)))
	first, err := repo.Find(ctx, "orders/u1/o1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "orders/u1", first.Parent)

	require.NoError(t, repo.Upsert(ctx, "orders/u1/o1", []byte(`{"status":"on_route"}`)))
	second, err := repo.Find(ctx, "orders/u1/o1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"on_route"}`, string(second.Value))
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt), "created_at must be kept on replace")
}

func TestRepositoryFindMissing(t *testing.T) {
	repo := NewRepository(setupRecordsTestDB(t))
	rec, err := repo.Find(context.Background(), "users/nobody")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRepositoryListChildren(t *testing.T) {
	repo := NewRepository(setupRecordsTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "orders/u1/b", []byte(`{"n":2}`)))
	require.NoError(t, repo.Upsert(ctx, "orders/u1/a", []byte(`{"n":1}`)))
	require.NoError(t, repo.Upsert(ctx, "orders/u2/c", []byte(`{"n":3}`)))

	recs, err := repo.ListChildren(ctx, "orders/u1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "orders/u1/a", recs[0].Path)
	assert.Equal(t, "orders/u1/b", recs[1].Path)
}
