package users

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/foodorder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodorder-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(&User{}))
	return conn
}

func TestRepositoryCreateAndFind(t *testing.T) {
	repo := NewRepository(setupUsersTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserInput{Email: "  Juan@Example.com ", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "juan@example.com", created.Email)
	assert.Equal(t, enums.UserRoleCustomer, created.Role)

	byEmail, err := repo.FindByEmail(ctx, "JUAN@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", byID.PasswordHash)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.True(t, IsNotFound(err))
}

func TestRepositoryCreateDuplicateEmail(t *testing.T) {
	repo := NewRepository(setupUsersTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserInput{Email: "juan@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, CreateUserInput{Email: "JUAN@example.com", PasswordHash: "other"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestRepositoryUpdates(t *testing.T) {
	repo := NewRepository(setupUsersTestDB(t))
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserInput{Email: "juan@example.com", PasswordHash: "hash", Role: enums.UserRoleAdmin})
	require.NoError(t, err)

	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, at))
	require.NoError(t, repo.UpdatePasswordHash(ctx, user.ID, "rehashed"))

	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLoginAt)
	assert.True(t, reloaded.LastLoginAt.Equal(at))
	assert.Equal(t, "rehashed", reloaded.PasswordHash)
	assert.Equal(t, enums.UserRoleAdmin, reloaded.Role)

	assert.True(t, IsNotFound(repo.UpdatePasswordHash(ctx, uuid.New(), "x")))
}
