package db

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"autoservice-dashboard/config"
	"autoservice-dashboard/internal/model"
)

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := Init(&config.DatabaseConfig{DSN: dsn, MaxOpenConns: 1, MaxIdleConns: 1}, nil)
	require.NoError(t, err)
	return db
}

func TestDialector(t *testing.T) {
	assert.Equal(t, "postgres", Dialector("postgres://u:p@localhost/db").Name())
	assert.Equal(t, "postgres", Dialector("host=localhost user=u dbname=db").Name())
	assert.Equal(t, "sqlite", Dialector("dashboard.db").Name())
}

func TestSessionRepository(t *testing.T) {
	repo := NewSessionRepository(newSQLiteDB(t))

	token, user, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)

	require.NoError(t, repo.Save("tok-1", &model.User{ID: 3, Email: "a@b.io", Role: model.RoleCustomer}))
	require.NoError(t, repo.Save("tok-2", &model.User{ID: 3, Email: "a@b.io", Role: model.RoleAdmin}))

	token, user, err = repo.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)
	require.NotNil(t, user)
	assert.Equal(t, model.RoleAdmin, user.Role)

	require.NoError(t, repo.Clear())
	token, _, err = repo.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSubscriptionRepository(t *testing.T) {
	repo := NewSubscriptionRepository(newSQLiteDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &model.PushSubscription{Endpoint: "https://push/1", P256DH: "k1", Auth: "a1"}))
	require.NoError(t, repo.Upsert(ctx, &model.PushSubscription{Endpoint: "https://push/1", P256DH: "k2", Auth: "a2"}))
	require.NoError(t, repo.Upsert(ctx, &model.PushSubscription{Endpoint: "https://push/2", P256DH: "k3", Auth: "a3"}))

	sub, err := repo.Get(ctx, "https://push/1")
	require.NoError(t, err)
	assert.Equal(t, "k2", sub.P256DH)

	subs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 2)

	require.NoError(t, repo.Delete(ctx, "https://push/1"))
	_, err = repo.Get(ctx, "https://push/1")
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestSessionRepository_LoadError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "session_records" WHERE name = $1`)).
		WillReturnError(fmt.Errorf("connection reset"))

	_, _, err = NewSessionRepository(gormDB).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}
