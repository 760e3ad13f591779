package user_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"lunch-voting/internal/auth"
	"lunch-voting/internal/database"
	"lunch-voting/internal/logger"
	"lunch-voting/internal/models"
	"lunch-voting/internal/user"
	"lunch-voting/internal/user/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"
)

func setupService(t *testing.T) (*user.Service, *auth.Issuer) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })
	require.NoError(t, database.CreateSchema(context.Background(), bunDB))

	issuer, err := auth.NewIssuer("secret", time.Hour, time.Hour)
	require.NoError(t, err)
	svc := user.NewService(&db.DB{Bun: bunDB}, issuer, logger.New(io.Discard, "test"))
	svc.Cost = bcrypt.MinCost
	return svc, issuer
}

func TestRegisterAndLogin(t *testing.T) {
	svc, issuer := setupService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "s3cret-pass"}, false)
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)

	p, err := issuer.Verify(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.False(t, p.Admin)
	assert.NotEmpty(t, p.UserID)

	pair, err := svc.Login(ctx, models.TokenRequest{Username: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)
	again, err := issuer.Verify(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, p.UserID, again.UserID)

	_, err = svc.Login(ctx, models.TokenRequest{Username: "alice", Password: "wrong-pass"})
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
	_, err = svc.Login(ctx, models.TokenRequest{Username: "nobody", Password: "whatever1"})
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	refreshed, err := svc.Refresh(models.RefreshRequest{Refresh: pair.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Empty(t, refreshed.RefreshToken)
}

func TestRegisterAdmin(t *testing.T) {
	svc, issuer := setupService(t)
	resp, err := svc.Register(context.Background(), models.RegisterRequest{Username: "root", Email: "root@example.com", Password: "supersecret"}, true)
	require.NoError(t, err)

	p, err := issuer.Verify(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, p.Admin)
}

func TestRegisterRejects(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "s3cret-pass"}, false)
	require.NoError(t, err)

	_, err = svc.Register(ctx, models.RegisterRequest{Username: "alice", Email: "other@example.com", Password: "s3cret-pass"}, false)
	assert.ErrorIs(t, err, user.ErrUsernameTaken)

	_, err = svc.Register(ctx, models.RegisterRequest{Username: "bob", Email: "ALICE@example.com", Password: "s3cret-pass"}, false)
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	_, err = svc.Register(ctx, models.RegisterRequest{Username: "", Email: "nope", Password: "short"}, false)
	var verr *user.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 3)
}
