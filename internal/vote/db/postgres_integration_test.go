package db_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lunch-voting/internal/config"
	"lunch-voting/internal/database"
	"lunch-voting/internal/database/migrations"
	"lunch-voting/internal/logger"
	"lunch-voting/internal/models"
	"lunch-voting/internal/vote"
	"lunch-voting/internal/vote/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
)

// setupPostgres starts a throwaway postgres and applies the SQL migrations.
// Needs docker; runs only with INTEGRATION=1.
func setupPostgres(t *testing.T) *bun.DB {
	if os.Getenv("INTEGRATION") != "1" || testing.Short() {
		t.Skip("set INTEGRATION=1 to run postgres tests")
	}

	ctx := context.Background()
	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "voting",
				"POSTGRES_PASSWORD": "voting",
				"POSTGRES_DB":       "lunch_voting",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { pg.Terminate(ctx) })

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432")
	require.NoError(t, err)

	log := logger.New(io.Discard, "test")
	bunDB, err := database.Connect(ctx, config.DatabaseConfig{
		DSN:            fmt.Sprintf("postgres://voting:voting@%s:%s/lunch_voting?sslmode=disable", host, port.Port()),
		MaxOpenConns:   10,
		MaxIdleConns:   10,
		MaxLifetime:    time.Minute,
		ConnectRetries: 5,
	}, log)
	require.NoError(t, err)

	runner := migrations.NewRunner(bunDB, migrations.Options{MigrationsDir: "../../../migrations"}, log)
	require.NoError(t, runner.Up())
	version, dirty, err := runner.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	t.Cleanup(func() {
		runner.Close()
		bunDB.Close()
	})
	return bunDB
}

func seedPostgresMenu(t *testing.T, bunDB *bun.DB, name string, date time.Time) models.Menu {
	ctx := context.Background()
	r := &models.Restaurant{Name: name, OwnerID: "owner"}
	_, err := bunDB.NewInsert().Model(r).Exec(ctx)
	require.NoError(t, err)
	m := models.Menu{RestaurantID: r.ID, Date: date}
	_, err = bunDB.NewInsert().Model(&m).Exec(ctx)
	require.NoError(t, err)
	return m
}

func TestPostgresConcurrentDuplicateVotes(t *testing.T) {
	bunDB := setupPostgres(t)
	ledger := &db.DB{Bun: bunDB}
	menu := seedPostgresMenu(t, bunDB, "Concurrent", today)

	var accepted, duplicates atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Record(context.Background(), "u1", menu.ID, time.Now())
			switch {
			case err == nil:
				accepted.Add(1)
			case assert.ErrorIs(t, err, vote.ErrDuplicateVote):
				duplicates.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
	assert.Equal(t, int32(19), duplicates.Load())
}

func TestPostgresAggregateByDate(t *testing.T) {
	bunDB := setupPostgres(t)
	ledger := &db.DB{Bun: bunDB}
	ctx := context.Background()

	m1 := seedPostgresMenu(t, bunDB, "A", today)
	m2 := seedPostgresMenu(t, bunDB, "B", today)
	yesterday := seedPostgresMenu(t, bunDB, "C", today.AddDate(0, 0, -1))

	for _, v := range []struct {
		user string
		menu int64
	}{{"u1", m2.ID}, {"u2", m2.ID}, {"u3", m1.ID}, {"u1", yesterday.ID}} {
		_, err := ledger.Record(ctx, v.user, v.menu, time.Now())
		require.NoError(t, err)
	}

	counts, err := ledger.AggregateByDate(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, []models.VoteCount{
		{MenuID: m1.ID, RestaurantID: m1.RestaurantID, VoteCount: 1},
		{MenuID: m2.ID, RestaurantID: m2.RestaurantID, VoteCount: 2},
	}, counts)
}
