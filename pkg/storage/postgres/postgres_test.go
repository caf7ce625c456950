package postgres

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rhuss/accolade/pkg/storage"
)

// setupTestDB starts a PostgreSQL container and returns a migrated Store.
// Tests are skipped when no container runtime is available.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("accolade_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       5,
		MinConns:       1,
		MigrateOnStart: true,
	})
	require.NoError(t, err, "creating store")
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func makeTestUser(suffix string) *storage.User {
	return &storage.User{
		UserKey:      "k" + suffix,
		Username:     "user_" + suffix,
		Email:        "user_" + suffix + "@example.com",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		PasswordHash: "$2a$04$notarealhash",
		Authorities:  []string{"ROLE_USER", "ROLE_ADMIN"},
	}
}

func uniqueSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano()%1_000_000_000)
}

func TestPostgres_CreateAndFind(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	u := makeTestUser(uniqueSuffix())
	require.NoError(t, store.CreateUser(ctx, u))
	require.NotEmpty(t, u.ID)

	got, err := store.FindByUsername(ctx, u.Username)
	require.NoError(t, err)

	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.UserKey, got.UserKey)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, "Ada", got.FirstName)
	assert.Equal(t, "Lovelace", got.LastName)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.Equal(t, []string{"ROLE_USER", "ROLE_ADMIN"}, got.Authorities)
	assert.WithinDuration(t, u.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestPostgres_FindNotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.FindByUsername(context.Background(), "nobody_"+uniqueSuffix())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPostgres_DuplicateCreate(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	suffix := uniqueSuffix()
	require.NoError(t, store.CreateUser(ctx, makeTestUser(suffix)))

	dup := makeTestUser(suffix)
	assert.ErrorIs(t, store.CreateUser(ctx, dup), storage.ErrConflict)

	sameEmail := makeTestUser(suffix + "x")
	sameEmail.Email = "USER_" + suffix + "@EXAMPLE.COM"
	assert.ErrorIs(t, store.CreateUser(ctx, sameEmail), storage.ErrConflict)
}

func TestPostgres_MigrationsIdempotent(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.migrate(ctx))

	applied, err := store.migrationApplied(ctx, 1)
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestPostgres_ConcurrentLookups(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	u := makeTestUser(uniqueSuffix())
	require.NoError(t, store.CreateUser(ctx, u))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := store.FindByUsername(ctx, u.Username)
			if err != nil {
				t.Errorf("FindByUsername: %v", err)
				return
			}
			if got.UserKey != u.UserKey {
				t.Errorf("UserKey = %q, want %q", got.UserKey, u.UserKey)
			}
		}()
	}
	wg.Wait()
}

func TestPostgres_HealthCheck(t *testing.T) {
	store := setupTestDB(t)
	assert.NoError(t, store.HealthCheck(context.Background()))
}

func TestPendingMigrations_Ordered(t *testing.T) {
	migrations, err := pendingMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	assert.Equal(t, 1, migrations[0].version)
	assert.Equal(t, "001_create_users.sql", migrations[0].name)
	for i := 1; i < len(migrations); i++ {
		assert.Less(t, migrations[i-1].version, migrations[i].version)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{MinConns: 50}
	cfg.defaults()

	assert.Equal(t, int32(10), cfg.MaxConns)
	assert.Equal(t, int32(10), cfg.MinConns, "MinConns is capped at MaxConns")
	assert.Equal(t, 30*time.Minute, cfg.MaxConnLifetime)
}
