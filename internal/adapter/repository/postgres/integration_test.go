//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vadimbarashkov/link-shortener/internal/config"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
	"github.com/vadimbarashkov/link-shortener/migrations"

	pgdb "github.com/vadimbarashkov/link-shortener/pkg/postgres"
)

func setupPostgres(t testing.TB) config.Postgres {
	t.Helper()

	ctx := context.Background()

	pgUser := "test"
	pgPassword := "test"
	pgDB := "link_shortener"

	pgCont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "postgres:16-alpine",
			Env: map[string]string{
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
				"POSTGRES_DB":       pgDB,
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgCont.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate postgres container: %v", err)
		}
	})

	pgHost, err := pgCont.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	pgPort, err := pgCont.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	return config.Postgres{
		User:     pgUser,
		Password: pgPassword,
		Host:     pgHost,
		Port:     pgPort.Int(),
		DB:       pgDB,
		SSLMode:  "disable",
	}
}

func setupLinkRepository(t testing.TB) (*LinkRepository, *sqlx.DB) {
	t.Helper()

	cfg := setupPostgres(t)

	if err := pgdb.RunMigrations(migrations.FS, migrations.PostgresDir, cfg.DSN()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	db, err := pgdb.New(context.Background(), cfg.DSN())
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("Failed to close database: %v", err)
		}
	})

	return NewLinkRepository(db), db
}

func truncateLinks(t testing.TB, db *sqlx.DB) {
	t.Helper()

	if _, err := db.Exec("TRUNCATE TABLE links RESTART IDENTITY"); err != nil {
		t.Fatalf("Failed to truncate links: %v", err)
	}
}

func TestLinkRepository_Integration(t *testing.T) {
	repo, db := setupLinkRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("save and conflict", func(t *testing.T) {
		truncateLinks(t, db)

		link, err := repo.Save(ctx, "ABC123", "https://example.com", now)
		require.NoError(t, err)
		assert.Equal(t, "ABC123", link.Code)
		assert.Zero(t, link.TotalClicks)
		assert.Nil(t, link.LastClickedAt)
		assert.True(t, now.Equal(link.CreatedAt))

		_, err = repo.Save(ctx, "ABC123", "https://other.example.com", now)
		assert.ErrorIs(t, err, entity.ErrCodeExists)
	})

	t.Run("list newest first", func(t *testing.T) {
		truncateLinks(t, db)

		for i, code := range []string{"AAAAAA", "BBBBBB", "CCCCCC"} {
			_, err := repo.Save(ctx, code, "https://example.com", now.Add(time.Duration(i)*time.Second))
			require.NoError(t, err)
		}

		links, err := repo.RetrieveAll(ctx)
		require.NoError(t, err)
		require.Len(t, links, 3)
		assert.Equal(t, "CCCCCC", links[0].Code)
		assert.Equal(t, "BBBBBB", links[1].Code)
		assert.Equal(t, "AAAAAA", links[2].Code)
	})

	t.Run("record click on unknown code", func(t *testing.T) {
		truncateLinks(t, db)

		_, err := repo.RecordClick(ctx, "ABC123", now)
		assert.ErrorIs(t, err, entity.ErrLinkNotFound)
	})

	t.Run("concurrent clicks are all counted", func(t *testing.T) {
		truncateLinks(t, db)

		const clicks = 100

		_, err := repo.Save(ctx, "ABC123", "https://example.com", now)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < clicks; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.RecordClick(ctx, "ABC123", time.Now().UTC())
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		link, err := repo.RetrieveByCode(ctx, "ABC123")
		require.NoError(t, err)
		assert.Equal(t, int64(clicks), link.TotalClicks)
		assert.NotNil(t, link.LastClickedAt)
	})

	t.Run("remove", func(t *testing.T) {
		truncateLinks(t, db)

		_, err := repo.Save(ctx, "ABC123", "https://example.com", now)
		require.NoError(t, err)

		require.NoError(t, repo.Remove(ctx, "ABC123"))

		_, err = repo.RetrieveByCode(ctx, "ABC123")
		assert.ErrorIs(t, err, entity.ErrLinkNotFound)

		assert.ErrorIs(t, repo.Remove(ctx, "ABC123"), entity.ErrLinkNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, repo.Ping(ctx))
	})
}
