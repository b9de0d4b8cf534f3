package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
)

func TestIsUniqueViolationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "unique violation error",
			err:  &pgconn.PgError{Code: uniqueViolationErrCode},
			want: true,
		},
		{
			name: "wrapped unique violation error",
			err:  fmt.Errorf("insert: %w", &pgconn.PgError{Code: uniqueViolationErrCode}),
			want: true,
		},
		{
			name: "not unique violation error",
			err:  &pgconn.PgError{Code: "23502"},
			want: false,
		},
		{
			name: "not PgError",
			err:  errors.New("unknown error"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolationError(tt.err))
		})
	}
}

type LinkRepositoryTestSuite struct {
	suite.Suite
	errUnknown      error
	errAffectedRows error
	columns         []string
	now             time.Time
	mock            sqlmock.Sqlmock
	repo            *LinkRepository
}

func (suite *LinkRepositoryTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
	suite.errAffectedRows = errors.New("affected rows error")
	suite.columns = []string{"id", "code", "target_url", "total_clicks", "last_clicked_at", "created_at", "updated_at"}
	suite.now = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
}

func (suite *LinkRepositoryTestSuite) SetupSubTest() {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		suite.T().Fatalf("Failed to create mock database: %v", err)
	}
	suite.T().Cleanup(func() {
		mockDB.Close()
	})

	db := sqlx.NewDb(mockDB, "sqlmock")

	suite.mock = mock
	suite.repo = NewLinkRepository(db)
}

func (suite *LinkRepositoryTestSuite) TearDownSubTest() {
	suite.NoError(suite.mock.ExpectationsWereMet())
}

func (suite *LinkRepositoryTestSuite) TestSave() {
	suite.Run("code exists", func() {
		suite.mock.ExpectQuery(`INSERT INTO links`).
			WithArgs("ABC123", "https://example.com", suite.now).
			WillReturnError(&pgconn.PgError{Code: uniqueViolationErrCode})

		link, err := suite.repo.Save(context.Background(), "ABC123", "https://example.com", suite.now)

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrCodeExists)
		suite.Nil(link)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`INSERT INTO links`).
			WithArgs("ABC123", "https://example.com", suite.now).
			WillReturnError(suite.errUnknown)

		link, err := suite.repo.Save(context.Background(), "ABC123", "https://example.com", suite.now)

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(link)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow(1, "ABC123", "https://example.com", 0, nil, suite.now, suite.now)

		suite.mock.ExpectQuery(`INSERT INTO links`).
			WithArgs("ABC123", "https://example.com", suite.now).
			WillReturnRows(rows)

		link, err := suite.repo.Save(context.Background(), "ABC123", "https://example.com", suite.now)

		suite.NoError(err)
		suite.NotNil(link)
		suite.Equal(int64(1), link.ID)
		suite.Equal("ABC123", link.Code)
		suite.Equal("https://example.com", link.TargetURL)
		suite.Zero(link.TotalClicks)
		suite.Nil(link.LastClickedAt)
		suite.Equal(suite.now, link.CreatedAt)
	})
}

func (suite *LinkRepositoryTestSuite) TestRetrieveAll() {
	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM links ORDER BY created_at DESC, id DESC`).
			WillReturnError(suite.errUnknown)

		links, err := suite.repo.RetrieveAll(context.Background())

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(links)
	})

	suite.Run("empty", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM links ORDER BY created_at DESC, id DESC`).
			WillReturnRows(sqlmock.NewRows(suite.columns))

		links, err := suite.repo.RetrieveAll(context.Background())

		suite.NoError(err)
		suite.NotNil(links)
		suite.Empty(links)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow(2, "BBB222", "https://example.com/b", 3, suite.now, suite.now, suite.now).
			AddRow(1, "AAA111", "https://example.com/a", 0, nil, suite.now.Add(-time.Hour), suite.now.Add(-time.Hour))

		suite.mock.ExpectQuery(`SELECT (.+) FROM links ORDER BY created_at DESC, id DESC`).
			WillReturnRows(rows)

		links, err := suite.repo.RetrieveAll(context.Background())

		suite.NoError(err)
		suite.Len(links, 2)
		suite.Equal("BBB222", links[0].Code)
		suite.Equal(int64(3), links[0].TotalClicks)
		suite.NotNil(links[0].LastClickedAt)
		suite.Equal("AAA111", links[1].Code)
		suite.Nil(links[1].LastClickedAt)
	})
}

func (suite *LinkRepositoryTestSuite) TestRetrieveByCode() {
	suite.Run("link not found", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM links WHERE code = \$1`).
			WithArgs("ABC123").
			WillReturnError(sql.ErrNoRows)

		link, err := suite.repo.RetrieveByCode(context.Background(), "ABC123")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrLinkNotFound)
		suite.Nil(link)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM links WHERE code = \$1`).
			WithArgs("ABC123").
			WillReturnError(suite.errUnknown)

		link, err := suite.repo.RetrieveByCode(context.Background(), "ABC123")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(link)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow(1, "ABC123", "https://example.com", 5, suite.now, suite.now, suite.now)

		suite.mock.ExpectQuery(`SELECT (.+) FROM links WHERE code = \$1`).
			WithArgs("ABC123").
			WillReturnRows(rows)

		link, err := suite.repo.RetrieveByCode(context.Background(), "ABC123")

		suite.NoError(err)
		suite.NotNil(link)
		suite.Equal("ABC123", link.Code)
		suite.Equal(int64(5), link.TotalClicks)
		suite.Equal(suite.now, *link.LastClickedAt)
	})
}

func (suite *LinkRepositoryTestSuite) TestRecordClick() {
	suite.Run("link not found", func() {
		suite.mock.ExpectQuery(`UPDATE links SET total_clicks = total_clicks \+ 1`).
			WithArgs("ABC123", suite.now).
			WillReturnError(sql.ErrNoRows)

		link, err := suite.repo.RecordClick(context.Background(), "ABC123", suite.now)

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrLinkNotFound)
		suite.Nil(link)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`UPDATE links SET total_clicks = total_clicks \+ 1`).
			WithArgs("ABC123", suite.now).
			WillReturnError(suite.errUnknown)

		link, err := suite.repo.RecordClick(context.Background(), "ABC123", suite.now)

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(link)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow(1, "ABC123", "https://example.com", 1, suite.now, suite.now, suite.now)

		suite.mock.ExpectQuery(`UPDATE links SET total_clicks = total_clicks \+ 1`).
			WithArgs("ABC123", suite.now).
			WillReturnRows(rows)

		link, err := suite.repo.RecordClick(context.Background(), "ABC123", suite.now)

		suite.NoError(err)
		suite.NotNil(link)
		suite.Equal("https://example.com", link.TargetURL)
		suite.Equal(int64(1), link.TotalClicks)
		suite.Equal(suite.now, *link.LastClickedAt)
	})
}

func (suite *LinkRepositoryTestSuite) TestRemove() {
	suite.Run("unknown error", func() {
		suite.mock.ExpectExec(`DELETE FROM links`).
			WithArgs("ABC123").
			WillReturnError(suite.errUnknown)

		err := suite.repo.Remove(context.Background(), "ABC123")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
	})

	suite.Run("rows affected error", func() {
		suite.mock.ExpectExec(`DELETE FROM links`).
			WithArgs("ABC123").
			WillReturnResult(sqlmock.NewErrorResult(suite.errAffectedRows))

		err := suite.repo.Remove(context.Background(), "ABC123")

		suite.Error(err)
		suite.ErrorIs(err, suite.errAffectedRows)
	})

	suite.Run("link not found", func() {
		suite.mock.ExpectExec(`DELETE FROM links`).
			WithArgs("ABC123").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := suite.repo.Remove(context.Background(), "ABC123")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrLinkNotFound)
	})

	suite.Run("success", func() {
		suite.mock.ExpectExec(`DELETE FROM links`).
			WithArgs("ABC123").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := suite.repo.Remove(context.Background(), "ABC123")

		suite.NoError(err)
	})
}

func (suite *LinkRepositoryTestSuite) TestPing() {
	suite.Run("unreachable", func() {
		suite.mock.ExpectPing().WillReturnError(suite.errUnknown)

		err := suite.repo.Ping(context.Background())

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
	})

	suite.Run("success", func() {
		suite.mock.ExpectPing()

		suite.NoError(suite.repo.Ping(context.Background()))
	})
}

func TestLinkRepository(t *testing.T) {
	suite.Run(t, new(LinkRepositoryTestSuite))
}
