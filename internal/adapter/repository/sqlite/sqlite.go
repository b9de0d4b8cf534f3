// Package sqlite implements link storage on SQLite and libSQL.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/link-shortener/internal/entity"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func isUniqueViolationError(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	// The libSQL client reports constraint failures as plain text.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const linkColumns = `id, code, target_url, total_clicks, last_clicked_at, created_at, updated_at`

type linkDB struct {
	ID            int64        `db:"id"`
	Code          string       `db:"code"`
	TargetURL     string       `db:"target_url"`
	TotalClicks   int64        `db:"total_clicks"`
	LastClickedAt sql.NullTime `db:"last_clicked_at"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
}

func (l *linkDB) toEntity() *entity.Link {
	link := &entity.Link{
		ID:          l.ID,
		Code:        l.Code,
		TargetURL:   l.TargetURL,
		TotalClicks: l.TotalClicks,
		CreatedAt:   l.CreatedAt.UTC(),
		UpdatedAt:   l.UpdatedAt.UTC(),
	}

	if l.LastClickedAt.Valid {
		t := l.LastClickedAt.Time.UTC()
		link.LastClickedAt = &t
	}

	return link
}

type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) Save(ctx context.Context, code, targetURL string, createdAt time.Time) (*entity.Link, error) {
	const op = "adapter.repository.sqlite.LinkRepository.Save"
	const query = `INSERT INTO links(code, target_url, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		RETURNING ` + linkColumns

	var link linkDB

	createdAt = createdAt.UTC()

	if err := r.db.GetContext(ctx, &link, query, code, targetURL, createdAt, createdAt); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into links table: %w", op, err)
	}

	return link.toEntity(), nil
}

func (r *LinkRepository) RetrieveAll(ctx context.Context) ([]*entity.Link, error) {
	const op = "adapter.repository.sqlite.LinkRepository.RetrieveAll"
	const query = `SELECT ` + linkColumns + ` FROM links ORDER BY created_at DESC, id DESC`

	var rows []linkDB

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%s: failed to select from links table: %w", op, err)
	}

	links := make([]*entity.Link, 0, len(rows))
	for i := range rows {
		links = append(links, rows[i].toEntity())
	}

	return links, nil
}

func (r *LinkRepository) RetrieveByCode(ctx context.Context, code string) (*entity.Link, error) {
	const op = "adapter.repository.sqlite.LinkRepository.RetrieveByCode"
	const query = `SELECT ` + linkColumns + ` FROM links WHERE code = ?`

	var link linkDB

	if err := r.db.GetContext(ctx, &link, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from links table: %w", op, err)
	}

	return link.toEntity(), nil
}

// RecordClick counts one click on the link in a single statement, so that
// concurrent clicks never overwrite each other.
func (r *LinkRepository) RecordClick(ctx context.Context, code string, clickedAt time.Time) (*entity.Link, error) {
	const op = "adapter.repository.sqlite.LinkRepository.RecordClick"
	const query = `UPDATE links
		SET total_clicks = total_clicks + 1, last_clicked_at = ?, updated_at = ?
		WHERE code = ?
		RETURNING ` + linkColumns

	var link linkDB

	clickedAt = clickedAt.UTC()

	if err := r.db.GetContext(ctx, &link, query, clickedAt, clickedAt, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update links table row: %w", op, err)
	}

	return link.toEntity(), nil
}

func (r *LinkRepository) Remove(ctx context.Context, code string) error {
	const op = "adapter.repository.sqlite.LinkRepository.Remove"
	const query = `DELETE FROM links WHERE code = ?`

	res, err := r.db.ExecContext(ctx, query, code)
	if err != nil {
		return fmt.Errorf("%s: failed to delete from links table: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	return nil
}

func (r *LinkRepository) Ping(ctx context.Context) error {
	const op = "adapter.repository.sqlite.LinkRepository.Ping"

	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
