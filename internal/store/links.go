package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
)

// Link is an outbound URL with its click count.
type Link struct {
	Code      string    `json:"code"`
	Label     string    `json:"label"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	Clicks    int64     `json:"clicks"`
}

// SyncLinks upserts links by code, keeping existing click counts.
func (s *Store) SyncLinks(ctx context.Context, links []Link) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin link sync")
	}
	defer tx.Rollback()

	now := s.now().Unix()
	for _, l := range links {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO links (code, label, url, created_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(code) DO UPDATE SET label = excluded.label, url = excluded.url`,
			l.Code, l.Label, l.URL, now)
		if err != nil {
			return errors.Wrapf(err, "failed to sync link %s", l.Code)
		}
	}
	return errors.Wrap(tx.Commit(), "failed to commit link sync")
}

// FollowLink counts a click on code and returns its target.
func (s *Store) FollowLink(ctx context.Context, code string) (string, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE links SET clicks = clicks + 1 WHERE code = ?`, code)
	if err != nil {
		return "", errors.Wrap(err, "failed to count click")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", errors.Wrapf(ErrNotFound, "link %s", code)
	}

	var url string
	err = s.db.QueryRowContext(ctx, `SELECT url FROM links WHERE code = ?`, code).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.Wrapf(ErrNotFound, "link %s", code)
	}
	return url, errors.Wrap(err, "failed to load link")
}

// DeleteLink removes a link and its click history.
func (s *Store) DeleteLink(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM links WHERE code = ?`, code)
	if err != nil {
		return errors.Wrap(err, "failed to delete link")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(ErrNotFound, "link %s", code)
	}
	return nil
}

// Links returns links ordered by clicks, most clicked first. limit <= 0
// returns all of them.
func (s *Store) Links(ctx context.Context, limit int) ([]Link, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, label, url, created_at, clicks
		FROM links
		ORDER BY clicks DESC, created_at DESC, code
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query links")
	}
	defer rows.Close()

	var out []Link
	for rows.Next() {
		var l Link
		var created int64
		if err := rows.Scan(&l.Code, &l.Label, &l.URL, &created, &l.Clicks); err != nil {
			return nil, errors.Wrap(err, "failed to scan link")
		}
		l.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, l)
	}
	return out, errors.Wrap(rows.Err(), "failed to read links")
}
