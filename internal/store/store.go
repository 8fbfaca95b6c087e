// Package store persists visitor metrics, outbound link clicks and contact
// messages in SQLite.
//
// Visitor IPs are never written as-is: they are salted and hashed, and the
// salt is regenerated on every start unless one is configured, so hashes can
// only be correlated within one process lifetime.
package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row addressed by key does not exist.
var ErrNotFound = errors.New("not found")

// Options tweaks how a Store is opened.
type Options struct {
	// Salt for IP hashing; random when empty.
	Salt string
	// Now overrides the clock, for tests.
	Now func() time.Time
}

type Store struct {
	db   *sql.DB
	salt string
	now  func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS visitors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	hashed_ip TEXT NOT NULL,
	user_agent TEXT,
	path TEXT,
	ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS visitors_ts ON visitors (ts);

CREATE TABLE IF NOT EXISTS links (
	code TEXT PRIMARY KEY,
	label TEXT NOT NULL,
	url TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	clicks INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	delivered INTEGER NOT NULL DEFAULT 0
);
`

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// SQLite allows one writer; a single connection also keeps :memory: coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to configure database")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create schema")
	}

	s := &Store{db: db, salt: opts.Salt, now: opts.Now}
	if s.salt == "" {
		s.salt, err = randomHex(32)
		if err != nil {
			db.Close()
			return nil, errors.Wrap(err, "failed to generate hashing salt")
		}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// HashIP returns a 16-hex-character salted digest of ip.
func (s *Store) HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + s.salt))
	return hex.EncodeToString(sum[:])[:16]
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// RandomToken returns a 64-character hex token.
func RandomToken() (string, error) {
	return randomHex(32)
}
