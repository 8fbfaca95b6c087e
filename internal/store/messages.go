package store

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Message is a contact form submission.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	Delivered bool      `json:"delivered"`
}

// SaveMessage assigns an id and timestamp to m and stores it undelivered.
func (s *Store) SaveMessage(ctx context.Context, m Message) (Message, error) {
	m.ID = uuid.NewString()
	m.CreatedAt = s.now().UTC().Truncate(time.Second)
	m.Delivered = false

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, name, email, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Email, m.Body, m.CreatedAt.Unix())
	if err != nil {
		return Message{}, errors.Wrap(err, "failed to save message")
	}
	return m, nil
}

// MarkDelivered flags a message as mailed.
func (s *Store) MarkDelivered(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE messages SET delivered = 1 WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "failed to mark message delivered")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(ErrNotFound, "message %s", id)
	}
	return nil
}

// Messages returns stored submissions, newest first.
func (s *Store) Messages(ctx context.Context, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, body, created_at, delivered
		FROM messages
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query messages")
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var created int64
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Body, &created, &m.Delivered); err != nil {
			return nil, errors.Wrap(err, "failed to scan message")
		}
		m.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, m)
	}
	return out, errors.Wrap(rows.Err(), "failed to read messages")
}
