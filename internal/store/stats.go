package store

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

const day = 24 * time.Hour

// Stats is the admin dashboard summary.
type Stats struct {
	TotalVisitors    int64      `json:"total_visitors"`
	UniqueVisitors   int64      `json:"unique_visitors"`
	TotalLinks       int64      `json:"total_links"`
	TotalClicks      int64      `json:"total_clicks"`
	TotalMessages    int64      `json:"total_messages"`
	VisitorsToday    int64      `json:"visitors_today"`
	VisitorsThisWeek int64      `json:"visitors_this_week"`
	TopLinks         []Link     `json:"top_links"`
	RecentVisitors   []Visitor  `json:"recent_visitors"`
	Daily            []DayCount `json:"daily"`
}

// DayCount is the number of page views on one UTC day.
type DayCount struct {
	Day    time.Time `json:"day"`
	Visits int64     `json:"visits"`
}

// Stats gathers the dashboard numbers.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	now := s.now().UTC()
	today := now.Truncate(day)
	stats := &Stats{}

	counters := []struct {
		dest  *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.TotalLinks, `SELECT COUNT(*) FROM links`, nil},
		{&stats.TotalClicks, `SELECT COALESCE(SUM(clicks), 0) FROM links`, nil},
		{&stats.TotalMessages, `SELECT COUNT(*) FROM messages`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE ts >= ?`, []any{today.Unix()}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE ts >= ?`, []any{now.Add(-7 * day).Unix()}},
	}
	for _, c := range counters {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return nil, errors.Wrapf(err, "failed to run %q", c.query)
		}
	}

	var err error
	if stats.TopLinks, err = s.Links(ctx, 10); err != nil {
		return nil, err
	}
	if stats.RecentVisitors, err = s.RecentVisitors(ctx, 50); err != nil {
		return nil, err
	}
	if stats.Daily, err = s.DailyVisitors(ctx, 30); err != nil {
		return nil, err
	}
	return stats, nil
}

// DailyVisitors returns one entry per UTC day for the last days days,
// oldest first, including days without visits.
func (s *Store) DailyVisitors(ctx context.Context, days int) ([]DayCount, error) {
	if days <= 0 {
		return nil, nil
	}
	today := s.now().UTC().Truncate(day)
	first := today.Add(-time.Duration(days-1) * day)

	rows, err := s.db.QueryContext(ctx, `
		SELECT ts / 86400 AS d, COUNT(*)
		FROM visitors
		WHERE ts >= ?
		GROUP BY d`, first.Unix())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query daily visitors")
	}
	defer rows.Close()

	counts := make(map[int64]int64)
	for rows.Next() {
		var d, n int64
		if err := rows.Scan(&d, &n); err != nil {
			return nil, errors.Wrap(err, "failed to scan daily visitors")
		}
		counts[d] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read daily visitors")
	}

	out := make([]DayCount, days)
	for i := range out {
		d := first.Add(time.Duration(i) * day)
		out[i] = DayCount{Day: d, Visits: counts[d.Unix()/86400]}
	}
	return out, nil
}
