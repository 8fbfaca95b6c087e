package site

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule validates a maintenance schedule such as "@daily" or
// "30 3 * * *".
func ParseSchedule(expr string) (cron.Schedule, error) {
	sched, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid cleanup schedule %q", expr)
	}
	return sched, nil
}

// startMaintenance schedules the visitor retention cleanup. Stop the returned
// cron to end it.
func (s *Server) startMaintenance() (*cron.Cron, error) {
	sched, err := ParseSchedule(s.cfg.Storage.CleanupSchedule)
	if err != nil {
		return nil, err
	}

	c := cron.New(cron.WithLocation(time.UTC), cron.WithParser(scheduleParser))
	c.Schedule(sched, cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.cleanup(ctx)
	}))
	c.Start()

	// a restart should not postpone the first cleanup by a whole period
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.cleanup(ctx)
	}()

	s.log.Info().
		Str("schedule", s.cfg.Storage.CleanupSchedule).
		Time("next", sched.Next(time.Now().UTC())).
		Msg("Visitor cleanup scheduled")
	return c, nil
}

// stopMaintenance halts the schedule and waits for a cleanup that is already
// running, so it never outlives the store.
func stopMaintenance(c *cron.Cron) {
	<-c.Stop().Done()
}

// retention is how long page views are kept.
func (s *Server) retention() time.Duration {
	return time.Duration(s.cfg.Storage.RetentionDays) * 24 * time.Hour
}

func (s *Server) cleanup(ctx context.Context) (int64, error) {
	n, err := s.store.Cleanup(ctx, s.retention())
	if err != nil {
		s.log.Error().Err(err).Msg("Error cleaning up old visitor data")
		return 0, err
	}
	if n > 0 {
		s.log.Info().Int64("removed", n).Int("days", s.cfg.Storage.RetentionDays).Msg("Privacy cleanup: removed old visitor records")
	}
	return n, nil
}
