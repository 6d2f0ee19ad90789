package statsync

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	playerSyncHour = 3 // daily, after Sleeper's own overnight refresh
	statSyncHour   = 4 // Tuesdays, once Monday night stats settle
)

// Scheduler runs the recurring syncs: the player catalog every day, the
// current week's stats every Tuesday. The clock is injected so tests can
// drive it.
type Scheduler struct {
	svc   *Service
	clock clockwork.Clock
	log   *zap.Logger
}

func NewScheduler(svc *Service, clock clockwork.Clock, log *zap.Logger) *Scheduler {
	return &Scheduler{svc: svc, clock: clock, log: log}
}

func (s *Scheduler) Run(ctx context.Context) {
	playerTimer := s.clock.NewTimer(untilNextDaily(s.clock.Now(), playerSyncHour))
	statTimer := s.clock.NewTimer(untilNextWeekly(s.clock.Now(), time.Tuesday, statSyncHour))
	defer playerTimer.Stop()
	defer statTimer.Stop()

	s.log.Info("schedulers started")

	for {
		select {
		case <-ctx.Done():
			return

		case <-playerTimer.Chan():
			if _, err := s.svc.SyncPlayers(ctx); err != nil {
				s.log.Error("scheduled player sync failed", zap.Error(err))
			}
			playerTimer.Reset(untilNextDaily(s.clock.Now(), playerSyncHour))

		case <-statTimer.Chan():
			now := s.clock.Now()
			if _, err := s.svc.SyncWeekStats(ctx, now.Year(), CurrentWeek(now)); err != nil {
				s.log.Error("scheduled stats sync failed", zap.Error(err))
			}
			statTimer.Reset(untilNextWeekly(s.clock.Now(), time.Tuesday, statSyncHour))
		}
	}
}

// CurrentWeek estimates the NFL week in progress, anchored on a Sept 5
// season start and capped at week 18.
func CurrentWeek(now time.Time) int {
	seasonStart := time.Date(now.Year(), time.September, 5, 0, 0, 0, 0, now.Location())
	diff := now.Sub(seasonStart)
	if diff < 0 {
		diff = -diff
	}
	week := int((diff + 7*24*time.Hour - time.Nanosecond) / (7 * 24 * time.Hour))
	if week < 1 {
		week = 1
	}
	if week > 18 {
		week = 18
	}
	return week
}

func untilNextDaily(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

func untilNextWeekly(now time.Time, weekday time.Weekday, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	for next.Weekday() != weekday || !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
