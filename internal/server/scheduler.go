package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/docketwatch/docketwatch/internal/monitor"
	"github.com/docketwatch/docketwatch/internal/store"
)

const schedulerLockKey = "sched:lock:monitor"

// Scheduler fires collection runs on a cron schedule. When Redis is
// configured, a SetNX lock keeps replicated instances from running the
// same cycle twice.
type Scheduler struct {
	Cron    string
	Store   *store.Store
	Monitor *monitor.Monitor
	Rdb     *redis.Client
	Stop    chan struct{}
	logger  *log.Logger
}

func (s *Scheduler) Start() {
	s.logger = log.New(log.Writer(), "[SCHED] ", log.LstdFlags)
	ticker := time.NewTicker(1 * time.Minute)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) tick() {
	ctx := context.Background()

	var last *time.Time
	if s.Store != nil {
		t, err := s.Store.LatestRunTime(ctx)
		if err != nil {
			s.logger.Printf("latest run time: %v", err)
		} else {
			last = t
		}
	}
	if !isDue(s.Cron, last) {
		return
	}

	if s.Rdb != nil {
		ok, err := s.Rdb.SetNX(ctx, schedulerLockKey, "1", 10*time.Minute).Result()
		if err != nil {
			s.logger.Printf("scheduler lock: %v", err)
			return
		}
		if !ok {
			return
		}
		defer s.Rdb.Del(ctx, schedulerLockKey)
	}

	if _, err := s.Monitor.RunOnce(ctx); err != nil {
		s.logger.Printf("run failed: %v", err)
	}
}

// isDue determines whether a run should fire now given the cron spec and
// the last run time. Supports "@daily", "@hourly", and standard 5-field
// cron expressions; an invalid expression falls back to @daily.
func isDue(cronSpec string, last *time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			if last == nil {
				return true
			}
			return now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			return true
		}
		next := expr.Next(*last)
		return !next.After(now)
	}
}
