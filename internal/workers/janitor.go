// internal/workers/janitor.go
//
// Package workers runs the background janitor: a scheduled sweep that
// finalizes lobbies which have sat empty past the idle timeout, so crashed
// game processes cannot leak live state forever.
package workers

import (
	"context"
	"os"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
	"github.com/starforge-games/liveops/internal/engine"
)

const (
	defaultInterval    = 1 * time.Minute
	defaultIdleTimeout = 10 * time.Minute
)

// Janitor owns the scheduler lifecycle.
type Janitor struct {
	engine   *engine.Engine
	log      *logrus.Logger
	sched    gocron.Scheduler
	interval time.Duration
	idleFor  time.Duration
}

// NewJanitor configures a janitor from JANITOR_INTERVAL and
// LOBBY_IDLE_TIMEOUT (Go duration strings, e.g. "30s", "10m").
func NewJanitor(e *engine.Engine, log *logrus.Logger) (*Janitor, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Janitor{
		engine:   e,
		log:      log,
		sched:    sched,
		interval: envDuration("JANITOR_INTERVAL", defaultInterval),
		idleFor:  envDuration("LOBBY_IDLE_TIMEOUT", defaultIdleTimeout),
	}, nil
}

// Start schedules the sweep and begins running it.
func (j *Janitor) Start(ctx context.Context) error {
	_, err := j.sched.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(func() {
			reaped, err := j.engine.ReapIdleLobbies(ctx, j.idleFor)
			if err != nil {
				j.log.Warnf("janitor sweep failed: %v", err)
				return
			}
			if reaped > 0 {
				j.log.WithField("reaped", reaped).Info("janitor reaped idle lobbies")
			}
		}),
	)
	if err != nil {
		return err
	}
	j.sched.Start()
	j.log.WithFields(logrus.Fields{
		"interval":     j.interval.String(),
		"idle_timeout": j.idleFor.String(),
	}).Info("janitor started")
	return nil
}

// Stop shuts the scheduler down, waiting for a running sweep to finish.
func (j *Janitor) Stop() error {
	return j.sched.Shutdown()
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
