// Package worker runs background jobs over asynq.  The only job today
// is the periodic lock reclaim that flips expired seat locks back to
// AVAILABLE in bulk.  Reads never depend on the sweep; it exists to
// keep the table tidy and the availability counters cheap.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeLockReclaim = "locks:reclaim"

// LockReclaimPayload is the task payload for a reclaim sweep.  Scope
// is "all" today; a future sharded sweep could carry a show id.
type LockReclaimPayload struct {
	Scope string `json:"scope"`
}

// Reclaimer releases expired seat locks.  Satisfied by booking.Service.
type Reclaimer interface {
	ReclaimExpired(ctx context.Context) (int64, error)
}

// Worker owns the asynq server and scheduler for background jobs.
type Worker struct {
	redisOpt asynq.RedisClientOpt
	reclaim  Reclaimer
	interval time.Duration
	logger   *zap.Logger
}

// New returns a Worker sweeping expired locks on the given interval.
func New(redisAddr string, reclaim Reclaimer, interval time.Duration, logger *zap.Logger) *Worker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Worker{
		redisOpt: asynq.RedisClientOpt{Addr: redisAddr},
		reclaim:  reclaim,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the scheduler and the task server.  It blocks until the
// server stops, so callers usually run it in a goroutine.
func (w *Worker) Run() error {
	srv := asynq.NewServer(
		w.redisOpt,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeLockReclaim, w.handleLockReclaim)

	scheduler := asynq.NewScheduler(w.redisOpt, nil)

	payload, _ := json.Marshal(LockReclaimPayload{Scope: "all"})
	if _, err := scheduler.Register(cronSpec(w.interval), asynq.NewTask(TypeLockReclaim, payload)); err != nil {
		return err
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			w.logger.Error("lock reclaim scheduler stopped", zap.Error(err))
		}
	}()

	return srv.Run(mux)
}

func (w *Worker) handleLockReclaim(ctx context.Context, t *asynq.Task) error {
	var payload LockReclaimPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}
	_, err := w.reclaim.ReclaimExpired(ctx)
	return err
}

// cronSpec renders the sweep interval as a crontab entry.  asynq's
// scheduler speaks cron, which caps the resolution at one minute.
func cronSpec(interval time.Duration) string {
	mins := int(interval / time.Minute)
	if mins <= 1 {
		return "*/1 * * * *"
	}
	if mins > 59 {
		mins = 59
	}
	return fmt.Sprintf("*/%d * * * *", mins)
}
