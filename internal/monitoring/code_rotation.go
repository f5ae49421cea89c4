package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/isdelr/timeshare-be/internal/logger"
	"github.com/isdelr/timeshare-be/internal/models"
	"github.com/isdelr/timeshare-be/internal/services"
	"github.com/isdelr/timeshare-be/internal/websocket"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultRotationInterval is how often sharing codes are replaced.
const DefaultRotationInterval = 5 * time.Minute

// StartPassTimeout bounds the pass Start runs on the caller's goroutine.
const StartPassTimeout = 30 * time.Second

// Notifier pushes a message to every connected client.
type Notifier interface {
	BroadcastAll(message []byte)
}

// CodeRotationController is the operator-facing control surface of the rotator.
type CodeRotationController interface {
	Start() models.RotationStatus
	Stop() models.RotationStatus
	Status() models.RotationStatus
}

// CodeRotator periodically replaces every user's sharing code. One instance
// is created per process; Start and Stop are idempotent.
type CodeRotator struct {
	sharingSvc services.SharingServiceProvider
	eventSvc   services.EventServiceProvider
	notifier   Notifier
	interval   time.Duration
	cronLog    cron.Logger

	startTimeout time.Duration

	mu        sync.Mutex // guards runner and the stats below
	runner    *cron.Cron
	passes    int64
	lastRunAt *time.Time
	lastErr   string

	// held for the duration of a pass so Stop can wait for it
	passMu sync.Mutex
}

// NewCodeRotator creates a stopped rotator. notifier and eventSvc may be nil.
// The interval is truncated to whole seconds, the resolution of the cron
// schedule, so Status reports the period actually used.
func NewCodeRotator(sharingSvc services.SharingServiceProvider, eventSvc services.EventServiceProvider, notifier Notifier, interval time.Duration) *CodeRotator {
	switch {
	case interval <= 0:
		interval = DefaultRotationInterval
	case interval < time.Second:
		interval = time.Second
	default:
		interval = interval.Truncate(time.Second)
	}
	startTimeout := StartPassTimeout
	if interval < startTimeout {
		startTimeout = interval
	}
	return &CodeRotator{
		sharingSvc:   sharingSvc,
		eventSvc:     eventSvc,
		notifier:     notifier,
		interval:     interval,
		startTimeout: startTimeout,
		cronLog:      logger.CronLogger{Logger: log.With().Str("component", "code_rotation").Logger()},
	}
}

// Start installs the recurring schedule and performs one pass right away.
// That pass runs on the caller's goroutine and is cut off after
// StartPassTimeout (or the interval, if shorter); scheduled passes get the
// full interval. Calling Start on a running rotator only reports its status.
func (r *CodeRotator) Start() models.RotationStatus {
	r.mu.Lock()
	if r.runner != nil {
		status := r.statusLocked()
		r.mu.Unlock()
		status.AlreadyRunning = true
		log.Info().Msg("Code rotation scheduler is already running")
		return status
	}

	job := cron.NewChain(cron.Recover(r.cronLog), cron.SkipIfStillRunning(r.cronLog)).Then(cron.FuncJob(func() { r.rotate(r.interval) }))
	immediate := cron.NewChain(cron.Recover(r.cronLog)).Then(cron.FuncJob(func() { r.rotate(r.startTimeout) }))
	runner := cron.New(cron.WithLogger(r.cronLog))
	runner.Schedule(cron.Every(r.interval), job)
	runner.Start()
	r.runner = runner
	r.mu.Unlock()

	log.Info().Dur("interval", r.interval).Msg("Starting sharing code rotation scheduler")

	// Run once immediately on start
	immediate.Run()

	return r.Status()
}

// Stop cancels the schedule. A pass already in progress is allowed to finish
// and Stop returns after it has. Stopping a stopped rotator is a no-op.
func (r *CodeRotator) Stop() models.RotationStatus {
	r.mu.Lock()
	runner := r.runner
	r.runner = nil
	r.mu.Unlock()

	if runner == nil {
		status := r.Status()
		status.NotRunning = true
		return status
	}

	<-runner.Stop().Done()
	// wait for a pass started outside the cron runner
	r.passMu.Lock()
	r.passMu.Unlock()

	log.Info().Msg("Stopped sharing code rotation scheduler")
	return r.Status()
}

// Status reports whether the rotator is running and how its passes went.
func (r *CodeRotator) Status() models.RotationStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusLocked()
}

func (r *CodeRotator) statusLocked() models.RotationStatus {
	status := models.RotationStatus{
		State:     models.RotationStopped,
		Interval:  r.interval.String(),
		Passes:    r.passes,
		LastError: r.lastErr,
	}
	if r.runner != nil {
		status.State = models.RotationRunning
	}
	if r.lastRunAt != nil {
		t := *r.lastRunAt
		status.LastRunAt = &t
	}
	return status
}

// rotate performs one rotation pass bounded by timeout. Failures are logged
// and recorded; the previous codes stay valid and the next tick tries again.
func (r *CodeRotator) rotate(timeout time.Duration) {
	r.passMu.Lock()
	defer r.passMu.Unlock()

	r.mu.Lock()
	stopped := r.runner == nil
	r.mu.Unlock()
	if stopped {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	started := time.Now()
	rotated, err := r.sharingSvc.RotateAllCodes(ctx)

	r.mu.Lock()
	r.passes++
	now := time.Now().UTC()
	r.lastRunAt = &now
	if err != nil {
		r.lastErr = err.Error()
	} else {
		r.lastErr = ""
	}
	r.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Msg("Sharing code rotation failed, keeping previous codes")
		if r.eventSvc != nil {
			msg := fmt.Sprintf("Sharing code rotation failed: %v", err)
			// the pass context may be the one that expired
			evCtx, evCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer evCancel()
			if evErr := r.eventSvc.CreateEvent(evCtx, "sharing.rotate.fail", "error", msg, nil); evErr != nil {
				log.Warn().Err(evErr).Msg("Failed to record rotation failure event")
			}
		}
		return
	}

	log.Debug().Int("rotated", rotated).Dur("took", time.Since(started)).Msg("Sharing code rotation pass complete")
	if rotated > 0 && r.notifier != nil {
		r.notifier.BroadcastAll(websocket.NewCodesRotatedMessage(rotated))
	}
}
