// Package scheduler runs the monitoring jobs.
//
// A sweep checks every target not known to be down on the normal interval.
// A recovery watch checks only the targets known to be down, on the shorter
// nervous interval. Each target is therefore probed by exactly one of the two
// jobs, and only transitions between up and down produce notifications.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
)

type BatchChecker interface {
	CheckAll(ctx context.Context, targets []domain.Target) []domain.CheckResult
}

// DownTracker is the shared set of targets believed down. Mark methods return
// only the targets whose membership changed.
type DownTracker interface {
	MarkDown(targets ...domain.Target) []domain.Target
	MarkUp(targets ...domain.Target) []domain.Target
	Snapshot() []domain.Target
	Up(targets []domain.Target) []domain.Target
}

type Notifier interface {
	NotifyBatch(ctx context.Context, targets []domain.Target, template string)
	Announce(ctx context.Context, text string)
}

type Templates struct {
	Down      string
	Up        string
	AliveSelf string
}

type Config struct {
	Interval        time.Duration
	NervousInterval time.Duration
	AliveSchedule   cron.Schedule // nil disables the liveness ping
	Templates       Templates
}

type Monitor struct {
	log      *zap.Logger
	targets  []domain.Target
	checker  BatchChecker
	down     DownTracker
	notifier Notifier
	cfg      Config
}

func NewMonitor(
	logger *zap.Logger,
	targets []domain.Target,
	checker BatchChecker,
	down DownTracker,
	notifier Notifier,
	cfg Config,
) *Monitor {
	return &Monitor{
		log:      logger,
		targets:  append([]domain.Target(nil), targets...),
		checker:  checker,
		down:     down,
		notifier: notifier,
		cfg:      cfg,
	}
}

// Sweep checks all targets not in the down-set and reports the ones that
// went down.
func (m *Monitor) Sweep(ctx context.Context) {
	log := m.runLogger("sweep")
	candidates := m.down.Up(m.targets)
	log.Info("sweep_started", zap.Int("candidates", len(candidates)))

	results := m.checker.CheckAll(ctx, candidates)
	if ctx.Err() != nil {
		// cancelled probes are not observations
		log.Info("sweep_aborted", zap.Error(ctx.Err()))
		return
	}

	var failed []domain.Target
	for _, r := range results {
		if r.Up {
			log.Debug("site_up", resultFields(r)...)
			continue
		}
		log.Info("site_down", resultFields(r)...)
		failed = append(failed, r.Target)
	}

	newlyDown := m.down.MarkDown(failed...)
	log.Info("sweep_finished",
		zap.Int("checked", len(results)),
		zap.Int("newly_down", len(newlyDown)),
	)
	m.notifier.NotifyBatch(ctx, newlyDown, m.cfg.Templates.Down)
}

// RecoveryWatch checks the targets in the down-set and reports the ones that
// came back.
func (m *Monitor) RecoveryWatch(ctx context.Context) {
	log := m.runLogger("recovery_watch")
	candidates := m.down.Snapshot()
	if len(candidates) == 0 {
		log.Debug("recovery_watch_idle")
		return
	}
	log.Info("recovery_watch_started", zap.Int("candidates", len(candidates)))

	results := m.checker.CheckAll(ctx, candidates)
	if ctx.Err() != nil {
		log.Info("recovery_watch_aborted", zap.Error(ctx.Err()))
		return
	}

	var recovered []domain.Target
	for _, r := range results {
		if !r.Up {
			log.Debug("site_still_down", resultFields(r)...)
			continue
		}
		log.Info("site_recovered", resultFields(r)...)
		recovered = append(recovered, r.Target)
	}

	newlyUp := m.down.MarkUp(recovered...)
	log.Info("recovery_watch_finished",
		zap.Int("checked", len(results)),
		zap.Int("newly_up", len(newlyUp)),
	)
	m.notifier.NotifyBatch(ctx, newlyUp, m.cfg.Templates.Up)
}

// Liveness announces that the monitor itself is running.
func (m *Monitor) Liveness(ctx context.Context) {
	m.runLogger("liveness").Info("liveness_ping")
	m.notifier.Announce(ctx, m.cfg.Templates.AliveSelf)
}

// Run schedules the jobs, runs sweep and recovery watch once right away and
// blocks until ctx is done. Invocations may overlap; none is skipped. Run
// waits for running jobs before returning.
func (m *Monitor) Run(ctx context.Context) error {
	cl := cronLogger{m.log.Sugar()}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl)))

	now := time.Now()
	sweep := Every(m.cfg.Interval)
	c.Schedule(sweep, cron.FuncJob(func() { m.Sweep(ctx) }))
	m.log.Info("sweep_scheduled",
		zap.Duration("every", m.cfg.Interval),
		zap.String("next", humanize.Time(sweep.Next(now))),
		zap.Int("targets", len(m.targets)),
	)

	nervous := Every(m.cfg.NervousInterval)
	c.Schedule(nervous, cron.FuncJob(func() { m.RecoveryWatch(ctx) }))
	m.log.Info("recovery_watch_scheduled",
		zap.Duration("every", m.cfg.NervousInterval),
		zap.String("next", humanize.Time(nervous.Next(now))),
	)

	if m.cfg.AliveSchedule != nil {
		c.Schedule(m.cfg.AliveSchedule, cron.FuncJob(func() { m.Liveness(ctx) }))
		m.log.Info("liveness_scheduled",
			zap.Time("next_at", m.cfg.AliveSchedule.Next(now)),
			zap.String("next", humanize.Time(m.cfg.AliveSchedule.Next(now))),
		)
	}

	c.Start()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.Sweep(ctx)
	}()
	go func() {
		defer wg.Done()
		m.RecoveryWatch(ctx)
	}()

	<-ctx.Done()
	stopped := c.Stop()
	wg.Wait()
	<-stopped.Done()
	m.log.Info("monitor_stopped")
	return nil
}

func (m *Monitor) runLogger(job string) *zap.Logger {
	return m.log.With(zap.String("job", job), zap.String("run_id", uuid.NewString()))
}

func resultFields(r domain.CheckResult) []zap.Field {
	return []zap.Field{
		zap.String("url", string(r.Target)),
		zap.Int("status", r.HTTPStatus),
		zap.Float64("latency_ms", r.LatencyMS),
		zap.String("reason", r.Reason),
	}
}
