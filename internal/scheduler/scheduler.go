// Package scheduler runs the configured weather broadcasts on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cron "github.com/netresearch/go-cron"

	"github.com/leo-bot/leobot/internal/events"
)

const defaultJobTimeout = 30 * time.Second

// Reporter produces the weather text for a city.
type Reporter interface {
	Report(ctx context.Context, city string, forecast bool) (string, error)
}

// Job is one scheduled weather broadcast.
type Job struct {
	Cron     string
	City     string
	Forecast bool
}

// Config holds dependencies for the scheduler.
type Config struct {
	Bus      *events.Bus
	Reporter Reporter
	Jobs     []Job
	Location *time.Location // nil = time.Local
	Timeout  time.Duration  // per run, 0 = 30s
}

// Entry is a registered job and its next activation.
type Entry struct {
	Job  Job
	Next time.Time
}

type registered struct {
	job  Job
	expr *CronExpr
	id   cron.EntryID
}

// Scheduler runs Jobs and publishes their output as outgoing.broadcast events.
type Scheduler struct {
	bus      *events.Bus
	reporter Reporter
	timeout  time.Duration
	cron     *cron.Cron

	mu   sync.Mutex
	jobs []registered
}

// New validates every job and prepares the cron runner. An invalid cron
// expression fails the whole scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Reporter == nil {
		return nil, fmt.Errorf("scheduler: reporter is required")
	}
	if cfg.Bus == nil {
		return nil, fmt.Errorf("scheduler: bus is required")
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}

	s := &Scheduler{
		bus:      cfg.Bus,
		reporter: cfg.Reporter,
		timeout:  timeout,
		cron:     cron.New(cron.WithParser(cronParser), cron.WithLocation(loc)),
	}

	for i, job := range cfg.Jobs {
		if job.City == "" {
			return nil, fmt.Errorf("schedule %d: city is required", i)
		}
		expr, err := ParseCron(job.Cron)
		if err != nil {
			return nil, fmt.Errorf("schedule %d: %w", i, err)
		}
		job := job
		id, err := s.cron.AddFunc(job.Cron, func() { s.runScheduled(job) })
		if err != nil {
			return nil, fmt.Errorf("schedule %d: %w", i, err)
		}
		s.jobs = append(s.jobs, registered{job: job, expr: expr, id: id})
	}

	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started", "entries", len(s.jobs))
}

// Stop halts the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	slog.Info("scheduler stopped")
}

// Entries returns the registered jobs with their next activation after now.
func (s *Scheduler) Entries(now time.Time) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.jobs))
	for _, r := range s.jobs {
		out = append(out, Entry{Job: r.job, Next: r.expr.Next(now)})
	}
	return out
}

func (s *Scheduler) runScheduled(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.Run(ctx, job); err != nil {
		slog.Error("scheduled weather failed", "cron", job.Cron, "city", job.City, "error", err)
	}
}

// Run executes job once: it publishes schedule.trigger and, on success,
// an outgoing.broadcast with the weather text.
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	text, err := s.reporter.Report(ctx, job.City, job.Forecast)

	trigger := events.ScheduleTriggerPayload{
		Cron:     job.Cron,
		City:     job.City,
		Forecast: job.Forecast,
	}
	if err != nil {
		trigger.Error = err.Error()
	}
	s.bus.Publish(events.NewTypedEvent(events.SourceScheduler, trigger))
	if err != nil {
		return err
	}

	s.bus.Publish(events.NewTypedEvent(events.SourceScheduler, events.OutgoingBroadcastPayload{
		Topic:   "weather",
		Content: broadcastText(job, text),
	}))
	return nil
}

func broadcastText(job Job, text string) string {
	if job.Forecast {
		return fmt.Sprintf("%s天气预报:\n%s", job.City, text)
	}
	return fmt.Sprintf("%s当前天气:\n%s", job.City, text)
}
