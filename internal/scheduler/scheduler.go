package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const (
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	defaultTaskTimeout    = time.Minute
)

// Task is a named periodic job. Spec accepts the standard five-field cron syntax
// and descriptors such as "@every 60s".
type Task struct {
	Name    string
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

type runIDKey struct{}

// RunID returns the correlation id of the scheduled run carried by ctx.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

type Scheduler struct {
	ctx  context.Context
	cron *cron.Cron
	log  *slog.Logger
}

func New(ctx context.Context, log *slog.Logger) *Scheduler {
	c := cron.New(
		cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)),
		cron.WithChain(
			cron.Recover(cronLogger{log: log}),
			cron.SkipIfStillRunning(cronLogger{log: log}),
		),
	)

	return &Scheduler{
		ctx:  ctx,
		cron: c,
		log:  log,
	}
}

// Add registers a task. Runs of the same task never overlap; a tick that fires while
// the previous run is still going is skipped.
func (s *Scheduler) Add(task Task) error {
	if task.Name == "" || task.Run == nil {
		return errors.New("task needs a name and a run func")
	}

	if task.Timeout <= 0 {
		task.Timeout = defaultTaskTimeout
	}

	if _, err := s.cron.AddFunc(task.Spec, func() { s.run(task) }); err != nil {
		return fmt.Errorf("add task %q: %w", task.Name, err)
	}

	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running tasks to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run(task Task) {
	runID := uuid.NewString()

	ctx, cancel := context.WithTimeout(context.WithValue(s.ctx, runIDKey{}, runID), task.Timeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err(),
			"task", task.Name,
			"runID", runID)
		return
	default:
	}

	started := time.Now()

	if err := task.Run(ctx); err != nil {
		s.log.ErrorContext(ctx, "Scheduled task failed",
			"error", err,
			"task", task.Name,
			"runID", runID,
			"duration", time.Since(started))
		return
	}

	s.log.DebugContext(ctx, "Scheduled task is done",
		"task", task.Name,
		"runID", runID,
		"duration", time.Since(started))
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("Cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("Cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
