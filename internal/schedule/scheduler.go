// Package schedule runs harvests on a cron schedule.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/harvest"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/logger"
)

// Runs executes one harvest at a time.
type Runs interface {
	Run(ctx context.Context) (*harvest.Report, error)
}

// Scheduler triggers a harvest on every tick of a 5-field cron expression.
// A tick that fires while the previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	entry   cron.EntryID
	runs    Runs
	log     logger.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	expr    string
	started bool
}

// New parses expr and creates a stopped Scheduler.
func New(expr string, runs Runs, log logger.Logger) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(expr); err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", expr, err)
	}

	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   c,
		runs:   runs,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		expr:   expr,
	}

	entry, err := c.AddFunc(expr, s.tick)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("schedule harvest: %w", err)
	}
	s.entry = entry

	return s, nil
}

// Start begins firing ticks.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.started = true
	s.log.Info("Harvest scheduler started", logger.String("cron", s.expr), logger.Any("next_run", s.Next()))
}

// Stop cancels the active run, if any, and waits for it to return or for
// ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	if !s.started {
		return nil
	}

	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		s.log.Info("Harvest scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

// Next returns the time of the next tick. It is zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

func (s *Scheduler) tick() {
	report, err := s.runs.Run(s.ctx)
	switch {
	case errors.Is(err, harvest.ErrRunInProgress):
		s.log.Warn("Skipping scheduled harvest, a run is already in progress")
	case err != nil:
		s.log.Error("Scheduled harvest did not start", logger.Error(err))
	case report.Failed():
		s.log.Error("Scheduled harvest failed", logger.String("run_id", report.RunID), logger.String("message", report.Message()))
	default:
		s.log.Info("Scheduled harvest completed", logger.String("run_id", report.RunID), logger.String("outcome", report.Outcome))
	}
}

// cronLogger adapts the logger to cron's key/value logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(keysAndValues []any) []logger.Field {
	fields := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields = append(fields, logger.Any(key, keysAndValues[i+1]))
	}
	return fields
}
