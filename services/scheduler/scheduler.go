// Package scheduler runs the periodic jobs of the application.
package scheduler

import (
	"context"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/vishvavidya/traininghub/core"
)

type Scheduler struct {
	cron   *cron.Cron
	logger core.Logger
}

// New returns a stopped Scheduler. Panicking jobs are recovered and a job is skipped while its previous run is ongoing.
func New(logger core.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger: logger,
	}
}

// Add registers job under the standard 5 fields cron spec.
func (s *Scheduler) Add(name, spec string, job func()) error {
	if _, err := s.cron.AddFunc(spec, job); err != nil {
		return errors.Wrapf(err, "scheduling %s (%q)", name, spec)
	}
	s.logger.Info("job scheduled", map[string]interface{}{"job": name, "spec": spec})
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for the running ones until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for running jobs")
	}
}

// cronLogger adapts core.Logger to cron.Logger
type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, kvMap(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, err, kvMap(keysAndValues))
}

func kvMap(keysAndValues []interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if k, ok := keysAndValues[i].(string); ok {
			m[k] = keysAndValues[i+1]
		}
	}
	return m
}
