// Package scheduler provides the "invoke me at time T / on this cadence"
// primitive the pipeline depends on. Delivery is at-least-once in spirit:
// a one-shot lost to a process restart is a lost cycle, recovered by the
// next cron tick because all state lives in the store.
package scheduler

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Scheduler interface {
	// Cron registers job to run on the given cron cadence.
	Cron(spec string, job func()) error
	// RunAt fires job once at t (immediately if t has passed).
	RunAt(t time.Time, job func())
}

type CronScheduler struct {
	c *cron.Cron
}

func New() *CronScheduler {
	return &CronScheduler{c: cron.New()}
}

func (s *CronScheduler) Cron(spec string, job func()) error {
	_, err := s.c.AddFunc(spec, job)
	return err
}

func (s *CronScheduler) RunAt(t time.Time, job func()) {
	delay := time.Until(t)
	if delay < 0 {
		delay = 0
	}
	time.AfterFunc(delay, job)
}

func (s *CronScheduler) Start() {
	s.c.Start()
	slog.Info("[Scheduler] Cron jobs started")
}

func (s *CronScheduler) Stop() {
	s.c.Stop()
	slog.Info("[Scheduler] Cron jobs stopped")
}
