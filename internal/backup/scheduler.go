package backup

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler takes a local backup on a cron schedule and prunes old files.
type Scheduler struct {
	cron     *cron.Cron
	store    *LocalStore
	schedule string
	keep     int
	counter  *prometheus.CounterVec
	logger   *zap.Logger

	mu        sync.Mutex
	isRunning bool
}

// NewScheduler wires a scheduler. counter may be nil.
func NewScheduler(store *LocalStore, schedule string, keep int, counter *prometheus.CounterVec, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:     cron.New(),
		store:    store,
		schedule: schedule,
		keep:     keep,
		counter:  counter,
		logger:   logger,
	}
}

// Start registers the job and starts the cron loop. An empty schedule
// disables scheduled backups.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("scheduled backups disabled")
		return nil
	}
	if s.isRunning {
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, func() { _ = s.RunNow(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	s.isRunning = true
	s.logger.Info("backup scheduler started", zap.String("schedule", s.schedule), zap.Int("keep", s.keep))
	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("backup scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// RunNow takes one backup and prunes, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) error {
	f, err := s.store.Backup(ctx)
	if err != nil {
		s.observe("failure")
		s.logger.Error("scheduled backup failed", zap.Error(err))
		return err
	}
	s.observe("success")
	if _, err := s.store.Prune(s.keep); err != nil {
		s.logger.Warn("failed to prune backups", zap.Error(err))
	}
	s.logger.Info("scheduled backup completed", zap.String("path", f.Path))
	return nil
}

func (s *Scheduler) observe(status string) {
	if s.counter != nil {
		s.counter.WithLabelValues("local", status).Inc()
	}
}
