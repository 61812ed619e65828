package services

import (
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/dineatlas/dineatlas/backend/pkg/logger"
)

// Scheduler owns the recurring maintenance jobs: completing stale
// reservations, purging old system logs and sweeping the in-memory
// key-value fallbacks.
type Scheduler struct {
	cron         *cron.Cron
	reservations *ReservationService
	logs         *SystemLogService
	sweepTargets []*ExpiringMap
}

func NewScheduler(db *gorm.DB, reservations *ReservationService, sweepTargets ...*ExpiringMap) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		reservations: reservations,
		logs:         NewSystemLogService(db),
		sweepTargets: sweepTargets,
	}
}

// Start registers the jobs and runs the cron loop in the background.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("30 3 * * *", s.completeStaleReservations); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 4 * * *", s.cleanupLogs); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@every 10m", s.sweepMaps); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Msg("scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) completeStaleReservations() {
	completed, err := s.reservations.CompleteStale()
	if err != nil {
		logger.Error().Err(err).Msg("failed to complete stale reservations")
		return
	}
	if completed > 0 {
		logger.Info().Int64("count", completed).Msg("completed stale reservations")
	}
}

func (s *Scheduler) cleanupLogs() {
	retention := s.logs.GetRetentionDays()
	deleted, err := s.logs.CleanupOldLogs(retention)
	if err != nil {
		logger.Error().Err(err).Msg("failed to cleanup system logs")
		return
	}
	if deleted > 0 {
		logger.Info().Int64("count", deleted).Int("retention_days", retention).Msg("cleaned up system logs")
	}
}

func (s *Scheduler) sweepMaps() {
	for _, m := range s.sweepTargets {
		m.Sweep()
	}
}
