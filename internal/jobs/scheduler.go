// Package jobs runs the portal's periodic maintenance.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// RankReconciler repairs ranks that drifted from points.
type RankReconciler interface {
	ReconcileRanks(ctx context.Context) (int, error)
}

// SessionPurger removes expired and revoked sessions.
type SessionPurger interface {
	PurgeSessions(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron     *cron.Cron
	ranks    RankReconciler
	sessions SessionPurger

	rankSpec    string
	sessionSpec string
}

func NewScheduler(loc *time.Location, ranks RankReconciler, sessions SessionPurger, rankSpec, sessionSpec string) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(loc)),
		ranks:       ranks,
		sessions:    sessions,
		rankSpec:    rankSpec,
		sessionSpec: sessionSpec,
	}
}

func (s *Scheduler) reconcileRanks(ctx context.Context) {
	log.Info("[CRON] Rank reconciliation")
	fixed, err := s.ranks.ReconcileRanks(ctx)
	if err != nil {
		log.WithError(err).Error("[CRON] Rank reconciliation failed")
		return
	}
	if fixed > 0 {
		log.WithField("fixed", fixed).Warn("[CRON] Repaired drifted ranks")
	}
}

func (s *Scheduler) purgeSessions(ctx context.Context) {
	n, err := s.sessions.PurgeSessions(ctx)
	if err != nil {
		log.WithError(err).Error("[CRON] Session purge failed")
		return
	}
	log.WithField("purged", n).Debug("[CRON] Sessions purged")
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.rankSpec, func() { s.reconcileRanks(ctx) }); err != nil {
		return fmt.Errorf("schedule rank reconciliation %q: %w", s.rankSpec, err)
	}
	if _, err := s.cron.AddFunc(s.sessionSpec, func() { s.purgeSessions(ctx) }); err != nil {
		return fmt.Errorf("schedule session purge %q: %w", s.sessionSpec, err)
	}

	s.cron.Start()
	log.Info("Scheduler started")
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Scheduler stopped")
}
