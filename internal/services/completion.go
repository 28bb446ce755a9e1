package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"unishare/internal/models"
	"unishare/internal/store"
)

type CompletionOutcome string

const (
	CompletionRecorded         CompletionOutcome = "completed"
	CompletionAlreadyCompleted CompletionOutcome = "already_completed"
)

type CompletionResult struct {
	Outcome       CompletionOutcome  `json:"outcome"`
	Completion    *models.Completion `json:"completion"`
	OnTime        bool               `json:"on_time"`
	PointsAwarded int                `json:"points_awarded"`
	Message       string             `json:"message"`
}

type CompletionService struct {
	store        store.Store
	catalog      *CatalogService
	points       *PointsService
	leaderboards *LeaderboardService
	now          func() time.Time
}

func NewCompletionService(st store.Store, catalog *CatalogService, points *PointsService, leaderboards *LeaderboardService, now func() time.Time) *CompletionService {
	return &CompletionService{store: st, catalog: catalog, points: points, leaderboards: leaderboards, now: now}
}

func alreadyCompleted(c *models.Completion) *CompletionResult {
	return &CompletionResult{
		Outcome:    CompletionAlreadyCompleted,
		Completion: c,
		OnTime:     c.OnTime,
		Message:    "You have already completed this assignment.",
	}
}

// Complete records that the caller finished an assignment. Completing twice
// is reported as already completed, with no second award.
func (s *CompletionService) Complete(ctx context.Context, sess *Session, resourceID uint) (*CompletionResult, error) {
	resource, err := loadVisibleResource(ctx, s.store, s.catalog, sess, resourceID)
	if err != nil {
		return nil, err
	}
	if resource.Type != models.ResourceAssignment {
		return nil, invalid("only assignments can be completed")
	}

	existing, err := s.store.GetCompletion(ctx, sess.User.ID, resourceID)
	if err == nil {
		return alreadyCompleted(existing), nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, storeError(err, "get completion")
	}

	now := s.now()
	onTime := resource.Deadline == nil || !now.After(*resource.Deadline)
	delta, action := s.points.CompletionDelta(onTime)

	completion := &models.Completion{
		UserID:        sess.User.ID,
		ResourceID:    resourceID,
		OnTime:        onTime,
		PointsAwarded: delta,
		CompletedAt:   now,
	}
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.CreateCompletion(ctx, completion); err != nil {
			return err
		}
		_, err := s.points.Award(ctx, tx, sess.User.ID, delta, action, resourceRef(resourceID))
		return err
	})
	if errors.Is(err, store.ErrDuplicate) {
		existing, getErr := s.store.GetCompletion(ctx, sess.User.ID, resourceID)
		if getErr != nil {
			return nil, storeError(getErr, "get completion")
		}
		return alreadyCompleted(existing), nil
	}
	if err != nil {
		return nil, storeError(err, "complete resource")
	}

	s.leaderboards.Invalidate(ctx, resource.UnitID)
	s.leaderboards.ScheduleWarm(resource.UnitID)

	log.WithFields(log.Fields{
		"resource_id": resourceID,
		"user_id":     sess.User.ID,
		"on_time":     onTime,
		"points":      delta,
	}).Info("assignment completed")

	msg := fmt.Sprintf("Completed on time! +%d points.", delta)
	if !onTime {
		msg = fmt.Sprintf("Completed after the deadline. +%d points.", delta)
	}
	return &CompletionResult{
		Outcome:       CompletionRecorded,
		Completion:    completion,
		OnTime:        onTime,
		PointsAwarded: delta,
		Message:       msg,
	}, nil
}

func (s *CompletionService) ListCompletions(ctx context.Context, sess *Session, resourceID uint) ([]models.Completion, error) {
	if _, err := loadVisibleResource(ctx, s.store, s.catalog, sess, resourceID); err != nil {
		return nil, err
	}
	completions, err := s.store.ListCompletions(ctx, resourceID)
	if err != nil {
		return nil, storeError(err, "list completions")
	}
	return completions, nil
}

// HasCompleted reports whether the caller completed the resource.
func (s *CompletionService) HasCompleted(ctx context.Context, sess *Session, resourceID uint) (bool, error) {
	_, err := s.store.GetCompletion(ctx, sess.User.ID, resourceID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storeError(err, "get completion")
	}
	return true, nil
}
