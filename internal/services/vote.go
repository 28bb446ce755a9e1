package services

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"unishare/internal/models"
	"unishare/internal/store"
)

type VoteOutcome string

const (
	VoteAccepted     VoteOutcome = "accepted"
	VoteAlreadyVoted VoteOutcome = "already_voted"
	VoteConflicting  VoteOutcome = "conflicting_vote"
)

type VoteResult struct {
	Outcome   VoteOutcome          `json:"outcome"`
	Direction models.VoteDirection `json:"direction"` // the caller's recorded vote
	Likes     int                  `json:"likes"`
	Dislikes  int                  `json:"dislikes"`
	Message   string               `json:"message"`
}

type VoteService struct {
	store   store.Store
	catalog *CatalogService
	points  *PointsService
}

func NewVoteService(st store.Store, catalog *CatalogService, points *PointsService) *VoteService {
	return &VoteService{store: st, catalog: catalog, points: points}
}

func rejectedVote(existing models.VoteDirection, requested models.VoteDirection, r *models.Resource) *VoteResult {
	res := &VoteResult{Direction: existing, Likes: r.Likes, Dislikes: r.Dislikes}
	if existing == requested {
		res.Outcome = VoteAlreadyVoted
		res.Message = "You have already voted on this resource."
	} else {
		res.Outcome = VoteConflicting
		res.Message = "You cannot both like and dislike a resource."
	}
	return res
}

// Vote records a like or dislike. A user votes at most once per resource;
// repeating or reversing a vote is reported, not applied. The owner gains or
// loses points unless they voted on their own resource.
func (s *VoteService) Vote(ctx context.Context, sess *Session, resourceID uint, direction models.VoteDirection) (*VoteResult, error) {
	if !direction.Valid() {
		return nil, invalid("direction must be like or dislike")
	}
	resource, err := loadVisibleResource(ctx, s.store, s.catalog, sess, resourceID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetVote(ctx, sess.User.ID, resourceID)
	if err == nil {
		return rejectedVote(existing.Direction, direction, resource), nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, storeError(err, "get vote")
	}

	delta, action := s.points.VoteDelta(direction)
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		vote := &models.Vote{UserID: sess.User.ID, ResourceID: resourceID, Direction: direction}
		if err := tx.CreateVote(ctx, vote); err != nil {
			return err
		}
		if err := tx.IncrementResourceCounter(ctx, resourceID, direction); err != nil {
			return err
		}
		if resource.OwnerID == sess.User.ID {
			return nil
		}
		_, err := s.points.Award(ctx, tx, resource.OwnerID, delta, action, resourceRef(resourceID))
		return err
	})
	if errors.Is(err, store.ErrDuplicate) {
		existing, getErr := s.store.GetVote(ctx, sess.User.ID, resourceID)
		if getErr != nil {
			return nil, storeError(getErr, "get vote")
		}
		return rejectedVote(existing.Direction, direction, resource), nil
	}
	if err != nil {
		return nil, storeError(err, "vote")
	}

	updated, err := s.store.GetResource(ctx, resourceID)
	if err != nil {
		return nil, storeError(err, "get resource")
	}

	log.WithFields(log.Fields{
		"resource_id": resourceID,
		"user_id":     sess.User.ID,
		"direction":   direction,
	}).Debug("vote recorded")

	msg := "Thanks for the like!"
	if direction == models.VoteDislike {
		msg = "Your feedback has been recorded."
	}
	return &VoteResult{
		Outcome:   VoteAccepted,
		Direction: direction,
		Likes:     updated.Likes,
		Dislikes:  updated.Dislikes,
		Message:   msg,
	}, nil
}

// State returns the caller's vote on a resource, VoteNone if they have not voted.
func (s *VoteService) State(ctx context.Context, sess *Session, resourceID uint) (models.VoteDirection, error) {
	if _, err := loadVisibleResource(ctx, s.store, s.catalog, sess, resourceID); err != nil {
		return models.VoteNone, err
	}
	vote, err := s.store.GetVote(ctx, sess.User.ID, resourceID)
	if errors.Is(err, store.ErrNotFound) {
		return models.VoteNone, nil
	}
	if err != nil {
		return models.VoteNone, storeError(err, "get vote")
	}
	return vote.Direction, nil
}
