package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"unishare/internal/config"
	"unishare/internal/models"
	"unishare/internal/store"
	"unishare/internal/utils"
)

// Point ledger actions.
const (
	ActionLogin            = "login"
	ActionUploadNote       = "upload_note"
	ActionUploadAssignment = "upload_assignment"
	ActionUploadPastPaper  = "upload_past_paper"
	ActionLikeReceived     = "like_received"
	ActionDislikeReceived  = "dislike_received"
	ActionCompletedOnTime  = "completion_on_time"
	ActionCompletedOverdue = "completion_overdue"
	ActionComment          = "comment"
)

const pointHistoryLimit = 50

// PointsService owns the point policy and every balance mutation.
type PointsService struct {
	store  store.Store
	policy config.PointsPolicy
	loc    *time.Location
	now    func() time.Time
}

func NewPointsService(st store.Store, policy config.PointsPolicy, loc *time.Location, now func() time.Time) *PointsService {
	return &PointsService{store: st, policy: policy, loc: loc, now: now}
}

func (s *PointsService) Policy() config.PointsPolicy {
	return s.policy
}

func (s *PointsService) UploadDelta(t models.ResourceType) (int, string) {
	switch t {
	case models.ResourceNote:
		return s.policy.UploadNote, ActionUploadNote
	case models.ResourcePastPaper:
		return s.policy.UploadPastPaper, ActionUploadPastPaper
	default:
		return s.policy.UploadAssignment, ActionUploadAssignment
	}
}

func (s *PointsService) CompletionDelta(onTime bool) (int, string) {
	if onTime {
		return s.policy.CompletedOnTime, ActionCompletedOnTime
	}
	return s.policy.CompletedOverdue, ActionCompletedOverdue
}

func (s *PointsService) VoteDelta(d models.VoteDirection) (int, string) {
	if d == models.VoteDislike {
		return s.policy.DislikeReceived, ActionDislikeReceived
	}
	return s.policy.LikeReceived, ActionLikeReceived
}

// CommentDelta reports the comment award and whether it is enabled at all.
func (s *PointsService) CommentDelta() (int, string, bool) {
	return s.policy.Comment, ActionComment, s.policy.CommentEnabled
}

// Award applies delta to the user through tx, which may be the root store
// or an open transaction. A zero delta is a no-op.
func (s *PointsService) Award(ctx context.Context, tx store.Store, userID uint, delta int, action, reference string) (*models.User, error) {
	if delta == 0 {
		return nil, nil
	}
	user, err := tx.AddPoints(ctx, userID, delta, action, reference)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"user_id":   userID,
		"delta":     delta,
		"action":    action,
		"reference": reference,
		"points":    user.Points,
		"rank":      user.Rank,
	}).Debug("points applied")
	return user, nil
}

func (s *PointsService) startOfDay() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

// AwardLoginBonus grants the login bonus on the first login of the calendar
// day and returns the amount granted.
func (s *PointsService) AwardLoginBonus(ctx context.Context, userID uint) (int, error) {
	if s.policy.Login == 0 {
		return 0, nil
	}
	count, err := s.store.CountPointLogsSince(ctx, userID, ActionLogin, s.startOfDay())
	if err != nil {
		return 0, storeError(err, "count login bonus")
	}
	if count > 0 {
		return 0, nil
	}
	if _, err := s.Award(ctx, s.store, userID, s.policy.Login, ActionLogin, ""); err != nil {
		return 0, storeError(err, "award login bonus")
	}
	return s.policy.Login, nil
}

// Standing is a user's position on the points ladder.
type Standing struct {
	User         models.User  `json:"user"`
	Rank         models.Rank  `json:"rank"`
	NextRank     *models.Rank `json:"next_rank,omitempty"`
	PointsToNext int          `json:"points_to_next"`
}

func standingFor(user models.User) Standing {
	st := Standing{User: user, Rank: utils.RankFor(user.Points)}
	if next, ok := utils.RankByLevel(st.Rank.Level + 1); ok {
		st.NextRank = &next
		st.PointsToNext = next.Min - user.Points
	}
	return st
}

// Profile returns the current user's balance and rank.
func (s *PointsService) Profile(ctx context.Context, sess *Session) (Standing, error) {
	user, err := s.store.GetUser(ctx, sess.User.ID)
	if err != nil {
		return Standing{}, storeError(err, "get profile")
	}
	return standingFor(*user), nil
}

func (s *PointsService) History(ctx context.Context, sess *Session) ([]models.PointLog, error) {
	logs, err := s.store.ListPointLogs(ctx, sess.User.ID, pointHistoryLimit)
	if err != nil {
		return nil, storeError(err, "list point history")
	}
	return logs, nil
}

// ReconcileRanks rewrites the stored rank of every user whose rank drifted
// from their points, returning how many were fixed.
func (s *PointsService) ReconcileRanks(ctx context.Context) (int, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return 0, storeError(err, "list users")
	}
	fixed := 0
	for _, u := range users {
		want := utils.RankFor(u.Points).Level
		if u.Rank == want {
			continue
		}
		if err := s.store.SetRank(ctx, u.ID, want); err != nil {
			return fixed, storeError(err, fmt.Sprintf("set rank of user %d", u.ID))
		}
		fixed++
	}
	return fixed, nil
}

func resourceRef(id uint) string {
	return fmt.Sprintf("resource:%d", id)
}
