// Package services holds the portal's business rules on top of store.Store.
package services

import (
	"time"

	"unishare/internal/config"
	"unishare/internal/models"
	"unishare/internal/store"
	"unishare/internal/utils"
)

// Session is the authenticated caller, passed explicitly into every operation.
type Session struct {
	Token     string       `json:"token"`
	User      *models.User `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// CanModify reports whether the caller may edit or delete something owned by ownerID.
func (s *Session) CanModify(ownerID uint) bool {
	return s.User.ID == ownerID || s.User.IsAdmin()
}

type Options struct {
	Policy          config.PointsPolicy
	DefaultPassword string
	SessionTTL      time.Duration
	Location        *time.Location
	Files           FileStorage
	Notifier        Notifier
	Cache           utils.Cache
	LeaderboardTTL  time.Duration
	Now             func() time.Time
}

// Services bundles every service over one store.
type Services struct {
	Points       *PointsService
	Auth         *AuthService
	Catalog      *CatalogService
	Resources    *ResourceService
	Completions  *CompletionService
	Votes        *VoteService
	Comments     *CommentService
	Leaderboards *LeaderboardService
}

func New(st store.Store, opts Options) *Services {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 7 * 24 * time.Hour
	}
	if opts.Cache == nil {
		opts.Cache = utils.GetCache()
	}
	if opts.Notifier == nil {
		opts.Notifier = noopNotifier{}
	}
	if opts.LeaderboardTTL <= 0 {
		opts.LeaderboardTTL = 5 * time.Minute
	}

	points := NewPointsService(st, opts.Policy, opts.Location, opts.Now)
	catalog := NewCatalogService(st)
	leaderboards := NewLeaderboardService(st, catalog, opts.Cache, opts.LeaderboardTTL)
	return &Services{
		Points:       points,
		Auth:         NewAuthService(st, points, opts.Notifier, opts.DefaultPassword, opts.SessionTTL, opts.Now),
		Catalog:      catalog,
		Resources:    NewResourceService(st, catalog, points, opts.Files, leaderboards, opts.Now),
		Completions:  NewCompletionService(st, catalog, points, leaderboards, opts.Now),
		Votes:        NewVoteService(st, catalog, points),
		Comments:     NewCommentService(st, catalog, points, opts.Notifier),
		Leaderboards: leaderboards,
	}
}
