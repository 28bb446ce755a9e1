package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"unishare/internal/models"
	"unishare/internal/store"
	"unishare/internal/utils"
)

const (
	unitRankingLimit       = 10
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
	warmBatchSize      = 50
)

// CompletionRanking is one row of a unit's completion-speed leaderboard.
type CompletionRanking struct {
	Position       int     `json:"position"`
	UserID         uint    `json:"user_id"`
	DisplayName    string  `json:"display_name"`
	Completions    int     `json:"completions"`
	AverageSeconds float64 `json:"average_seconds"`
	Average        string  `json:"average"`
}

// LeaderboardService computes and caches leaderboards. Unit rankings can be
// recomputed in the background through a de-duplicated queue.
type LeaderboardService struct {
	store   store.Store
	catalog *CatalogService
	cache   utils.Cache
	ttl     time.Duration

	queue   chan uint
	pending map[uint]bool
	// versions counts invalidations per unit so that a computation started
	// before an invalidation never lands in the cache.
	versions map[uint]uint64
	mu       sync.Mutex
}

func NewLeaderboardService(st store.Store, catalog *CatalogService, cache utils.Cache, ttl time.Duration) *LeaderboardService {
	return &LeaderboardService{
		store:    st,
		catalog:  catalog,
		cache:    cache,
		ttl:      ttl,
		queue:    make(chan uint, 1000),
		pending:  make(map[uint]bool),
		versions: make(map[uint]uint64),
	}
}

func unitRankingKey(unitID uint) string {
	return fmt.Sprintf("leaderboard:unit:%d", unitID)
}

// RankCompletions averages, per user, the time between each resource's
// creation and the user's completion of it. Fastest first; ties go to the
// user with more completions, then the lower user id.
func RankCompletions(rows []models.UnitCompletion, limit int) []CompletionRanking {
	type acc struct {
		name  string
		total time.Duration
		count int
	}
	byUser := make(map[uint]*acc)
	for _, row := range rows {
		a, ok := byUser[row.UserID]
		if !ok {
			a = &acc{name: row.DisplayName}
			byUser[row.UserID] = a
		}
		elapsed := row.CompletedAt.Sub(row.ResourceCreatedAt)
		if elapsed < 0 {
			elapsed = 0
		}
		a.total += elapsed
		a.count++
	}

	rankings := make([]CompletionRanking, 0, len(byUser))
	for userID, a := range byUser {
		avg := a.total / time.Duration(a.count)
		rankings = append(rankings, CompletionRanking{
			UserID:         userID,
			DisplayName:    a.name,
			Completions:    a.count,
			AverageSeconds: avg.Seconds(),
			Average:        avg.Round(time.Second).String(),
		})
	}
	sort.Slice(rankings, func(i, j int) bool {
		a, b := rankings[i], rankings[j]
		if a.AverageSeconds != b.AverageSeconds {
			return a.AverageSeconds < b.AverageSeconds
		}
		if a.Completions != b.Completions {
			return a.Completions > b.Completions
		}
		return a.UserID < b.UserID
	})

	if limit > 0 && len(rankings) > limit {
		rankings = rankings[:limit]
	}
	for i := range rankings {
		rankings[i].Position = i + 1
	}
	return rankings
}

func (s *LeaderboardService) version(unitID uint) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[unitID]
}

func (s *LeaderboardService) computeUnit(ctx context.Context, unitID uint) ([]CompletionRanking, error) {
	v := s.version(unitID)
	rows, err := s.store.ListUnitCompletions(ctx, unitID)
	if err != nil {
		return nil, storeError(err, "list unit completions")
	}
	rankings := RankCompletions(rows, unitRankingLimit)

	if s.version(unitID) != v {
		return rankings, nil
	}
	data, err := json.Marshal(rankings)
	if err != nil {
		return rankings, nil
	}
	key := unitRankingKey(unitID)
	s.cache.Set(ctx, key, data, s.ttl)
	// An invalidation between the check and the write wins.
	if s.version(unitID) != v {
		s.cache.Delete(ctx, key)
	}
	return rankings, nil
}

// UnitCompletionRanking returns the top completers of a unit, served from the
// cache when fresh.
func (s *LeaderboardService) UnitCompletionRanking(ctx context.Context, sess *Session, unitID uint) ([]CompletionRanking, error) {
	if _, err := s.catalog.visibleUnit(ctx, sess, unitID); err != nil {
		return nil, err
	}
	if data, ok := s.cache.Get(ctx, unitRankingKey(unitID)); ok {
		var cached []CompletionRanking
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}
	return s.computeUnit(ctx, unitID)
}

func (s *LeaderboardService) Invalidate(ctx context.Context, unitID uint) {
	s.mu.Lock()
	s.versions[unitID]++
	s.mu.Unlock()
	s.cache.Delete(ctx, unitRankingKey(unitID))
}

// UserStanding is one row of the global points leaderboard.
type UserStanding struct {
	Position    int         `json:"position"`
	UserID      uint        `json:"user_id"`
	DisplayName string      `json:"display_name"`
	Points      int         `json:"points"`
	Rank        models.Rank `json:"rank"`
}

func (s *LeaderboardService) TopUsers(ctx context.Context, limit int) ([]UserStanding, error) {
	switch {
	case limit <= 0:
		limit = defaultLeaderboardSize
	case limit > maxLeaderboardSize:
		limit = maxLeaderboardSize
	}
	users, err := s.store.TopUsers(ctx, limit)
	if err != nil {
		return nil, storeError(err, "top users")
	}
	standings := make([]UserStanding, 0, len(users))
	for i, u := range users {
		standings = append(standings, UserStanding{
			Position:    i + 1,
			UserID:      u.ID,
			DisplayName: u.DisplayName,
			Points:      u.Points,
			Rank:        utils.RankFor(u.Points),
		})
	}
	return standings, nil
}

// ScheduleWarm queues a unit ranking for background recomputation. Units
// already queued are skipped, and a full queue drops the request.
func (s *LeaderboardService) ScheduleWarm(unitID uint) {
	s.mu.Lock()
	if s.pending[unitID] {
		s.mu.Unlock()
		return
	}
	s.pending[unitID] = true
	s.mu.Unlock()

	select {
	case s.queue <- unitID:
	default:
		s.mu.Lock()
		delete(s.pending, unitID)
		s.mu.Unlock()
		log.WithField("unit_id", unitID).Warn("leaderboard warm queue full, skipping")
	}
}

// Run drains the warm queue in batches until ctx is cancelled.
func (s *LeaderboardService) Run(ctx context.Context) {
	batch := make([]uint, 0, warmBatchSize)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case unitID := <-s.queue:
			batch = append(batch, unitID)
			if len(batch) >= warmBatchSize {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *LeaderboardService) processBatch(ctx context.Context, unitIDs []uint) {
	for _, unitID := range unitIDs {
		if _, err := s.computeUnit(ctx, unitID); err != nil {
			log.WithError(err).WithField("unit_id", unitID).Warn("leaderboard warm failed")
		}
		s.mu.Lock()
		delete(s.pending, unitID)
		s.mu.Unlock()
	}
}
