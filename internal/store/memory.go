package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"unishare/internal/models"
	"unishare/internal/utils"
)

// Memory is an in-process Store. Transactions are serialised and roll back
// by restoring a snapshot; writes made outside WithTx while a transaction is
// open may be lost on rollback, which is acceptable for tests and local runs.
type Memory struct {
	mu   sync.Mutex
	txMu sync.Mutex
	data *memData
	now  func() time.Time
}

var _ Store = (*Memory)(nil)

type memData struct {
	nextID         uint
	users          map[uint]models.User
	pointLogs      []models.PointLog
	sessions       map[string]models.Session
	programs       map[uint]models.Program
	courses        map[uint]models.Course
	classInstances map[uint]models.ClassInstance
	units          map[uint]models.Unit
	resources      map[uint]models.Resource
	completions    []models.Completion
	comments       []models.Comment
	votes          []models.Vote
}

func NewMemory() *Memory {
	return &Memory{now: time.Now, data: &memData{
		users:          make(map[uint]models.User),
		sessions:       make(map[string]models.Session),
		programs:       make(map[uint]models.Program),
		courses:        make(map[uint]models.Course),
		classInstances: make(map[uint]models.ClassInstance),
		units:          make(map[uint]models.Unit),
		resources:      make(map[uint]models.Resource),
	}}
}

func (d *memData) clone() *memData {
	c := &memData{
		nextID:         d.nextID,
		users:          make(map[uint]models.User, len(d.users)),
		pointLogs:      append([]models.PointLog(nil), d.pointLogs...),
		sessions:       make(map[string]models.Session, len(d.sessions)),
		programs:       make(map[uint]models.Program, len(d.programs)),
		courses:        make(map[uint]models.Course, len(d.courses)),
		classInstances: make(map[uint]models.ClassInstance, len(d.classInstances)),
		units:          make(map[uint]models.Unit, len(d.units)),
		resources:      make(map[uint]models.Resource, len(d.resources)),
		completions:    append([]models.Completion(nil), d.completions...),
		comments:       append([]models.Comment(nil), d.comments...),
		votes:          append([]models.Vote(nil), d.votes...),
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.sessions {
		c.sessions[k] = v
	}
	for k, v := range d.programs {
		c.programs[k] = v
	}
	for k, v := range d.courses {
		c.courses[k] = v
	}
	for k, v := range d.classInstances {
		c.classInstances[k] = v
	}
	for k, v := range d.units {
		c.units[k] = v
	}
	for k, v := range d.resources {
		c.resources[k] = v
	}
	return c
}

func (d *memData) id() uint {
	d.nextID++
	return d.nextID
}

// SetClock replaces the clock used for timestamps the store assigns itself,
// such as point ledger entries.
func (s *Memory) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// stamp fills a zero timestamp. Callers hold s.mu.
func (s *Memory) stamp(t *time.Time) {
	if t.IsZero() {
		*t = s.now()
	}
}

func notFound(op string) error {
	return errors.Wrap(ErrNotFound, op)
}

func duplicate(op string) error {
	return errors.Wrap(ErrDuplicate, op)
}

// memTx is the Store handed to WithTx callbacks; nested WithTx calls join the
// enclosing transaction.
type memTx struct {
	*Memory
}

func (t memTx) WithTx(_ context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (s *Memory) WithTx(_ context.Context, fn func(tx Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(memTx{s}); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// --- users ---

func (s *Memory) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.data.users {
		if strings.EqualFold(u.AdmissionNumber, user.AdmissionNumber) || strings.EqualFold(u.Email, user.Email) {
			return duplicate("create user")
		}
	}
	user.ID = s.data.id()
	if user.Role == "" {
		user.Role = models.RoleStudent
	}
	if user.Rank == 0 {
		user.Rank = utils.RankFor(user.Points).Level
	}
	s.stamp(&user.CreatedAt)
	user.UpdatedAt = user.CreatedAt
	s.data.users[user.ID] = *user
	return nil
}

func (s *Memory) GetUser(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data.users[id]
	if !ok {
		return nil, notFound("get user")
	}
	return &u, nil
}

func (s *Memory) GetUserByAdmission(_ context.Context, admission string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.data.users {
		if strings.EqualFold(u.AdmissionNumber, admission) {
			return &u, nil
		}
	}
	return nil, notFound("get user by admission number")
}

func (s *Memory) SetPassword(_ context.Context, userID uint, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data.users[userID]
	if !ok {
		return notFound("set password")
	}
	u.Password = hash
	u.UpdatedAt = s.now()
	s.data.users[userID] = u
	return nil
}

func (s *Memory) AddPoints(_ context.Context, userID uint, delta int, action, reference string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data.users[userID]
	if !ok {
		return nil, notFound("add points")
	}
	points := u.Points + delta
	if points < 0 {
		points = 0
	}
	applied := points - u.Points
	u.Points = points
	u.Rank = utils.RankFor(points).Level
	u.UpdatedAt = s.now()
	s.data.users[userID] = u

	s.data.pointLogs = append(s.data.pointLogs, models.PointLog{
		ID:        s.data.id(),
		UserID:    userID,
		Amount:    applied,
		Action:    action,
		Reference: reference,
		CreatedAt: s.now(),
	})
	return &u, nil
}

func (s *Memory) SetRank(_ context.Context, userID uint, rank int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data.users[userID]
	if !ok {
		return notFound("set rank")
	}
	u.Rank = rank
	s.data.users[userID] = u
	return nil
}

func (s *Memory) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]models.User, 0, len(s.data.users))
	for _, u := range s.data.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *Memory) TopUsers(ctx context.Context, limit int) ([]models.User, error) {
	users, _ := s.ListUsers(ctx)
	sort.SliceStable(users, func(i, j int) bool { return users[i].Points > users[j].Points })
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (s *Memory) ListPointLogs(_ context.Context, userID uint, limit int) ([]models.PointLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var logs []models.PointLog
	for i := len(s.data.pointLogs) - 1; i >= 0; i-- {
		if s.data.pointLogs[i].UserID == userID {
			logs = append(logs, s.data.pointLogs[i])
		}
		if limit > 0 && len(logs) == limit {
			break
		}
	}
	return logs, nil
}

func (s *Memory) CountPointLogsSince(_ context.Context, userID uint, action string, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, l := range s.data.pointLogs {
		if l.UserID == userID && l.Action == action && !l.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// --- sessions ---

func (s *Memory) CreateSession(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.sessions[session.Token]; ok {
		return duplicate("create session")
	}
	session.ID = s.data.id()
	s.stamp(&session.CreatedAt)
	s.data.sessions[session.Token] = *session
	return nil
}

func (s *Memory) GetSession(_ context.Context, token string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.data.sessions[token]
	if !ok {
		return nil, notFound("get session")
	}
	return &session, nil
}

func (s *Memory) RevokeSession(_ context.Context, token string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.data.sessions[token]
	if !ok || session.RevokedAt != nil {
		return nil
	}
	session.RevokedAt = &at
	s.data.sessions[token] = session
	return nil
}

func (s *Memory) PurgeSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for token, session := range s.data.sessions {
		if session.ExpiresAt.Before(now) || session.RevokedAt != nil {
			delete(s.data.sessions, token)
			n++
		}
	}
	return n, nil
}

// --- catalog ---

func (s *Memory) CreateProgram(_ context.Context, program *models.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.data.programs {
		if p.Name == program.Name {
			return duplicate("create program")
		}
	}
	program.ID = s.data.id()
	s.stamp(&program.CreatedAt)
	s.data.programs[program.ID] = *program
	return nil
}

func (s *Memory) GetProgram(_ context.Context, id uint) (*models.Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.programs[id]
	if !ok {
		return nil, notFound("get program")
	}
	return &p, nil
}

func (s *Memory) CreateCourse(_ context.Context, course *models.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	course.ID = s.data.id()
	s.stamp(&course.CreatedAt)
	s.data.courses[course.ID] = *course
	return nil
}

func (s *Memory) GetCourse(_ context.Context, id uint) (*models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.courses[id]
	if !ok {
		return nil, notFound("get course")
	}
	return &c, nil
}

func (s *Memory) CreateClassInstance(_ context.Context, ci *models.ClassInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.data.classInstances {
		if existing.CourseID == ci.CourseID && existing.Year == ci.Year &&
			existing.Semester == ci.Semester && existing.Group == ci.Group {
			return duplicate("create class instance")
		}
	}
	ci.ID = s.data.id()
	s.stamp(&ci.CreatedAt)
	s.data.classInstances[ci.ID] = *ci
	return nil
}

func (s *Memory) GetClassInstance(_ context.Context, id uint) (*models.ClassInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ci, ok := s.data.classInstances[id]
	if !ok {
		return nil, notFound("get class instance")
	}
	return &ci, nil
}

func (s *Memory) CreateUnit(_ context.Context, unit *models.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	unit.ID = s.data.id()
	s.stamp(&unit.CreatedAt)
	s.data.units[unit.ID] = *unit
	return nil
}

func (s *Memory) GetUnit(_ context.Context, id uint) (*models.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data.units[id]
	if !ok {
		return nil, notFound("get unit")
	}
	return &u, nil
}

func (s *Memory) ListUnits(_ context.Context, classInstanceID *uint) ([]models.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	units := make([]models.Unit, 0)
	for _, u := range s.data.units {
		if classInstanceID == nil || u.ClassInstanceID == *classInstanceID {
			units = append(units, u)
		}
	}
	sort.Slice(units, func(i, j int) bool {
		if units[i].Code != units[j].Code {
			return units[i].Code < units[j].Code
		}
		return units[i].ID < units[j].ID
	})
	return units, nil
}

// --- resources ---

func (s *Memory) CreateResource(_ context.Context, resource *models.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	resource.ID = s.data.id()
	s.stamp(&resource.CreatedAt)
	resource.UpdatedAt = resource.CreatedAt
	s.data.resources[resource.ID] = *resource
	return nil
}

func (s *Memory) GetResource(_ context.Context, id uint) (*models.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.data.resources[id]
	if !ok {
		return nil, notFound("get resource")
	}
	return &r, nil
}

func (s *Memory) UpdateResource(_ context.Context, resource *models.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.data.resources[resource.ID]
	if !ok {
		return notFound("update resource")
	}
	current.Title = resource.Title
	current.Description = resource.Description
	current.Deadline = resource.Deadline
	current.FilePath = resource.FilePath
	current.FileName = resource.FileName
	current.UpdatedAt = s.now()
	s.data.resources[resource.ID] = current
	return nil
}

func (s *Memory) ListResources(_ context.Context, filter ResourceFilter) ([]models.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resources := make([]models.Resource, 0)
	for _, r := range s.data.resources {
		if filter.UnitID != 0 && r.UnitID != filter.UnitID {
			continue
		}
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		if filter.OwnerID != 0 && r.OwnerID != filter.OwnerID {
			continue
		}
		resources = append(resources, r)
	}
	sort.Slice(resources, func(i, j int) bool {
		if !resources[i].CreatedAt.Equal(resources[j].CreatedAt) {
			return resources[i].CreatedAt.After(resources[j].CreatedAt)
		}
		return resources[i].ID > resources[j].ID
	})
	return resources, nil
}

func (s *Memory) IncrementResourceCounter(_ context.Context, id uint, direction models.VoteDirection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.data.resources[id]
	if !ok {
		return notFound("increment counter")
	}
	if direction == models.VoteDislike {
		r.Dislikes++
	} else {
		r.Likes++
	}
	s.data.resources[id] = r
	return nil
}

func (s *Memory) DeleteResource(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.resources[id]; !ok {
		return notFound("delete resource")
	}
	delete(s.data.resources, id)
	return nil
}

// --- completions ---

func (s *Memory) GetCompletion(_ context.Context, userID, resourceID uint) (*models.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.data.completions {
		if c.UserID == userID && c.ResourceID == resourceID {
			return &c, nil
		}
	}
	return nil, notFound("get completion")
}

func (s *Memory) CreateCompletion(_ context.Context, completion *models.Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.data.completions {
		if c.UserID == completion.UserID && c.ResourceID == completion.ResourceID {
			return duplicate("create completion")
		}
	}
	completion.ID = s.data.id()
	s.stamp(&completion.CompletedAt)
	s.data.completions = append(s.data.completions, *completion)
	return nil
}

func (s *Memory) ListCompletions(_ context.Context, resourceID uint) ([]models.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	completions := make([]models.Completion, 0)
	for _, c := range s.data.completions {
		if c.ResourceID == resourceID {
			completions = append(completions, c)
		}
	}
	sort.SliceStable(completions, func(i, j int) bool {
		return completions[i].CompletedAt.Before(completions[j].CompletedAt)
	})
	return completions, nil
}

func (s *Memory) DeleteCompletions(_ context.Context, resourceID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.data.completions[:0]
	for _, c := range s.data.completions {
		if c.ResourceID != resourceID {
			kept = append(kept, c)
		}
	}
	s.data.completions = kept
	return nil
}

func (s *Memory) ListUnitCompletions(_ context.Context, unitID uint) ([]models.UnitCompletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]models.UnitCompletion, 0)
	for _, c := range s.data.completions {
		r, ok := s.data.resources[c.ResourceID]
		if !ok || r.UnitID != unitID {
			continue
		}
		rows = append(rows, models.UnitCompletion{
			UserID:            c.UserID,
			DisplayName:       s.data.users[c.UserID].DisplayName,
			ResourceID:        c.ResourceID,
			ResourceCreatedAt: r.CreatedAt,
			CompletedAt:       c.CompletedAt,
		})
	}
	return rows, nil
}

// --- comments ---

func (s *Memory) CreateComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment.ID = s.data.id()
	s.stamp(&comment.CreatedAt)
	s.data.comments = append(s.data.comments, *comment)
	return nil
}

func (s *Memory) ListComments(_ context.Context, resourceID uint) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comments := make([]models.Comment, 0)
	for _, c := range s.data.comments {
		if c.ResourceID == resourceID {
			comments = append(comments, c)
		}
	}
	return comments, nil
}

func (s *Memory) DeleteComments(_ context.Context, resourceID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.data.comments[:0]
	for _, c := range s.data.comments {
		if c.ResourceID != resourceID {
			kept = append(kept, c)
		}
	}
	s.data.comments = kept
	return nil
}

// --- votes ---

func (s *Memory) GetVote(_ context.Context, userID, resourceID uint) (*models.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.data.votes {
		if v.UserID == userID && v.ResourceID == resourceID {
			return &v, nil
		}
	}
	return nil, notFound("get vote")
}

func (s *Memory) CreateVote(_ context.Context, vote *models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.data.votes {
		if v.UserID == vote.UserID && v.ResourceID == vote.ResourceID {
			return duplicate("create vote")
		}
	}
	vote.ID = s.data.id()
	s.stamp(&vote.CreatedAt)
	s.data.votes = append(s.data.votes, *vote)
	return nil
}

func (s *Memory) DeleteVotes(_ context.Context, resourceID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.data.votes[:0]
	for _, v := range s.data.votes {
		if v.ResourceID != resourceID {
			kept = append(kept, v)
		}
	}
	s.data.votes = kept
	return nil
}
