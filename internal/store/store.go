// Package store is the persistence boundary of the portal. Services talk to
// the Store interface; Postgres (gorm) backs production and Memory backs tests
// and local development.
package store

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"unishare/internal/models"
)

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// ResourceFilter narrows ListResources. Zero values mean "any".
type ResourceFilter struct {
	UnitID  uint
	Type    models.ResourceType
	OwnerID uint
}

type Store interface {
	// WithTx runs fn in one transaction. Any error returned by fn rolls back
	// every write made through tx.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByAdmission(ctx context.Context, admission string) (*models.User, error)
	SetPassword(ctx context.Context, userID uint, hash string) error
	// AddPoints applies delta to the balance (floored at 0), refreshes the
	// denormalised rank and records a ledger row, serialised per user.
	AddPoints(ctx context.Context, userID uint, delta int, action, reference string) (*models.User, error)
	SetRank(ctx context.Context, userID uint, rank int) error
	ListUsers(ctx context.Context) ([]models.User, error)
	TopUsers(ctx context.Context, limit int) ([]models.User, error)
	ListPointLogs(ctx context.Context, userID uint, limit int) ([]models.PointLog, error)
	CountPointLogsSince(ctx context.Context, userID uint, action string, since time.Time) (int64, error)

	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	RevokeSession(ctx context.Context, token string, at time.Time) error
	PurgeSessions(ctx context.Context, now time.Time) (int64, error)

	CreateProgram(ctx context.Context, program *models.Program) error
	GetProgram(ctx context.Context, id uint) (*models.Program, error)
	CreateCourse(ctx context.Context, course *models.Course) error
	GetCourse(ctx context.Context, id uint) (*models.Course, error)
	CreateClassInstance(ctx context.Context, ci *models.ClassInstance) error
	GetClassInstance(ctx context.Context, id uint) (*models.ClassInstance, error)
	CreateUnit(ctx context.Context, unit *models.Unit) error
	GetUnit(ctx context.Context, id uint) (*models.Unit, error)
	// ListUnits returns all units, or only those of one class instance.
	ListUnits(ctx context.Context, classInstanceID *uint) ([]models.Unit, error)

	CreateResource(ctx context.Context, resource *models.Resource) error
	GetResource(ctx context.Context, id uint) (*models.Resource, error)
	UpdateResource(ctx context.Context, resource *models.Resource) error
	ListResources(ctx context.Context, filter ResourceFilter) ([]models.Resource, error)
	IncrementResourceCounter(ctx context.Context, id uint, direction models.VoteDirection) error
	DeleteResource(ctx context.Context, id uint) error

	GetCompletion(ctx context.Context, userID, resourceID uint) (*models.Completion, error)
	CreateCompletion(ctx context.Context, completion *models.Completion) error
	ListCompletions(ctx context.Context, resourceID uint) ([]models.Completion, error)
	DeleteCompletions(ctx context.Context, resourceID uint) error
	ListUnitCompletions(ctx context.Context, unitID uint) ([]models.UnitCompletion, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, resourceID uint) ([]models.Comment, error)
	DeleteComments(ctx context.Context, resourceID uint) error

	GetVote(ctx context.Context, userID, resourceID uint) (*models.Vote, error)
	CreateVote(ctx context.Context, vote *models.Vote) error
	DeleteVotes(ctx context.Context, resourceID uint) error
}
