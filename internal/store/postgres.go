package store

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"unishare/internal/models"
	"unishare/internal/utils"
)

// Postgres implements Store on top of gorm with the postgres driver.
type Postgres struct {
	db *gorm.DB
}

var _ Store = (*Postgres)(nil)

func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

// translate maps driver errors onto the store sentinels.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(ErrNotFound, op)
	}
	if isUniqueViolation(err) {
		return errors.Wrap(ErrDuplicate, op)
	}
	return errors.Wrap(err, op)
}

func isUniqueViolation(err error) bool {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Postgres) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Postgres{db: tx})
	})
}

// --- users ---

func (s *Postgres) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error, "create user")
}

func (s *Postgres) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "get user")
	}
	return &user, nil
}

func (s *Postgres) GetUserByAdmission(ctx context.Context, admission string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("LOWER(admission_number) = LOWER(?)", admission).First(&user).Error; err != nil {
		return nil, translate(err, "get user by admission number")
	}
	return &user, nil
}

func (s *Postgres) SetPassword(ctx context.Context, userID uint, hash string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("password", hash)
	if res.Error != nil {
		return translate(res.Error, "set password")
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(ErrNotFound, "set password")
	}
	return nil
}

func (s *Postgres) AddPoints(ctx context.Context, userID uint, delta int, action, reference string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Row lock serialises concurrent awards to the same user.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			return err
		}

		points := user.Points + delta
		if points < 0 {
			points = 0
		}
		applied := points - user.Points
		rank := utils.RankFor(points).Level

		if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"points": points,
			"rank":   rank,
		}).Error; err != nil {
			return err
		}

		entry := models.PointLog{
			UserID:    userID,
			Amount:    applied,
			Action:    action,
			Reference: reference,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		user.Points = points
		user.Rank = rank
		return nil
	})
	if err != nil {
		return nil, translate(err, "add points")
	}
	return &user, nil
}

func (s *Postgres) SetRank(ctx context.Context, userID uint, rank int) error {
	return translate(
		s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).UpdateColumn("rank", rank).Error,
		"set rank",
	)
}

func (s *Postgres) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, translate(err, "list users")
	}
	return users, nil
}

func (s *Postgres) TopUsers(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("points DESC, id ASC").Limit(limit).Find(&users).Error; err != nil {
		return nil, translate(err, "top users")
	}
	return users, nil
}

func (s *Postgres) ListPointLogs(ctx context.Context, userID uint, limit int) ([]models.PointLog, error) {
	var logs []models.PointLog
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, translate(err, "list point logs")
	}
	return logs, nil
}

func (s *Postgres) CountPointLogsSince(ctx context.Context, userID uint, action string, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.PointLog{}).
		Where("user_id = ? AND action = ? AND created_at >= ?", userID, action, since).
		Count(&count).Error
	return count, translate(err, "count point logs")
}

// --- sessions ---

func (s *Postgres) CreateSession(ctx context.Context, session *models.Session) error {
	return translate(s.db.WithContext(ctx).Create(session).Error, "create session")
}

func (s *Postgres) GetSession(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&session).Error; err != nil {
		return nil, translate(err, "get session")
	}
	return &session, nil
}

func (s *Postgres) RevokeSession(ctx context.Context, token string, at time.Time) error {
	return translate(
		s.db.WithContext(ctx).Model(&models.Session{}).
			Where("token = ? AND revoked_at IS NULL", token).
			Update("revoked_at", at).Error,
		"revoke session",
	)
}

func (s *Postgres) PurgeSessions(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at IS NOT NULL", now).
		Delete(&models.Session{})
	return res.RowsAffected, translate(res.Error, "purge sessions")
}

// --- catalog ---

func (s *Postgres) CreateProgram(ctx context.Context, program *models.Program) error {
	return translate(s.db.WithContext(ctx).Create(program).Error, "create program")
}

func (s *Postgres) GetProgram(ctx context.Context, id uint) (*models.Program, error) {
	var program models.Program
	if err := s.db.WithContext(ctx).First(&program, id).Error; err != nil {
		return nil, translate(err, "get program")
	}
	return &program, nil
}

func (s *Postgres) CreateCourse(ctx context.Context, course *models.Course) error {
	return translate(s.db.WithContext(ctx).Create(course).Error, "create course")
}

func (s *Postgres) GetCourse(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	if err := s.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return nil, translate(err, "get course")
	}
	return &course, nil
}

func (s *Postgres) CreateClassInstance(ctx context.Context, ci *models.ClassInstance) error {
	return translate(s.db.WithContext(ctx).Create(ci).Error, "create class instance")
}

func (s *Postgres) GetClassInstance(ctx context.Context, id uint) (*models.ClassInstance, error) {
	var ci models.ClassInstance
	if err := s.db.WithContext(ctx).First(&ci, id).Error; err != nil {
		return nil, translate(err, "get class instance")
	}
	return &ci, nil
}

func (s *Postgres) CreateUnit(ctx context.Context, unit *models.Unit) error {
	return translate(s.db.WithContext(ctx).Create(unit).Error, "create unit")
}

func (s *Postgres) GetUnit(ctx context.Context, id uint) (*models.Unit, error) {
	var unit models.Unit
	if err := s.db.WithContext(ctx).First(&unit, id).Error; err != nil {
		return nil, translate(err, "get unit")
	}
	return &unit, nil
}

func (s *Postgres) ListUnits(ctx context.Context, classInstanceID *uint) ([]models.Unit, error) {
	var units []models.Unit
	q := s.db.WithContext(ctx).Order("code ASC, id ASC")
	if classInstanceID != nil {
		q = q.Where("class_instance_id = ?", *classInstanceID)
	}
	if err := q.Find(&units).Error; err != nil {
		return nil, translate(err, "list units")
	}
	return units, nil
}

// --- resources ---

func (s *Postgres) CreateResource(ctx context.Context, resource *models.Resource) error {
	return translate(s.db.WithContext(ctx).Create(resource).Error, "create resource")
}

func (s *Postgres) GetResource(ctx context.Context, id uint) (*models.Resource, error) {
	var resource models.Resource
	if err := s.db.WithContext(ctx).First(&resource, id).Error; err != nil {
		return nil, translate(err, "get resource")
	}
	return &resource, nil
}

func (s *Postgres) UpdateResource(ctx context.Context, resource *models.Resource) error {
	// Counters are owned by IncrementResourceCounter and never written here.
	return translate(
		s.db.WithContext(ctx).Model(resource).
			Select("title", "description", "deadline", "file_path", "file_name", "updated_at").
			Updates(resource).Error,
		"update resource",
	)
}

func (s *Postgres) ListResources(ctx context.Context, filter ResourceFilter) ([]models.Resource, error) {
	var resources []models.Resource
	q := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if filter.UnitID != 0 {
		q = q.Where("unit_id = ?", filter.UnitID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.OwnerID != 0 {
		q = q.Where("owner_id = ?", filter.OwnerID)
	}
	if err := q.Find(&resources).Error; err != nil {
		return nil, translate(err, "list resources")
	}
	return resources, nil
}

func (s *Postgres) IncrementResourceCounter(ctx context.Context, id uint, direction models.VoteDirection) error {
	column := "likes"
	if direction == models.VoteDislike {
		column = "dislikes"
	}
	res := s.db.WithContext(ctx).Model(&models.Resource{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if res.Error != nil {
		return translate(res.Error, "increment "+column)
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(ErrNotFound, "increment "+column)
	}
	return nil
}

func (s *Postgres) DeleteResource(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Resource{}, id)
	if res.Error != nil {
		return translate(res.Error, "delete resource")
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(ErrNotFound, "delete resource")
	}
	return nil
}

// --- completions ---

func (s *Postgres) GetCompletion(ctx context.Context, userID, resourceID uint) (*models.Completion, error) {
	var completion models.Completion
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND resource_id = ?", userID, resourceID).
		First(&completion).Error; err != nil {
		return nil, translate(err, "get completion")
	}
	return &completion, nil
}

func (s *Postgres) CreateCompletion(ctx context.Context, completion *models.Completion) error {
	return translate(s.db.WithContext(ctx).Create(completion).Error, "create completion")
}

func (s *Postgres) ListCompletions(ctx context.Context, resourceID uint) ([]models.Completion, error) {
	var completions []models.Completion
	if err := s.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Order("completed_at ASC, id ASC").
		Find(&completions).Error; err != nil {
		return nil, translate(err, "list completions")
	}
	return completions, nil
}

func (s *Postgres) DeleteCompletions(ctx context.Context, resourceID uint) error {
	return translate(
		s.db.WithContext(ctx).Where("resource_id = ?", resourceID).Delete(&models.Completion{}).Error,
		"delete completions",
	)
}

func (s *Postgres) ListUnitCompletions(ctx context.Context, unitID uint) ([]models.UnitCompletion, error) {
	var rows []models.UnitCompletion
	err := s.db.WithContext(ctx).
		Table("completions AS c").
		Select("c.user_id, u.display_name, c.resource_id, r.created_at AS resource_created_at, c.completed_at").
		Joins("JOIN resources r ON r.id = c.resource_id").
		Joins("JOIN users u ON u.id = c.user_id").
		Where("r.unit_id = ?", unitID).
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "list unit completions")
	}
	return rows, nil
}

// --- comments ---

func (s *Postgres) CreateComment(ctx context.Context, comment *models.Comment) error {
	return translate(s.db.WithContext(ctx).Create(comment).Error, "create comment")
}

func (s *Postgres) ListComments(ctx context.Context, resourceID uint) ([]models.Comment, error) {
	var comments []models.Comment
	if err := s.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error; err != nil {
		return nil, translate(err, "list comments")
	}
	return comments, nil
}

func (s *Postgres) DeleteComments(ctx context.Context, resourceID uint) error {
	return translate(
		s.db.WithContext(ctx).Where("resource_id = ?", resourceID).Delete(&models.Comment{}).Error,
		"delete comments",
	)
}

// --- votes ---

func (s *Postgres) GetVote(ctx context.Context, userID, resourceID uint) (*models.Vote, error) {
	var vote models.Vote
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND resource_id = ?", userID, resourceID).
		First(&vote).Error; err != nil {
		return nil, translate(err, "get vote")
	}
	return &vote, nil
}

func (s *Postgres) CreateVote(ctx context.Context, vote *models.Vote) error {
	return translate(s.db.WithContext(ctx).Create(vote).Error, "create vote")
}

func (s *Postgres) DeleteVotes(ctx context.Context, resourceID uint) error {
	return translate(
		s.db.WithContext(ctx).Where("resource_id = ?", resourceID).Delete(&models.Vote{}).Error,
		"delete votes",
	)
}
