package services

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"

	"unishare/internal/models"
	"unishare/internal/store"
)

type CatalogService struct {
	store store.Store
}

func NewCatalogService(st store.Store) *CatalogService {
	return &CatalogService{store: st}
}

// canSeeUnit: admins see every unit, students only the units of their class instance.
func canSeeUnit(sess *Session, unit *models.Unit) bool {
	if sess.User.IsAdmin() {
		return true
	}
	return sess.User.ClassInstanceID != nil && *sess.User.ClassInstanceID == unit.ClassInstanceID
}

// visibleUnit loads a unit and checks that the caller may see it.
func (s *CatalogService) visibleUnit(ctx context.Context, sess *Session, unitID uint) (*models.Unit, error) {
	unit, err := s.store.GetUnit(ctx, unitID)
	if err != nil {
		return nil, storeError(err, "get unit")
	}
	if !canSeeUnit(sess, unit) {
		return nil, ErrUnauthorized
	}
	return unit, nil
}

func (s *CatalogService) ListUnits(ctx context.Context, sess *Session) ([]models.Unit, error) {
	var scope *uint
	if !sess.User.IsAdmin() {
		if sess.User.ClassInstanceID == nil {
			return []models.Unit{}, nil
		}
		scope = sess.User.ClassInstanceID
	}
	units, err := s.store.ListUnits(ctx, scope)
	if err != nil {
		return nil, storeError(err, "list units")
	}
	return units, nil
}

func (s *CatalogService) GetUnit(ctx context.Context, sess *Session, id uint) (*models.Unit, error) {
	return s.visibleUnit(ctx, sess, id)
}

func duplicateOr(err error, what, op string) error {
	if errors.Is(err, store.ErrDuplicate) {
		return invalid("%s already exists", what)
	}
	return storeError(err, op)
}

func (s *CatalogService) CreateProgram(ctx context.Context, sess *Session, name string) (*models.Program, error) {
	if !sess.User.IsAdmin() {
		return nil, ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("program name is required")
	}
	program := &models.Program{Name: name}
	if err := s.store.CreateProgram(ctx, program); err != nil {
		return nil, duplicateOr(err, "program", "create program")
	}
	log.WithFields(log.Fields{"program_id": program.ID, "by": sess.User.ID}).Info("program created")
	return program, nil
}

func (s *CatalogService) CreateCourse(ctx context.Context, sess *Session, programID uint, name string) (*models.Course, error) {
	if !sess.User.IsAdmin() {
		return nil, ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("course name is required")
	}
	if _, err := s.store.GetProgram(ctx, programID); err != nil {
		return nil, storeError(err, "get program")
	}
	course := &models.Course{ProgramID: programID, Name: name}
	if err := s.store.CreateCourse(ctx, course); err != nil {
		return nil, storeError(err, "create course")
	}
	return course, nil
}

func (s *CatalogService) CreateClassInstance(ctx context.Context, sess *Session, ci models.ClassInstance) (*models.ClassInstance, error) {
	if !sess.User.IsAdmin() {
		return nil, ErrUnauthorized
	}
	ci.Group = strings.TrimSpace(ci.Group)
	switch {
	case ci.Year < 1 || ci.Year > 7:
		return nil, invalid("year must be between 1 and 7")
	case ci.Semester < 1 || ci.Semester > 3:
		return nil, invalid("semester must be between 1 and 3")
	case ci.Group == "":
		return nil, invalid("group is required")
	}
	if _, err := s.store.GetCourse(ctx, ci.CourseID); err != nil {
		return nil, storeError(err, "get course")
	}
	ci.ID = 0
	if err := s.store.CreateClassInstance(ctx, &ci); err != nil {
		return nil, duplicateOr(err, "class instance", "create class instance")
	}
	return &ci, nil
}

func (s *CatalogService) CreateUnit(ctx context.Context, sess *Session, unit models.Unit) (*models.Unit, error) {
	if !sess.User.IsAdmin() {
		return nil, ErrUnauthorized
	}
	unit.Code = strings.ToUpper(strings.TrimSpace(unit.Code))
	unit.Name = strings.TrimSpace(unit.Name)
	if unit.Code == "" || unit.Name == "" {
		return nil, invalid("unit code and name are required")
	}
	if _, err := s.store.GetClassInstance(ctx, unit.ClassInstanceID); err != nil {
		return nil, storeError(err, "get class instance")
	}
	unit.ID = 0
	if err := s.store.CreateUnit(ctx, &unit); err != nil {
		return nil, storeError(err, "create unit")
	}
	return &unit, nil
}
