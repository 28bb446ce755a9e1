package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"unishare/internal/models"
	"unishare/internal/store"
	"unishare/internal/utils"
)

const minPasswordLength = 8

type AuthService struct {
	store           store.Store
	points          *PointsService
	notifier        Notifier
	defaultPassword string
	ttl             time.Duration
	now             func() time.Time
}

func NewAuthService(st store.Store, points *PointsService, notifier Notifier, defaultPassword string, ttl time.Duration, now func() time.Time) *AuthService {
	return &AuthService{store: st, points: points, notifier: notifier, defaultPassword: defaultPassword, ttl: ttl, now: now}
}

type LoginResult struct {
	Session    *Session `json:"session"`
	LoginBonus int      `json:"login_bonus"`
}

// checkPassword verifies against the stored bcrypt hash, or against the
// default password for student accounts that never set one. Admins always
// need their own password.
func (s *AuthService) checkPassword(user *models.User, password string) bool {
	if user.Password == "" {
		return !user.IsAdmin() && s.defaultPassword != "" && password == s.defaultPassword
	}
	return utils.CheckPasswordHash(password, user.Password)
}

func (s *AuthService) Login(ctx context.Context, admission, password string) (*LoginResult, error) {
	admission = strings.TrimSpace(admission)
	if admission == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByAdmission(ctx, admission)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeError(err, "login")
	}
	if !s.checkPassword(user, password) {
		log.WithField("admission", admission).Info("login rejected")
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	session := &models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, storeError(err, "create session")
	}

	bonus, err := s.points.AwardLoginBonus(ctx, user.ID)
	if err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("login bonus not applied")
	}
	if bonus > 0 {
		if refreshed, err := s.store.GetUser(ctx, user.ID); err == nil {
			user = refreshed
		}
	}

	log.WithFields(log.Fields{"user_id": user.ID, "bonus": bonus}).Info("user logged in")
	return &LoginResult{
		Session:    &Session{Token: session.Token, User: user, ExpiresAt: session.ExpiresAt},
		LoginBonus: bonus,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, sess *Session) error {
	if err := s.store.RevokeSession(ctx, sess.Token, s.now()); err != nil {
		return storeError(err, "logout")
	}
	return nil
}

// Authenticate resolves an active session token to its session and user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionExpired
	}
	session, err := s.store.GetSession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, storeError(err, "get session")
	}
	if !session.Active(s.now()) {
		return nil, ErrSessionExpired
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, storeError(err, "get session user")
	}
	return &Session{Token: session.Token, User: user, ExpiresAt: session.ExpiresAt}, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, sess *Session, current, next string) error {
	user, err := s.store.GetUser(ctx, sess.User.ID)
	if err != nil {
		return storeError(err, "change password")
	}
	if !s.checkPassword(user, current) {
		return ErrInvalidCredentials
	}
	if utf8.RuneCountInString(next) < minPasswordLength {
		return invalid("password must be at least %d characters", minPasswordLength)
	}
	hash, err := utils.HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.store.SetPassword(ctx, user.ID, hash); err != nil {
		return storeError(err, "change password")
	}
	return nil
}

type NewUser struct {
	AdmissionNumber string `json:"admission_number"`
	Email           string `json:"email"`
	DisplayName     string `json:"display_name"`
	Password        string `json:"password"`
	Role            string `json:"role"`
	ClassInstanceID *uint  `json:"class_instance_id"`
}

// CreateUser registers an account. Only admins may call it, and only a super
// admin may create another admin.
func (s *AuthService) CreateUser(ctx context.Context, sess *Session, in NewUser) (*models.User, error) {
	if !sess.User.IsAdmin() {
		return nil, ErrUnauthorized
	}

	in.AdmissionNumber = strings.TrimSpace(in.AdmissionNumber)
	in.Email = strings.TrimSpace(in.Email)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if in.Role == "" {
		in.Role = models.RoleStudent
	}

	switch {
	case in.AdmissionNumber == "" || len(in.AdmissionNumber) > 32:
		return nil, invalid("admission number is required (max 32 characters)")
	case in.DisplayName == "":
		return nil, invalid("display name is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, invalid("email %q is not valid", in.Email)
	}
	switch in.Role {
	case models.RoleStudent:
	case models.RoleAdmin, models.RoleSuperAdmin:
		if !sess.User.IsSuperAdmin() {
			return nil, ErrUnauthorized
		}
		if in.Password == "" {
			return nil, invalid("admin accounts need a password")
		}
	default:
		return nil, invalid("unknown role %q", in.Role)
	}
	if in.ClassInstanceID != nil {
		if _, err := s.store.GetClassInstance(ctx, *in.ClassInstanceID); err != nil {
			return nil, storeError(err, "get class instance")
		}
	}

	user := &models.User{
		AdmissionNumber: in.AdmissionNumber,
		Email:           in.Email,
		DisplayName:     in.DisplayName,
		Role:            in.Role,
		Rank:            utils.RankFor(0).Level,
		ClassInstanceID: in.ClassInstanceID,
	}
	if in.Password != "" {
		if utf8.RuneCountInString(in.Password) < minPasswordLength {
			return nil, invalid("password must be at least %d characters", minPasswordLength)
		}
		hash, err := utils.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, invalid("admission number or email already registered")
		}
		return nil, storeError(err, "create user")
	}
	log.WithFields(log.Fields{"user_id": user.ID, "by": sess.User.ID}).Info("user created")
	s.notifier.SendWelcomeEmail(user.Email, user.DisplayName, user.AdmissionNumber)
	return user, nil
}

// PurgeSessions drops expired and revoked sessions.
func (s *AuthService) PurgeSessions(ctx context.Context) (int64, error) {
	n, err := s.store.PurgeSessions(ctx, s.now())
	if err != nil {
		return 0, storeError(err, "purge sessions")
	}
	return n, nil
}
