package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unishare/internal/models"
)

func TestLoginWithDefaultPasswordAndDailyBonus(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Auth.Login(f.ctx, " s001 ", defaultPassword)
	require.NoError(t, err)
	assert.Equal(t, 10, res.LoginBonus)
	assert.Equal(t, 10, res.Session.User.Points)
	assert.NotEmpty(t, res.Session.Token)

	again, err := f.svc.Auth.Login(f.ctx, "S001", defaultPassword)
	require.NoError(t, err)
	assert.Zero(t, again.LoginBonus, "bonus is granted once per day")
	assert.Equal(t, 10, f.points(t, f.alice))
}

func TestLoginBonusNextDay(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Auth.Login(f.ctx, "S001", defaultPassword)
	require.NoError(t, err)
	assert.Equal(t, 10, res.LoginBonus)

	f.clock.Set(f.clock.Now().Add(24 * time.Hour))
	res, err = f.svc.Auth.Login(f.ctx, "S001", defaultPassword)
	require.NoError(t, err)
	assert.Equal(t, 10, res.LoginBonus)
	assert.Equal(t, 20, f.points(t, f.alice))
}

func TestLoginBonusFollowsAppTimezone(t *testing.T) {
	nairobi := time.FixedZone("EAT", 3*60*60)
	f := newFixture(t, func(o *Options) { o.Location = nairobi })

	// 23:30 local on the 9th.
	f.clock.Set(time.Date(2024, 1, 9, 20, 30, 0, 0, time.UTC))
	res, err := f.svc.Auth.Login(f.ctx, "S001", defaultPassword)
	require.NoError(t, err)
	assert.Equal(t, 10, res.LoginBonus)

	// 00:30 local on the 10th, still the 9th in UTC.
	f.clock.Set(time.Date(2024, 1, 9, 21, 30, 0, 0, time.UTC))
	res, err = f.svc.Auth.Login(f.ctx, "S001", defaultPassword)
	require.NoError(t, err)
	assert.Equal(t, 10, res.LoginBonus)

	f.clock.Set(time.Date(2024, 1, 10, 20, 59, 0, 0, time.UTC))
	res, err = f.svc.Auth.Login(f.ctx, "S001", defaultPassword)
	require.NoError(t, err)
	assert.Zero(t, res.LoginBonus, "23:59 local on the 10th")
	assert.Equal(t, 20, f.points(t, f.alice))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Auth.Login(f.ctx, "S001", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Auth.Login(f.ctx, "NOPE", defaultPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Auth.Login(f.ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Zero(t, f.points(t, f.alice))
}

func TestAuthenticateAndLogout(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Auth.Login(f.ctx, "S001", defaultPassword)
	require.NoError(t, err)

	sess, err := f.svc.Auth.Authenticate(f.ctx, res.Session.Token)
	require.NoError(t, err)
	assert.Equal(t, f.alice.User.ID, sess.User.ID)

	require.NoError(t, f.svc.Auth.Logout(f.ctx, sess))
	_, err = f.svc.Auth.Authenticate(f.ctx, res.Session.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = f.svc.Auth.Authenticate(f.ctx, "")
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestSessionExpires(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Auth.Login(f.ctx, "S001", defaultPassword)
	require.NoError(t, err)

	f.clock.Set(f.clock.Now().Add(2 * time.Hour))
	_, err = f.svc.Auth.Authenticate(f.ctx, res.Session.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)

	n, err := f.svc.Auth.PurgeSessions(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Auth.ChangePassword(f.ctx, f.alice, "wrong", "longenough")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	err = f.svc.Auth.ChangePassword(f.ctx, f.alice, defaultPassword, "short")
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, f.svc.Auth.ChangePassword(f.ctx, f.alice, defaultPassword, "longenough"))

	_, err = f.svc.Auth.Login(f.ctx, "S001", defaultPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Auth.Login(f.ctx, "S001", "longenough")
	assert.NoError(t, err)
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	class := f.alice.User.ClassInstanceID

	u, err := f.svc.Auth.CreateUser(f.ctx, f.admin, NewUser{
		AdmissionNumber: "S010",
		Email:           "s010@uni.test",
		DisplayName:     "New Student",
		ClassInstanceID: class,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, u.Role)
	assert.Equal(t, 1, u.Rank)
	assert.Equal(t, []sentMail{{"welcome", "s010@uni.test"}}, f.notifier.sent)

	_, err = f.svc.Auth.CreateUser(f.ctx, f.admin, NewUser{AdmissionNumber: "S010", Email: "x@uni.test", DisplayName: "Dup"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Auth.CreateUser(f.ctx, f.admin, NewUser{AdmissionNumber: "S011", Email: "not-an-email", DisplayName: "Bad"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	missing := uint(9999)
	_, err = f.svc.Auth.CreateUser(f.ctx, f.admin, NewUser{AdmissionNumber: "S012", Email: "s012@uni.test", DisplayName: "X", ClassInstanceID: &missing})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateUserRoles(t *testing.T) {
	f := newFixture(t)
	plainAdmin := f.session(t, "ADMIN002", models.RoleAdmin, nil)

	_, err := f.svc.Auth.CreateUser(f.ctx, f.alice, NewUser{AdmissionNumber: "S020", Email: "s020@uni.test", DisplayName: "X"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.Auth.CreateUser(f.ctx, plainAdmin, NewUser{AdmissionNumber: "A020", Email: "a020@uni.test", DisplayName: "X", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.Auth.CreateUser(f.ctx, f.admin, NewUser{AdmissionNumber: "A021", Email: "a021@uni.test", DisplayName: "X", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrInvalidInput, "admins need their own password")

	u, err := f.svc.Auth.CreateUser(f.ctx, f.admin, NewUser{AdmissionNumber: "A021", Email: "a021@uni.test", DisplayName: "X", Role: models.RoleAdmin, Password: "admin-secret"})
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	res, err := f.svc.Auth.Login(f.ctx, "A021", "admin-secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.Session.User.ID)
}

func TestAdminCannotUseDefaultPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Auth.Login(f.ctx, "ADMIN001", defaultPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = f.svc.Auth.ChangePassword(f.ctx, f.admin, defaultPassword, "new-admin-secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
