package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"unishare/internal/models"
	"unishare/internal/services"
)

type stubAuth struct {
	sess *services.Session
	err  error
}

func (a stubAuth) Authenticate(context.Context, string) (*services.Session, error) {
	return a.sess, a.err
}

func serve(auth Authenticator, token string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("unishare_session", cookie.NewStore([]byte("test-secret"))))
	r.Use(LoadUser(auth))
	r.GET("/me", AuthRequired(), func(c *gin.Context) {
		sess, _ := CurrentSession(c)
		c.JSON(http.StatusOK, gin.H{"id": sess.User.ID})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoadUserResolvesSession(t *testing.T) {
	sess := &services.Session{Token: "t1", User: &models.User{ID: 7, Role: models.RoleStudent}}
	w := serve(stubAuth{sess: sess}, "t1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7}`, w.Body.String())
}

func TestLoadUserWithoutToken(t *testing.T) {
	w := serve(stubAuth{err: fmt.Errorf("should not be called: %w", services.ErrBackendUnavailable)}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoadUserExpiredSession(t *testing.T) {
	w := serve(stubAuth{err: services.ErrSessionExpired}, "old")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "please log in")
}

func TestLoadUserBackendFailure(t *testing.T) {
	w := serve(stubAuth{err: fmt.Errorf("authenticate: %w: dial tcp 10.0.0.5:5432", services.ErrBackendUnavailable)}, "valid-looking")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "try again")
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}

func TestLoadUserUnexpectedFailure(t *testing.T) {
	w := serve(stubAuth{err: fmt.Errorf("boom")}, "valid-looking")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
