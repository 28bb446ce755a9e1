package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"unishare/internal/services"
)

const (
	// CheckUserKey holds the *services.Session of the caller in the gin context.
	CheckUserKey = "session"
	// SessionTokenKey is the cookie-session field carrying the session token.
	SessionTokenKey = "session_token"
)

// Authenticator resolves session tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.Session, error)
}

func requestToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if token, ok := sessions.Default(c).Get(SessionTokenKey).(string); ok {
		return token
	}
	return ""
}

// LoadUser resolves the caller's session from the cookie or a bearer token.
// Stale cookies are cleared. A failed lookup aborts the request instead of
// treating the caller as anonymous.
func LoadUser(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := requestToken(c)
		if token == "" {
			c.Next()
			return
		}

		sess, err := auth.Authenticate(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(CheckUserKey, sess)
		case errors.Is(err, services.ErrSessionExpired):
			cookie := sessions.Default(c)
			if cookie.Get(SessionTokenKey) != nil {
				cookie.Delete(SessionTokenKey)
				if err := cookie.Save(); err != nil {
					log.WithError(err).Warn("failed to clear session cookie")
				}
			}
		case errors.Is(err, services.ErrBackendUnavailable):
			log.WithError(err).Error("session lookup failed")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": services.ErrBackendUnavailable.Error()})
			return
		default:
			log.WithError(err).Error("session lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.Next()
	}
}

// CurrentSession returns the caller's session, if any.
func CurrentSession(c *gin.Context) (*services.Session, bool) {
	v, ok := c.Get(CheckUserKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*services.Session)
	return sess, ok
}

// AuthRequired rejects requests without a valid session.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentSession(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "please log in"})
			return
		}
		c.Next()
	}
}

// AdminRequired rejects callers that are not admins. Use after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := CurrentSession(c)
		if !ok || !sess.User.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": services.ErrUnauthorized.Error()})
			return
		}
		c.Next()
	}
}
