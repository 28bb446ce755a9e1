package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"unishare/internal/middleware"
	"unishare/internal/services"
	"unishare/internal/utils"
)

// RespondError maps a service error onto an HTTP status and JSON body.
func RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, services.ErrInvalidInput):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, services.ErrInvalidCredentials.Error()
	case errors.Is(err, services.ErrSessionExpired):
		status, message = http.StatusUnauthorized, services.ErrSessionExpired.Error()
	case errors.Is(err, services.ErrUnauthorized):
		status, message = http.StatusForbidden, services.ErrUnauthorized.Error()
	case errors.Is(err, services.ErrNotFound):
		status, message = http.StatusNotFound, services.ErrNotFound.Error()
	case errors.Is(err, services.ErrBackendUnavailable):
		status, message = http.StatusServiceUnavailable, services.ErrBackendUnavailable.Error()
	}

	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// currentSession returns the caller's session. Routes using it sit behind
// AuthRequired, so a missing session is a 401.
func currentSession(c *gin.Context) (*services.Session, bool) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "please log in"})
	}
	return sess, ok
}

// paramID reads a numeric path parameter, answering 400 when malformed.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
	}
	return id, ok
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}
