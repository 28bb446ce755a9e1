package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"unishare/internal/middleware"
	"unishare/internal/services"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	AdmissionNumber string `json:"admission_number" form:"admission_number"`
	Password        string `json:"password" form:"password"`
}

// Login opens a session and stores its token in the cookie session. The
// token is also returned for clients that send it as a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "admission_number and password are required")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.AdmissionNumber, req.Password)
	if err != nil {
		RespondError(c, err)
		return
	}

	cookie := sessions.Default(c)
	cookie.Set(middleware.SessionTokenKey, result.Session.Token)
	if err := cookie.Save(); err != nil {
		log.WithError(err).Error("failed to save session cookie")
	}
	c.JSON(http.StatusOK, result)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if sess, ok := middleware.CurrentSession(c); ok {
		if err := h.auth.Logout(c.Request.Context(), sess); err != nil {
			RespondError(c, err)
			return
		}
	}
	cookie := sessions.Default(c)
	cookie.Clear()
	if err := cookie.Save(); err != nil {
		log.WithError(err).Warn("failed to clear session cookie")
	}
	c.Status(http.StatusNoContent)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "current_password and new_password are required")
		return
	}
	if err := h.auth.ChangePassword(c.Request.Context(), sess, req.CurrentPassword, req.NewPassword); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
