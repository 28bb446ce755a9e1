package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"unishare/internal/services"
	"unishare/internal/utils"
)

type UserHandler struct {
	points       *services.PointsService
	leaderboards *services.LeaderboardService
}

func NewUserHandler(points *services.PointsService, leaderboards *services.LeaderboardService) *UserHandler {
	return &UserHandler{points: points, leaderboards: leaderboards}
}

// Me returns the caller with their rank and the distance to the next one.
func (h *UserHandler) Me(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	standing, err := h.points.Profile(c.Request.Context(), sess)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, standing)
}

func (h *UserHandler) PointLogs(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	logs, err := h.points.History(c.Request.Context(), sess)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (h *UserHandler) Ranks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ranks": utils.Ranks})
}

// Leaderboard lists the users with the most points. ?limit= caps the size.
func (h *UserHandler) Leaderboard(c *gin.Context) {
	limit := utils.StringToInt(c.DefaultQuery("limit", "10"))
	standings, err := h.leaderboards.TopUsers(c.Request.Context(), limit)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": standings})
}
