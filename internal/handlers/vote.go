package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"unishare/internal/models"
	"unishare/internal/services"
)

type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

type voteRequest struct {
	Direction models.VoteDirection `json:"direction" binding:"required"`
}

// Vote answers 200 for accepted votes as well as for repeated or
// conflicting ones; the outcome field tells them apart.
func (h *VoteHandler) Vote(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "direction must be like or dislike")
		return
	}

	result, err := h.votes.Vote(c.Request.Context(), sess, id, req.Direction)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *VoteHandler) State(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	direction, err := h.votes.State(c.Request.Context(), sess, id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"direction": direction})
}
