package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"unishare/internal/services"
)

// EngagementHandler serves completions and comments on a resource.
type EngagementHandler struct {
	completions *services.CompletionService
	comments    *services.CommentService
}

func NewEngagementHandler(completions *services.CompletionService, comments *services.CommentService) *EngagementHandler {
	return &EngagementHandler{completions: completions, comments: comments}
}

func (h *EngagementHandler) Complete(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	result, err := h.completions.Complete(c.Request.Context(), sess, id)
	if err != nil {
		RespondError(c, err)
		return
	}
	status := http.StatusCreated
	if result.Outcome == services.CompletionAlreadyCompleted {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

func (h *EngagementHandler) Completions(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	completions, err := h.completions.ListCompletions(c.Request.Context(), sess, id)
	if err != nil {
		RespondError(c, err)
		return
	}
	completed, err := h.completions.HasCompleted(c.Request.Context(), sess, id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completions": completions, "completed_by_me": completed})
}

func (h *EngagementHandler) Comments(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	comments, err := h.comments.ListComments(c.Request.Context(), sess, id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

type commentRequest struct {
	Content string `json:"content" form:"content"`
}

func (h *EngagementHandler) AddComment(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	comment, err := h.comments.AddComment(c.Request.Context(), sess, id, req.Content)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}
