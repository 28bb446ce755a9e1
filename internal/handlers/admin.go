package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"unishare/internal/models"
	"unishare/internal/services"
)

// AdminHandler serves account and catalog management. Routes sit behind
// AdminRequired; the services check roles again.
type AdminHandler struct {
	auth    *services.AuthService
	catalog *services.CatalogService
	points  *services.PointsService
}

func NewAdminHandler(auth *services.AuthService, catalog *services.CatalogService, points *services.PointsService) *AdminHandler {
	return &AdminHandler{auth: auth, catalog: catalog, points: points}
}

func (h *AdminHandler) CreateUser(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var req services.NewUser
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	user, err := h.auth.CreateUser(c.Request.Context(), sess, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type programRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *AdminHandler) CreateProgram(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var req programRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}
	program, err := h.catalog.CreateProgram(c.Request.Context(), sess, req.Name)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, program)
}

type courseRequest struct {
	ProgramID uint   `json:"program_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
}

func (h *AdminHandler) CreateCourse(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "program_id and name are required")
		return
	}
	course, err := h.catalog.CreateCourse(c.Request.Context(), sess, req.ProgramID, req.Name)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

func (h *AdminHandler) CreateClassInstance(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var req models.ClassInstance
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	ci, err := h.catalog.CreateClassInstance(c.Request.Context(), sess, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ci)
}

func (h *AdminHandler) CreateUnit(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var req models.Unit
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	unit, err := h.catalog.CreateUnit(c.Request.Context(), sess, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, unit)
}

// ReconcileRanks repairs stored ranks on demand, the same job the scheduler runs nightly.
func (h *AdminHandler) ReconcileRanks(c *gin.Context) {
	fixed, err := h.points.ReconcileRanks(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fixed": fixed})
}
