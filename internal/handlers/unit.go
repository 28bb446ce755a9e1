package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"unishare/internal/models"
	"unishare/internal/services"
)

// UnitHandler serves the unit catalog and per-unit listings.
type UnitHandler struct {
	catalog      *services.CatalogService
	resources    *services.ResourceService
	leaderboards *services.LeaderboardService
}

func NewUnitHandler(catalog *services.CatalogService, resources *services.ResourceService, leaderboards *services.LeaderboardService) *UnitHandler {
	return &UnitHandler{catalog: catalog, resources: resources, leaderboards: leaderboards}
}

func (h *UnitHandler) ListUnits(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	units, err := h.catalog.ListUnits(c.Request.Context(), sess)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"units": units})
}

func (h *UnitHandler) GetUnit(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	unit, err := h.catalog.GetUnit(c.Request.Context(), sess, id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, unit)
}

// ListResources lists a unit's resources. ?type= filters by kind and
// ?sort=top orders by popularity instead of recency.
func (h *UnitHandler) ListResources(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	typ := models.ResourceType(c.Query("type"))
	order := c.DefaultQuery("sort", services.SortNewest)

	resources, err := h.resources.ListByUnit(c.Request.Context(), sess, id, typ, order)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resources": resources})
}

func (h *UnitHandler) Rankings(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rankings, err := h.leaderboards.UnitCompletionRanking(c.Request.Context(), sess, id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rankings": rankings})
}
