package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"unishare/internal/handlers"
	"unishare/internal/middleware"
	"unishare/internal/services"
)

type Options struct {
	MaxUploadBytes int64
}

// RegisterRoutes mounts the JSON API. Session middleware (cookie store and
// LoadUser) must already be installed on r.
func RegisterRoutes(r *gin.Engine, svc *services.Services, opts Options) {
	authHandler := handlers.NewAuthHandler(svc.Auth)
	userHandler := handlers.NewUserHandler(svc.Points, svc.Leaderboards)
	unitHandler := handlers.NewUnitHandler(svc.Catalog, svc.Resources, svc.Leaderboards)
	resourceHandler := handlers.NewResourceHandler(svc.Resources, opts.MaxUploadBytes)
	voteHandler := handlers.NewVoteHandler(svc.Votes)
	engagementHandler := handlers.NewEngagementHandler(svc.Completions, svc.Comments)
	adminHandler := handlers.NewAdminHandler(svc.Auth, svc.Catalog, svc.Points)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api")

	// Public
	api.POST("/login", authHandler.Login)
	api.POST("/logout", authHandler.Logout)
	api.GET("/ranks", userHandler.Ranks)
	api.GET("/leaderboard", userHandler.Leaderboard)

	// Signed in
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/me", userHandler.Me)
		authorized.GET("/me/points", userHandler.PointLogs)
		authorized.POST("/me/password", authHandler.ChangePassword)

		authorized.GET("/units", unitHandler.ListUnits)
		authorized.GET("/units/:id", unitHandler.GetUnit)
		authorized.GET("/units/:id/resources", unitHandler.ListResources)
		authorized.GET("/units/:id/rankings", unitHandler.Rankings)

		authorized.POST("/resources", resourceHandler.Create)
		authorized.GET("/resources/:id", resourceHandler.Get)
		authorized.PUT("/resources/:id", resourceHandler.Update)
		authorized.DELETE("/resources/:id", resourceHandler.Delete)

		authorized.POST("/resources/:id/complete", engagementHandler.Complete)
		authorized.GET("/resources/:id/completions", engagementHandler.Completions)
		authorized.GET("/resources/:id/comments", engagementHandler.Comments)
		authorized.POST("/resources/:id/comments", engagementHandler.AddComment)

		authorized.POST("/resources/:id/vote", voteHandler.Vote)
		authorized.GET("/resources/:id/vote", voteHandler.State)
	}

	// Admin
	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.POST("/users", adminHandler.CreateUser)
		admin.POST("/programs", adminHandler.CreateProgram)
		admin.POST("/courses", adminHandler.CreateCourse)
		admin.POST("/class-instances", adminHandler.CreateClassInstance)
		admin.POST("/units", adminHandler.CreateUnit)
		admin.POST("/ranks/reconcile", adminHandler.ReconcileRanks)
	}
}
