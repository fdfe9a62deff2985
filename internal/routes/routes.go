package routes

import (
	"github.com/gin-gonic/gin"

	"salespipe/internal/authz"
	"salespipe/internal/handlers"
	"salespipe/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtSecret []byte,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	boardHandler *handlers.BoardHandler,
	leadHandler *handlers.LeadHandler,
	companyHandler *handlers.CompanyHandler,
	reportHandler *handlers.ReportHandler,
) *gin.Engine {

	// ---- public
	r.POST("/login", authHandler.Login)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	// ---- protected
	r.Use(middleware.AuthMiddleware(jwtSecret))

	// USERS (admin only)
	users := r.Group("/users", middleware.RequireRoles(authz.RoleSuperAdmin, authz.RoleAdmin, authz.RoleAdminOps))
	{
		users.POST("/", userHandler.CreateUser)
		users.GET("/", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUserByID)
	}

	// BOARDS — роль сама решает, какие стадии видны
	boards := r.Group("/boards")
	{
		boards.GET("/:kind", boardHandler.GetBoard)
		boards.POST("/:kind/:id/transition", boardHandler.Transition)
		boards.GET("/:kind/:id/history", boardHandler.History)
	}

	// LEADS
	leads := r.Group("/leads")
	{
		leads.POST("/", leadHandler.Create)
		leads.GET("/", leadHandler.List)
		leads.GET("/:id", leadHandler.GetByID)
		leads.GET("/:id/days-in-stage", leadHandler.DaysInStage)
		leads.POST("/:id/status", leadHandler.UpdateStatus)
	}

	// COMPANIES
	companies := r.Group("/companies")
	{
		companies.POST("/", companyHandler.Create)
		companies.GET("/", companyHandler.List)
		companies.GET("/:id", companyHandler.GetByID)
		companies.POST("/:id/status", companyHandler.UpdateStatus)
	}

	// REPORTS
	reports := r.Group("/reports")
	{
		reports.GET("/stats", reportHandler.GetStats)
		reports.GET("/stats/pdf", reportHandler.GetStatsPDF)
	}

	return r
}
