package api

import (
	"voter-canvass-backend/internal/auth"
	"voter-canvass-backend/internal/model"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler, tokens *auth.Manager) {
	// Health check
	router.GET("/health", handler.HealthCheck)

	router.POST("/auth/login", handler.Login)

	authed := router.Group("/", AuthMiddleware(tokens))
	{
		imports := authed.Group("/import", RequireRole(model.RoleSuperAdmin))
		{
			imports.POST("/upload-csv", handler.UploadCSV)
			imports.POST("/map-columns", handler.MapColumns)
			imports.GET("/runs", handler.ListImportRuns)
		}

		voters := authed.Group("/voters")
		{
			voters.GET("", handler.ListVoters)
			voters.GET("/:id", handler.GetVoter)
			voters.POST("", RequireRole(model.RoleSuperAdmin, model.RoleAdmin), handler.CreateVoter)
		}

		authed.GET("/dashboard/summary", handler.DashboardSummary)
	}
}
