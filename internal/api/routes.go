package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.POST("/batch", handler.ProcessBatch)
		api.POST("/batch/export", handler.ExportBatch)
		api.GET("/cities", handler.GetCities)
		api.GET("/health", handler.HealthCheck)
	}
}
