package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(RequestID())
	router.Use(Logger())
	router.Use(CORS())

	// Health check
	router.GET("/health", handler.HealthCheck)

	repos := router.Group("/repositories")
	repos.Use(AcceptJSON(), ContentTypeJSON())
	{
		repos.GET("/:username", handler.ListRepositories)
	}

	return router
}
