package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/fieldservice-be/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether a backing dependency is usable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Config is everything SetupRouter wires together
type Config struct {
	Handler *handler.Dependencies
	Auth    AuthConfig
	DB      HealthChecker
}

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(cfg *Config) *gin.Engine {
	logger := cfg.Handler.Logger

	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(logger))

	r.GET("/health", healthHandler(cfg.DB, logger))

	jobHandler := handler.NewJobHandler(cfg.Handler)

	v1 := r.Group("/api/v1")
	v1.GET("/health", healthHandler(cfg.DB, logger))

	api := v1.Group("")
	api.Use(AuthMiddleware(cfg.Auth, logger))
	{
		api.POST("/job", jobHandler.CreateJob)
		api.PUT("/assign/:id", jobHandler.AssignJob)
		api.PUT("/:id/schedulejob", jobHandler.ScheduleJob)
		api.PATCH("/:id/updatejobstatus", jobHandler.UpdateJobStatus)
		api.PUT("/:id/updatejob", jobHandler.UpdateJob)
		api.DELETE("/:id/deletejob", jobHandler.DeleteJob)

		api.GET("/:id/retrievejob", jobHandler.GetJob)
		api.GET("/:id/retrievejobs", jobHandler.ListJobs)
		api.GET("/:id/jobfeed", jobHandler.JobFeed)
		api.GET("/:id/workflow", jobHandler.ListWorkflows)
		api.GET("/:id/dashboard", jobHandler.Dashboard)
		api.GET("/jobtypes", jobHandler.ListJobTypes)
	}

	return r
}

func healthHandler(db HealthChecker, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			if err := db.HealthCheck(c.Request.Context()); err != nil {
				logger.Error("Health check failed", slog.Any("error", err))
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":   "unhealthy",
					"service":  "fieldservice-api",
					"database": "unreachable",
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "fieldservice-api",
		})
	}
}
