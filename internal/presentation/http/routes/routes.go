// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/logiclens/gatepass-go/internal/application/container"
	"github.com/logiclens/gatepass-go/internal/presentation/http/handlers"
	"github.com/logiclens/gatepass-go/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	visitorHandlers := handlers.NewVisitorHandlers(container.VisitorService, container.Logger)
	decisionHandlers := handlers.NewDecisionHandlers(container.VisitorService, container.Logger)
	adminHandlers := handlers.NewAdminHandlers(
		container.VisitorService,
		container.DispatchService,
		container.ExportService,
		container.AdminAuthService,
		container.Logger,
	)
	liveHandlers := handlers.NewLiveHandlers(container.Broadcaster, container.Logger)

	r.GET("/", visitorHandlers.Root)

	api := r.Group("/api")
	{
		api.GET("/health", visitorHandlers.Health)
		api.GET("/live", liveHandlers.Stream)

		visitors := api.Group("/visitors")
		{
			visitors.POST("/register", visitorHandlers.Register)
			visitors.GET("/decision/:token", decisionHandlers.DecideByToken)
			visitors.POST("/:id/expire", visitorHandlers.Expire)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/login", adminHandlers.Login)

			admin.Use(middleware.AdminAuthMiddleware(container.AdminAuthService))
			{
				admin.GET("/visitors", adminHandlers.ListVisitors)
				admin.GET("/visitors/export", adminHandlers.ExportVisitors)
				admin.GET("/visitors/:id", adminHandlers.GetVisitor)
				admin.POST("/visitors/:id/decision", adminHandlers.DecideVisitor)
				admin.GET("/test-mail", adminHandlers.TestMail)
			}
		}
	}

	return r
}
