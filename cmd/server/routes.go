package main

import (
	"github.com/gin-gonic/gin"

	"github.com/upyoung/warroom/internal/handlers"
	"github.com/upyoung/warroom/internal/middleware"
	"github.com/upyoung/warroom/internal/models"
	"github.com/upyoung/warroom/internal/services"
	"github.com/upyoung/warroom/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	db := models.GetDB()

	api := r.Group("/api")
	{
		// Auth routes (public, rate limited against brute force)
		authHandler := handlers.NewAuthHandler(db, svc.cfg)
		auth := api.Group("/auth", middleware.RateLimit(5, 10))
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// SSE stream (token rides in the query string)
		sseHandler := handlers.NewSSEHandler(services.GetSSEHub())
		api.GET("/events/stream", sseHandler.Stream)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/auth/me", authHandler.GetCurrentUser)
			protected.GET("/users", authHandler.ListUsers)

			// Brands
			brandHandler := handlers.NewBrandHandler(db)
			protected.GET("/brands", brandHandler.List)
			protected.POST("/brands", brandHandler.Create)
			protected.PUT("/brands/:id", brandHandler.Rename)

			// Parent projects
			projectHandler := handlers.NewProjectHandler(db)
			protected.GET("/projects", projectHandler.List)
			protected.GET("/projects/:id", projectHandler.GetByID)
			protected.POST("/projects", projectHandler.Create)
			protected.PUT("/projects/:id", projectHandler.Update)
			protected.POST("/projects/:id/archive", projectHandler.Archive)
			protected.POST("/projects/:id/complete", projectHandler.Complete)
			protected.POST("/projects/:id/abort", projectHandler.Abort)

			// Sub-projects
			subProjectHandler := handlers.NewSubProjectHandler(db, svc.notifications)
			protected.GET("/sub-projects", subProjectHandler.List)
			protected.GET("/sub-projects/history", subProjectHandler.ListHistory)
			protected.GET("/sub-projects/history-parents", subProjectHandler.ListHistoryParents)
			protected.GET("/sub-projects/:id", subProjectHandler.GetByID)
			protected.POST("/sub-projects", subProjectHandler.Create)
			protected.PUT("/sub-projects/:id", subProjectHandler.Update)
			protected.POST("/sub-projects/:id/setup", subProjectHandler.ConfirmSetup)
			protected.POST("/sub-projects/:id/comments", subProjectHandler.AddComment)
			protected.POST("/sub-projects/:id/links", subProjectHandler.AddLink)
			protected.PUT("/sub-projects/:id/tags", subProjectHandler.UpdateTags)

			// Handoff state machine
			handoffHandler := handlers.NewHandoffHandler(svc.handoffService)
			protected.POST("/sub-projects/:id/events", handoffHandler.RecordEvent)
			protected.POST("/sub-projects/:id/events/resolve-delay", handoffHandler.ResolveDelay)
			protected.POST("/sub-projects/:id/abort", handoffHandler.Abort)
			protected.POST("/sub-projects/:id/manager-check/start", handoffHandler.ManagerCheckStart)
			protected.POST("/sub-projects/:id/manager-check/finish", handoffHandler.ManagerCheckFinish)

			// Dashboard
			dashboardHandler := handlers.NewDashboardHandler(db, svc.workdayService)
			protected.GET("/dashboard/monitor", dashboardHandler.Monitor)
			protected.GET("/dashboard/stats", dashboardHandler.GetStats)
			protected.GET("/dashboard/parent-stats/:id", dashboardHandler.GetParentStats)
			protected.GET("/dashboard/calendar", dashboardHandler.GetCalendar)
			protected.GET("/dashboard/my-tasks", dashboardHandler.GetMyTasks)

			// Members
			memberHandler := handlers.NewMemberHandler(db, svc.workdayService)
			protected.GET("/members", memberHandler.List)
			protected.GET("/members/detail", memberHandler.GetDetail)
			protected.GET("/members/hours", memberHandler.GetHours)
			protected.GET("/members/department-hours", memberHandler.GetDepartmentHours)

			// Reports
			reportHandler := handlers.NewReportHandler(db)
			protected.GET("/reports/history", reportHandler.History)
			protected.GET("/reports/history/export", reportHandler.Export)

			// Notifications
			notificationHandler := handlers.NewNotificationHandler(svc.notifications)
			protected.GET("/notifications", notificationHandler.List)
			protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
			protected.POST("/notifications/:id/read", notificationHandler.MarkRead)
			protected.DELETE("/notifications", notificationHandler.ClearAll)
		}

		// Admin only routes
		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			systemLogHandler := handlers.NewSystemLogHandler(db)
			admin.GET("/system-logs", systemLogHandler.List)
			admin.POST("/system-logs/cleanup", systemLogHandler.Cleanup)
		}
	}
}
