package main

import (
	"github.com/gin-gonic/gin"

	"github.com/dineatlas/dineatlas/backend/internal/middleware"
	"github.com/dineatlas/dineatlas/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Tight limiter for the credential endpoints, a looser one for the rest
	// of the API. The login limiter is the outer wall; the per-identifier
	// attempt tracker inside the auth service is the inner one.
	authLimiter := middleware.NewRateLimiter(2, 5)
	apiLimiter := middleware.NewRateLimiter(20, 40)

	// Health check
	r.GET("/health", svc.healthHandler.CheckHealth)

	// API routes
	api := r.Group("/api", apiLimiter.Middleware())
	{
		// Auth routes (public, tightly rate limited)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/refresh", svc.authHandler.Refresh)
		}

		// Public store browsing
		api.GET("/stores", svc.storeHandler.List)
		api.GET("/stores/regions", svc.storeHandler.Regions)
		api.GET("/stores/:slug", svc.storeHandler.Get)
		api.GET("/stores/:slug/reviews", svc.reviewHandler.ListByStore)

		// Protected routes (any authenticated user)
		protected := api.Group("")
		protected.Use(middleware.SessionRequired(svc.sessionService))
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.PUT("/auth/me", svc.authHandler.UpdateProfile)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/reauth", svc.authHandler.Reauth)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Reservations
			protected.POST("/reservations", svc.reservationHandler.Book)
			protected.GET("/reservations", svc.reservationHandler.ListMine)
			protected.DELETE("/reservations/:id", svc.reservationHandler.Cancel)

			// Reviews
			protected.POST("/reviews", svc.reviewHandler.Create)
			protected.DELETE("/reviews/:id", svc.reviewHandler.Delete)
		}

		// Owner routes
		owner := api.Group("/owner")
		owner.Use(middleware.SessionRequired(svc.sessionService), middleware.RoleRequired("owner", "admin"))
		{
			owner.GET("/stores", svc.storeHandler.ListMine)
			owner.POST("/stores", svc.storeHandler.Create)
			owner.PUT("/stores/:id", svc.storeHandler.Update)
			owner.DELETE("/stores/:id", svc.storeHandler.Delete)
			owner.GET("/stores/:id/reservations", svc.reservationHandler.ListByStore)
			owner.PUT("/reservations/:id/outcome", svc.reservationHandler.MarkOutcome)
		}

		// Admin routes, all audited
		admin := api.Group("/admin")
		admin.Use(middleware.SessionRequired(svc.sessionService), middleware.AdminRequired(), middleware.AuditLog())
		{
			admin.GET("/dashboard", svc.dashboardHandler.GetStats)

			admin.GET("/stores", svc.storeHandler.AdminList)

			admin.GET("/users", svc.userHandler.List)

			admin.GET("/settings/reservation", svc.systemConfigHandler.GetReservationSettings)
			admin.GET("/settings/email", svc.systemConfigHandler.GetEmailSettings)

			admin.GET("/logs", svc.systemLogHandler.List)
			admin.GET("/logs/modules", svc.systemLogHandler.GetModules)

			// Sensitive writes additionally require a recent password
			// re-entry on top of the admin session.
			sensitive := admin.Group("")
			sensitive.Use(middleware.ReauthRequired(svc.reauthGate))
			{
				sensitive.PUT("/stores/:id/status", svc.storeHandler.SetStatus)
				sensitive.PUT("/users/:id/role", svc.userHandler.SetRole)
				sensitive.PUT("/users/:id/active", svc.userHandler.SetActive)
				sensitive.PUT("/settings/reservation", svc.systemConfigHandler.UpdateReservationSettings)
				sensitive.PUT("/settings/email", svc.systemConfigHandler.UpdateEmailSettings)
			}
		}
	}
}
