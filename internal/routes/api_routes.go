// dcare-crm/internal/routes/api_routes.go
package routes

import (
	"dcare-crm/internal/handlers"
	"dcare-crm/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAPIRoutes регистрирует все маршруты API, требующие аутентификации.
func RegisterAPIRoutes(api *gin.RouterGroup) {
	apiGroup := api.Group("/api")
	{
		// Профиль пользователя
		profile := apiGroup.Group("/profile")
		{
			profile.GET("", handlers.GetProfileHandler)
		}

		// --- ПАЦИЕНТЫ ---
		patients := apiGroup.Group("/patients")
		patients.Use(middleware.PermissionMiddleware("patients:read"))
		{
			patients.GET("", handlers.ListPatientsHandler)
			patients.GET("/:id", handlers.GetPatientHandler)
			patients.POST("", middleware.PermissionMiddleware("patients:write"), handlers.CreatePatientHandler)
			patients.PUT("/:id", middleware.PermissionMiddleware("patients:write"), handlers.UpdatePatientHandler)
			patients.DELETE("/:id", middleware.PermissionMiddleware("patients:delete"), handlers.DeletePatientHandler)

			patients.POST("/:id/complete", middleware.PermissionMiddleware("patients:write"), handlers.CompletePatientHandler)
			patients.POST("/:id/cancel-completion", middleware.PermissionMiddleware("patients:write"), handlers.CancelCompletionHandler)
			patients.POST("/:id/visit-confirmation", middleware.PermissionMiddleware("patients:write"), handlers.SetVisitConfirmationHandler)
			patients.POST("/:id/post-visit-status", middleware.PermissionMiddleware("patients:write"), handlers.UpdatePostVisitStatusHandler)

			patients.POST("/:id/callbacks", middleware.PermissionMiddleware("patients:write"), handlers.AddCallbackHandler)
			patients.POST("/:id/callbacks/:callbackId/complete", middleware.PermissionMiddleware("patients:write"), handlers.CompleteCallbackHandler)
			patients.POST("/:id/callbacks/:callbackId/cancel", middleware.PermissionMiddleware("patients:write"), handlers.CancelCallbackHandler)
		}

		// --- ДАШБОРД ---
		dashboard := apiGroup.Group("/dashboard")
		dashboard.Use(middleware.PermissionMiddleware("dashboard:read"))
		{
			dashboard.GET("", handlers.GetDashboardHandler)
			dashboard.GET("/stage/:stage", handlers.GetStagePatientsHandler)
			dashboard.GET("/revenue/:bucket", handlers.GetRevenuePatientsHandler)
			dashboard.GET("/urgent", handlers.GetUrgentPatientsHandler)
			dashboard.GET("/overdue", handlers.GetOverdueCallbacksHandler)

			// WebSocket эндпоинт живого дашборда
			dashboard.GET("/ws", func(c *gin.Context) {
				handlers.StatsWSEndpoint(c)
			})
		}

		// --- ОТЧЕТЫ ---
		reports := apiGroup.Group("/reports")
		reports.Use(middleware.PermissionMiddleware("reports:read"))
		{
			reports.GET("/monthly", handlers.GetMonthlyReportHandler)
			reports.GET("/monthly/export", middleware.PermissionMiddleware("reports:export"), handlers.ExportMonthlyReportHandler)
		}

		// --- ЖУРНАЛ АКТИВНОСТИ ---
		logs := apiGroup.Group("/activity-logs")
		{
			logs.POST("", middleware.PermissionMiddleware("logs:write"), handlers.CreateActivityLogHandler)
			logs.GET("", middleware.PermissionMiddleware("logs:read"), handlers.ListActivityLogsHandler)
			logs.GET("/target/:targetId", middleware.PermissionMiddleware("logs:read"), handlers.GetTargetHistoryHandler)
		}

		// --- ПОЛЬЗОВАТЕЛИ ---
		users := apiGroup.Group("/users")
		users.Use(middleware.PermissionMiddleware("users:manage"))
		{
			users.POST("", handlers.RegisterHandler)
		}

		apiGroup.POST("/logout", handlers.LogoutHandler)
	}
}
