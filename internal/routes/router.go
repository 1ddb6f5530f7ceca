// dcare-crm/internal/routes/router.go
package routes

import (
	"dcare-crm/internal/handlers"
	"dcare-crm/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes собирает gin-роутер: публичные маршруты аутентификации и
// защищенная группа API.
func SetupRoutes() *gin.Engine {
	r := gin.Default()

	// Публичные маршруты
	r.POST("/auth/login", handlers.LoginHandler)
	r.GET("/healthz", handlers.HealthHandler)

	// Все остальное только с токеном
	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware())
	RegisterAPIRoutes(protected)

	return r
}
