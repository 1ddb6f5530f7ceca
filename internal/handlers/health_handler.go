package handlers

import (
	"net/http"

	"dcare-crm/config"

	"github.com/gin-gonic/gin"
)

// HealthHandler - проверка живости для балансировщика.
func HealthHandler(c *gin.Context) {
	status := gin.H{"status": "ok"}

	if sqlDB, err := config.DB.DB(); err != nil || sqlDB.Ping() != nil {
		status["status"] = "degraded"
		status["database"] = "unavailable"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}

	c.JSON(http.StatusOK, status)
}
