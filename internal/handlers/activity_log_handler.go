package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"dcare-crm/config"
	"dcare-crm/internal/funnel"
	"dcare-crm/models"

	"github.com/gin-gonic/gin"
)

// recordActivity пишет событие в журнал от имени текущего пользователя.
// Ошибка записи журнала никогда не роняет основную операцию.
func recordActivity(c *gin.Context, action, target, targetID, targetName string, details models.JSONMap) {
	entry := models.ActivityLog{
		Action:     action,
		Target:     target,
		TargetID:   targetID,
		TargetName: targetName,
		Timestamp:  time.Now(),
		Details:    details,
	}
	if userID, ok := c.Get("user_id"); ok {
		if id, ok := userID.(uint); ok {
			entry.UserID = fmt.Sprint(id)
		}
	}
	if userName, ok := c.Get("userName"); ok {
		entry.UserName, _ = userName.(string)
	}

	if err := config.DB.Create(&entry).Error; err != nil {
		slog.Error("Failed to record activity", "error", err, "action", action, "target_id", targetID)
	}
}

// CreateActivityLogInput - событие, присланное консолью напрямую.
type CreateActivityLogInput struct {
	Action     string         `json:"action" binding:"required"`
	Target     string         `json:"target"`
	TargetID   string         `json:"targetId"`
	TargetName string         `json:"targetName"`
	Details    models.JSONMap `json:"details"`
}

// CreateActivityLogHandler принимает событие журнала от фронтенда.
func CreateActivityLogHandler(c *gin.Context) {
	var input CreateActivityLogInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recordActivity(c, input.Action, input.Target, input.TargetID, input.TargetName, input.Details)
	c.JSON(http.StatusCreated, gin.H{"message": "Activity recorded"})
}

// ListActivityLogsHandler возвращает журнал с фильтрами по действию и
// пользователю. Дедупликация здесь не применяется, это сырой журнал.
func ListActivityLogsHandler(c *gin.Context) {
	query := config.DB.Model(&models.ActivityLog{}).Order("timestamp desc")

	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if userID := c.Query("userId"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if from := c.Query("from"); from != "" {
		query = query.Where("timestamp >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("timestamp < ?", to)
	}

	var totalRows int64
	query.Count(&totalRows)

	var logs []models.ActivityLog
	if err := query.Scopes(Paginate(c)).Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch activity logs"})
		return
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, logs, totalRows))
}

// GetTargetHistoryHandler возвращает дедуплицированную историю действий по
// одной цели (обычно пациенту): шумовые действия исключены, повторы в
// пределах минуты схлопнуты.
func GetTargetHistoryHandler(c *gin.Context) {
	var logs []models.ActivityLog
	if err := config.DB.
		Where("target_id = ?", c.Param("targetId")).
		Order("timestamp asc").
		Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch activity logs"})
		return
	}

	deduped := funnel.DedupeLogs(logs)
	c.JSON(http.StatusOK, gin.H{
		"data":      deduped,
		"totalRaw":  len(logs),
		"totalRows": len(deduped),
	})
}
