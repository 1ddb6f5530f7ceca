package handlers

import (
	"fmt"
	"net/http"
	"time"

	"dcare-crm/config"
	"dcare-crm/internal/funnel"
	"dcare-crm/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AddCallbackInput - планирование нового звонка пациенту.
type AddCallbackInput struct {
	Date  string `json:"date" binding:"required"`
	Time  string `json:"time"`
	Notes string `json:"notes"`
}

// AddCallbackHandler планирует звонок. Тип записи (scheduled) назначается
// здесь, при создании, и больше не выводится из контекста.
func AddCallbackHandler(c *gin.Context) {
	var patient models.Patient
	if err := config.DB.First(&patient, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Patient not found"})
		return
	}

	var input AddCallbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := time.Parse("2006-01-02", input.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be in YYYY-MM-DD format"})
		return
	}

	cb := models.Callback{
		ID:     uuid.NewString(),
		Date:   input.Date,
		Time:   input.Time,
		Status: models.CallbackScheduled,
		Kind:   models.KindScheduled,
		Type:   fmt.Sprintf("%d차", funnel.CountRealCallbacks(&patient)+1),
		Notes:  input.Notes,
	}
	if userName, ok := c.Get("userName"); ok {
		cb.HandledByName, _ = userName.(string)
	}
	if userID, ok := c.Get("user_id"); ok {
		if id, ok := userID.(uint); ok {
			cb.HandledBy = fmt.Sprint(id)
		}
	}

	patient.CallbackHistory = append(patient.CallbackHistory, cb)
	patient.NextCallbackDate = input.Date

	if err := config.DB.Save(&patient).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save callback"})
		return
	}

	recordActivity(c, models.ActionCallbackCreate, "callback", cb.ID, patient.Name, models.JSONMap{
		"date": cb.Date,
		"type": cb.Type,
	})
	invalidateDashboardCache()

	c.JSON(http.StatusCreated, decoratePatient(&patient, todayDate()))
}

// CompleteCallbackInput - результат состоявшегося звонка.
type CompleteCallbackInput struct {
	ResultNotes string `json:"resultNotes"`
}

// CompleteCallbackHandler отмечает запланированный звонок состоявшимся.
func CompleteCallbackHandler(c *gin.Context) {
	var patient models.Patient
	if err := config.DB.First(&patient, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Patient not found"})
		return
	}

	var input CompleteCallbackInput
	_ = c.ShouldBindJSON(&input)

	cb := findCallback(&patient, c.Param("callbackId"))
	if cb == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Callback not found"})
		return
	}
	if cb.EffectiveKind() == models.KindClosureMarker {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Closure markers cannot be completed"})
		return
	}

	now := time.Now()
	cb.Status = models.CallbackDone
	cb.Kind = models.KindCompleted
	cb.CompletedAt = &now
	cb.ResultNotes = input.ResultNotes

	if err := config.DB.Save(&patient).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save callback"})
		return
	}

	recordActivity(c, models.ActionCallbackComplete, "callback", cb.ID, patient.Name, models.JSONMap{
		"date": cb.Date,
	})
	invalidateDashboardCache()

	c.JSON(http.StatusOK, decoratePatient(&patient, todayDate()))
}

// CancelCallbackHandler отменяет запланированный звонок.
func CancelCallbackHandler(c *gin.Context) {
	var patient models.Patient
	if err := config.DB.First(&patient, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Patient not found"})
		return
	}

	cb := findCallback(&patient, c.Param("callbackId"))
	if cb == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Callback not found"})
		return
	}
	if cb.Status != models.CallbackScheduled {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only scheduled callbacks can be cancelled"})
		return
	}

	cb.Status = models.CallbackCancelled

	if err := config.DB.Save(&patient).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save callback"})
		return
	}

	recordActivity(c, models.ActionCallbackCancel, "callback", cb.ID, patient.Name, models.JSONMap{
		"date": cb.Date,
	})
	invalidateDashboardCache()

	c.JSON(http.StatusOK, decoratePatient(&patient, todayDate()))
}

func findCallback(p *models.Patient, callbackID string) *models.Callback {
	for i := range p.CallbackHistory {
		if p.CallbackHistory[i].ID == callbackID {
			return &p.CallbackHistory[i]
		}
	}
	return nil
}
