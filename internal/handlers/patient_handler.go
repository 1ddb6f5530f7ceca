package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dcare-crm/config"
	"dcare-crm/internal/funnel"
	"dcare-crm/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PatientListItem - строка списка пациентов с производными полями движка.
// Сами производные значения в БД не хранятся.
type PatientListItem struct {
	models.Patient
	Stage           funnel.Stage            `json:"stage"`
	StageLabel      string                  `json:"stageLabel"`
	Callbacks       funnel.CallbackAnalysis `json:"callbacks"`
	Revenue         funnel.RevenueClass     `json:"revenue"`
	FormattedAmount string                  `json:"formattedAmount"`
	UrgentActions   []funnel.UrgentAction   `json:"urgentActions"`
}

func decoratePatient(p *models.Patient, today string) PatientListItem {
	stage := funnel.ResolveStage(p)
	return PatientListItem{
		Patient:         *p,
		Stage:           stage,
		StageLabel:      stage.Label(),
		Callbacks:       funnel.AnalyzeCallbacks(p, today),
		Revenue:         funnel.ClassifyRevenue(p),
		FormattedAmount: funnel.FormatAmount(funnel.EstimatedAmount(p)),
		UrgentActions:   funnel.UrgentActions(p, today),
	}
}

func todayDate() string {
	return time.Now().Format("2006-01-02")
}

// ListPatientsHandler возвращает список пациентов с фильтрами.
// search/status применяются в SQL; stage и bucket - производные значения,
// поэтому фильтруются в памяти уже после выборки.
func ListPatientsHandler(c *gin.Context) {
	query := config.DB.Model(&models.Patient{}).Order("id desc")

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + search + "%"
		query = query.Where("name ILIKE ? OR phone_number LIKE ? OR patient_code ILIKE ?", like, like, like)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	today := todayDate()
	stageFilter := funnel.Stage(c.Query("stage"))
	bucketFilter := funnel.RevenueBucket(c.Query("bucket"))

	// Производные фильтры требуют полной выборки и пагинации в памяти.
	if stageFilter != "" || bucketFilter != "" {
		var patients []models.Patient
		if err := query.Find(&patients).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch patients"})
			return
		}
		if stageFilter != "" {
			patients = funnel.FilterByStage(patients, stageFilter)
		}
		if bucketFilter != "" {
			patients = funnel.FilterByBucket(patients, bucketFilter, funnel.RevenueSubBucket(c.Query("subBucket")))
		}

		totalRows := int64(len(patients))
		page, pageSize := pageParams(c)
		start := (page - 1) * pageSize
		if start > len(patients) {
			start = len(patients)
		}
		end := start + pageSize
		if end > len(patients) {
			end = len(patients)
		}

		items := make([]PatientListItem, 0, end-start)
		for i := start; i < end; i++ {
			items = append(items, decoratePatient(&patients[i], today))
		}
		c.JSON(http.StatusOK, CreatePaginatedResponse(c, items, totalRows))
		return
	}

	var totalRows int64
	query.Count(&totalRows)

	var patients []models.Patient
	if err := query.Scopes(Paginate(c)).Find(&patients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch patients"})
		return
	}

	items := make([]PatientListItem, 0, len(patients))
	for i := range patients {
		items = append(items, decoratePatient(&patients[i], today))
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, items, totalRows))
}

// GetPatientHandler возвращает карточку пациента с производными полями.
func GetPatientHandler(c *gin.Context) {
	var patient models.Patient
	if err := config.DB.First(&patient, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Patient not found"})
		return
	}

	recordActivity(c, models.ActionPatientView, "patient", fmt.Sprint(patient.ID), patient.Name, nil)
	c.JSON(http.StatusOK, decoratePatient(&patient, todayDate()))
}

// CreatePatientHandler создает пациента. Код PT-XXXX генерируется, если
// не был передан явно.
func CreatePatientHandler(c *gin.Context) {
	var patient models.Patient
	if err := c.ShouldBindJSON(&patient); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if patient.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Patient name is required"})
		return
	}
	if patient.Status == "" {
		patient.Status = models.StatusProspect
	}
	if patient.PatientCode == "" {
		patient.PatientCode = "PT-" + strings.ToUpper(uuid.NewString()[:8])
	}
	if patient.CallInDate == "" {
		patient.CallInDate = todayDate()
	}

	if userName, ok := c.Get("userName"); ok {
		patient.CreatedByName, _ = userName.(string)
	}
	if userID, ok := c.Get("user_id"); ok {
		if id, ok := userID.(uint); ok {
			patient.CreatedBy = fmt.Sprint(id)
		}
	}

	if err := config.DB.Create(&patient).Error; err != nil {
		slog.Error("Failed to create patient", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create patient: " + err.Error()})
		return
	}

	recordActivity(c, models.ActionPatientCreate, "patient", fmt.Sprint(patient.ID), patient.Name, models.JSONMap{
		"status": patient.Status,
	})
	invalidateDashboardCache()

	c.JSON(http.StatusCreated, decoratePatient(&patient, todayDate()))
}

// UpdatePatientHandler обновляет карточку пациента целиком.
func UpdatePatientHandler(c *gin.Context) {
	var patient models.Patient
	if err := config.DB.First(&patient, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Patient not found"})
		return
	}
	oldStatus := patient.Status

	var input models.Patient
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// ID, код и поля создания из тела не принимаются.
	input.ID = patient.ID
	input.CreatedAt = patient.CreatedAt
	input.PatientCode = patient.PatientCode
	input.CreatedBy = patient.CreatedBy
	input.CreatedByName = patient.CreatedByName

	if err := config.DB.Save(&input).Error; err != nil {
		slog.Error("Failed to update patient", "error", err, "patient_id", patient.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update patient: " + err.Error()})
		return
	}

	action := models.ActionPatientUpdate
	details := models.JSONMap{}
	if input.Status != oldStatus {
		action = models.ActionPatientStatusChange
		details["from"] = oldStatus
		details["to"] = input.Status
	}
	recordActivity(c, action, "patient", fmt.Sprint(input.ID), input.Name, details)
	invalidateDashboardCache()

	c.JSON(http.StatusOK, decoratePatient(&input, todayDate()))
}

// DeletePatientHandler мягко удаляет пациента.
func DeletePatientHandler(c *gin.Context) {
	var patient models.Patient
	if err := config.DB.First(&patient, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Patient not found"})
		return
	}

	if err := config.DB.Delete(&patient).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete patient"})
		return
	}

	recordActivity(c, models.ActionPatientDelete, "patient", fmt.Sprint(patient.ID), patient.Name, nil)
	invalidateDashboardCache()

	c.JSON(http.StatusOK, gin.H{"message": "Patient deleted successfully"})
}

// CompleteInput - причина терминального закрытия.
type CompleteInput struct {
	Reason string `json:"reason"`
}

// CompletePatientHandler закрывает пациента терминально. В историю обзвона
// добавляется маркер закрытия, это не реальный звонок.
func CompletePatientHandler(c *gin.Context) {
	var patient models.Patient
	if err := config.DB.First(&patient, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Patient not found"})
		return
	}

	var input CompleteInput
	_ = c.ShouldBindJSON(&input)

	now := time.Now()
	patient.IsCompleted = true
	patient.CompletedAt = &now
	patient.CompletedReason = input.Reason
	patient.Status = models.StatusClosed

	marker := models.Callback{
		ID:     uuid.NewString(),
		Date:   todayDate(),
		Status: models.CallbackDone,
		Kind:   models.KindClosureMarker,
		Notes:  input.Reason,
	}
	if userName, ok := c.Get("userName"); ok {
		marker.HandledByName, _ = userName.(string)
	}
	patient.CallbackHistory = append(patient.CallbackHistory, marker)

	if err := config.DB.Save(&patient).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete patient"})
		return
	}

	recordActivity(c, models.ActionPatientComplete, "patient", fmt.Sprint(patient.ID), patient.Name, models.JSONMap{
		"reason": input.Reason,
	})
	invalidateDashboardCache()

	c.JSON(http.StatusOK, decoratePatient(&patient, todayDate()))
}

// CancelCompletionHandler снимает терминальное закрытие. Маркеры закрытия
// остаются в истории, движок их и так не считает реальными звонками.
func CancelCompletionHandler(c *gin.Context) {
	var patient models.Patient
	if err := config.DB.First(&patient, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Patient not found"})
		return
	}

	patient.IsCompleted = false
	patient.CompletedAt = nil
	patient.CompletedReason = ""
	if patient.Status == models.StatusClosed {
		patient.Status = models.StatusActive
	}
	if patient.PostVisitStatus == models.PostVisitClosed {
		patient.PostVisitStatus = models.PostVisitNone
	}

	if err := config.DB.Save(&patient).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel completion"})
		return
	}

	recordActivity(c, models.ActionPatientStatusChange, "patient", fmt.Sprint(patient.ID), patient.Name, models.JSONMap{
		"to": patient.Status,
	})
	invalidateDashboardCache()

	c.JSON(http.StatusOK, decoratePatient(&patient, todayDate()))
}

// VisitConfirmationInput - подтверждение (или отмена подтверждения) визита.
type VisitConfirmationInput struct {
	Confirmed bool   `json:"confirmed"`
	VisitDate string `json:"visitDate"`
}

// SetVisitConfirmationHandler переключает признак состоявшегося визита.
// При отмене сбрасывается и состояние после визита, иначе стадия воронки
// осталась бы рассчитанной по недействительным данным.
func SetVisitConfirmationHandler(c *gin.Context) {
	var patient models.Patient
	if err := config.DB.First(&patient, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Patient not found"})
		return
	}

	var input VisitConfirmationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patient.VisitConfirmed = input.Confirmed
	if input.Confirmed {
		patient.VisitDate = input.VisitDate
		if patient.VisitDate == "" {
			patient.VisitDate = todayDate()
		}
		patient.IsPostReservation = false
	} else {
		patient.VisitDate = ""
		patient.PostVisitStatus = models.PostVisitNone
	}

	if err := config.DB.Save(&patient).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update visit confirmation"})
		return
	}

	recordActivity(c, models.ActionVisitConfirmToggle, "patient", fmt.Sprint(patient.ID), patient.Name, models.JSONMap{
		"confirmed": input.Confirmed,
	})
	invalidateDashboardCache()

	c.JSON(http.StatusOK, decoratePatient(&patient, todayDate()))
}

// PostVisitInput - обновление состояния после визита вместе с данными
// очной консультации.
type PostVisitInput struct {
	PostVisitStatus models.PostVisitStatus        `json:"postVisitStatus" binding:"required"`
	Consultation    *models.PostVisitConsultation `json:"postVisitConsultation"`
}

// UpdatePostVisitStatusHandler проставляет состояние после визита.
func UpdatePostVisitStatusHandler(c *gin.Context) {
	var patient models.Patient
	if err := config.DB.First(&patient, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Patient not found"})
		return
	}

	if !patient.VisitConfirmed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Visit must be confirmed before setting post-visit status"})
		return
	}

	var input PostVisitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch input.PostVisitStatus {
	case models.PostVisitRecallNeeded, models.PostVisitAgreed, models.PostVisitStarted, models.PostVisitClosed:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown post-visit status"})
		return
	}

	patient.PostVisitStatus = input.PostVisitStatus
	if input.Consultation != nil {
		patient.PostVisitConsultation = input.Consultation
	}

	if err := config.DB.Save(&patient).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post-visit status"})
		return
	}

	recordActivity(c, models.ActionPatientStatusChange, "patient", fmt.Sprint(patient.ID), patient.Name, models.JSONMap{
		"postVisitStatus": input.PostVisitStatus,
	})
	invalidateDashboardCache()

	c.JSON(http.StatusOK, decoratePatient(&patient, todayDate()))
}
