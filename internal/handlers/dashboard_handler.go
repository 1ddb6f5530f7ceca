package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"dcare-crm/config"
	"dcare-crm/internal/funnel"
	"dcare-crm/models"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	dashboardCacheKey = "dashboard:snapshot"
	dashboardCacheTTL = 30 * time.Second
)

// DashboardSnapshot - полный срез дашборда: воронка, срочные действия и
// анализ выручки по всем незакрытым и закрытым пациентам.
type DashboardSnapshot struct {
	Funnel      funnel.FunnelStats    `json:"funnel"`
	Urgent      funnel.UrgentStats    `json:"urgent"`
	Revenue     funnel.RevenueAnalysis `json:"revenue"`
	GeneratedAt time.Time             `json:"generatedAt"`
}

// GetDashboardHandler отдает срез дашборда. Срез кэшируется в Redis на
// 30 секунд, записи пациентов сбрасывают кэш немедленно.
func GetDashboardHandler(c *gin.Context) {
	if config.RDB != nil {
		cached, err := config.RDB.Get(config.Ctx, dashboardCacheKey).Result()
		if err == nil {
			var snapshot DashboardSnapshot
			if json.Unmarshal([]byte(cached), &snapshot) == nil {
				c.JSON(http.StatusOK, snapshot)
				return
			}
		} else if err != redis.Nil {
			slog.Error("Redis GET failed for dashboard snapshot", "error", err)
		}
	}

	snapshot, err := buildDashboardSnapshot()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not build dashboard"})
		return
	}

	if config.RDB != nil {
		if data, err := json.Marshal(snapshot); err == nil {
			if err := config.RDB.Set(config.Ctx, dashboardCacheKey, data, dashboardCacheTTL).Err(); err != nil {
				slog.Warn("Failed to cache dashboard snapshot", "error", err)
			}
		}
	}

	c.JSON(http.StatusOK, snapshot)
}

func buildDashboardSnapshot() (*DashboardSnapshot, error) {
	var patients []models.Patient
	if err := config.DB.Find(&patients).Error; err != nil {
		slog.Error("Failed to load patients for dashboard", "error", err)
		return nil, err
	}

	today := todayDate()
	return &DashboardSnapshot{
		Funnel:      funnel.AggregateFunnel(patients),
		Urgent:      funnel.AggregateUrgent(patients, today),
		Revenue:     funnel.AggregateRevenue(patients),
		GeneratedAt: time.Now(),
	}, nil
}

// invalidateDashboardCache сбрасывает кэшированный срез после любой записи,
// влияющей на воронку.
func invalidateDashboardCache() {
	if config.RDB == nil {
		return
	}
	if err := config.RDB.Del(config.Ctx, dashboardCacheKey).Err(); err != nil {
		slog.Warn("Failed to invalidate dashboard cache", "error", err)
	}
	BroadcastDashboardUpdate()
}

// GetStagePatientsHandler - drill-down по одной стадии воронки.
func GetStagePatientsHandler(c *gin.Context) {
	stage := funnel.Stage(c.Param("stage"))
	if stage.Label() == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown funnel stage"})
		return
	}

	var patients []models.Patient
	if err := config.DB.Find(&patients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch patients"})
		return
	}

	today := todayDate()
	filtered := funnel.FilterByStage(patients, stage)
	items := make([]PatientListItem, 0, len(filtered))
	for i := range filtered {
		items = append(items, decoratePatient(&filtered[i], today))
	}

	c.JSON(http.StatusOK, gin.H{
		"stage":      stage,
		"stageLabel": stage.Label(),
		"totalRows":  len(items),
		"data":       items,
	})
}

// GetRevenuePatientsHandler - drill-down по группе выручки. Необязательный
// параметр subBucket сужает выборку до подгруппы.
func GetRevenuePatientsHandler(c *gin.Context) {
	bucket := funnel.RevenueBucket(c.Param("bucket"))
	switch bucket {
	case funnel.BucketAchieved, funnel.BucketPotential, funnel.BucketLost:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown revenue bucket"})
		return
	}

	var patients []models.Patient
	if err := config.DB.Find(&patients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch patients"})
		return
	}

	filtered := funnel.FilterByBucket(patients, bucket, funnel.RevenueSubBucket(c.Query("subBucket")))
	details := funnel.RevenuePatientDetails(filtered)

	c.JSON(http.StatusOK, gin.H{
		"bucket":    bucket,
		"totalRows": len(details),
		"data":      details,
	})
}

// GetOverdueCallbacksHandler возвращает пациентов с просроченными
// звонками вместе с ближайшей запланированной записью каждого.
func GetOverdueCallbacksHandler(c *gin.Context) {
	var patients []models.Patient
	if err := config.DB.Find(&patients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch patients"})
		return
	}

	today := todayDate()
	flags := funnel.OverdueFlags(patients, today)

	var items []PatientListItem
	for i := range patients {
		if a, ok := flags[patients[i].ID]; !ok || !a.IsOverdue {
			continue
		}
		items = append(items, decoratePatient(&patients[i], today))
	}

	c.JSON(http.StatusOK, gin.H{
		"totalRows": len(items),
		"data":      items,
	})
}

// GetUrgentPatientsHandler возвращает пациентов, требующих немедленного
// внимания, со списком причин по каждому.
func GetUrgentPatientsHandler(c *gin.Context) {
	var patients []models.Patient
	if err := config.DB.Find(&patients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch patients"})
		return
	}

	today := todayDate()
	var items []PatientListItem
	for i := range patients {
		if len(funnel.UrgentActions(&patients[i], today)) == 0 {
			continue
		}
		items = append(items, decoratePatient(&patients[i], today))
	}

	c.JSON(http.StatusOK, gin.H{
		"totalRows": len(items),
		"data":      items,
	})
}
