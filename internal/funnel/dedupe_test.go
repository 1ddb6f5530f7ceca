package funnel

import (
	"testing"
	"time"

	"dcare-crm/models"

	"github.com/stretchr/testify/assert"
)

func logAt(action, targetID, userID string, ts time.Time) models.ActivityLog {
	return models.ActivityLog{
		Action:    action,
		Target:    "patient",
		TargetID:  targetID,
		UserID:    userID,
		Timestamp: ts,
	}
}

func TestDedupeLogsCollapsesSameMinute(t *testing.T) {
	base := time.Date(2025, 8, 15, 10, 30, 5, 0, time.UTC)
	logs := []models.ActivityLog{
		logAt(models.ActionPatientUpdate, "101", "u1", base),
		logAt(models.ActionPatientUpdate, "101", "u1", base.Add(20*time.Second)),
		logAt(models.ActionPatientUpdate, "101", "u1", base.Add(40*time.Second)),
	}

	got := DedupeLogs(logs)

	assert.Len(t, got, 1)
	assert.Equal(t, base, got[0].Timestamp)
}

// Разные минуты, пользователи или цели дублями не считаются.
func TestDedupeLogsDistinctKeysKept(t *testing.T) {
	base := time.Date(2025, 8, 15, 10, 30, 0, 0, time.UTC)
	logs := []models.ActivityLog{
		logAt(models.ActionPatientUpdate, "101", "u1", base),
		logAt(models.ActionPatientUpdate, "101", "u1", base.Add(time.Minute)),
		logAt(models.ActionPatientUpdate, "101", "u2", base),
		logAt(models.ActionPatientUpdate, "102", "u1", base),
		logAt(models.ActionCallbackCreate, "101", "u1", base),
	}

	got := DedupeLogs(logs)

	assert.Len(t, got, 5)
}

func TestDedupeLogsFiltersInformationalActions(t *testing.T) {
	base := time.Date(2025, 8, 15, 10, 30, 0, 0, time.UTC)
	logs := []models.ActivityLog{
		logAt(models.ActionPatientView, "101", "u1", base),
		logAt(models.ActionLogin, "u1", "u1", base),
		logAt(models.ActionPatientCreate, "101", "u1", base),
		logAt(models.ActionLogout, "u1", "u1", base),
	}

	got := DedupeLogs(logs)

	assert.Len(t, got, 1)
	assert.Equal(t, models.ActionPatientCreate, got[0].Action)
}

func TestDedupeLogsPreservesOrder(t *testing.T) {
	base := time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC)
	logs := []models.ActivityLog{
		logAt(models.ActionPatientCreate, "101", "u1", base),
		logAt(models.ActionCallbackCreate, "101", "u1", base.Add(time.Minute)),
		logAt(models.ActionPatientCreate, "101", "u1", base), // дубль первой
		logAt(models.ActionPatientComplete, "101", "u1", base.Add(2*time.Minute)),
	}

	got := DedupeLogs(logs)

	assert.Len(t, got, 3)
	assert.Equal(t, models.ActionPatientCreate, got[0].Action)
	assert.Equal(t, models.ActionCallbackCreate, got[1].Action)
	assert.Equal(t, models.ActionPatientComplete, got[2].Action)
}

func TestDedupeLogsIdempotent(t *testing.T) {
	base := time.Date(2025, 8, 15, 10, 30, 5, 0, time.UTC)
	logs := []models.ActivityLog{
		logAt(models.ActionPatientUpdate, "101", "u1", base),
		logAt(models.ActionPatientUpdate, "101", "u1", base.Add(10*time.Second)),
		logAt(models.ActionPatientView, "101", "u1", base),
		logAt(models.ActionCallbackComplete, "101", "u1", base),
	}

	once := DedupeLogs(logs)
	twice := DedupeLogs(once)

	assert.Equal(t, once, twice)
}

func TestDedupeLogsExcludingCustomSet(t *testing.T) {
	base := time.Date(2025, 8, 15, 10, 30, 0, 0, time.UTC)
	logs := []models.ActivityLog{
		logAt(models.ActionPatientView, "101", "u1", base),
		logAt(models.ActionPatientCreate, "101", "u1", base),
	}

	got := DedupeLogsExcluding(logs, []string{models.ActionPatientCreate})

	assert.Len(t, got, 1)
	assert.Equal(t, models.ActionPatientView, got[0].Action)
}

func TestDedupeLogsEmpty(t *testing.T) {
	assert.Empty(t, DedupeLogs(nil))
}
