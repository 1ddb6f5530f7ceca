package funnel

import (
	"testing"

	"dcare-crm/models"

	"github.com/stretchr/testify/assert"
)

const today = "2025-08-15"

func TestAnalyzeCallbacksOverdue(t *testing.T) {
	p := models.Patient{CallbackHistory: models.CallbackHistory{
		{ID: "a", Date: "2025-08-14", Status: models.CallbackScheduled},
	}}

	analysis := AnalyzeCallbacks(&p, today)

	assert.True(t, analysis.IsOverdue)
	assert.NotNil(t, analysis.NextScheduled)
	assert.Equal(t, "a", analysis.NextScheduled.ID)
}

// Звонок, запланированный на сегодня, ещё не просрочен.
func TestAnalyzeCallbacksTodayNotOverdue(t *testing.T) {
	p := models.Patient{CallbackHistory: models.CallbackHistory{
		{ID: "a", Date: today, Status: models.CallbackScheduled},
	}}

	analysis := AnalyzeCallbacks(&p, today)

	assert.False(t, analysis.IsOverdue)
	assert.NotNil(t, analysis.NextScheduled)
}

// Завершение звонка снимает просрочку.
func TestAnalyzeCallbacksDoneClearsOverdue(t *testing.T) {
	p := models.Patient{CallbackHistory: models.CallbackHistory{
		{ID: "a", Date: "2025-08-14", Status: models.CallbackDone},
	}}

	analysis := AnalyzeCallbacks(&p, today)

	assert.False(t, analysis.IsOverdue)
	assert.Nil(t, analysis.NextScheduled)
}

func TestAnalyzeCallbacksNextScheduledOrdering(t *testing.T) {
	p := models.Patient{CallbackHistory: models.CallbackHistory{
		{ID: "later", Date: "2025-08-20", Time: "10:00", Status: models.CallbackScheduled},
		{ID: "earlier", Date: "2025-08-18", Time: "15:00", Status: models.CallbackScheduled},
		{ID: "same-day-earlier", Date: "2025-08-18", Time: "09:00", Status: models.CallbackScheduled},
	}}

	analysis := AnalyzeCallbacks(&p, today)

	assert.Equal(t, "same-day-earlier", analysis.NextScheduled.ID)
}

// Некорректная дата не ломает вычисление и не участвует в нём.
func TestAnalyzeCallbacksMalformedDateExcluded(t *testing.T) {
	p := models.Patient{CallbackHistory: models.CallbackHistory{
		{ID: "bad", Date: "not-a-date", Status: models.CallbackScheduled},
		{ID: "bad2", Date: "2025-13-45", Status: models.CallbackScheduled},
		{ID: "good", Date: "2025-08-20", Status: models.CallbackScheduled},
	}}

	analysis := AnalyzeCallbacks(&p, today)

	assert.False(t, analysis.IsOverdue)
	assert.Equal(t, "good", analysis.NextScheduled.ID)
}

func TestAnalyzeCallbacksEmptyHistory(t *testing.T) {
	p := models.Patient{}

	analysis := AnalyzeCallbacks(&p, today)

	assert.False(t, analysis.IsOverdue)
	assert.Nil(t, analysis.NextScheduled)
}

// Результат не должен держать указатель внутрь истории пациента.
func TestAnalyzeCallbacksReturnsCopy(t *testing.T) {
	p := models.Patient{CallbackHistory: models.CallbackHistory{
		{ID: "a", Date: "2025-08-20", Status: models.CallbackScheduled},
	}}

	analysis := AnalyzeCallbacks(&p, today)
	analysis.NextScheduled.Notes = "changed"

	assert.Empty(t, p.CallbackHistory[0].Notes)
}

func TestCountRealCallbacks(t *testing.T) {
	p := models.Patient{CallbackHistory: models.CallbackHistory{
		{ID: "a", Date: "2025-08-01", Status: models.CallbackDone, Kind: models.KindCompleted},
		{ID: "b", Date: "2025-08-05", Status: models.CallbackScheduled, Kind: models.KindScheduled},
		{ID: "marker", Date: "2025-08-05", Status: models.CallbackDone, Kind: models.KindClosureMarker},
		// Старая запись без Kind, тип выводится из устаревшего флага.
		{ID: "legacy-marker", Date: "2025-08-06", Status: models.CallbackDone, IsCompletionRecord: true},
		{ID: "legacy-direct", Date: "2025-08-06", Status: models.CallbackDone, IsDirectVisitCompletion: true},
	}}

	assert.Equal(t, 2, CountRealCallbacks(&p))
}

func TestOverdueFlags(t *testing.T) {
	patients := []models.Patient{
		{Model: withID(1), CallbackHistory: models.CallbackHistory{
			{ID: "a", Date: "2025-08-14", Status: models.CallbackScheduled},
		}},
		{Model: withID(2)},
	}

	flags := OverdueFlags(patients, today)

	assert.Len(t, flags, 2)
	assert.True(t, flags[1].IsOverdue)
	assert.False(t, flags[2].IsOverdue)
}
