// dcare-crm/internal/funnel/callbacks.go

package funnel

import (
	"time"

	"dcare-crm/models"
)

// CallbackAnalysis - ближайший запланированный звонок и признак просрочки.
type CallbackAnalysis struct {
	NextScheduled *models.Callback `json:"nextScheduled"`
	IsOverdue     bool             `json:"isOverdue"`
}

// AnalyzeCallbacks извлекает из истории обзвона ближайший запланированный
// звонок и признак просрочки. today - дата в формате YYYY-MM-DD; даты
// сравниваются лексикографически. Записи с некорректной датой исключаются
// из обоих вычислений и никогда не приводят к ошибке.
func AnalyzeCallbacks(p *models.Patient, today string) CallbackAnalysis {
	var analysis CallbackAnalysis

	for i := range p.CallbackHistory {
		cb := &p.CallbackHistory[i]
		if cb.Status != models.CallbackScheduled {
			continue
		}
		if !validISODate(cb.Date) {
			continue
		}

		if cb.Date < today {
			analysis.IsOverdue = true
		}

		next := analysis.NextScheduled
		if next == nil || cb.Date < next.Date || (cb.Date == next.Date && cb.Time < next.Time) {
			// Копия, чтобы вызывающий код не держал указатель внутрь снимка.
			c := *cb
			analysis.NextScheduled = &c
		}
	}

	return analysis
}

// CountRealCallbacks считает реальные попытки дозвона, исключая маркеры
// закрытия, которые система пишет при терминальных событиях.
func CountRealCallbacks(p *models.Patient) int {
	count := 0
	for i := range p.CallbackHistory {
		if p.CallbackHistory[i].EffectiveKind() != models.KindClosureMarker {
			count++
		}
	}
	return count
}

// OverdueFlags вычисляет карту patientID -> анализ обзвона для раскраски
// строк списка и сортировки по срочности.
func OverdueFlags(patients []models.Patient, today string) map[uint]CallbackAnalysis {
	out := make(map[uint]CallbackAnalysis, len(patients))
	for i := range patients {
		out[patients[i].ID] = AnalyzeCallbacks(&patients[i], today)
	}
	return out
}

func validISODate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
