// dcare-crm/internal/funnel/urgent.go

package funnel

import "dcare-crm/models"

// UrgentAction - причина, по которой пациент требует немедленного внимания.
type UrgentAction string

const (
	UrgentOverdueCallback       UrgentAction = "overdue_callback"         // просрочен запланированный звонок
	UrgentTodayReservation      UrgentAction = "today_reservation"        // запись на сегодня
	UrgentPostReservationNoShow UrgentAction = "post_reservation_no_show" // записан, но не пришёл
	UrgentTreatmentNotStarted   UrgentAction = "treatment_not_started"    // согласие есть, лечение не началось в срок
	UrgentNoStatus              UrgentAction = "no_status"                // визит был, состояние не проставлено
)

// UrgentActions возвращает список срочных действий по пациенту. Порядок
// фиксированный - по убыванию приоритета.
func UrgentActions(p *models.Patient, today string) []UrgentAction {
	var actions []UrgentAction

	if AnalyzeCallbacks(p, today).IsOverdue {
		actions = append(actions, UrgentOverdueCallback)
	}

	if p.ReservationDate == today {
		actions = append(actions, UrgentTodayReservation)
	}

	if p.IsPostReservation {
		actions = append(actions, UrgentPostReservationNoShow)
	}

	if p.VisitConfirmed && p.PostVisitStatus == models.PostVisitAgreed {
		if pv := p.PostVisitConsultation; pv != nil && pv.TreatmentConsentInfo != nil {
			start := pv.TreatmentConsentInfo.TreatmentStartDate
			if validISODate(start) && start < today {
				actions = append(actions, UrgentTreatmentNotStarted)
			}
		}
	}

	if p.VisitConfirmed && p.PostVisitStatus == models.PostVisitNone {
		actions = append(actions, UrgentNoStatus)
	}

	return actions
}

// UrgentStats - счётчики срочных действий по коллекции. Один пациент может
// числиться сразу в нескольких счётчиках.
type UrgentStats struct {
	OverdueCallback       int `json:"overdue_callback"`
	TodayReservation      int `json:"today_reservation"`
	PostReservationNoShow int `json:"post_reservation_no_show"`
	TreatmentNotStarted   int `json:"treatment_not_started"`
	NoStatus              int `json:"no_status"`
}

// AggregateUrgent сводит срочные действия коллекции пациентов.
func AggregateUrgent(patients []models.Patient, today string) UrgentStats {
	var stats UrgentStats
	for i := range patients {
		for _, a := range UrgentActions(&patients[i], today) {
			switch a {
			case UrgentOverdueCallback:
				stats.OverdueCallback++
			case UrgentTodayReservation:
				stats.TodayReservation++
			case UrgentPostReservationNoShow:
				stats.PostReservationNoShow++
			case UrgentTreatmentNotStarted:
				stats.TreatmentNotStarted++
			case UrgentNoStatus:
				stats.NoStatus++
			}
		}
	}
	return stats
}
