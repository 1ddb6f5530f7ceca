// dcare-crm/internal/funnel/stage.go

// Package funnel - движок классификации воронки и атрибуции выручки.
// Все функции чистые: работают над снимком записей пациентов, ничего не
// мутируют и не выполняют I/O. Производные значения нигде не сохраняются,
// они пересчитываются при каждом чтении.
package funnel

import "dcare-crm/models"

// Stage - каноническая стадия жизненного цикла пациента. Два независимых
// статусных поля (Status и PostVisitStatus) меняются разными рабочими
// процессами и могут временно противоречить друг другу; единый порядок
// разрешения даёт согласованное представление без миграции данных.
type Stage string

const (
	StageConsulting       Stage = "consulting"        // 전화상담
	StageReserved         Stage = "reserved"          // 예약완료
	StageVisited          Stage = "visited"           // 내원완료
	StageTreatmentAgreed  Stage = "treatment_agreed"  // 치료동의
	StageTreatmentStarted Stage = "treatment_started" // 치료시작
	StageCompleted        Stage = "completed"         // 종결
)

// AllStages - перечисление всех стадий в порядке движения по воронке.
var AllStages = []Stage{
	StageConsulting,
	StageReserved,
	StageVisited,
	StageTreatmentAgreed,
	StageTreatmentStarted,
	StageCompleted,
}

// StageLabels - корейские метки для бейджей в списках.
var StageLabels = map[Stage]string{
	StageConsulting:       "전화상담",
	StageReserved:         "예약완료",
	StageVisited:          "내원완료",
	StageTreatmentAgreed:  "치료동의",
	StageTreatmentStarted: "치료시작",
	StageCompleted:        "종결",
}

// Label возвращает корейскую метку стадии.
func (s Stage) Label() string {
	return StageLabels[s]
}

// ResolveStage сводит разрозненные статусные поля пациента к одной
// канонической стадии. Тотальная: любой вход даёт ровно одну из шести
// стадий, неизвестные значения откатываются к наименее продвинутой.
//
// Порядок разрешения (первое совпадение выигрывает):
//  1. терминальное закрытие перекрывает всё остальное;
//  2. после подтверждённого визита стадию определяет PostVisitStatus;
//  3. иначе стадию определяет статус лида.
func ResolveStage(p *models.Patient) Stage {
	if p.IsCompleted || p.Status == models.StatusClosed {
		return StageCompleted
	}

	if p.VisitConfirmed {
		switch p.PostVisitStatus {
		case models.PostVisitStarted:
			return StageTreatmentStarted
		case models.PostVisitAgreed:
			return StageTreatmentAgreed
		case models.PostVisitClosed:
			// Закрытие после визита терминально, даже если флаг IsCompleted
			// ещё не проставлен.
			return StageCompleted
		default:
			// 재콜백필요, пустое или нераспознанное значение.
			return StageVisited
		}
	}

	switch p.Status {
	case models.StatusReserved, models.StatusReReserved:
		return StageReserved
	}

	// 콜백필요, 잠재고객, 부재중, 활성고객, VIP или неизвестный статус.
	return StageConsulting
}

// StageAssignment - пара (пациент, стадия) для отрисовки бейджей и
// фильтрации списков.
type StageAssignment struct {
	PatientID uint  `json:"patientId"`
	Stage     Stage `json:"stage"`
}

// StageAssignments вычисляет стадию для каждого пациента снимка.
func StageAssignments(patients []models.Patient) []StageAssignment {
	out := make([]StageAssignment, 0, len(patients))
	for i := range patients {
		out = append(out, StageAssignment{
			PatientID: patients[i].ID,
			Stage:     ResolveStage(&patients[i]),
		})
	}
	return out
}

// FilterByStage возвращает пациентов, находящихся на заданной стадии.
func FilterByStage(patients []models.Patient, stage Stage) []models.Patient {
	out := make([]models.Patient, 0)
	for i := range patients {
		if ResolveStage(&patients[i]) == stage {
			out = append(out, patients[i])
		}
	}
	return out
}
