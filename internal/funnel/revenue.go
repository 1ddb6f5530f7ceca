// dcare-crm/internal/funnel/revenue.go

package funnel

import "dcare-crm/models"

// RevenueBucket - одна из трёх взаимоисключающих групп выручки.
type RevenueBucket string

const (
	BucketAchieved  RevenueBucket = "achieved"  // лечение начато, выручка реализована
	BucketPotential RevenueBucket = "potential" // пациент ещё в работе
	BucketLost      RevenueBucket = "lost"      // закрыт, выручка потеряна
)

// RevenueSubBucket уточняет группу: на каком этапе пациент находится
// (или находился в момент закрытия).
type RevenueSubBucket string

const (
	SubTreatmentStarted    RevenueSubBucket = "treatment_started"
	SubConsultationOngoing RevenueSubBucket = "consultation_ongoing"
	SubVisitManagement     RevenueSubBucket = "visit_management"
	SubConsultationLost    RevenueSubBucket = "consultation_lost"
	SubVisitLost           RevenueSubBucket = "visit_lost"
)

// SubBucketLabels - корейские метки подгрупп для отчётов.
var SubBucketLabels = map[RevenueSubBucket]string{
	SubTreatmentStarted:    "치료시작",
	SubConsultationOngoing: "상담진행중",
	SubVisitManagement:     "내원관리중",
	SubConsultationLost:    "상담단계 손실",
	SubVisitLost:           "내원후 손실",
}

// RevenueClass - результат классификации одного пациента.
type RevenueClass struct {
	Bucket    RevenueBucket    `json:"bucket"`
	SubBucket RevenueSubBucket `json:"subBucket"`
	Amount    int64            `json:"amount"`
}

// EstimatedAmount вычисляет авторитетную оценку стоимости лечения.
// Приоритет (выигрывает первое ненулевое значение): скидочная цена сметы
// после визита -> обычная цена сметы -> телефонная оценка -> прямо
// введённая стоимость -> 0.
func EstimatedAmount(p *models.Patient) int64 {
	if pv := p.PostVisitConsultation; pv != nil && pv.EstimateInfo != nil {
		if pv.EstimateInfo.DiscountPrice > 0 {
			return pv.EstimateInfo.DiscountPrice
		}
		if pv.EstimateInfo.RegularPrice > 0 {
			return pv.EstimateInfo.RegularPrice
		}
	}
	if c := p.Consultation; c != nil && c.EstimatedAmount > 0 {
		return c.EstimatedAmount
	}
	if p.TreatmentCost > 0 {
		return p.TreatmentCost
	}
	return 0
}

// ClassifyRevenue относит пациента ровно к одной группе выручки. Группа
// выводится строго из канонической стадии (а не из сырых полей), поэтому
// классификация не может разойтись с ResolveStage:
//
//	achieved  <=> стадия 치료시작
//	lost      <=> стадия 종결 (подгруппа - был ли визит до закрытия)
//	potential <=> все остальные стадии
func ClassifyRevenue(p *models.Patient) RevenueClass {
	rc := RevenueClass{Amount: EstimatedAmount(p)}

	switch ResolveStage(p) {
	case StageTreatmentStarted:
		rc.Bucket = BucketAchieved
		rc.SubBucket = SubTreatmentStarted
	case StageCompleted:
		rc.Bucket = BucketLost
		if p.VisitConfirmed {
			rc.SubBucket = SubVisitLost
		} else {
			rc.SubBucket = SubConsultationLost
		}
	default:
		rc.Bucket = BucketPotential
		if p.VisitConfirmed {
			rc.SubBucket = SubVisitManagement
		} else {
			rc.SubBucket = SubConsultationOngoing
		}
	}

	return rc
}

// FilterByBucket возвращает пациентов заданной группы выручки. Пустая
// подгруппа означает всю группу. Используется экраном "клик по группе ->
// список совпавших пациентов".
func FilterByBucket(patients []models.Patient, bucket RevenueBucket, subBucket RevenueSubBucket) []models.Patient {
	out := make([]models.Patient, 0)
	for i := range patients {
		rc := ClassifyRevenue(&patients[i])
		if rc.Bucket != bucket {
			continue
		}
		if subBucket != "" && rc.SubBucket != subBucket {
			continue
		}
		out = append(out, patients[i])
	}
	return out
}
