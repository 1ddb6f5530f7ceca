// dcare-crm/internal/funnel/aggregate.go

package funnel

import (
	"math"
	"sort"

	"dcare-crm/models"
)

// FunnelStats - количество пациентов на каждой стадии. Каждый пациент
// попадает ровно в одну стадию, поэтому сумма счётчиков равна Total.
type FunnelStats struct {
	Consulting       int `json:"consulting"`
	Reserved         int `json:"reserved"`
	Visited          int `json:"visited"`
	TreatmentAgreed  int `json:"treatment_agreed"`
	TreatmentStarted int `json:"treatment_started"`
	Completed        int `json:"completed"`
	Total            int `json:"total"`
}

// Count возвращает счётчик заданной стадии.
func (s *FunnelStats) Count(stage Stage) int {
	switch stage {
	case StageConsulting:
		return s.Consulting
	case StageReserved:
		return s.Reserved
	case StageVisited:
		return s.Visited
	case StageTreatmentAgreed:
		return s.TreatmentAgreed
	case StageTreatmentStarted:
		return s.TreatmentStarted
	case StageCompleted:
		return s.Completed
	}
	return 0
}

func (s *FunnelStats) add(stage Stage) {
	switch stage {
	case StageConsulting:
		s.Consulting++
	case StageReserved:
		s.Reserved++
	case StageVisited:
		s.Visited++
	case StageTreatmentAgreed:
		s.TreatmentAgreed++
	case StageTreatmentStarted:
		s.TreatmentStarted++
	case StageCompleted:
		s.Completed++
	}
}

// AggregateFunnel сводит коллекцию пациентов в счётчики по стадиям для
// карточек дашборда.
func AggregateFunnel(patients []models.Patient) FunnelStats {
	stats := FunnelStats{Total: len(patients)}
	for i := range patients {
		stats.add(ResolveStage(&patients[i]))
	}
	return stats
}

// RevenueBreakdown - пара (пациенты, сумма) для одной подгруппы.
type RevenueBreakdown struct {
	Patients int   `json:"patients"`
	Amount   int64 `json:"amount"`
}

// AchievedRevenue - реализованная выручка (лечение начато).
type AchievedRevenue struct {
	Patients   int   `json:"patients"`
	Amount     int64 `json:"amount"`
	Percentage int   `json:"percentage"`
}

// PotentialRevenue - выручка пациентов, которые ещё в работе.
type PotentialRevenue struct {
	Consultation    RevenueBreakdown `json:"consultation"`
	VisitManagement RevenueBreakdown `json:"visitManagement"`
	TotalPatients   int              `json:"totalPatients"`
	TotalAmount     int64            `json:"totalAmount"`
	Percentage      int              `json:"percentage"`
}

// LostRevenue - подтверждённо потерянная выручка.
type LostRevenue struct {
	Consultation    RevenueBreakdown `json:"consultation"`
	VisitManagement RevenueBreakdown `json:"visitManagement"`
	TotalPatients   int              `json:"totalPatients"`
	TotalAmount     int64            `json:"totalAmount"`
	Percentage      int              `json:"percentage"`
}

// RevenueSummary - сводные показатели месячного отчёта.
type RevenueSummary struct {
	TotalInquiries       int   `json:"totalInquiries"`
	TotalPotentialAmount int64 `json:"totalPotentialAmount"`
	AchievementRate      int   `json:"achievementRate"`
	PotentialGrowth      int   `json:"potentialGrowth"`
}

// RevenueAnalysis - полная структура анализа выручки, отдаётся как есть
// рендереру месячного отчёта и карточкам дашборда.
type RevenueAnalysis struct {
	AchievedRevenue  AchievedRevenue  `json:"achievedRevenue"`
	PotentialRevenue PotentialRevenue `json:"potentialRevenue"`
	LostRevenue      LostRevenue      `json:"lostRevenue"`
	Summary          RevenueSummary   `json:"summary"`
}

// AggregateRevenue сводит коллекцию пациентов в итоги по трём группам
// выручки. Проценты считаются от общего числа пациентов, поэтому три
// верхнеуровневых процента в сумме дают 100 (с точностью до округления).
// Деление на ноль всегда вырождается в 0.
func AggregateRevenue(patients []models.Patient) RevenueAnalysis {
	var a RevenueAnalysis
	total := len(patients)

	for i := range patients {
		rc := ClassifyRevenue(&patients[i])
		switch rc.SubBucket {
		case SubTreatmentStarted:
			a.AchievedRevenue.Patients++
			a.AchievedRevenue.Amount += rc.Amount
		case SubConsultationOngoing:
			a.PotentialRevenue.Consultation.Patients++
			a.PotentialRevenue.Consultation.Amount += rc.Amount
		case SubVisitManagement:
			a.PotentialRevenue.VisitManagement.Patients++
			a.PotentialRevenue.VisitManagement.Amount += rc.Amount
		case SubConsultationLost:
			a.LostRevenue.Consultation.Patients++
			a.LostRevenue.Consultation.Amount += rc.Amount
		case SubVisitLost:
			a.LostRevenue.VisitManagement.Patients++
			a.LostRevenue.VisitManagement.Amount += rc.Amount
		}
	}

	a.PotentialRevenue.TotalPatients = a.PotentialRevenue.Consultation.Patients + a.PotentialRevenue.VisitManagement.Patients
	a.PotentialRevenue.TotalAmount = a.PotentialRevenue.Consultation.Amount + a.PotentialRevenue.VisitManagement.Amount
	a.LostRevenue.TotalPatients = a.LostRevenue.Consultation.Patients + a.LostRevenue.VisitManagement.Patients
	a.LostRevenue.TotalAmount = a.LostRevenue.Consultation.Amount + a.LostRevenue.VisitManagement.Amount

	a.AchievedRevenue.Percentage = roundPercent(a.AchievedRevenue.Patients, total)
	a.PotentialRevenue.Percentage = roundPercent(a.PotentialRevenue.TotalPatients, total)
	a.LostRevenue.Percentage = roundPercent(a.LostRevenue.TotalPatients, total)

	a.Summary.TotalInquiries = total
	a.Summary.TotalPotentialAmount = a.PotentialRevenue.TotalAmount
	a.Summary.AchievementRate = roundRatio(a.AchievedRevenue.Amount, a.AchievedRevenue.Amount+a.PotentialRevenue.TotalAmount)
	a.Summary.PotentialGrowth = roundRatio(a.PotentialRevenue.TotalAmount, a.AchievedRevenue.Amount)

	return a
}

// RevenuePatientDetail - строка детализации месячного отчёта.
type RevenuePatientDetail struct {
	PatientID       uint                   `json:"patientId"`
	Name            string                 `json:"name"`
	PhoneNumber     string                 `json:"phoneNumber"`
	CallInDate      string                 `json:"callInDate"`
	Status          models.PatientStatus   `json:"status"`
	PostVisitStatus models.PostVisitStatus `json:"postVisitStatus"`
	EstimatedAmount int64                  `json:"estimatedAmount"`
	Bucket          RevenueBucket          `json:"revenueType"`
	SubBucket       RevenueSubBucket       `json:"revenueSubType"`
	Category        string                 `json:"category"`
}

// RevenuePatientDetails строит детализацию по пациентам, отсортированную
// по сумме по убыванию.
func RevenuePatientDetails(patients []models.Patient) []RevenuePatientDetail {
	details := make([]RevenuePatientDetail, 0, len(patients))
	for i := range patients {
		p := &patients[i]
		rc := ClassifyRevenue(p)
		details = append(details, RevenuePatientDetail{
			PatientID:       p.ID,
			Name:            p.Name,
			PhoneNumber:     p.PhoneNumber,
			CallInDate:      p.CallInDate,
			Status:          p.Status,
			PostVisitStatus: p.PostVisitStatus,
			EstimatedAmount: rc.Amount,
			Bucket:          rc.Bucket,
			SubBucket:       rc.SubBucket,
			Category:        SubBucketLabels[rc.SubBucket],
		})
	}

	sort.SliceStable(details, func(i, j int) bool {
		return details[i].EstimatedAmount > details[j].EstimatedAmount
	})
	return details
}

// roundPercent - round(n/total*100), 0 при пустом знаменателе.
func roundPercent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(total) * 100))
}

// roundRatio - round(num/den*100) для сумм, 0 при нулевом знаменателе.
func roundRatio(num, den int64) int {
	if den == 0 {
		return 0
	}
	return int(math.Round(float64(num) / float64(den) * 100))
}
