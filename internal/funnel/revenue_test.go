package funnel

import (
	"testing"

	"dcare-crm/models"

	"github.com/stretchr/testify/assert"
)

func TestEstimatedAmountPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		patient models.Patient
		want    int64
	}{
		{
			name: "discount price wins",
			patient: models.Patient{
				PostVisitConsultation: &models.PostVisitConsultation{
					EstimateInfo: &models.EstimateInfo{RegularPrice: 2_000_000, DiscountPrice: 1_800_000},
				},
				Consultation:  &models.ConsultationInfo{EstimatedAmount: 1_000_000},
				TreatmentCost: 500_000,
			},
			want: 1_800_000,
		},
		{
			name: "regular price when no discount",
			patient: models.Patient{
				PostVisitConsultation: &models.PostVisitConsultation{
					EstimateInfo: &models.EstimateInfo{RegularPrice: 2_000_000},
				},
				Consultation: &models.ConsultationInfo{EstimatedAmount: 1_000_000},
			},
			want: 2_000_000,
		},
		{
			name: "zero estimate falls through to phone consultation",
			patient: models.Patient{
				PostVisitConsultation: &models.PostVisitConsultation{
					EstimateInfo: &models.EstimateInfo{},
				},
				Consultation: &models.ConsultationInfo{EstimatedAmount: 1_000_000},
			},
			want: 1_000_000,
		},
		{
			name:    "direct treatment cost as last resort",
			patient: models.Patient{TreatmentCost: 300_000},
			want:    300_000,
		},
		{
			name:    "no estimate at all",
			patient: models.Patient{},
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimatedAmount(&tt.patient))
		})
	}
}

func TestClassifyRevenue(t *testing.T) {
	tests := []struct {
		name      string
		patient   models.Patient
		bucket    RevenueBucket
		subBucket RevenueSubBucket
		amount    int64
	}{
		{
			name: "treatment started is achieved",
			patient: models.Patient{
				VisitConfirmed:  true,
				PostVisitStatus: models.PostVisitStarted,
				TreatmentCost:   2_500_000,
			},
			bucket:    BucketAchieved,
			subBucket: SubTreatmentStarted,
			amount:    2_500_000,
		},
		{
			// Пример из месячного отчёта: подтверждённая запись с телефонной
			// оценкой остаётся потенциальной выручкой этапа консультаций.
			name: "reserved patient with phone estimate",
			patient: models.Patient{
				Status:       models.StatusReserved,
				Consultation: &models.ConsultationInfo{EstimatedAmount: 3_000_000},
			},
			bucket:    BucketPotential,
			subBucket: SubConsultationOngoing,
			amount:    3_000_000,
		},
		{
			name: "no answer but not closed stays potential",
			patient: models.Patient{
				Status: models.StatusNoAnswer,
			},
			bucket:    BucketPotential,
			subBucket: SubConsultationOngoing,
		},
		{
			name: "visited without status is visit management",
			patient: models.Patient{
				VisitConfirmed: true,
			},
			bucket:    BucketPotential,
			subBucket: SubVisitManagement,
		},
		{
			name: "treatment agreed is still potential",
			patient: models.Patient{
				VisitConfirmed:  true,
				PostVisitStatus: models.PostVisitAgreed,
			},
			bucket:    BucketPotential,
			subBucket: SubVisitManagement,
		},
		{
			name: "closed before visit is consultation lost",
			patient: models.Patient{
				Status: models.StatusClosed,
			},
			bucket:    BucketLost,
			subBucket: SubConsultationLost,
		},
		{
			// Закрытие перекрывает начатое лечение.
			name: "closed after treatment started is visit lost",
			patient: models.Patient{
				Status:          models.StatusClosed,
				VisitConfirmed:  true,
				PostVisitStatus: models.PostVisitStarted,
			},
			bucket:    BucketLost,
			subBucket: SubVisitLost,
		},
		{
			name: "post-visit closure is visit lost",
			patient: models.Patient{
				VisitConfirmed:  true,
				PostVisitStatus: models.PostVisitClosed,
			},
			bucket:    BucketLost,
			subBucket: SubVisitLost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := ClassifyRevenue(&tt.patient)
			assert.Equal(t, tt.bucket, rc.Bucket)
			assert.Equal(t, tt.subBucket, rc.SubBucket)
			assert.Equal(t, tt.amount, rc.Amount)
		})
	}
}

// Группа выручки обязана быть функцией канонической стадии: achieved
// соответствует 치료시작, lost - 종결, potential - всему остальному.
func TestClassifyRevenueConsistentWithStage(t *testing.T) {
	statuses := []models.PatientStatus{
		models.StatusProspect, models.StatusCallbackNeeded, models.StatusNoAnswer,
		models.StatusActive, models.StatusVIP, models.StatusReserved,
		models.StatusReReserved, models.StatusClosed,
	}
	postVisit := []models.PostVisitStatus{
		models.PostVisitNone, models.PostVisitRecallNeeded, models.PostVisitAgreed,
		models.PostVisitStarted, models.PostVisitClosed,
	}

	for _, status := range statuses {
		for _, pv := range postVisit {
			for _, visited := range []bool{false, true} {
				for _, completed := range []bool{false, true} {
					p := models.Patient{
						Status:          status,
						PostVisitStatus: pv,
						VisitConfirmed:  visited,
						IsCompleted:     completed,
					}
					stage := ResolveStage(&p)
					rc := ClassifyRevenue(&p)

					switch stage {
					case StageTreatmentStarted:
						assert.Equal(t, BucketAchieved, rc.Bucket, "%+v", p)
					case StageCompleted:
						assert.Equal(t, BucketLost, rc.Bucket, "%+v", p)
					default:
						assert.Equal(t, BucketPotential, rc.Bucket, "%+v", p)
					}
				}
			}
		}
	}
}

func TestFilterByBucket(t *testing.T) {
	patients := []models.Patient{
		{Model: withID(1), VisitConfirmed: true, PostVisitStatus: models.PostVisitStarted},
		{Model: withID(2), Status: models.StatusCallbackNeeded},
		{Model: withID(3), VisitConfirmed: true},
		{Model: withID(4), Status: models.StatusClosed},
	}

	achieved := FilterByBucket(patients, BucketAchieved, "")
	assert.Len(t, achieved, 1)
	assert.Equal(t, uint(1), achieved[0].ID)

	potential := FilterByBucket(patients, BucketPotential, "")
	assert.Len(t, potential, 2)

	visitManagement := FilterByBucket(patients, BucketPotential, SubVisitManagement)
	assert.Len(t, visitManagement, 1)
	assert.Equal(t, uint(3), visitManagement[0].ID)

	lost := FilterByBucket(patients, BucketLost, SubConsultationLost)
	assert.Len(t, lost, 1)
	assert.Equal(t, uint(4), lost[0].ID)
}
