package funnel

import (
	"testing"

	"dcare-crm/models"

	"github.com/stretchr/testify/assert"
)

func TestUrgentActions(t *testing.T) {
	tests := []struct {
		name    string
		patient models.Patient
		want    []UrgentAction
	}{
		{
			name: "overdue callback",
			patient: models.Patient{CallbackHistory: models.CallbackHistory{
				{Date: "2025-08-10", Status: models.CallbackScheduled},
			}},
			want: []UrgentAction{UrgentOverdueCallback},
		},
		{
			name:    "reservation today",
			patient: models.Patient{ReservationDate: today},
			want:    []UrgentAction{UrgentTodayReservation},
		},
		{
			name:    "post reservation no-show",
			patient: models.Patient{IsPostReservation: true},
			want:    []UrgentAction{UrgentPostReservationNoShow},
		},
		{
			name: "treatment agreed but not started in time",
			patient: models.Patient{
				VisitConfirmed:  true,
				PostVisitStatus: models.PostVisitAgreed,
				PostVisitConsultation: &models.PostVisitConsultation{
					TreatmentConsentInfo: &models.TreatmentConsentInfo{TreatmentStartDate: "2025-08-01"},
				},
			},
			want: []UrgentAction{UrgentTreatmentNotStarted},
		},
		{
			name: "treatment start date in future is fine",
			patient: models.Patient{
				VisitConfirmed:  true,
				PostVisitStatus: models.PostVisitAgreed,
				PostVisitConsultation: &models.PostVisitConsultation{
					TreatmentConsentInfo: &models.TreatmentConsentInfo{TreatmentStartDate: "2025-09-01"},
				},
			},
			want: nil,
		},
		{
			name:    "visited without status",
			patient: models.Patient{VisitConfirmed: true},
			want:    []UrgentAction{UrgentNoStatus},
		},
		{
			name:    "calm patient has no urgent actions",
			patient: models.Patient{Status: models.StatusProspect},
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UrgentActions(&tt.patient, today))
		})
	}
}

func TestAggregateUrgent(t *testing.T) {
	patients := []models.Patient{
		{CallbackHistory: models.CallbackHistory{{Date: "2025-08-10", Status: models.CallbackScheduled}}},
		{ReservationDate: today},
		// Этот пациент попадает в два счётчика сразу.
		{VisitConfirmed: true, CallbackHistory: models.CallbackHistory{{Date: "2025-08-01", Status: models.CallbackScheduled}}},
	}

	stats := AggregateUrgent(patients, today)

	assert.Equal(t, 2, stats.OverdueCallback)
	assert.Equal(t, 1, stats.TodayReservation)
	assert.Equal(t, 1, stats.NoStatus)
	assert.Equal(t, 0, stats.PostReservationNoShow)
	assert.Equal(t, 0, stats.TreatmentNotStarted)
}
