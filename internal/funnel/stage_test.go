package funnel

import (
	"testing"

	"dcare-crm/models"

	"github.com/stretchr/testify/assert"
)

func TestResolveStage(t *testing.T) {
	tests := []struct {
		name    string
		patient models.Patient
		want    Stage
	}{
		{
			name:    "default lead is consulting",
			patient: models.Patient{Status: models.StatusProspect},
			want:    StageConsulting,
		},
		{
			name:    "callback needed is consulting",
			patient: models.Patient{Status: models.StatusCallbackNeeded},
			want:    StageConsulting,
		},
		{
			name:    "no answer is consulting",
			patient: models.Patient{Status: models.StatusNoAnswer},
			want:    StageConsulting,
		},
		{
			name:    "VIP without visit is consulting",
			patient: models.Patient{Status: models.StatusVIP},
			want:    StageConsulting,
		},
		{
			name:    "unknown status falls back to consulting",
			patient: models.Patient{Status: "이상한값"},
			want:    StageConsulting,
		},
		{
			name:    "empty record resolves without panic",
			patient: models.Patient{},
			want:    StageConsulting,
		},
		{
			name:    "reservation confirmed",
			patient: models.Patient{Status: models.StatusReserved},
			want:    StageReserved,
		},
		{
			name:    "re-reservation confirmed",
			patient: models.Patient{Status: models.StatusReReserved},
			want:    StageReserved,
		},
		{
			name:    "visited without post-visit status",
			patient: models.Patient{Status: models.StatusReserved, VisitConfirmed: true},
			want:    StageVisited,
		},
		{
			name: "visited with recall needed",
			patient: models.Patient{
				VisitConfirmed:  true,
				PostVisitStatus: models.PostVisitRecallNeeded,
			},
			want: StageVisited,
		},
		{
			name: "visited with unrecognized post-visit status",
			patient: models.Patient{
				VisitConfirmed:  true,
				PostVisitStatus: "미확인",
			},
			want: StageVisited,
		},
		{
			name: "treatment agreed",
			patient: models.Patient{
				VisitConfirmed:  true,
				PostVisitStatus: models.PostVisitAgreed,
			},
			want: StageTreatmentAgreed,
		},
		{
			name: "treatment started",
			patient: models.Patient{
				VisitConfirmed:  true,
				PostVisitStatus: models.PostVisitStarted,
			},
			want: StageTreatmentStarted,
		},
		{
			name: "post-visit status ignored without visit confirmation",
			patient: models.Patient{
				Status:          models.StatusCallbackNeeded,
				VisitConfirmed:  false,
				PostVisitStatus: models.PostVisitStarted,
			},
			want: StageConsulting,
		},
		{
			name:    "closed status",
			patient: models.Patient{Status: models.StatusClosed},
			want:    StageCompleted,
		},
		{
			name:    "completion flag closes without status",
			patient: models.Patient{Status: models.StatusActive, IsCompleted: true},
			want:    StageCompleted,
		},
		{
			name: "closure overrides treatment started",
			patient: models.Patient{
				Status:          models.StatusClosed,
				VisitConfirmed:  true,
				PostVisitStatus: models.PostVisitStarted,
			},
			want: StageCompleted,
		},
		{
			name: "post-visit closure is terminal",
			patient: models.Patient{
				VisitConfirmed:  true,
				PostVisitStatus: models.PostVisitClosed,
			},
			want: StageCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveStage(&tt.patient))
		})
	}
}

// Каждая комбинация статусных полей даёт ровно одну из шести стадий.
func TestResolveStageTotality(t *testing.T) {
	statuses := []models.PatientStatus{
		models.StatusProspect, models.StatusCallbackNeeded, models.StatusNoAnswer,
		models.StatusActive, models.StatusVIP, models.StatusReserved,
		models.StatusReReserved, models.StatusClosed, "", "garbage",
	}
	postVisit := []models.PostVisitStatus{
		models.PostVisitNone, models.PostVisitRecallNeeded, models.PostVisitAgreed,
		models.PostVisitStarted, models.PostVisitClosed, "garbage",
	}
	known := make(map[Stage]bool, len(AllStages))
	for _, s := range AllStages {
		known[s] = true
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
					assert.True(t, known[stage], "unexpected stage %q for %+v", stage, p)
				}
			}
		}
	}
}

func TestStageAssignments(t *testing.T) {
	patients := []models.Patient{
		{Model: withID(1), Status: models.StatusProspect},
		{Model: withID(2), Status: models.StatusReserved},
		{Model: withID(3), VisitConfirmed: true, PostVisitStatus: models.PostVisitStarted},
	}

	got := StageAssignments(patients)

	assert.Equal(t, []StageAssignment{
		{PatientID: 1, Stage: StageConsulting},
		{PatientID: 2, Stage: StageReserved},
		{PatientID: 3, Stage: StageTreatmentStarted},
	}, got)
}

func TestFilterByStage(t *testing.T) {
	patients := []models.Patient{
		{Model: withID(1), Status: models.StatusProspect},
		{Model: withID(2), Status: models.StatusReserved},
		{Model: withID(3), Status: models.StatusReReserved},
	}

	reserved := FilterByStage(patients, StageReserved)

	assert.Len(t, reserved, 2)
	assert.Equal(t, uint(2), reserved[0].ID)
	assert.Equal(t, uint(3), reserved[1].ID)
}

func TestStageLabels(t *testing.T) {
	for _, s := range AllStages {
		assert.NotEmpty(t, s.Label(), "stage %q has no label", s)
	}
}
