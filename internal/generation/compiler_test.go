package generation

import (
	"strings"
	"testing"

	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/science"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeProfile() *domain.UserProfile {
	return &domain.UserProfile{
		ExperienceLevel:   domain.ExperienceIntermediate,
		TrainingAgeMonths: 18,
		Goal:              domain.GoalHypertrophy,
		DaysPerWeek:       4,
		Equipment:         []string{"barbell", "dumbbells", "cable stack"},
		Injuries:          "mild knee pain",
		StrengthEstimates: map[domain.Lift]domain.StrengthEstimate{
			domain.LiftSquat:    {WeightKg: 140, Confidence: domain.ConfidenceActual1RM},
			domain.LiftDeadlift: {WeightKg: 150, Confidence: domain.ConfidenceActual1RM},
		},
	}
}

func compileFixture(t *testing.T, profile *domain.UserProfile) *RequestSpec {
	t.Helper()
	model := science.SelectPeriodization(profile)
	landmarks := science.ComputeVolumeLandmarks(profile)
	weakPoints := science.AnalyzeWeakPoints(profile)

	spec, err := CompileRequest(profile, landmarks, weakPoints, model)
	require.NoError(t, err)
	return spec
}

func TestCompileRequestRejectsIncompleteProfiles(t *testing.T) {
	model := science.SelectPeriodization(&domain.UserProfile{TrainingAgeMonths: 18})

	tests := map[string]*domain.UserProfile{
		"nil profile": nil,
		"missing goal": {
			ExperienceLevel: domain.ExperienceIntermediate,
		},
		"missing experience": {
			Goal: domain.GoalStrength,
		},
	}
	for name, profile := range tests {
		t.Run(name, func(t *testing.T) {
			var landmarks science.VolumeLandmarks
			var weakPoints []science.WeakPoint
			if profile != nil {
				landmarks = science.ComputeVolumeLandmarks(profile)
				weakPoints = science.AnalyzeWeakPoints(profile)
			}
			_, err := CompileRequest(profile, landmarks, weakPoints, model)
			require.Error(t, err)
			assert.Equal(t, domain.CategoryConfiguration, domain.CategoryOf(err))
		})
	}
}

func TestCompileRequestEmbedsScienceOutput(t *testing.T) {
	spec := compileFixture(t, completeProfile())

	assert.Contains(t, spec.OwnerContext, "MEV/MAV/MRV")
	assert.Contains(t, spec.OwnerContext, string(science.MuscleQuads))
	assert.Contains(t, spec.OwnerContext, "Weak points")
	assert.Contains(t, spec.OwnerContext, "knee pain")
	assert.Contains(t, spec.OwnerContext, "barbell, dumbbells, cable stack")
}

func TestCompileRequestEmbedsTierHints(t *testing.T) {
	spec := compileFixture(t, completeProfile())

	assert.Contains(t, spec.OwnerContext, primaryTierHint)
	assert.Contains(t, spec.OwnerContext, secondaryTierHint)
	assert.Contains(t, spec.OwnerContext, isolationTierHint)
}

func TestCompileRequestDescribesPeriodization(t *testing.T) {
	intermediate := compileFixture(t, completeProfile())
	assert.Contains(t, intermediate.OwnerContext, "undulating 4-week block")
	assert.Equal(t, 4, intermediate.WeeksPerPlan)

	novice := completeProfile()
	novice.TrainingAgeMonths = 3
	linear := compileFixture(t, novice)
	assert.Contains(t, linear.OwnerContext, "linear weekly progression")
}

func TestCompileRequestClampsDaysPerWeek(t *testing.T) {
	profile := completeProfile()
	profile.DaysPerWeek = 9
	spec := compileFixture(t, profile)
	assert.Equal(t, 4, spec.DaysPerWeek)
}

func TestCompileRequestCarriesTargetSchema(t *testing.T) {
	spec := compileFixture(t, completeProfile())
	assert.Equal(t, programTargetSchema, spec.TargetSchema)
	assert.True(t, strings.Contains(spec.TargetSchema, `"required": ["exercise", "sets", "reps", "load", "rest"]`))
}
