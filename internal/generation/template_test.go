package generation

import (
	"testing"

	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/science"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func templateFixture(t *testing.T, profile *domain.UserProfile) *domain.TrainingProgram {
	t.Helper()
	landmarks := science.ComputeVolumeLandmarks(profile)
	weakPoints := science.AnalyzeWeakPoints(profile)
	model := science.SelectPeriodization(profile)
	return TemplateGenerator{}.Generate(profile, landmarks, weakPoints, model, primitive.NewObjectID(), primitive.NewObjectID())
}

func TestTemplateGenerateCoversEveryWeekAndDay(t *testing.T) {
	profile := completeProfile()
	program := templateFixture(t, profile)

	require.Len(t, program.Workouts, 4*profile.DaysPerWeek)
	for week := 1; week <= 4; week++ {
		assert.Len(t, program.WorkoutsForWeek(week), profile.DaysPerWeek, "week %d", week)
	}
	for _, w := range program.Workouts {
		assert.NotEmpty(t, w.Warmup)
		assert.NotEmpty(t, w.Main)
		assert.NotEmpty(t, w.Finishers)
	}
}

func TestTemplateGenerateAlternatesUpperLower(t *testing.T) {
	program := templateFixture(t, completeProfile())

	week1 := program.WorkoutsForWeek(1)
	require.GreaterOrEqual(t, len(week1), 2)
	assert.Equal(t, "Upper Body", week1[0].Focus)
	assert.Equal(t, "Lower Body", week1[1].Focus)
}

func TestTemplateGenerateLoadsFromEstimates(t *testing.T) {
	profile := completeProfile() // tested squat estimate of 140 kg
	program := templateFixture(t, profile)

	var squat *domain.MainExercise
	for _, w := range program.WorkoutsForWeek(1) {
		for i := range w.Main {
			if w.Main[i].Name == "Back Squat" {
				squat = &w.Main[i]
			}
		}
	}
	require.NotNil(t, squat)
	// 140 kg * 0.72 = 100.8, floored to the 2.5 kg increment.
	assert.Equal(t, "100 kg", squat.Load)
}

func TestTemplateGenerateFallsBackWithoutEstimates(t *testing.T) {
	profile := completeProfile()
	profile.StrengthEstimates = nil
	program := templateFixture(t, profile)

	for _, ex := range program.WorkoutsForWeek(1)[0].Main {
		assert.Equal(t, "moderate, 3 reps in reserve", ex.Load)
	}
}

func TestTemplateGenerateDeloadWeekBacksOff(t *testing.T) {
	program := templateFixture(t, completeProfile()) // undulating, week 4 deloads

	for _, w := range program.WorkoutsForWeek(4) {
		for _, ex := range w.Main {
			assert.Equal(t, 2, ex.Sets)
			require.NotNil(t, ex.RPE)
			assert.InDelta(t, 6.0, *ex.RPE, 0.001)
		}
	}
	loaded := program.WorkoutsForWeek(1)[1].Main[0] // week 1 Back Squat
	deloaded := program.WorkoutsForWeek(4)[1].Main[0]
	assert.NotEqual(t, loaded.Load, deloaded.Load, "deload lowers working loads")
}

func TestTemplateGenerateFinisherTargetsTopWeakPoint(t *testing.T) {
	profile := completeProfile()
	program := templateFixture(t, profile)

	weakPoints := science.AnalyzeWeakPoints(profile)
	require.NotEmpty(t, weakPoints)
	require.NotEmpty(t, weakPoints[0].RecommendedExercises)

	finisher := program.Workouts[0].Finishers[0]
	assert.Equal(t, weakPoints[0].RecommendedExercises[0], finisher.Name)
}
