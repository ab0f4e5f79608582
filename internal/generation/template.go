package generation

import (
	"fmt"
	"time"

	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/science"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateGenerator is the pre-model pipeline, kept behind the rollout
// strategy: a deterministic upper/lower template driven by the same
// pre-processor output the model pipeline uses. It doubles as the fallback
// when no model endpoint is configured.
type TemplateGenerator struct{}

type templateSlot struct {
	name    string
	muscle  science.MuscleGroup
	reps    string
	rest    string
	loadPct float64 // share of the relevant lift estimate, 0 when bodyweight
	lift    domain.Lift
}

var upperSlots = []templateSlot{
	{name: "Barbell Bench Press", muscle: science.MuscleChest, reps: "6-10", rest: "150s", loadPct: 0.70, lift: domain.LiftBench},
	{name: "Barbell Row", muscle: science.MuscleBack, reps: "8-12", rest: "120s", loadPct: 0.60, lift: domain.LiftDeadlift},
	{name: "Overhead Press", muscle: science.MuscleShoulders, reps: "6-10", rest: "120s", loadPct: 0.70, lift: domain.LiftOverheadPress},
	{name: "Lat Pulldown", muscle: science.MuscleBack, reps: "10-15", rest: "90s", loadPct: 0.45, lift: domain.LiftDeadlift},
}

var lowerSlots = []templateSlot{
	{name: "Back Squat", muscle: science.MuscleQuads, reps: "5-8", rest: "180s", loadPct: 0.72, lift: domain.LiftSquat},
	{name: "Romanian Deadlift", muscle: science.MuscleHamstrings, reps: "8-12", rest: "150s", loadPct: 0.55, lift: domain.LiftDeadlift},
	{name: "Leg Press", muscle: science.MuscleQuads, reps: "10-15", rest: "120s", loadPct: 0.0},
	{name: "Standing Calf Raise", muscle: science.MuscleCalves, reps: "10-15", rest: "60s", loadPct: 0.0},
}

// Generate builds the program directly from the science output. Always
// succeeds for a compilable request; the weak-point list's top entry decides
// the finisher on each day.
func (TemplateGenerator) Generate(
	profile *domain.UserProfile,
	landmarks science.VolumeLandmarks,
	weakPoints []science.WeakPoint,
	model domain.PeriodizationModel,
	ownerID, jobID primitive.ObjectID,
) *domain.TrainingProgram {
	days := profile.DaysPerWeek
	if days < 2 || days > 6 {
		days = 4
	}

	finisher := templateFinisher(weakPoints)

	var workouts []domain.Workout
	for week := 1; week <= model.TotalWeeks; week++ {
		deload := model.IsDeloadWeek(week)
		for day := 1; day <= days; day++ {
			upper := day%2 == 1
			slots := lowerSlots
			focus := "Lower Body"
			if upper {
				slots = upperSlots
				focus = "Upper Body"
			}

			w := domain.Workout{
				Week:     week,
				Day:      day,
				DayLabel: fmt.Sprintf("Day %d", day),
				Focus:    focus,
				Warmup: []domain.WarmupExercise{
					{Name: "Rowing Machine", Duration: "5 min", Intensity: "easy"},
					{Name: "Dynamic Mobility Circuit", Duration: "5 min", Intensity: "easy"},
				},
				Finishers: []domain.FinisherExercise{finisher},
			}

			for _, slot := range slots {
				sets := templateSets(landmarks[slot.muscle], days, deload)
				w.Main = append(w.Main, domain.MainExercise{
					Name: slot.name,
					Sets: sets,
					Reps: slot.reps,
					Load: templateLoad(profile, slot, deload),
					Rest: slot.rest,
					RPE:  templateRPE(deload),
				})
			}
			workouts = append(workouts, w)
		}
	}

	now := time.Now().UTC()
	return &domain.TrainingProgram{
		OwnerID:       ownerID,
		JobID:         jobID,
		Goal:          profile.Goal,
		Periodization: model,
		Workouts:      workouts,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// templateSets spreads the muscle's MEV across its weekly frequency, holding
// 2..5 sets per session. Deload weeks cut back to the floor.
func templateSets(lm science.Landmark, daysPerWeek int, deload bool) int {
	freq := daysPerWeek / 2
	if freq < 1 {
		freq = 1
	}
	sets := lm.MEV / freq
	if sets < 2 {
		sets = 2
	}
	if sets > 5 {
		sets = 5
	}
	if deload {
		sets = 2
	}
	return sets
}

func templateLoad(profile *domain.UserProfile, slot templateSlot, deload bool) string {
	if slot.loadPct == 0 {
		return "moderate, 3 reps in reserve"
	}
	est, ok := profile.Estimate(slot.lift)
	if !ok || !est.Trustworthy() {
		return "moderate, 3 reps in reserve"
	}
	pct := slot.loadPct
	if deload {
		pct *= 0.85
	}
	kg := est.WeightKg * pct
	// Round down to the nearest 2.5 kg plate increment.
	kg = float64(int(kg/2.5)) * 2.5
	return fmt.Sprintf("%g kg", kg)
}

func templateRPE(deload bool) *float64 {
	rpe := 8.0
	if deload {
		rpe = 6.0
	}
	return &rpe
}

func templateFinisher(weakPoints []science.WeakPoint) domain.FinisherExercise {
	if len(weakPoints) > 0 && len(weakPoints[0].RecommendedExercises) > 0 {
		return domain.FinisherExercise{
			Name: weakPoints[0].RecommendedExercises[0],
			Sets: 3,
			Reps: "12-15",
			Rest: "60s",
		}
	}
	return domain.FinisherExercise{Name: "Face Pull", Sets: 3, Reps: "15-20", Rest: "60s"}
}
