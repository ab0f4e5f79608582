package generation

import (
	"sort"
	"time"

	"alcyxob/program-engine/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Normalize converts a validated Candidate into the canonical program,
// resolving each exercise into its tier's tagged variant. Structural problems
// the tier validator cannot rule out (an empty workouts array, a workout with
// no main work) surface as validation errors; retrying the same candidate
// would reproduce them, so they are fatal.
func Normalize(
	candidate *Candidate,
	ownerID, jobID primitive.ObjectID,
	goal domain.Goal,
	model domain.PeriodizationModel,
) (*domain.TrainingProgram, error) {
	if candidate == nil || len(candidate.Workouts) == 0 {
		return nil, domain.NewValidationError("candidate has no workouts", nil)
	}

	workouts := make([]domain.Workout, 0, len(candidate.Workouts))
	for i, cw := range candidate.Workouts {
		if len(cw.Main) == 0 {
			return nil, domain.NewValidationError("workout has no main-tier exercises", nil)
		}

		w := domain.Workout{
			Week:     cw.Week,
			Day:      cw.Day,
			DayLabel: cw.DayLabel,
			Focus:    cw.Focus,
		}
		// Models occasionally omit week/day numbering on single-week drafts;
		// backfill a stable ordering rather than rejecting.
		if w.Week <= 0 {
			w.Week = 1
		}
		if w.Day <= 0 {
			w.Day = i + 1
		}
		if w.DayLabel == "" {
			w.DayLabel = defaultDayLabel(w.Day)
		}

		for _, ex := range cw.Warmup {
			w.Warmup = append(w.Warmup, normalizeWarmup(ex))
		}
		for _, ex := range cw.Main {
			w.Main = append(w.Main, normalizeMain(ex))
		}
		for _, ex := range cw.Finishers {
			w.Finishers = append(w.Finishers, normalizeFinisher(ex))
		}
		workouts = append(workouts, w)
	}

	sort.SliceStable(workouts, func(i, j int) bool {
		if workouts[i].Week != workouts[j].Week {
			return workouts[i].Week < workouts[j].Week
		}
		return workouts[i].Day < workouts[j].Day
	})

	now := time.Now().UTC()
	return &domain.TrainingProgram{
		OwnerID:       ownerID,
		JobID:         jobID,
		Goal:          goal,
		Periodization: model,
		Workouts:      workouts,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// normalizeWarmup resolves the two legal warmup shapes. The tier validator
// has already guaranteed one of them is complete; when both are present the
// timed shape wins and the set-based fields are kept as extras.
func normalizeWarmup(ex CandidateExercise) domain.WarmupExercise {
	w := domain.WarmupExercise{Name: ex.Exercise}
	if ex.Duration != nil {
		w.Duration = *ex.Duration
	}
	if ex.Intensity != nil {
		w.Intensity = *ex.Intensity
	}
	if ex.Sets != nil {
		w.Sets = *ex.Sets
	}
	if ex.Reps != nil {
		w.Reps = *ex.Reps
	}
	if ex.Rest != nil {
		w.Rest = *ex.Rest
	}
	return w
}

func normalizeMain(ex CandidateExercise) domain.MainExercise {
	// Required fields are non-nil here; validateMain ran before Normalize.
	return domain.MainExercise{
		Name: ex.Exercise,
		Sets: *ex.Sets,
		Reps: *ex.Reps,
		Load: *ex.Load,
		Rest: *ex.Rest,
		RPE:  ex.RPE,
	}
}

func normalizeFinisher(ex CandidateExercise) domain.FinisherExercise {
	f := domain.FinisherExercise{Name: ex.Exercise}
	if ex.Sets != nil {
		f.Sets = *ex.Sets
	}
	if ex.Reps != nil {
		f.Reps = *ex.Reps
	}
	if ex.Rest != nil {
		f.Rest = *ex.Rest
	}
	if ex.Load != nil {
		f.Load = *ex.Load
	}
	return f
}

var dayLabels = []string{"Day 1", "Day 2", "Day 3", "Day 4", "Day 5", "Day 6", "Day 7"}

func defaultDayLabel(day int) string {
	if day >= 1 && day <= len(dayLabels) {
		return dayLabels[day-1]
	}
	return "Training Day"
}
