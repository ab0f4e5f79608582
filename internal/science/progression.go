package science

import (
	"fmt"
	"strconv"
	"strings"

	"alcyxob/program-engine/internal/domain"
)

// ExercisePerformance is the reported outcome of one main exercise across a
// week's sessions.
type ExercisePerformance struct {
	Exercise   string   `json:"exercise"`
	RepsPerSet []int    `json:"repsPerSet"`
	AvgRPE     *float64 `json:"avgRpe,omitempty"`
}

// WeekFeedback is the performance report the progression run consumes.
type WeekFeedback struct {
	// Share of prescribed sets completed, 0..1. Optional: an unreported rate
	// is treated as a fully completed week, so progression runs on the
	// per-set rep data alone rather than silently repeating the week.
	CompletionRate *float64              `json:"completionRate,omitempty" binding:"omitempty,min=0,max=1"`
	Exercises      []ExercisePerformance `json:"exercises"`
}

// Completion returns the reported completion rate, defaulting to 1.0 when
// the report omits it.
func (f WeekFeedback) Completion() float64 {
	if f.CompletionRate == nil {
		return 1.0
	}
	return *f.CompletionRate
}

func (f WeekFeedback) performanceFor(name string) (ExercisePerformance, bool) {
	for _, p := range f.Exercises {
		if strings.EqualFold(p.Exercise, name) {
			return p, true
		}
	}
	return ExercisePerformance{}, false
}

// Progression tuning. Volume is added one set at a time up to two sets over
// the block's opening scheme; load moves only at mesocycle boundaries.
const (
	maxSetsOverBaseline   = 2
	boundaryLoadIncrease  = 2.5 // kg added to the load's numeric prefix
	deloadRPEDrop         = 2.0
	minProgressCompletion = 0.7 // below this the week is repeated as-is
	fatigueRPECeiling     = 9.0 // at or above, hold volume even on a top-of-range week
)

// AdvanceWeek computes the next week's workouts from the block's opening week
// (baseline), the week just completed, and its performance feedback.
//
// Per exercise the hierarchy is strictly reps -> sets -> load:
//  1. reps below the top of the prescribed range: hold sets and load, keep
//     chasing the top of the range;
//  2. every set at the top of the range: add exactly one set, performance
//     target resets to the bottom of the range, load unchanged;
//  3. top of range at the block's set ceiling: load is eligible to rise only
//     at a mesocycle boundary; within a block it is held.
//
// The deload week (final week of an undulating block) drops sets back to the
// baseline count and lowers the RPE target by two points. Crossing into a new
// block restarts the baseline set/rep scheme with increased load.
func AdvanceWeek(
	baseline []domain.Workout,
	completed []domain.Workout,
	model domain.PeriodizationModel,
	completedWeek int,
	feedback WeekFeedback,
) ([]domain.Workout, error) {
	if len(completed) == 0 {
		return nil, fmt.Errorf("no workouts recorded for week %d", completedWeek)
	}
	if len(baseline) == 0 {
		baseline = completed
	}

	nextWeek := completedWeek + 1

	if model.Kind == domain.PeriodizationUndulating4Week {
		block := model.BlockWeeks()
		if block > 0 && completedWeek%block == 0 {
			// The completed week closed a block; the new block restarts the
			// opening scheme with more weight on the bar.
			return restartBlock(baseline, nextWeek), nil
		}
		if model.IsDeloadWeek(nextWeek) {
			return deloadWeekPlan(baseline, completed, nextWeek), nil
		}
	}

	next := make([]domain.Workout, 0, len(completed))
	for i, w := range completed {
		var base domain.Workout
		if i < len(baseline) {
			base = baseline[i]
		} else {
			base = w
		}

		nw := w
		nw.Week = nextWeek
		nw.Main = make([]domain.MainExercise, len(w.Main))
		for j, ex := range w.Main {
			baseSets := ex.Sets
			if j < len(base.Main) {
				baseSets = base.Main[j].Sets
			}
			nw.Main[j] = progressExercise(ex, baseSets, feedback)
		}
		next = append(next, nw)
	}
	return next, nil
}

func progressExercise(ex domain.MainExercise, baselineSets int, feedback WeekFeedback) domain.MainExercise {
	next := ex

	perf, ok := feedback.performanceFor(ex.Name)
	if !ok {
		// No report for this exercise: repeat the prescription.
		return next
	}

	_, top, err := ParseRepRange(ex.Reps)
	if err != nil {
		return next
	}

	if !allSetsAtTop(perf.RepsPerSet, ex.Sets, top) {
		// Step 1: still room inside the rep range. Sets and load hold.
		return next
	}

	tooFatigued := perf.AvgRPE != nil && *perf.AvgRPE >= fatigueRPECeiling
	if feedback.Completion() < minProgressCompletion || tooFatigued {
		// Top of range but the week was a grind; consolidate before adding.
		return next
	}

	if ex.Sets < baselineSets+maxSetsOverBaseline {
		// Step 2: add exactly one set at the same rep range. The lifter
		// restarts from the bottom of the range; load unchanged.
		next.Sets = ex.Sets + 1
		return next
	}

	// Step 3: volume ceiling reached. Load only moves at a mesocycle
	// boundary, which restartBlock handles; inside the block, hold.
	return next
}

func allSetsAtTop(repsPerSet []int, sets, top int) bool {
	if len(repsPerSet) < sets || sets == 0 {
		return false
	}
	for _, reps := range repsPerSet[:sets] {
		if reps < top {
			return false
		}
	}
	return true
}

// deloadWeekPlan copies the completed week but pulls sets back to the
// baseline count and lowers the intensity target by two RPE points.
func deloadWeekPlan(baseline, completed []domain.Workout, nextWeek int) []domain.Workout {
	next := make([]domain.Workout, 0, len(completed))
	for i, w := range completed {
		var base domain.Workout
		if i < len(baseline) {
			base = baseline[i]
		} else {
			base = w
		}

		nw := w
		nw.Week = nextWeek
		nw.Main = make([]domain.MainExercise, len(w.Main))
		for j, ex := range w.Main {
			d := ex
			if j < len(base.Main) {
				d.Sets = base.Main[j].Sets
			}
			if d.RPE != nil {
				lowered := *d.RPE - deloadRPEDrop
				if lowered < 5 {
					lowered = 5
				}
				d.RPE = &lowered
			}
			nw.Main[j] = d
		}
		next = append(next, nw)
	}
	return next
}

// restartBlock reissues the block's opening week at the next week index with
// the load bumped on every main exercise.
func restartBlock(baseline []domain.Workout, nextWeek int) []domain.Workout {
	next := make([]domain.Workout, 0, len(baseline))
	for _, w := range baseline {
		nw := w
		nw.Week = nextWeek
		nw.Main = make([]domain.MainExercise, len(w.Main))
		for j, ex := range w.Main {
			bumped := ex
			bumped.Load = IncreaseLoad(ex.Load, boundaryLoadIncrease)
			nw.Main[j] = bumped
		}
		next = append(next, nw)
	}
	return next
}

// ParseRepRange parses a prescription like "8-12" (or a single "10") into
// its bottom and top rep counts.
func ParseRepRange(reps string) (bottom, top int, err error) {
	s := strings.TrimSpace(reps)
	if s == "" {
		return 0, 0, fmt.Errorf("empty rep range")
	}
	if lo, hi, found := strings.Cut(s, "-"); found {
		bottom, err = strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return 0, 0, fmt.Errorf("rep range %q: %w", reps, err)
		}
		top, err = strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return 0, 0, fmt.Errorf("rep range %q: %w", reps, err)
		}
		if bottom <= 0 || top < bottom {
			return 0, 0, fmt.Errorf("rep range %q out of order", reps)
		}
		return bottom, top, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, fmt.Errorf("rep range %q: %w", reps, err)
	}
	return n, n, nil
}

// IncreaseLoad adds delta to the numeric prefix of a load string, preserving
// whatever unit suffix follows ("60 kg" -> "62.5 kg"). Loads without a
// numeric prefix ("bodyweight") come back unchanged.
func IncreaseLoad(load string, delta float64) string {
	s := strings.TrimSpace(load)
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	if i == 0 {
		return load
	}
	value, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return load
	}
	return strconv.FormatFloat(value+delta, 'f', -1, 64) + s[i:]
}
