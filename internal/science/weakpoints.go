package science

import (
	"fmt"
	"sort"
	"strings"

	"alcyxob/program-engine/internal/domain"
)

// WeakPoint is one finding from weak-point analysis. Lower priority numbers
// are addressed first when the program allocates accessory work.
type WeakPoint struct {
	Category             string   `json:"category"`
	Priority             int      `json:"priority"` // 1..6
	Rationale            string   `json:"rationale"`
	RecommendedExercises []string `json:"recommendedExercises"`
}

// Strength-ratio thresholds. A healthy deadlift pulls at least 110% of the
// squat; a healthy bench presses at least 75% of the squat; a healthy
// overhead press is at least 60% of the bench.
const (
	deadliftToSquatFloor = 1.10
	benchToSquatFloor    = 0.75
	ohpToBenchFloor      = 0.60
)

type injuryRule struct {
	keywords  []string
	category  string
	priority  int
	exercises []string
}

// Injury findings always outrank ratio findings: training around pain beats
// chasing a ratio.
var injuryRules = []injuryRule{
	{
		keywords:  []string{"back", "spine", "spinal", "disc", "lumbar", "herni"},
		category:  "Spinal Stability Priority",
		priority:  1,
		exercises: []string{"Bird Dog", "Dead Bug", "Pallof Press", "Front Plank"},
	},
	{
		keywords:  []string{"knee", "patella", "acl", "mcl", "meniscus"},
		category:  "Knee Stability Priority",
		priority:  2,
		exercises: []string{"Terminal Knee Extension", "Spanish Squat", "Step Up", "Leg Curl"},
	},
	{
		keywords:  []string{"shoulder", "rotator", "cuff", "labrum", "impingement"},
		category:  "Shoulder Stability Priority",
		priority:  2,
		exercises: []string{"Face Pull", "Band External Rotation", "Scapular Pull Up", "Landmine Press"},
	},
}

// AnalyzeWeakPoints derives a prioritized, never-empty weak-point list from
// strength ratios and injury text. A ratio is evaluated only when both lifts
// carry a trustworthy estimate; injury matches are inserted unconditionally
// ahead of ratio findings; when neither signal fires, a generic push/pull
// balance recommendation keeps the result non-empty.
func AnalyzeWeakPoints(profile *domain.UserProfile) []WeakPoint {
	var points []WeakPoint

	points = append(points, injuryFindings(profile.Injuries)...)
	points = append(points, ratioFindings(profile)...)

	if len(points) == 0 {
		points = append(points, WeakPoint{
			Category:             "General Push/Pull Balance",
			Priority:             4,
			Rationale:            "No strength estimates or injury history available; defaulting to balanced pulling volume to offset pressing-dominant programming.",
			RecommendedExercises: []string{"Chest Supported Row", "Lat Pulldown", "Face Pull"},
		})
	}

	if gp, ok := goalSpecialization(profile.Goal); ok {
		points = append(points, gp)
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Priority < points[j].Priority
	})
	return points
}

func injuryFindings(injuries string) []WeakPoint {
	text := strings.ToLower(injuries)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var points []WeakPoint
	for _, rule := range injuryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				points = append(points, WeakPoint{
					Category:             rule.category,
					Priority:             rule.priority,
					Rationale:            fmt.Sprintf("Reported injury history mentions %q; stability and pain-free range of motion take precedence over loading.", kw),
					RecommendedExercises: rule.exercises,
				})
				break
			}
		}
	}
	return points
}

func ratioFindings(profile *domain.UserProfile) []WeakPoint {
	var points []WeakPoint

	if ratio, ok := liftRatio(profile, domain.LiftDeadlift, domain.LiftSquat); ok && ratio < deadliftToSquatFloor {
		points = append(points, WeakPoint{
			Category:             "Posterior Chain Weakness",
			Priority:             2,
			Rationale:            fmt.Sprintf("Deadlift is only %.0f%% of squat (healthy floor %.0f%%); hamstrings and spinal erectors are lagging the quads.", ratio*100, deadliftToSquatFloor*100),
			RecommendedExercises: []string{"Romanian Deadlift", "Good Morning", "Back Extension", "Hip Thrust"},
		})
	}
	if ratio, ok := liftRatio(profile, domain.LiftBench, domain.LiftSquat); ok && ratio < benchToSquatFloor {
		points = append(points, WeakPoint{
			Category:             "Upper Body Pressing Weakness",
			Priority:             3,
			Rationale:            fmt.Sprintf("Bench press is only %.0f%% of squat (healthy floor %.0f%%); upper-body pressing is underdeveloped relative to the lower body.", ratio*100, benchToSquatFloor*100),
			RecommendedExercises: []string{"Close Grip Bench Press", "Weighted Dip", "Incline Dumbbell Press"},
		})
	}
	if ratio, ok := liftRatio(profile, domain.LiftOverheadPress, domain.LiftBench); ok && ratio < ohpToBenchFloor {
		points = append(points, WeakPoint{
			Category:             "Overhead Pressing Weakness",
			Priority:             3,
			Rationale:            fmt.Sprintf("Overhead press is only %.0f%% of bench (healthy floor %.0f%%); shoulders and triceps limit pressing out of the bottom.", ratio*100, ohpToBenchFloor*100),
			RecommendedExercises: []string{"Seated Dumbbell Press", "Z Press", "Lateral Raise"},
		})
	}
	return points
}

// liftRatio computes numerator/denominator when both lifts have trustworthy
// estimates. Confidence "unsure" disqualifies a lift entirely.
func liftRatio(profile *domain.UserProfile, num, den domain.Lift) (float64, bool) {
	n, okN := profile.Estimate(num)
	d, okD := profile.Estimate(den)
	if !okN || !okD || !n.Trustworthy() || !d.Trustworthy() || d.WeightKg <= 0 {
		return 0, false
	}
	return n.WeightKg / d.WeightKg, true
}

func goalSpecialization(goal domain.Goal) (WeakPoint, bool) {
	switch goal {
	case domain.GoalHypertrophy:
		return WeakPoint{
			Category:             "Hypertrophy Specialization",
			Priority:             6,
			Rationale:            "Primary goal is muscle growth; bias accessory selection toward high stimulus-to-fatigue isolation work.",
			RecommendedExercises: []string{"Cable Fly", "Leg Extension", "Preacher Curl"},
		}, true
	case domain.GoalStrength:
		return WeakPoint{
			Category:             "Strength Specialization",
			Priority:             6,
			Rationale:            "Primary goal is maximal strength; bias accessory selection toward competition-lift variants.",
			RecommendedExercises: []string{"Pause Squat", "Spoto Press", "Deficit Deadlift"},
		}, true
	default:
		return WeakPoint{}, false
	}
}
