package generation

import (
	"fmt"
	"sort"
	"strings"

	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/science"
)

// RequestSpec is the compiled generation request: everything the model needs,
// frozen before the first attempt. Opaque to callers; only the client and the
// candidate archive look inside.
type RequestSpec struct {
	OwnerContext string // natural-language profile/science summary
	TargetSchema string // exact JSON schema the model must satisfy
	WeeksPerPlan int
	DaysPerWeek  int
}

// Equipment priority per tier, highest stimulus-to-fatigue first. These are
// hints in the prompt, not hard constraints: the model may substitute when
// the user's equipment list rules a tier's first choice out.
const (
	primaryTierHint   = "free-weight barbell/dumbbell compounds over machines"
	secondaryTierHint = "machines and cables over free weights"
	isolationTierHint = "cables over machines over dumbbells"
)

// CompileRequest assembles profile data and pre-processor output into a
// single generation request. The only failure mode is a structurally
// incomplete profile, which is a configuration error and never retried.
func CompileRequest(
	profile *domain.UserProfile,
	landmarks science.VolumeLandmarks,
	weakPoints []science.WeakPoint,
	model domain.PeriodizationModel,
) (*RequestSpec, error) {
	if profile == nil {
		return nil, domain.NewConfigurationError("profile snapshot is missing", nil)
	}
	if profile.Goal == "" {
		return nil, domain.NewConfigurationError("profile is missing a training goal", nil)
	}
	if profile.ExperienceLevel == "" {
		return nil, domain.NewConfigurationError("profile is missing an experience level", nil)
	}

	days := profile.DaysPerWeek
	if days < 2 || days > 6 {
		days = 4
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Design a %d-week, %d-day-per-week training program.\n\n", model.TotalWeeks, days)
	fmt.Fprintf(&b, "Athlete: %s lifter (%d months of training), primary goal %s.\n",
		profile.ExperienceLevel, profile.TrainingAgeMonths, profile.Goal)
	if len(profile.Equipment) > 0 {
		fmt.Fprintf(&b, "Available equipment: %s.\n", strings.Join(profile.Equipment, ", "))
	}
	if strings.TrimSpace(profile.Injuries) != "" {
		fmt.Fprintf(&b, "Injury history (work around, never through): %s.\n", profile.Injuries)
	}

	b.WriteString("\nPeriodization: ")
	if model.Kind == domain.PeriodizationUndulating4Week {
		fmt.Fprintf(&b, "undulating 4-week block (%d accumulation, %d intensification, %d deload).\n",
			model.AccumulationWeeks, model.IntensificationWeeks, model.DeloadWeeks)
	} else {
		b.WriteString("linear weekly progression.\n")
	}

	b.WriteString("\nWeekly volume landmarks (sets per muscle group, MEV/MAV/MRV):\n")
	for _, mg := range sortedMuscleGroups(landmarks) {
		lm := landmarks[mg]
		fmt.Fprintf(&b, "- %s: %d/%d/%d\n", mg, lm.MEV, lm.MAV, lm.MRV)
	}
	b.WriteString("Start each muscle group near its MEV and stay under its MRV in every week.\n")

	b.WriteString("\nWeak points to address, highest priority first:\n")
	for _, wp := range weakPoints {
		fmt.Fprintf(&b, "- [%d] %s: %s Suggested movements: %s.\n",
			wp.Priority, wp.Category, wp.Rationale, strings.Join(wp.RecommendedExercises, ", "))
	}

	b.WriteString("\nExercise selection priorities by tier:\n")
	fmt.Fprintf(&b, "- main tier: %s\n", primaryTierHint)
	fmt.Fprintf(&b, "- secondary/finisher tier: %s\n", secondaryTierHint)
	fmt.Fprintf(&b, "- isolation work: %s\n", isolationTierHint)

	return &RequestSpec{
		OwnerContext: b.String(),
		TargetSchema: programTargetSchema,
		WeeksPerPlan: model.TotalWeeks,
		DaysPerWeek:  days,
	}, nil
}

func sortedMuscleGroups(landmarks science.VolumeLandmarks) []science.MuscleGroup {
	groups := make([]science.MuscleGroup, 0, len(landmarks))
	for mg := range landmarks {
		groups = append(groups, mg)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })
	return groups
}

// programTargetSchema is the exact shape the model must return. The client
// re-validates tier by tier because the model is not perfectly compliant even
// when instructed.
const programTargetSchema = `{
  "type": "object",
  "required": ["workouts"],
  "properties": {
    "workouts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["week", "day", "dayLabel", "main"],
        "properties": {
          "week": {"type": "integer", "minimum": 1},
          "day": {"type": "integer", "minimum": 1},
          "dayLabel": {"type": "string"},
          "focus": {"type": "string"},
          "warmup": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["exercise"],
              "properties": {
                "exercise": {"type": "string"},
                "duration": {"type": "string"},
                "intensity": {"type": "string"},
                "sets": {"type": "integer"},
                "reps": {"type": "string"},
                "rest": {"type": "string"}
              }
            }
          },
          "main": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["exercise", "sets", "reps", "load", "rest"],
              "properties": {
                "exercise": {"type": "string"},
                "sets": {"type": "integer"},
                "reps": {"type": "string"},
                "load": {"type": "string"},
                "rest": {"type": "string"},
                "rpe": {"type": "number"}
              }
            }
          },
          "finishers": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["exercise"],
              "properties": {
                "exercise": {"type": "string"},
                "sets": {"type": "integer"},
                "reps": {"type": "string"},
                "rest": {"type": "string"},
                "load": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`
