package generation

import (
	"encoding/json"
	"fmt"
)

// Candidate is the model's output after root-key normalization and tier
// validation, still in the model's loose shape. The normalizer turns it into
// a domain.TrainingProgram.
type Candidate struct {
	Workouts []CandidateWorkout `json:"workouts"`
}

// CandidateWorkout mirrors one workout as the model emits it.
type CandidateWorkout struct {
	Week      int                 `json:"week"`
	Day       int                 `json:"day"`
	DayLabel  string              `json:"dayLabel"`
	Focus     string              `json:"focus,omitempty"` // optional, absence is fine
	Warmup    []CandidateExercise `json:"warmup,omitempty"`
	Main      []CandidateExercise `json:"main"`
	Finishers []CandidateExercise `json:"finishers,omitempty"`
}

// CandidateExercise is the all-optional wire shape of a single exercise.
// Which fields must be present depends on the tier; requiredness is enforced
// by validateTiers, never by this struct.
type CandidateExercise struct {
	Exercise  string   `json:"exercise"`
	Sets      *int     `json:"sets,omitempty"`
	Reps      *string  `json:"reps,omitempty"`
	Load      *string  `json:"load,omitempty"`
	Rest      *string  `json:"rest,omitempty"`
	Duration  *string  `json:"duration,omitempty"`
	Intensity *string  `json:"intensity,omitempty"`
	RPE       *float64 `json:"rpe,omitempty"`
}

// Known aliases the model uses for the workouts array, in observed frequency
// order. Responses using one of these are renamed to the canonical key before
// tier validation runs.
var workoutsKeyAliases = []string{"days", "sessions", "workout_days", "trainingDays"}

// schemaViolationError marks a parse/validation failure of a model response.
// It is retryable: a fresh attempt can legitimately produce a compliant
// candidate.
type schemaViolationError struct {
	reason string
}

func (e *schemaViolationError) Error() string {
	return "schema violation: " + e.reason
}

func schemaViolation(format string, args ...any) error {
	return &schemaViolationError{reason: fmt.Sprintf(format, args...)}
}

// ParseCandidate decodes a raw model payload into a validated Candidate.
func ParseCandidate(raw []byte) (*Candidate, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, schemaViolation("response is not a JSON object: %v", err)
	}

	workoutsRaw, ok := root["workouts"]
	if !ok {
		for _, alias := range workoutsKeyAliases {
			if aliased, found := root[alias]; found {
				workoutsRaw = aliased
				ok = true
				break
			}
		}
	}
	if !ok {
		return nil, schemaViolation("no workouts array under any known root key")
	}

	var workouts []CandidateWorkout
	if err := json.Unmarshal(workoutsRaw, &workouts); err != nil {
		return nil, schemaViolation("workouts array does not decode: %v", err)
	}

	candidate := &Candidate{Workouts: workouts}
	if err := validateTiers(candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}

// validateTiers enforces the tier-specific required-field combinations.
// One lenient all-optional schema would let a main exercise silently drop its
// load, so each tier is checked against its own contract.
func validateTiers(c *Candidate) error {
	for wi, w := range c.Workouts {
		for ei, ex := range w.Warmup {
			if err := validateWarmup(ex); err != nil {
				return schemaViolation("workout %d warmup %d: %v", wi, ei, err)
			}
		}
		for ei, ex := range w.Main {
			if err := validateMain(ex); err != nil {
				return schemaViolation("workout %d main %d: %v", wi, ei, err)
			}
		}
		for ei, ex := range w.Finishers {
			if ex.Exercise == "" {
				return schemaViolation("workout %d finisher %d: missing exercise name", wi, ei)
			}
		}
	}
	return nil
}

// validateWarmup accepts either the timed shape (duration+intensity) or the
// set-based shape (sets+reps+rest).
func validateWarmup(ex CandidateExercise) error {
	if ex.Exercise == "" {
		return fmt.Errorf("missing exercise name")
	}
	timed := ex.Duration != nil && ex.Intensity != nil
	setBased := ex.Sets != nil && ex.Reps != nil && ex.Rest != nil
	if !timed && !setBased {
		return fmt.Errorf("needs either duration+intensity or sets+reps+rest")
	}
	return nil
}

func validateMain(ex CandidateExercise) error {
	if ex.Exercise == "" {
		return fmt.Errorf("missing exercise name")
	}
	switch {
	case ex.Sets == nil:
		return fmt.Errorf("missing sets")
	case ex.Reps == nil:
		return fmt.Errorf("missing reps")
	case ex.Load == nil:
		return fmt.Errorf("missing load")
	case ex.Rest == nil:
		return fmt.Errorf("missing rest")
	}
	return nil
}
