package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PeriodizationKind tags the periodization model variant.
type PeriodizationKind string

const (
	PeriodizationLinear          PeriodizationKind = "linear"
	PeriodizationUndulating4Week PeriodizationKind = "undulating_4_week"
)

// PeriodizationModel describes how volume/intensity vary across the program.
// Selection is a pure function of training age (see the science package) and
// the model is immutable once a program has been generated.
type PeriodizationModel struct {
	Kind       PeriodizationKind `bson:"kind" json:"kind"`
	TotalWeeks int               `bson:"totalWeeks" json:"totalWeeks"`

	// Undulating block shape. Zero for linear programs.
	AccumulationWeeks    int `bson:"accumulationWeeks,omitempty" json:"accumulationWeeks,omitempty"`
	IntensificationWeeks int `bson:"intensificationWeeks,omitempty" json:"intensificationWeeks,omitempty"`
	DeloadWeeks          int `bson:"deloadWeeks,omitempty" json:"deloadWeeks,omitempty"`
}

// BlockWeeks returns the length of one mesocycle block. Linear programs run
// as a single block.
func (m PeriodizationModel) BlockWeeks() int {
	if m.Kind == PeriodizationUndulating4Week {
		return m.AccumulationWeeks + m.IntensificationWeeks + m.DeloadWeeks
	}
	return m.TotalWeeks
}

// IsDeloadWeek reports whether the 1-based week index falls on a deload week.
// Only undulating blocks schedule deloads.
func (m PeriodizationModel) IsDeloadWeek(week int) bool {
	if m.Kind != PeriodizationUndulating4Week || m.DeloadWeeks == 0 {
		return false
	}
	block := m.BlockWeeks()
	if block == 0 {
		return false
	}
	return week%block == 0
}

// WarmupExercise is a warmup-tier entry. The model emits warmups in one of
// two shapes: timed ("5 min" at "easy pace") or set-based. Exactly one of the
// two field groups is populated; the normalizer guarantees this.
type WarmupExercise struct {
	Name      string `bson:"name" json:"name"`
	Duration  string `bson:"duration,omitempty" json:"duration,omitempty"`
	Intensity string `bson:"intensity,omitempty" json:"intensity,omitempty"`
	Sets      int    `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps      string `bson:"reps,omitempty" json:"reps,omitempty"`
	Rest      string `bson:"rest,omitempty" json:"rest,omitempty"`
}

// Timed reports whether this warmup uses the duration/intensity shape.
func (w WarmupExercise) Timed() bool {
	return w.Duration != "" && w.Intensity != ""
}

// MainExercise is a main-tier entry. All prescription fields are required;
// a main exercise without a load is a generation defect, not a bodyweight
// movement.
type MainExercise struct {
	Name string   `bson:"name" json:"name"`
	Sets int      `bson:"sets" json:"sets"`
	Reps string   `bson:"reps" json:"reps"` // rep range, e.g. "8-12"
	Load string   `bson:"load" json:"load"` // e.g. "60 kg" or "72.5 kg"
	Rest string   `bson:"rest" json:"rest"`
	RPE  *float64 `bson:"rpe,omitempty" json:"rpe,omitempty"`
}

// FinisherExercise is a finisher-tier entry. Everything beyond the name is
// optional; bodyweight finishers legitimately omit load.
type FinisherExercise struct {
	Name string `bson:"name" json:"name"`
	Sets int    `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps string `bson:"reps,omitempty" json:"reps,omitempty"`
	Rest string `bson:"rest,omitempty" json:"rest,omitempty"`
	Load string `bson:"load,omitempty" json:"load,omitempty"`
}

// Workout is a single training day within a program. The three tiers stay
// separate types on purpose: collapsing them into one all-optional exercise
// shape would let required main-tier fields go silently missing.
type Workout struct {
	Week      int                `bson:"week" json:"week"`
	Day       int                `bson:"day" json:"day"`
	DayLabel  string             `bson:"dayLabel" json:"dayLabel"`
	Focus     string             `bson:"focus,omitempty" json:"focus,omitempty"`
	Warmup    []WarmupExercise   `bson:"warmup,omitempty" json:"warmup,omitempty"`
	Main      []MainExercise     `bson:"main" json:"main"`
	Finishers []FinisherExercise `bson:"finishers,omitempty" json:"finishers,omitempty"`
}

// TrainingProgram is the canonical, validated program. Workouts are embedded
// in the program document, ordered by week then day, so program persistence
// is a single insert.
type TrainingProgram struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID       primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	JobID         primitive.ObjectID `bson:"jobId" json:"jobId"`
	Goal          Goal               `bson:"goal" json:"goal"`
	Periodization PeriodizationModel `bson:"periodization" json:"periodization"`
	Workouts      []Workout          `bson:"workouts" json:"workouts"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutsForWeek returns the workouts of a 1-based week, preserving day order.
func (p *TrainingProgram) WorkoutsForWeek(week int) []Workout {
	var out []Workout
	for _, w := range p.Workouts {
		if w.Week == week {
			out = append(out, w)
		}
	}
	return out
}
