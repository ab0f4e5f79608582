package domain

// ExperienceLevel buckets a user's training history.
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// Goal is the primary training goal driving program generation.
type Goal string

const (
	GoalHypertrophy    Goal = "hypertrophy"
	GoalStrength       Goal = "strength"
	GoalGeneralFitness Goal = "general_fitness"
)

// Lift identifies the major barbell lifts we keep strength estimates for.
type Lift string

const (
	LiftSquat         Lift = "squat"
	LiftDeadlift      Lift = "deadlift"
	LiftBench         Lift = "bench_press"
	LiftOverheadPress Lift = "overhead_press"
)

// EstimateConfidence tags how trustworthy a strength estimate is.
// Ratio-based analysis only trusts actual or estimated 1RMs, never "unsure".
type EstimateConfidence string

const (
	ConfidenceActual1RM    EstimateConfidence = "actual_1rm"
	ConfidenceEstimated1RM EstimateConfidence = "estimated_1rm"
	ConfidenceUnsure       EstimateConfidence = "unsure"
)

// StrengthEstimate is a user-supplied (or onboarding-derived) 1RM guess.
type StrengthEstimate struct {
	WeightKg   float64            `bson:"weightKg" json:"weightKg" binding:"required,gt=0"`
	Confidence EstimateConfidence `bson:"confidence" json:"confidence" binding:"required,oneof=actual_1rm estimated_1rm unsure"`
}

// Trustworthy reports whether the estimate is solid enough to feed
// strength-ratio analysis.
func (e StrengthEstimate) Trustworthy() bool {
	return e.Confidence == ConfidenceActual1RM || e.Confidence == ConfidenceEstimated1RM
}

// UserProfile is the snapshot of profile-store data the engine consumes.
// It arrives attached to a generation request and is read-only here; the
// profile store owns the canonical copy.
type UserProfile struct {
	ExperienceLevel   ExperienceLevel           `bson:"experienceLevel" json:"experienceLevel"`
	TrainingAgeMonths int                       `bson:"trainingAgeMonths" json:"trainingAgeMonths"`
	Goal              Goal                      `bson:"goal" json:"goal"`
	DaysPerWeek       int                       `bson:"daysPerWeek" json:"daysPerWeek"`
	Equipment         []string                  `bson:"equipment,omitempty" json:"equipment,omitempty"`
	Injuries          string                    `bson:"injuries,omitempty" json:"injuries,omitempty"` // free text from onboarding
	StrengthEstimates map[Lift]StrengthEstimate `bson:"strengthEstimates,omitempty" json:"strengthEstimates,omitempty"`
}

// Estimate returns the estimate for a lift, if present.
func (p *UserProfile) Estimate(l Lift) (StrengthEstimate, bool) {
	est, ok := p.StrengthEstimates[l]
	return est, ok
}
