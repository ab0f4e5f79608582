package science

import (
	"alcyxob/program-engine/internal/domain"
)

// MuscleGroup names the muscle groups volume landmarks are tracked for.
type MuscleGroup string

const (
	MuscleChest      MuscleGroup = "chest"
	MuscleBack       MuscleGroup = "back"
	MuscleShoulders  MuscleGroup = "shoulders"
	MuscleQuads      MuscleGroup = "quads"
	MuscleHamstrings MuscleGroup = "hamstrings"
	MuscleGlutes     MuscleGroup = "glutes"
	MuscleBiceps     MuscleGroup = "biceps"
	MuscleTriceps    MuscleGroup = "triceps"
	MuscleCalves     MuscleGroup = "calves"
	MuscleCore       MuscleGroup = "core"
)

// AllMuscleGroups is the fixed set every landmark table covers.
var AllMuscleGroups = []MuscleGroup{
	MuscleChest, MuscleBack, MuscleShoulders,
	MuscleQuads, MuscleHamstrings, MuscleGlutes,
	MuscleBiceps, MuscleTriceps, MuscleCalves, MuscleCore,
}

// Landmark holds the three weekly-set volume landmarks for one muscle group.
type Landmark struct {
	MEV int `json:"mev"` // minimum effective volume
	MAV int `json:"mav"` // maximum adaptive volume
	MRV int `json:"mrv"` // maximum recoverable volume
}

// VolumeLandmarks is a complete per-muscle landmark table. Ephemeral:
// recomputed on every generation, never persisted on its own.
type VolumeLandmarks map[MuscleGroup]Landmark

// Intermediate-lifter baselines in weekly sets, per muscle group.
// Experience multipliers scale these up or down.
var baselineLandmarks = map[MuscleGroup]Landmark{
	MuscleChest:      {MEV: 8, MAV: 14, MRV: 20},
	MuscleBack:       {MEV: 10, MAV: 16, MRV: 22},
	MuscleShoulders:  {MEV: 8, MAV: 16, MRV: 22},
	MuscleQuads:      {MEV: 8, MAV: 13, MRV: 18},
	MuscleHamstrings: {MEV: 6, MAV: 10, MRV: 14},
	MuscleGlutes:     {MEV: 4, MAV: 10, MRV: 16},
	MuscleBiceps:     {MEV: 6, MAV: 12, MRV: 18},
	MuscleTriceps:    {MEV: 6, MAV: 12, MRV: 16},
	MuscleCalves:     {MEV: 6, MAV: 12, MRV: 16},
	MuscleCore:       {MEV: 4, MAV: 10, MRV: 16},
}

// Novices both need and tolerate less volume per muscle; advanced lifters
// need more to keep adapting but their MRV grows slower than their MAV.
var experienceMultipliers = map[domain.ExperienceLevel]struct {
	mev, mav, mrv float64
}{
	domain.ExperienceBeginner:     {mev: 0.7, mav: 0.75, mrv: 0.8},
	domain.ExperienceIntermediate: {mev: 1.0, mav: 1.0, mrv: 1.0},
	domain.ExperienceAdvanced:     {mev: 1.2, mav: 1.15, mrv: 1.1},
}

// ComputeVolumeLandmarks derives the full landmark table for a profile.
// Total: unknown experience levels fall back to intermediate multipliers, so
// a partial profile still yields a complete table.
func ComputeVolumeLandmarks(profile *domain.UserProfile) VolumeLandmarks {
	mult, ok := experienceMultipliers[profile.ExperienceLevel]
	if !ok {
		mult = experienceMultipliers[domain.ExperienceIntermediate]
	}

	table := make(VolumeLandmarks, len(baselineLandmarks))
	for _, mg := range AllMuscleGroups {
		base := baselineLandmarks[mg]
		table[mg] = Landmark{
			MEV: scaleVolume(base.MEV, mult.mev),
			MAV: scaleVolume(base.MAV, mult.mav),
			MRV: scaleVolume(base.MRV, mult.mrv),
		}
	}
	return table
}

// scaleVolume rounds half-up and never drops below one weekly set.
func scaleVolume(sets int, mult float64) int {
	scaled := int(float64(sets)*mult + 0.5)
	if scaled < 1 {
		scaled = 1
	}
	return scaled
}
