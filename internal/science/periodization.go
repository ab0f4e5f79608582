package science

import (
	"alcyxob/program-engine/internal/domain"
)

// Training ages below this (in months) get simple linear progression;
// everyone else gets the 4-week undulating block.
const linearCutoffMonths = 6

const (
	linearProgramWeeks   = 8
	undulatingBlockWeeks = 4
	accumulationWeeks    = 2
	intensificationWeeks = 1
	deloadWeeks          = 1
)

// SelectPeriodization picks the periodization model for a profile. Total
// function: every training age maps to exactly one of the two models, there
// is no third branch.
func SelectPeriodization(profile *domain.UserProfile) domain.PeriodizationModel {
	if profile.TrainingAgeMonths < linearCutoffMonths {
		return domain.PeriodizationModel{
			Kind:       domain.PeriodizationLinear,
			TotalWeeks: linearProgramWeeks,
		}
	}
	return domain.PeriodizationModel{
		Kind:                 domain.PeriodizationUndulating4Week,
		TotalWeeks:           undulatingBlockWeeks,
		AccumulationWeeks:    accumulationWeeks,
		IntensificationWeeks: intensificationWeeks,
		DeloadWeeks:          deloadWeeks,
	}
}
