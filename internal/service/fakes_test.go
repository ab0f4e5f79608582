package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"alcyxob/program-engine/internal/consistency"
	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memJobRepo is a mutex-guarded in-memory JobRepository honoring the same
// contract as the mongo implementation: duplicate-active rejection on Create
// and compare-and-set semantics on TransitionStatus.
type memJobRepo struct {
	mu   sync.Mutex
	jobs map[primitive.ObjectID]*domain.GenerationJob
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: make(map[primitive.ObjectID]*domain.GenerationJob)}
}

func (r *memJobRepo) Create(_ context.Context, job *domain.GenerationJob) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.jobs {
		if existing.OwnerID == job.OwnerID && !existing.Status.Terminal() {
			return primitive.NilObjectID, repository.ErrDuplicateActiveJob
		}
	}

	stored := *job
	stored.ID = primitive.NewObjectID()
	stored.Status = domain.JobPending
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	r.jobs[stored.ID] = &stored
	return stored.ID, nil
}

func (r *memJobRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.GenerationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (r *memJobRepo) FindActiveByOwner(_ context.Context, ownerID primitive.ObjectID) (*domain.GenerationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, job := range r.jobs {
		if job.OwnerID == ownerID && !job.Status.Terminal() {
			copied := *job
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memJobRepo) TransitionStatus(_ context.Context, id primitive.ObjectID, from, to domain.JobStatus, update repository.JobUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if job.Status != from {
		return repository.ErrStatusConflict
	}
	job.Status = to
	job.UpdatedAt = time.Now().UTC()
	if update.ErrorCategory != "" {
		job.ErrorCategory = update.ErrorCategory
	}
	if update.ErrorDetail != "" {
		job.ErrorDetail = update.ErrorDetail
	}
	if update.ProgramID != nil {
		job.ProgramID = update.ProgramID
	}
	return nil
}

// memProgramRepo is the in-memory ProgramRepository counterpart. The
// corruptOwner hook makes the post-write read-back return a foreign owner,
// simulating a misrouted write.
type memProgramRepo struct {
	mu       sync.Mutex
	programs map[primitive.ObjectID]*domain.TrainingProgram

	corruptOwner bool
	failReplace  bool
	readPrefs    []consistency.ReadPreference
}

func newMemProgramRepo() *memProgramRepo {
	return &memProgramRepo{programs: make(map[primitive.ObjectID]*domain.TrainingProgram)}
}

func (r *memProgramRepo) Create(_ context.Context, program *domain.TrainingProgram) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *program
	stored.ID = primitive.NewObjectID()
	stored.Workouts = append([]domain.Workout(nil), program.Workouts...)
	r.programs[stored.ID] = &stored
	return stored.ID, nil
}

func (r *memProgramRepo) GetByID(_ context.Context, id primitive.ObjectID, pref consistency.ReadPreference) (*domain.TrainingProgram, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.readPrefs = append(r.readPrefs, pref)

	program, ok := r.programs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *program
	copied.Workouts = append([]domain.Workout(nil), program.Workouts...)
	if r.corruptOwner {
		copied.OwnerID = primitive.NewObjectID()
	}
	return &copied, nil
}

func (r *memProgramRepo) GetLatestByOwner(_ context.Context, ownerID primitive.ObjectID, pref consistency.ReadPreference) (*domain.TrainingProgram, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.readPrefs = append(r.readPrefs, pref)

	var latest *domain.TrainingProgram
	for _, program := range r.programs {
		if program.OwnerID != ownerID {
			continue
		}
		if latest == nil || program.CreatedAt.After(latest.CreatedAt) {
			latest = program
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	copied := *latest
	copied.Workouts = append([]domain.Workout(nil), latest.Workouts...)
	return &copied, nil
}

func (r *memProgramRepo) ReplaceWeek(_ context.Context, id primitive.ObjectID, week int, workouts []domain.Workout) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failReplace {
		return repository.RepositoryError("week write rejected")
	}
	program, ok := r.programs[id]
	if !ok {
		return repository.ErrNotFound
	}
	kept := make([]domain.Workout, 0, len(program.Workouts)+len(workouts))
	for _, w := range program.Workouts {
		if w.Week != week {
			kept = append(kept, w)
		}
	}
	program.Workouts = append(kept, workouts...)
	sort.Slice(program.Workouts, func(i, j int) bool {
		if program.Workouts[i].Week != program.Workouts[j].Week {
			return program.Workouts[i].Week < program.Workouts[j].Week
		}
		return program.Workouts[i].Day < program.Workouts[j].Day
	})
	return nil
}

// seed stores a program directly, bypassing Create's id assignment.
func (r *memProgramRepo) seed(program *domain.TrainingProgram) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.programs[program.ID] = program
}

// --- shared fixtures ---

func strengthProfile() *domain.UserProfile {
	return &domain.UserProfile{
		ExperienceLevel:   domain.ExperienceIntermediate,
		TrainingAgeMonths: 18,
		Goal:              domain.GoalStrength,
		DaysPerWeek:       4,
		Equipment:         []string{"barbell", "dumbbells"},
		StrengthEstimates: map[domain.Lift]domain.StrengthEstimate{
			domain.LiftSquat:         {WeightKg: 140, Confidence: domain.ConfidenceActual1RM},
			domain.LiftBench:         {WeightKg: 105, Confidence: domain.ConfidenceActual1RM},
			domain.LiftDeadlift:      {WeightKg: 180, Confidence: domain.ConfidenceActual1RM},
			domain.LiftOverheadPress: {WeightKg: 65, Confidence: domain.ConfidenceActual1RM},
		},
	}
}

func fixtureWorkout(week, day int) domain.Workout {
	return domain.Workout{
		Week:     week,
		Day:      day,
		DayLabel: "Day",
		Main: []domain.MainExercise{{
			Name: "Back Squat", Sets: 3, Reps: "5-8", Load: "100 kg", Rest: "180s",
		}},
	}
}

// fixtureProgram mirrors what generation persists: every week of the plan is
// stored up front, two training days per week.
func fixtureProgram(ownerID, jobID primitive.ObjectID) *domain.TrainingProgram {
	now := time.Now().UTC()
	model := domain.PeriodizationModel{
		Kind:                 domain.PeriodizationUndulating4Week,
		TotalWeeks:           4,
		AccumulationWeeks:    2,
		IntensificationWeeks: 1,
		DeloadWeeks:          1,
	}
	var workouts []domain.Workout
	for week := 1; week <= model.TotalWeeks; week++ {
		for day := 1; day <= 2; day++ {
			workouts = append(workouts, fixtureWorkout(week, day))
		}
	}
	return &domain.TrainingProgram{
		OwnerID:       ownerID,
		JobID:         jobID,
		Goal:          domain.GoalStrength,
		Periodization: model,
		Workouts:      workouts,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// weekDayPairs collects (week, day) pairs, counting duplicates.
func weekDayPairs(workouts []domain.Workout) map[[2]int]int {
	pairs := make(map[[2]int]int)
	for _, w := range workouts {
		pairs[[2]int{w.Week, w.Day}]++
	}
	return pairs
}

// waitForTerminal polls the job until it leaves pending/processing.
func waitForTerminal(jobs repository.JobRepository, jobID primitive.ObjectID) *domain.GenerationJob {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := jobs.GetByID(context.Background(), jobID)
		if err == nil && job.Status.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}
