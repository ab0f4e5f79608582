package service

import (
	"context"
	"fmt"
	"strings"

	"alcyxob/program-engine/internal/consistency"
	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgramPersister is the single gate between "the pipeline produced a
// program" and "the caller may be told it succeeded". A job reaches
// completed only after the write has been issued, re-read from the primary,
// and verified to belong to the requesting owner; any earlier failure leaves
// the job to be marked failed by the orchestrator, never completed.
type ProgramPersister struct {
	programs repository.ProgramRepository
	jobs     repository.JobRepository
	router   *consistency.Router
}

// NewProgramPersister creates a new persister.
func NewProgramPersister(
	programs repository.ProgramRepository,
	jobs repository.JobRepository,
	router *consistency.Router,
) *ProgramPersister {
	return &ProgramPersister{
		programs: programs,
		jobs:     jobs,
		router:   router,
	}
}

// CommitProgram durably stores a freshly generated program and completes its
// job. Steps, in order:
//  1. pre-validate required fields;
//  2. write against the primary;
//  3. re-read by the returned id and assert owner identity;
//  4. mark the job completed and register the write with the router.
//
// A failure at steps 1-3 is returned as a persistence error and is not
// retried here; the caller re-invokes the orchestrator, which creates a new
// job.
func (p *ProgramPersister) CommitProgram(ctx context.Context, job *domain.GenerationJob, program *domain.TrainingProgram) (primitive.ObjectID, error) {
	// 1. Pre-validate
	if err := validateProgram(program); err != nil {
		return primitive.NilObjectID, domain.NewPersistenceError("program failed pre-write validation", err)
	}
	if program.OwnerID != job.OwnerID {
		return primitive.NilObjectID, domain.NewPersistenceError("program owner does not match job owner", nil)
	}

	// 2. Write
	programID, err := p.programs.Create(ctx, program)
	if err != nil {
		return primitive.NilObjectID, domain.NewPersistenceError("program write failed", err)
	}

	// 3. Read-back verification against the primary
	stored, err := p.programs.GetByID(ctx, programID, consistency.ReadPrimary)
	if err != nil {
		return primitive.NilObjectID, domain.NewPersistenceError("post-write read-back failed", err)
	}
	if stored.OwnerID != job.OwnerID || stored.JobID != job.ID {
		return primitive.NilObjectID, domain.NewPersistenceError(
			fmt.Sprintf("post-write identity check failed: stored owner %s, requested %s", stored.OwnerID.Hex(), job.OwnerID.Hex()), nil)
	}

	// 4. Complete the job, then advertise the fresh write to the router.
	err = p.jobs.TransitionStatus(ctx, job.ID, domain.JobProcessing, domain.JobCompleted,
		repository.JobUpdate{ProgramID: &programID})
	if err != nil {
		return primitive.NilObjectID, domain.NewPersistenceError("job completion transition failed", err)
	}
	p.router.RecordWrite(programID.Hex())

	return programID, nil
}

// CommitWeek stores a progression run's workouts as the single copy of their
// week, under the same write-then-confirm discipline as CommitProgram. The
// program already holds every week from generation, so the write replaces
// the target week instead of appending a duplicate next to it.
func (p *ProgramPersister) CommitWeek(ctx context.Context, job *domain.GenerationJob, programID primitive.ObjectID, workouts []domain.Workout) error {
	if len(workouts) == 0 {
		return domain.NewPersistenceError("progression produced no workouts", nil)
	}
	week := workouts[0].Week
	for _, w := range workouts {
		if err := validateWorkout(w); err != nil {
			return domain.NewPersistenceError("progression workout failed pre-write validation", err)
		}
		if w.Week != week {
			return domain.NewPersistenceError("progression run spans more than one week", nil)
		}
	}

	if err := p.programs.ReplaceWeek(ctx, programID, week, workouts); err != nil {
		return domain.NewPersistenceError("week write failed", err)
	}

	stored, err := p.programs.GetByID(ctx, programID, consistency.ReadPrimary)
	if err != nil {
		return domain.NewPersistenceError("post-write read-back failed", err)
	}
	if stored.OwnerID != job.OwnerID {
		return domain.NewPersistenceError("post-write identity check failed: program owner changed", nil)
	}
	if got := len(stored.WorkoutsForWeek(week)); got != len(workouts) {
		return domain.NewPersistenceError(
			fmt.Sprintf("post-write read-back holds %d workouts for week %d, wrote %d", got, week, len(workouts)), nil)
	}

	err = p.jobs.TransitionStatus(ctx, job.ID, domain.JobProcessing, domain.JobCompleted,
		repository.JobUpdate{ProgramID: &programID})
	if err != nil {
		return domain.NewPersistenceError("job completion transition failed", err)
	}
	p.router.RecordWrite(programID.Hex())

	return nil
}

func validateProgram(program *domain.TrainingProgram) error {
	if program == nil {
		return fmt.Errorf("program is nil")
	}
	if program.OwnerID == primitive.NilObjectID {
		return fmt.Errorf("owner id is unset")
	}
	if program.JobID == primitive.NilObjectID {
		return fmt.Errorf("job id is unset")
	}
	if len(program.Workouts) == 0 {
		return fmt.Errorf("program has no workouts")
	}
	for _, w := range program.Workouts {
		if err := validateWorkout(w); err != nil {
			return err
		}
	}
	return nil
}

func validateWorkout(w domain.Workout) error {
	if w.Week <= 0 || w.Day <= 0 {
		return fmt.Errorf("workout has no week/day ordering")
	}
	if len(w.Main) == 0 {
		return fmt.Errorf("workout week %d day %d has no main exercises", w.Week, w.Day)
	}
	for _, ex := range w.Main {
		if ex.Name == "" || ex.Sets <= 0 || strings.TrimSpace(ex.Reps) == "" ||
			strings.TrimSpace(ex.Load) == "" || strings.TrimSpace(ex.Rest) == "" {
			return fmt.Errorf("main exercise %q is missing required prescription fields", ex.Name)
		}
	}
	return nil
}
