package service

import (
	"context"
	"errors"
	"log"
	"time"

	"alcyxob/program-engine/internal/config"
	"alcyxob/program-engine/internal/consistency"
	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/generation"
	"alcyxob/program-engine/internal/repository"
	"alcyxob/program-engine/internal/science"
	"alcyxob/program-engine/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/semaphore"
)

// --- Error Definitions ---
var (
	ErrJobAlreadyActive = errors.New("a generation job is already pending or processing for this owner")
	ErrJobNotFound      = errors.New("generation job not found")
	ErrProgramNotFound  = errors.New("program not found")
	ErrInvalidRequest   = errors.New("request is missing required fields")
)

// JobStatusView is what the status endpoint surfaces: category and human
// message only, never internal error objects.
type JobStatusView struct {
	JobID         primitive.ObjectID   `json:"jobId"`
	Status        domain.JobStatus     `json:"status"`
	ErrorCategory domain.ErrorCategory `json:"errorCategory,omitempty"`
	ErrorDetail   string               `json:"errorDetail,omitempty"`
	ProgramID     *primitive.ObjectID  `json:"programId,omitempty"`
}

// --- Service Interface ---
type OrchestratorService interface {
	RequestGeneration(ctx context.Context, ownerID primitive.ObjectID, profile *domain.UserProfile) (primitive.ObjectID, error)
	RequestProgression(ctx context.Context, programID primitive.ObjectID, weekIndex int, feedback science.WeekFeedback) (primitive.ObjectID, error)
	JobStatus(ctx context.Context, jobID primitive.ObjectID) (*JobStatusView, error)
}

// --- Service Implementation ---

// orchestrator coordinates the full pipeline: job row first, then
// pre-processor -> compiler -> model client -> normalizer -> persister on a
// background goroutine bounded by the worker semaphore. It is the single
// entry point for initial generation and weekly progression.
type orchestrator struct {
	jobs      repository.JobRepository
	programs  repository.ProgramRepository
	persister *ProgramPersister
	archive   storage.CandidateArchive
	completer generation.ModelCompleter // nil when no model endpoint is configured
	rollout   config.RolloutConfig

	workers    *semaphore.Weighted
	jobTimeout time.Duration
}

// NewOrchestrator creates the orchestrator service. completer may be nil, in
// which case every request falls back to the template pipeline.
func NewOrchestrator(
	jobs repository.JobRepository,
	programs repository.ProgramRepository,
	persister *ProgramPersister,
	archive storage.CandidateArchive,
	completer generation.ModelCompleter,
	rollout config.RolloutConfig,
	workerCfg config.WorkerConfig,
) OrchestratorService {
	maxJobs := int64(workerCfg.MaxConcurrentJobs)
	if maxJobs <= 0 {
		maxJobs = 8
	}
	timeout := workerCfg.JobTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if archive == nil {
		archive = storage.NoopArchive{}
	}
	return &orchestrator{
		jobs:       jobs,
		programs:   programs,
		persister:  persister,
		archive:    archive,
		completer:  completer,
		rollout:    rollout,
		workers:    semaphore.NewWeighted(maxJobs),
		jobTimeout: timeout,
	}
}

// === Generation ===

// RequestGeneration creates the job row synchronously and dispatches the
// pipeline. Callers poll JobStatus; the returned id is a 202-style receipt.
func (o *orchestrator) RequestGeneration(ctx context.Context, ownerID primitive.ObjectID, profile *domain.UserProfile) (primitive.ObjectID, error) {
	// 1. Validate input
	if ownerID == primitive.NilObjectID || profile == nil {
		return primitive.NilObjectID, ErrInvalidRequest
	}

	// 2. Enforce one non-terminal job per owner. The partial unique index
	// backstops this check against races.
	if _, err := o.jobs.FindActiveByOwner(ctx, ownerID); err == nil {
		return primitive.NilObjectID, ErrJobAlreadyActive
	} else if !errors.Is(err, repository.ErrNotFound) {
		return primitive.NilObjectID, err
	}

	// 3. Create the job row
	job := &domain.GenerationJob{OwnerID: ownerID, Kind: domain.JobKindGeneration}
	jobID, err := o.jobs.Create(ctx, job)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateActiveJob) {
			return primitive.NilObjectID, ErrJobAlreadyActive
		}
		return primitive.NilObjectID, err
	}
	job.ID = jobID

	// 4. Resolve the pipeline once, then hand off to a background worker.
	// The request context dies with the HTTP request; the job gets its own.
	strategy := ResolveStrategy(o.rollout, ownerID)
	go o.runJob(job, func(jobCtx context.Context) error {
		return o.runGeneration(jobCtx, job, profile, strategy)
	})

	return jobID, nil
}

func (o *orchestrator) runGeneration(ctx context.Context, job *domain.GenerationJob, profile *domain.UserProfile, strategy PipelineStrategy) error {
	// Scientific pre-processing: pure, cannot fail.
	landmarks := science.ComputeVolumeLandmarks(profile)
	weakPoints := science.AnalyzeWeakPoints(profile)
	periodization := science.SelectPeriodization(profile)

	spec, err := generation.CompileRequest(profile, landmarks, weakPoints, periodization)
	if err != nil {
		return err
	}

	var program *domain.TrainingProgram
	if strategy == PipelineAdaptive && o.completer != nil {
		client := generation.NewClient(o.completer,
			generation.WithCandidateObserver(func(attemptID string, raw []byte) {
				// Best-effort archive; never fails the job.
				if _, archErr := o.archive.StoreCandidate(ctx, job.ID.Hex(), attemptID, raw); archErr != nil {
					log.Printf("WARN: candidate archive failed for job %s: %v", job.ID.Hex(), archErr)
				}
			}))

		candidate, err := client.Generate(ctx, spec)
		if err != nil {
			return err
		}
		program, err = generation.Normalize(candidate, job.OwnerID, job.ID, profile.Goal, periodization)
		if err != nil {
			return err
		}
	} else {
		program = generation.TemplateGenerator{}.Generate(profile, landmarks, weakPoints, periodization, job.OwnerID, job.ID)
	}

	_, err = o.persister.CommitProgram(ctx, job, program)
	return err
}

// === Progression ===

// RequestProgression computes and persists the next training week for a
// stored program, under the same async job contract as generation.
func (o *orchestrator) RequestProgression(ctx context.Context, programID primitive.ObjectID, weekIndex int, feedback science.WeekFeedback) (primitive.ObjectID, error) {
	if programID == primitive.NilObjectID || weekIndex <= 0 {
		return primitive.NilObjectID, ErrInvalidRequest
	}

	// Progression reads its own upcoming write's neighborhood; go straight to
	// the primary.
	program, err := o.programs.GetByID(ctx, programID, consistency.ReadPrimary)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return primitive.NilObjectID, ErrProgramNotFound
		}
		return primitive.NilObjectID, err
	}

	if _, err := o.jobs.FindActiveByOwner(ctx, program.OwnerID); err == nil {
		return primitive.NilObjectID, ErrJobAlreadyActive
	} else if !errors.Is(err, repository.ErrNotFound) {
		return primitive.NilObjectID, err
	}

	job := &domain.GenerationJob{OwnerID: program.OwnerID, Kind: domain.JobKindProgression}
	jobID, err := o.jobs.Create(ctx, job)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateActiveJob) {
			return primitive.NilObjectID, ErrJobAlreadyActive
		}
		return primitive.NilObjectID, err
	}
	job.ID = jobID

	go o.runJob(job, func(jobCtx context.Context) error {
		return o.runProgression(jobCtx, job, program, weekIndex, feedback)
	})

	return jobID, nil
}

func (o *orchestrator) runProgression(ctx context.Context, job *domain.GenerationJob, program *domain.TrainingProgram, weekIndex int, feedback science.WeekFeedback) error {
	completed := program.WorkoutsForWeek(weekIndex)
	if len(completed) == 0 {
		return domain.NewValidationError("program has no workouts for the reported week", nil)
	}

	// The block's opening week anchors deload set counts and boundary resets.
	block := program.Periodization.BlockWeeks()
	blockStart := 1
	if block > 0 {
		blockStart = ((weekIndex-1)/block)*block + 1
	}
	baseline := program.WorkoutsForWeek(blockStart)

	next, err := science.AdvanceWeek(baseline, completed, program.Periodization, weekIndex, feedback)
	if err != nil {
		return domain.NewValidationError("progression could not be computed", err)
	}

	return o.persister.CommitWeek(ctx, job, program.ID, next)
}

// === Job lifecycle ===

// runJob is the shared background wrapper: acquires a worker slot, moves the
// job to processing, runs the pipeline, and records the terminal state.
// Nothing is silently swallowed; every failure lands on the job row.
func (o *orchestrator) runJob(job *domain.GenerationJob, run func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), o.jobTimeout)
	defer cancel()

	if err := o.workers.Acquire(ctx, 1); err != nil {
		o.failJob(job.ID, domain.JobPending, domain.NewGenerationError("job timed out waiting for a worker slot", err))
		return
	}
	defer o.workers.Release(1)

	if err := o.jobs.TransitionStatus(ctx, job.ID, domain.JobPending, domain.JobProcessing, repository.JobUpdate{}); err != nil {
		log.Printf("ERROR: job %s could not enter processing: %v", job.ID.Hex(), err)
		return
	}

	if err := run(ctx); err != nil {
		o.failJob(job.ID, domain.JobProcessing, err)
	}
}

func (o *orchestrator) failJob(jobID primitive.ObjectID, from domain.JobStatus, cause error) {
	// The job context may already be dead; terminal bookkeeping gets its own.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	update := repository.JobUpdate{
		ErrorCategory: domain.CategoryOf(cause),
		ErrorDetail:   humanMessage(cause),
	}
	if err := o.jobs.TransitionStatus(ctx, jobID, from, domain.JobFailed, update); err != nil {
		log.Printf("ERROR: job %s could not be marked failed (cause: %v): %v", jobID.Hex(), cause, err)
	}
}

// humanMessage converts a pipeline error into the message the status
// endpoint may expose. Raw causes stay server-side.
func humanMessage(err error) string {
	var pe *domain.PipelineError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return "the program could not be generated; please try again"
}

// === Status ===

func (o *orchestrator) JobStatus(ctx context.Context, jobID primitive.ObjectID) (*JobStatusView, error) {
	if jobID == primitive.NilObjectID {
		return nil, ErrInvalidRequest
	}
	job, err := o.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &JobStatusView{
		JobID:         job.ID,
		Status:        job.Status,
		ErrorCategory: job.ErrorCategory,
		ErrorDetail:   job.ErrorDetail,
		ProgramID:     job.ProgramID,
	}, nil
}
