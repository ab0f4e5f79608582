package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"alcyxob/program-engine/internal/config"
	"alcyxob/program-engine/internal/consistency"
	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/generation"
	"alcyxob/program-engine/internal/science"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type orchestratorFixture struct {
	jobs     *memJobRepo
	programs *memProgramRepo
	router   *consistency.Router
	svc      OrchestratorService
}

func newOrchestratorFixture(completer generation.ModelCompleter, rollout config.RolloutConfig) *orchestratorFixture {
	jobs := newMemJobRepo()
	programs := newMemProgramRepo()
	router := consistency.NewRouter()
	persister := NewProgramPersister(programs, jobs, router)
	svc := NewOrchestrator(jobs, programs, persister, nil, completer, rollout,
		config.WorkerConfig{MaxConcurrentJobs: 4, JobTimeout: 5 * time.Second})
	return &orchestratorFixture{jobs: jobs, programs: programs, router: router, svc: svc}
}

func templateRollout() config.RolloutConfig {
	return config.RolloutConfig{Default: "template"}
}

func TestRequestGenerationTemplatePipeline(t *testing.T) {
	f := newOrchestratorFixture(nil, templateRollout())
	ownerID := primitive.NewObjectID()

	jobID, err := f.svc.RequestGeneration(context.Background(), ownerID, strengthProfile())
	require.NoError(t, err)

	job := waitForTerminal(f.jobs, jobID)
	require.NotNil(t, job, "job never reached a terminal state")
	require.Equal(t, domain.JobCompleted, job.Status)
	require.NotNil(t, job.ProgramID)

	program, err := f.programs.GetByID(context.Background(), *job.ProgramID, consistency.ReadPrimary)
	require.NoError(t, err)
	assert.Equal(t, ownerID, program.OwnerID)
	assert.Equal(t, jobID, program.JobID)
	assert.NotEmpty(t, program.Workouts)
	for _, w := range program.Workouts {
		assert.NotEmpty(t, w.Main, "every workout carries main-tier work")
	}

	assert.Equal(t, consistency.ReadPrimary, f.router.RouteRead(job.ProgramID.Hex()))
}

func TestRequestGenerationRejectsSecondActiveJob(t *testing.T) {
	// A completer that blocks keeps the first job non-terminal.
	blocked := make(chan struct{})
	defer close(blocked)
	completer := completerFunc(func(ctx context.Context, _ string) ([]byte, error) {
		select {
		case <-blocked:
		case <-ctx.Done():
		}
		return nil, ctx.Err()
	})

	f := newOrchestratorFixture(completer, config.RolloutConfig{Default: "adaptive"})
	ownerID := primitive.NewObjectID()

	_, err := f.svc.RequestGeneration(context.Background(), ownerID, strengthProfile())
	require.NoError(t, err)

	_, err = f.svc.RequestGeneration(context.Background(), ownerID, strengthProfile())
	assert.ErrorIs(t, err, ErrJobAlreadyActive)

	otherOwner := primitive.NewObjectID()
	_, err = f.svc.RequestGeneration(context.Background(), otherOwner, strengthProfile())
	assert.NoError(t, err, "other owners are unaffected")
}

func TestRequestGenerationValidatesInput(t *testing.T) {
	f := newOrchestratorFixture(nil, templateRollout())

	_, err := f.svc.RequestGeneration(context.Background(), primitive.NilObjectID, strengthProfile())
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.RequestGeneration(context.Background(), primitive.NewObjectID(), nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRequestGenerationAuthFailureSurfacesConfigurationCategory(t *testing.T) {
	completer := completerFunc(func(_ context.Context, _ string) ([]byte, error) {
		return nil, fmt.Errorf("credentials rejected: %w", generation.ErrModelAuth)
	})
	f := newOrchestratorFixture(completer, config.RolloutConfig{Default: "adaptive"})

	jobID, err := f.svc.RequestGeneration(context.Background(), primitive.NewObjectID(), strengthProfile())
	require.NoError(t, err, "job creation succeeds even when the pipeline will fail")

	job := waitForTerminal(f.jobs, jobID)
	require.NotNil(t, job)
	assert.Equal(t, domain.JobFailed, job.Status)
	assert.Equal(t, domain.CategoryConfiguration, job.ErrorCategory)
	assert.NotEmpty(t, job.ErrorDetail)
	assert.Nil(t, job.ProgramID)
}

func TestRequestGenerationIncompleteProfileFailsJob(t *testing.T) {
	f := newOrchestratorFixture(nil, templateRollout())

	profile := strengthProfile()
	profile.Goal = ""

	jobID, err := f.svc.RequestGeneration(context.Background(), primitive.NewObjectID(), profile)
	require.NoError(t, err)

	job := waitForTerminal(f.jobs, jobID)
	require.NotNil(t, job)
	assert.Equal(t, domain.JobFailed, job.Status)
	assert.Equal(t, domain.CategoryConfiguration, job.ErrorCategory)
}

func TestRequestProgressionOverwritesNextWeek(t *testing.T) {
	f := newOrchestratorFixture(nil, templateRollout())
	ownerID := primitive.NewObjectID()

	genJobID, err := f.svc.RequestGeneration(context.Background(), ownerID, strengthProfile())
	require.NoError(t, err)
	genJob := waitForTerminal(f.jobs, genJobID)
	require.NotNil(t, genJob)
	require.Equal(t, domain.JobCompleted, genJob.Status)
	programID := *genJob.ProgramID

	// Generation stored every week of the plan; remember the counts.
	generated, err := f.programs.GetByID(context.Background(), programID, consistency.ReadPrimary)
	require.NoError(t, err)
	daysPerWeek := len(generated.WorkoutsForWeek(2))
	require.Greater(t, daysPerWeek, 0)
	totalWorkouts := len(generated.Workouts)

	full := 1.0
	feedback := science.WeekFeedback{CompletionRate: &full}
	progJobID, err := f.svc.RequestProgression(context.Background(), programID, 1, feedback)
	require.NoError(t, err)

	progJob := waitForTerminal(f.jobs, progJobID)
	require.NotNil(t, progJob)
	require.Equal(t, domain.JobCompleted, progJob.Status)

	program, err := f.programs.GetByID(context.Background(), programID, consistency.ReadPrimary)
	require.NoError(t, err)
	assert.Len(t, program.WorkoutsForWeek(2), daysPerWeek,
		"progression replaces the generated week 2, never doubles it")
	assert.Len(t, program.Workouts, totalWorkouts)
	for pair, count := range weekDayPairs(program.Workouts) {
		assert.Equal(t, 1, count, "week %d day %d stored more than once", pair[0], pair[1])
	}
	assert.Equal(t, consistency.ReadPrimary, f.router.RouteRead(programID.Hex()))
}

func TestRequestProgressionUnknownProgram(t *testing.T) {
	f := newOrchestratorFixture(nil, templateRollout())

	_, err := f.svc.RequestProgression(context.Background(), primitive.NewObjectID(), 1, science.WeekFeedback{})
	assert.ErrorIs(t, err, ErrProgramNotFound)
}

func TestRequestProgressionUnknownWeekFailsJob(t *testing.T) {
	f := newOrchestratorFixture(nil, templateRollout())
	ownerID := primitive.NewObjectID()

	genJobID, err := f.svc.RequestGeneration(context.Background(), ownerID, strengthProfile())
	require.NoError(t, err)
	genJob := waitForTerminal(f.jobs, genJobID)
	require.NotNil(t, genJob)
	programID := *genJob.ProgramID

	full := 1.0
	jobID, err := f.svc.RequestProgression(context.Background(), programID, 99, science.WeekFeedback{CompletionRate: &full})
	require.NoError(t, err)

	job := waitForTerminal(f.jobs, jobID)
	require.NotNil(t, job)
	assert.Equal(t, domain.JobFailed, job.Status)
	assert.Equal(t, domain.CategoryValidation, job.ErrorCategory)
}

func TestJobStatusReportsTerminalState(t *testing.T) {
	f := newOrchestratorFixture(nil, templateRollout())
	ownerID := primitive.NewObjectID()

	jobID, err := f.svc.RequestGeneration(context.Background(), ownerID, strengthProfile())
	require.NoError(t, err)
	require.NotNil(t, waitForTerminal(f.jobs, jobID))

	view, err := f.svc.JobStatus(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, jobID, view.JobID)
	assert.Equal(t, domain.JobCompleted, view.Status)
	assert.NotNil(t, view.ProgramID)
	assert.Empty(t, view.ErrorCategory)
}

func TestJobStatusUnknownJob(t *testing.T) {
	f := newOrchestratorFixture(nil, templateRollout())

	_, err := f.svc.JobStatus(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrJobNotFound)
}

// completerFunc adapts a function to generation.ModelCompleter.
type completerFunc func(ctx context.Context, prompt string) ([]byte, error)

func (f completerFunc) Complete(ctx context.Context, prompt string) ([]byte, error) {
	return f(ctx, prompt)
}
