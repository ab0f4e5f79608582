package repository

import (
	"context"

	"alcyxob/program-engine/internal/consistency"
	"alcyxob/program-engine/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound           = RepositoryError("not found")
	ErrDuplicateActiveJob = RepositoryError("owner already has a non-terminal job")
	ErrStatusConflict     = RepositoryError("job is not in the expected status")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ProgramRepository defines the interface for interacting with stored
// training programs. Reads carry the preference picked by the consistency
// router; writes always go to the primary.
type ProgramRepository interface {
	Create(ctx context.Context, program *domain.TrainingProgram) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID, pref consistency.ReadPreference) (*domain.TrainingProgram, error)
	GetLatestByOwner(ctx context.Context, ownerID primitive.ObjectID, pref consistency.ReadPreference) (*domain.TrainingProgram, error)
	// ReplaceWeek swaps the stored workouts for one week with the given
	// slice, so re-running a progression never leaves two copies of the
	// same (week, day) pair behind.
	ReplaceWeek(ctx context.Context, id primitive.ObjectID, week int, workouts []domain.Workout) error
}

// JobRepository defines the interface for interacting with generation jobs.
type JobRepository interface {
	Create(ctx context.Context, job *domain.GenerationJob) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.GenerationJob, error)
	FindActiveByOwner(ctx context.Context, ownerID primitive.ObjectID) (*domain.GenerationJob, error)
	// TransitionStatus performs a compare-and-set from `from` to `to`,
	// returning ErrStatusConflict when the job moved in the meantime.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to domain.JobStatus, update JobUpdate) error
}

// JobUpdate carries the optional fields a status transition may set.
type JobUpdate struct {
	ErrorCategory domain.ErrorCategory
	ErrorDetail   string
	ProgramID     *primitive.ObjectID
}
