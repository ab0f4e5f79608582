package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JobStatus is the generation job lifecycle state.
// Legal transitions: pending -> processing -> completed | failed.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// CanTransitionTo validates a status transition against the state machine.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobPending:
		return next == JobProcessing || next == JobFailed
	case JobProcessing:
		return next == JobCompleted || next == JobFailed
	default:
		return false
	}
}

// JobKind distinguishes initial generation from weekly progression runs.
type JobKind string

const (
	JobKindGeneration  JobKind = "generation"
	JobKindProgression JobKind = "progression"
)

// GenerationJob tracks one asynchronous pipeline run. It is the only mutable
// entity in the pipeline and the unit of idempotency: at most one non-terminal
// job may exist per owner at a time.
type GenerationJob struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OwnerID       primitive.ObjectID  `bson:"ownerId" json:"ownerId"`
	Kind          JobKind             `bson:"kind" json:"kind"`
	Status        JobStatus           `bson:"status" json:"status"`
	ErrorCategory ErrorCategory       `bson:"errorCategory,omitempty" json:"errorCategory,omitempty"`
	ErrorDetail   string              `bson:"errorDetail,omitempty" json:"errorDetail,omitempty"`
	ProgramID     *primitive.ObjectID `bson:"programId,omitempty" json:"programId,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}
