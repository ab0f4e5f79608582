package service

import (
	"context"
	"errors"

	"alcyxob/program-engine/internal/consistency"
	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Service Interface ---
type ProgramService interface {
	GetProgram(ctx context.Context, programID primitive.ObjectID) (*domain.TrainingProgram, error)
	GetLatestProgram(ctx context.Context, ownerID primitive.ObjectID) (*domain.TrainingProgram, error)
}

// --- Service Implementation ---

// programService is the read path. Every read consults the consistency
// router first: a program committed moments ago is fetched from the primary,
// everything else may come from a replica. A miss is a plain not-found; the
// caller owns retrying reads of freshly created resources.
type programService struct {
	programs repository.ProgramRepository
	router   *consistency.Router
}

// NewProgramService creates a new instance of programService.
func NewProgramService(programs repository.ProgramRepository, router *consistency.Router) ProgramService {
	return &programService{
		programs: programs,
		router:   router,
	}
}

func (s *programService) GetProgram(ctx context.Context, programID primitive.ObjectID) (*domain.TrainingProgram, error) {
	if programID == primitive.NilObjectID {
		return nil, ErrInvalidRequest
	}

	pref := s.router.RouteRead(programID.Hex())
	program, err := s.programs.GetByID(ctx, programID, pref)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return program, nil
}

// GetLatestProgram fetches the owner's newest program. Owner-scoped queries
// aren't tracked per-record by the router, so this always allows a replica
// read; callers needing read-your-write freshness fetch by id.
func (s *programService) GetLatestProgram(ctx context.Context, ownerID primitive.ObjectID) (*domain.TrainingProgram, error) {
	if ownerID == primitive.NilObjectID {
		return nil, ErrInvalidRequest
	}

	program, err := s.programs.GetLatestByOwner(ctx, ownerID, consistency.ReadReplica)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return program, nil
}
