package storage

import (
	"context"
)

// CandidateArchive stores raw model responses so schema violations can be
// debugged offline. Archiving is best-effort everywhere it is called: a
// failed archive write must never fail a generation job.
type CandidateArchive interface {
	// StoreCandidate persists one raw attempt payload and returns the object
	// key it was stored under.
	StoreCandidate(ctx context.Context, jobID, attemptID string, payload []byte) (string, error)
}

// NoopArchive discards payloads. Used when no archive bucket is configured.
type NoopArchive struct{}

func (NoopArchive) StoreCandidate(ctx context.Context, jobID, attemptID string, payload []byte) (string, error) {
	return "", nil
}
