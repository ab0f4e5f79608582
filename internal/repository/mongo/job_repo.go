package mongo

import (
	"context"
	"errors"
	"log"
	"time"

	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const jobCollectionName = "generation_jobs"

// mongoJobRepository implements repository.JobRepository. Job reads always go
// to the primary: the job row is the freshness signal everything else keys
// off, so a stale read here defeats the consistency router.
type mongoJobRepository struct {
	collection *mongo.Collection
}

// NewMongoJobRepository creates a new GenerationJob repository.
func NewMongoJobRepository(db *mongo.Database) repository.JobRepository {
	return &mongoJobRepository{
		collection: db.Collection(jobCollectionName),
	}
}

// Create inserts a new job. The partial unique index on non-terminal jobs
// (see EnsureJobIndexes) backstops the service-level one-active-job check, so
// a racing duplicate surfaces as ErrDuplicateActiveJob rather than a second
// pending row.
func (r *mongoJobRepository) Create(ctx context.Context, job *domain.GenerationJob) (primitive.ObjectID, error) {
	if job.OwnerID == primitive.NilObjectID || job.Kind == "" {
		return primitive.NilObjectID, errors.New("job requires ownerId and kind")
	}
	job.ID = primitive.NewObjectID()
	job.Status = domain.JobPending
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, job)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateActiveJob
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted job ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single job by its ID.
func (r *mongoJobRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.GenerationJob, error) {
	var job domain.GenerationJob
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// FindActiveByOwner returns the owner's non-terminal job, if any.
func (r *mongoJobRepository) FindActiveByOwner(ctx context.Context, ownerID primitive.ObjectID) (*domain.GenerationJob, error) {
	var job domain.GenerationJob
	filter := bson.M{
		"ownerId": ownerID,
		"status":  bson.M{"$in": bson.A{domain.JobPending, domain.JobProcessing}},
	}
	err := r.collection.FindOne(ctx, filter).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// TransitionStatus compare-and-sets the job status. The filter matches on the
// expected current status so a concurrent transition loses cleanly with
// ErrStatusConflict instead of clobbering a terminal state.
func (r *mongoJobRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to domain.JobStatus, update repository.JobUpdate) error {
	if !from.CanTransitionTo(to) {
		return repository.ErrStatusConflict
	}

	set := bson.M{
		"status":    to,
		"updatedAt": time.Now().UTC(),
	}
	if update.ErrorCategory != "" {
		set["errorCategory"] = update.ErrorCategory
		set["errorDetail"] = update.ErrorDetail
	}
	if update.ProgramID != nil {
		set["programId"] = *update.ProgramID
	}

	filter := bson.M{"_id": id, "status": from}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrStatusConflict
	}
	return nil
}

// EnsureJobIndexes creates necessary indexes. Call during startup.
func EnsureJobIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// At most one non-terminal job per owner, enforced at the store.
			Keys: bson.D{{Key: "ownerId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"status": bson.M{"$in": bson.A{domain.JobPending, domain.JobProcessing}},
				}),
		},
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// Without the partial unique index the one-active-job rule relies on
		// the service-level check alone.
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
