package mongo

import (
	"context"
	"errors"
	"time"

	"alcyxob/program-engine/internal/consistency"
	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const programCollectionName = "training_programs"

// mongoProgramRepository implements repository.ProgramRepository.
// It holds two collection handles over the same data: writes and routed
// "primary" reads use the primary handle, everything else may land on a
// lagging secondary.
type mongoProgramRepository struct {
	primary *mongo.Collection
	replica *mongo.Collection
}

// NewMongoProgramRepository creates a new TrainingProgram repository.
func NewMongoProgramRepository(db *mongo.Database) repository.ProgramRepository {
	return &mongoProgramRepository{
		primary: db.Collection(programCollectionName),
		replica: db.Collection(programCollectionName,
			options.Collection().SetReadPreference(readpref.SecondaryPreferred())),
	}
}

func (r *mongoProgramRepository) collectionFor(pref consistency.ReadPreference) *mongo.Collection {
	if pref == consistency.ReadPrimary {
		return r.primary
	}
	return r.replica
}

// Create inserts a new program against the primary.
func (r *mongoProgramRepository) Create(ctx context.Context, program *domain.TrainingProgram) (primitive.ObjectID, error) {
	if program.OwnerID == primitive.NilObjectID || program.JobID == primitive.NilObjectID || len(program.Workouts) == 0 {
		return primitive.NilObjectID, errors.New("program requires ownerId, jobId, and at least one workout")
	}
	program.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now

	result, err := r.primary.InsertOne(ctx, program)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted program ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single program with the routed read preference.
func (r *mongoProgramRepository) GetByID(ctx context.Context, id primitive.ObjectID, pref consistency.ReadPreference) (*domain.TrainingProgram, error) {
	var program domain.TrainingProgram
	filter := bson.M{"_id": id}
	err := r.collectionFor(pref).FindOne(ctx, filter).Decode(&program)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &program, nil
}

// GetLatestByOwner retrieves the owner's most recent program.
func (r *mongoProgramRepository) GetLatestByOwner(ctx context.Context, ownerID primitive.ObjectID, pref consistency.ReadPreference) (*domain.TrainingProgram, error) {
	var program domain.TrainingProgram
	filter := bson.M{"ownerId": ownerID}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	err := r.collectionFor(pref).FindOne(ctx, filter, findOptions).Decode(&program)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &program, nil
}

// ReplaceWeek swaps one week's workouts on the program document. Generation
// stores the full multi-week plan up front, so a progression run overwrites
// the pre-generated copy of its target week rather than piling a second one
// on. Mongo rejects $pull and $push on the same field in one update, so this
// runs as two writes; the per-owner job lock keeps them from interleaving.
func (r *mongoProgramRepository) ReplaceWeek(ctx context.Context, id primitive.ObjectID, week int, workouts []domain.Workout) error {
	if week < 1 {
		return errors.New("week must be positive")
	}
	if len(workouts) == 0 {
		return errors.New("no workouts to store")
	}
	filter := bson.M{"_id": id}

	// 1. Drop any stored workouts for the target week.
	pull := bson.M{
		"$pull": bson.M{"workouts": bson.M{"week": week}},
	}
	result, err := r.primary.UpdateOne(ctx, filter, pull)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}

	// 2. Push the replacement week. The $sort modifier re-sorts the whole
	// array so the document keeps its week-then-day order.
	push := bson.M{
		"$push": bson.M{"workouts": bson.M{
			"$each": workouts,
			"$sort": bson.D{{Key: "week", Value: 1}, {Key: "day", Value: 1}},
		}},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err = r.primary.UpdateOne(ctx, filter, push)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureProgramIndexes creates necessary indexes. Call during startup.
func EnsureProgramIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "jobId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
