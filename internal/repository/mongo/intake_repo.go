package mongo

import (
	"context"
	"errors"
	"time"

	"snapbooth/site/internal/domain"
	"snapbooth/site/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const intakeCollectionName = "intake_submissions"

// mongoIntakeRepository implements repository.IntakeRepository
type mongoIntakeRepository struct {
	collection *mongo.Collection
}

// NewMongoIntakeRepository creates a new intake repository backed by MongoDB.
func NewMongoIntakeRepository(db *mongo.Database) repository.IntakeRepository {
	return &mongoIntakeRepository{
		collection: db.Collection(intakeCollectionName),
	}
}

// Create inserts the submission. A zero ID is generated, a preset one is kept so the
// caller can reference it in sinks that ran earlier.
func (r *mongoIntakeRepository) Create(ctx context.Context, s *domain.IntakeSubmission) (primitive.ObjectID, error) {
	if s.ContactName == "" || s.ContactEmail == "" || s.ContactPhone == "" {
		return primitive.NilObjectID, errors.New("intake submission requires contact name, email and phone")
	}
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = time.Now().UTC()
	}
	if s.Inspiration == nil {
		s.Inspiration = []domain.StoredFile{}
	}

	result, err := r.collection.InsertOne(ctx, s)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a submission by its ID.
func (r *mongoIntakeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.IntakeSubmission, error) {
	var s domain.IntakeSubmission
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListRecent returns the newest submissions first.
func (r *mongoIntakeRepository) ListRecent(ctx context.Context, limit int) ([]domain.IntakeSubmission, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, recentOptions("submittedAt", limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []domain.IntakeSubmission{}
	if err = cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EnsureIntakeIndexes creates necessary indexes for the intake collection.
func EnsureIntakeIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "submittedAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "contactEmail", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
