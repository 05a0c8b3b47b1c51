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

const leadCollectionName = "leads"

type mongoLeadRepository struct {
	collection *mongo.Collection
}

func NewMongoLeadRepository(db *mongo.Database) repository.LeadRepository {
	return &mongoLeadRepository{
		collection: db.Collection(leadCollectionName),
	}
}

func (r *mongoLeadRepository) Create(ctx context.Context, lead *domain.Lead) (primitive.ObjectID, error) {
	if lead.Name == "" || (lead.Email == "" && lead.Phone == "") {
		return primitive.NilObjectID, errors.New("lead requires a name and an email or phone")
	}
	if lead.ID.IsZero() {
		lead.ID = primitive.NewObjectID()
	}
	if lead.SubmittedAt.IsZero() {
		lead.SubmittedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, lead)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

func (r *mongoLeadRepository) ListRecent(ctx context.Context, limit int) ([]domain.Lead, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, recentOptions("submittedAt", limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []domain.Lead{}
	if err = cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EnsureLeadIndexes creates necessary indexes for the leads collection.
func EnsureLeadIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "submittedAt", Value: -1}},
			Options: options.Index(),
		},
		{
			// Per-source reporting
			Keys:    bson.D{{Key: "source", Value: 1}, {Key: "submittedAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
