package mongo

import (
	"context"
	"time"

	"snapbooth/site/internal/domain"
	"snapbooth/site/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const notificationCollectionName = "notification_journal"

// mongoNotificationRepository keeps notifications the relay did not take, so staff can follow up.
type mongoNotificationRepository struct {
	collection *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) repository.NotificationRepository {
	return &mongoNotificationRepository{
		collection: db.Collection(notificationCollectionName),
	}
}

func (r *mongoNotificationRepository) Record(ctx context.Context, entry domain.NotificationEntry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

func (r *mongoNotificationRepository) ListRecent(ctx context.Context, limit int) ([]domain.NotificationEntry, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, recentOptions("createdAt", limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []domain.NotificationEntry{}
	if err = cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EnsureNotificationIndexes creates necessary indexes for the journal collection.
func EnsureNotificationIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "reference", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
