package mongo

import (
	"context"
	"time"

	"snapbooth/site/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI and pings the primary.
func ConnectDB(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// The driver connects lazily, so an unreachable server only shows up here.
	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes every collection needs. Failures are returned, not fatal.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := EnsureIntakeIndexes(ctx, db.Collection(intakeCollectionName)); err != nil {
		return err
	}
	if err := EnsureLeadIndexes(ctx, db.Collection(leadCollectionName)); err != nil {
		return err
	}
	return EnsureNotificationIndexes(ctx, db.Collection(notificationCollectionName))
}

// recentOptions sorts newest first on timeField and applies the clamped limit.
func recentOptions(timeField string, limit int) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: timeField, Value: -1}}).
		SetLimit(int64(repository.ClampLimit(limit)))
}
