package repository

import (
	"context"

	"snapbooth/site/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound = RepositoryError("not found")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// MaxListLimit caps every List call.
const MaxListLimit = 200

// ClampLimit turns a requested page size into one within (0, MaxListLimit].
func ClampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// IntakeRepository stores accepted intake submissions.
type IntakeRepository interface {
	Create(ctx context.Context, submission *domain.IntakeSubmission) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.IntakeSubmission, error)
	ListRecent(ctx context.Context, limit int) ([]domain.IntakeSubmission, error) // Newest first
}

// LeadRepository stores lead-form submissions.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) (primitive.ObjectID, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Lead, error) // Newest first
}

// NotificationRepository is the durable journal of notifications that were not relayed.
type NotificationRepository interface {
	Record(ctx context.Context, entry domain.NotificationEntry) error
	ListRecent(ctx context.Context, limit int) ([]domain.NotificationEntry, error) // Newest first
}
