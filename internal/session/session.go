// Package session keeps per-visitor state (attribution snapshot, wizard progress) for the lifetime of a
// browsing session. Values are JSON documents addressed by session id and a short key.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL matches a long browsing session; every Save refreshes it.
const DefaultTTL = 24 * time.Hour

var ErrInvalidSessionID = errors.New("invalid session id")

// Store persists session-scoped JSON values.
type Store interface {
	// Load decodes the value stored under key into dst. found is false when nothing is stored.
	Load(ctx context.Context, sessionID, key string, dst any) (found bool, err error)
	// Save overwrites the value stored under key.
	Save(ctx context.Context, sessionID, key string, value any) error
	// Delete removes the value stored under key. Missing values are not an error.
	Delete(ctx context.Context, sessionID, key string) error
	// Claim atomically sets key if it is absent and reports whether this caller set it. The claim
	// expires after ttl; Delete releases it early.
	Claim(ctx context.Context, sessionID, key string, ttl time.Duration) (bool, error)
}

// NewID returns a fresh, unguessable session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like something NewID produced.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

func storageKey(sessionID, key string) string {
	return "session:" + sessionID + ":" + key
}
