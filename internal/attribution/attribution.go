// Package attribution captures marketing campaign parameters from the landing URL and keeps them for the
// rest of the browsing session so later form submissions can credit the originating channel.
package attribution

import (
	"context"
	"net/url"
	"strings"

	"snapbooth/site/internal/domain"
	"snapbooth/site/internal/session"
)

// SessionKey is the single session-storage key holding the snapshot as a JSON object.
const SessionKey = "attribution"

// Capture extracts the allow-listed parameters present (and non-empty) in query.
func Capture(query url.Values) domain.AttributionSnapshot {
	snap := domain.AttributionSnapshot{}
	for _, key := range domain.AttributionKeys {
		if v := strings.TrimSpace(query.Get(key)); v != "" {
			snap[key] = v
		}
	}
	return snap
}

// Resolve returns the snapshot for this page view. A URL carrying any recognized parameter replaces the
// stored snapshot; a URL carrying none reuses whatever the session already holds. An empty snapshot is
// a valid result.
func Resolve(ctx context.Context, store session.Store, sessionID string, query url.Values) (domain.AttributionSnapshot, error) {
	captured := Capture(query)
	if !captured.Empty() {
		if err := store.Save(ctx, sessionID, SessionKey, captured); err != nil {
			return captured, err
		}
		return captured, nil
	}

	var stored domain.AttributionSnapshot
	found, err := store.Load(ctx, sessionID, SessionKey, &stored)
	if err != nil || !found {
		return domain.AttributionSnapshot{}, err
	}
	return sanitize(stored), nil
}

// sanitize drops anything outside the allow-list that may have been written by an older release.
func sanitize(s domain.AttributionSnapshot) domain.AttributionSnapshot {
	out := domain.AttributionSnapshot{}
	for k, v := range s {
		if domain.IsAttributionKey(k) && v != "" {
			out[k] = v
		}
	}
	return out
}
