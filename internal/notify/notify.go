// Package notify formats submission notifications and delivers them through a form relay, falling back
// to a durable journal when the relay is unconfigured or fails.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"snapbooth/site/internal/domain"
)

const (
	ReasonUnconfigured = "unconfigured"
	ReasonFailed       = "failed"
)

// Notifier is the notification sink contract used by services.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// Dispatcher sends through the relay and journals anything the relay did not take.
type Dispatcher struct {
	relay   *Relay
	journal Journal
	now     func() time.Time
}

func NewDispatcher(relay *Relay, journal Journal) *Dispatcher {
	return &Dispatcher{relay: relay, journal: journal, now: time.Now}
}

// Notify returns an error only when the notification was neither relayed nor journaled.
func (d *Dispatcher) Notify(ctx context.Context, n domain.Notification) error {
	err := d.relay.Send(ctx, n)
	if err == nil {
		return nil
	}

	entry := domain.NotificationEntry{
		Kind:      n.Kind,
		Reference: n.Reference,
		Subject:   n.Subject,
		Body:      n.Body,
		Reason:    ReasonFailed,
		Error:     err.Error(),
		Attempts:  d.relay.Attempts(),
		CreatedAt: d.now().UTC(),
	}
	if errors.Is(err, ErrRelayNotConfigured) {
		entry.Reason = ReasonUnconfigured
		entry.Error = ""
	} else {
		log.Warn().Err(err).Str("reference", n.Reference).Msg("notification relay failed, journaling")
	}

	if d.journal == nil {
		return fmt.Errorf("notify: no journal for undelivered notification: %w", err)
	}
	if jerr := d.journal.Record(ctx, entry); jerr != nil {
		return errors.Join(err, fmt.Errorf("notify: journal: %w", jerr))
	}
	return nil
}
