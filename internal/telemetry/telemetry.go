// Package telemetry reports conversion events. Handlers and services receive a Sink and never reach for
// a global tracker.
package telemetry

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

const (
	EventSubmitApplication = "SubmitApplication"
	EventLead              = "Lead"
)

// Attribute keys with special handling in sinks that forward user data.
const (
	AttrEmail = "email"
	AttrPhone = "phone"
)

// Sink receives tracked events. Track must not fail the caller; sinks log their own errors.
type Sink interface {
	Init(ctx context.Context) error
	Track(ctx context.Context, event string, attrs map[string]string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Init(context.Context) error { return nil }
func (Nop) Track(context.Context, string, map[string]string) {}

// LogSink writes each event as a debug-level log line. Contact attributes are dropped.
type LogSink struct{}

func (LogSink) Init(context.Context) error { return nil }

func (LogSink) Track(_ context.Context, event string, attrs map[string]string) {
	ev := log.Debug().Str("event", event)
	for k, v := range attrs {
		if k == AttrEmail || k == AttrPhone {
			continue
		}
		ev = ev.Str(k, v)
	}
	ev.Msg("telemetry event")
}

// Multi fans an event out to several sinks.
type Multi []Sink

func (m Multi) Init(ctx context.Context) error {
	var errs []error
	for _, s := range m {
		if err := s.Init(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Track(ctx context.Context, event string, attrs map[string]string) {
	for _, s := range m {
		s.Track(ctx, event, attrs)
	}
}
