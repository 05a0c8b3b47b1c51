package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Background runs work that is not part of a request's completion contract, such as notification
// dispatch. Each task gets its own deadline and panic boundary, and Wait lets shutdown drain them.
type Background struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

func NewBackground(timeout time.Duration) *Background {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Background{timeout: timeout}
}

// Go starts fn detached from ctx's cancellation. Values on ctx stay visible.
func (b *Background) Go(ctx context.Context, name string, fn func(ctx context.Context)) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("task", name).Msg("background task panicked")
			}
		}()

		taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
		defer cancel()
		fn(taskCtx)
	}()
}

// Wait blocks until every started task returned or ctx is done.
func (b *Background) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
