package notify

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Dispatcher delivers a notification. Implementations do not retry.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, n Notification) error

func (f DispatcherFunc) Dispatch(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// DispatchAll sends every notification concurrently and returns the first failure.
// The remaining sends see a cancelled context once one fails.
func DispatchAll(ctx context.Context, d Dispatcher, notes ...Notification) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := range notes {
		n := notes[i]
		g.Go(func() error {
			if err := d.Dispatch(gctx, n); err != nil {
				return fmt.Errorf("notify: dispatch %q: %w", n.Subject, err)
			}
			return nil
		})
	}
	return g.Wait()
}
