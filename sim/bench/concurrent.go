package bench

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RunConcurrent runs fn on clients goroutines at once and waits for all of
// them. The first error cancels the context passed to the others.
func RunConcurrent(ctx context.Context, clients int, fn func(ctx context.Context, client int) error) error {
	if clients < 1 {
		return fmt.Errorf("clients must be at least 1, got %d", clients)
	}
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < clients; i++ {
		g.Go(func() error {
			return fn(ctx, i)
		})
	}
	return g.Wait()
}
