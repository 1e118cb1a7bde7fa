package contxt

import (
	"context"
	"os"
	"time"
)

// NewContext returns a context for one bounded fan-out operation, e.g.
// publishing a batch of readings. Setting CONTEXT_TEST removes the
// deadline so tests can single-step.
func NewContext(timeout time.Duration) context.Context {
	if os.Getenv("CONTEXT_TEST") != "" {
		return context.Background()
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ctx
}
