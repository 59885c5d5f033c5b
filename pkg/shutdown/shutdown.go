package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WithSignals returns a context cancelled on SIGINT or SIGTERM.
func WithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Closer is one step of an ordered shutdown.
type Closer struct {
	Name  string
	Close func(ctx context.Context) error
}

// Run calls each closer in order and reports failures through onErr. Every
// closer runs even if an earlier one fails.
func Run(ctx context.Context, closers []Closer, onErr func(name string, err error)) {
	for _, c := range closers {
		if err := c.Close(ctx); err != nil && onErr != nil {
			onErr(c.Name, err)
		}
	}
}
