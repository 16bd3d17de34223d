package lifecycle

import (
	"context"
	"io"
)

// Hook is one named piece of drain work to run when the engine exits.
type Hook struct {
	Name string
	Fn   func(ctx context.Context) error
}

// CloserHook adapts an io.Closer into a drain hook. The settings database
// handle and the redis client both close this way.
func CloserHook(name string, c io.Closer) Hook {
	return Hook{Name: name, Fn: func(context.Context) error { return c.Close() }}
}
