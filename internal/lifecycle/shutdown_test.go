package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExecuteRunsEveryHook(t *testing.T) {
	shutdown := NewShutdown(testLog())

	var mu sync.Mutex
	ran := map[string]bool{}
	for _, name := range []string{"postgres", "redis", "sentry"} {
		n := name
		shutdown.Register(n, func(context.Context) error {
			mu.Lock()
			ran[n] = true
			mu.Unlock()
			return nil
		})
	}

	require.NoError(t, shutdown.Execute(context.Background()))
	assert.Len(t, ran, 3)
}

func TestExecuteJoinsFailures(t *testing.T) {
	shutdown := NewShutdown(testLog())
	shutdown.Register("postgres", func(context.Context) error { return errors.New("conn reset") })
	shutdown.Register("redis", func(context.Context) error { return nil })
	shutdown.Register("sentry", func(context.Context) error { return errors.New("flush timeout") })

	err := shutdown.Execute(context.Background())

	require.Error(t, err)
	assert.ErrorContains(t, err, "postgres: conn reset")
	assert.ErrorContains(t, err, "sentry: flush timeout")
}

func TestNilHooksAreIgnored(t *testing.T) {
	shutdown := NewShutdown(nil)
	shutdown.Register("noop", nil)
	shutdown.Add(Hook{Name: "empty"})

	assert.NoError(t, shutdown.Execute(context.Background()))
}

type stubCloser struct {
	closed bool
	err    error
}

func (c *stubCloser) Close() error {
	c.closed = true
	return c.err
}

func TestCloserHook(t *testing.T) {
	closer := &stubCloser{}
	hook := CloserHook("postgres", closer)

	require.NoError(t, hook.Fn(context.Background()))
	assert.True(t, closer.closed)

	failing := &stubCloser{err: errors.New("already closed")}
	assert.Error(t, CloserHook("redis", failing).Fn(context.Background()))
}
