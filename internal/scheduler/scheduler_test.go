package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeferWithInline(t *testing.T) {
	s := &Inline{}
	f := Defer(s, 5*time.Second, "duel", func(context.Context) (int, error) { return 42, nil })

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, []time.Duration{5 * time.Second}, s.Delays)
}

func TestDeferRecoversPanic(t *testing.T) {
	f := Defer(&Inline{}, 0, "boom", func(context.Context) (int, error) { panic("bad") })
	_, err := f.Await(context.Background())
	assert.Error(t, err)
}

func TestFutureAwaitHonorsContext(t *testing.T) {
	m := &Manual{}
	f := Defer(m, time.Second, "hunt", func(context.Context) (string, error) { return "won", nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Await(ctx)
	assert.True(t, errors.Is(err, context.Canceled))

	assert.Equal(t, 1, m.RunAll())
	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "won", v)
}

func TestManualRunsTasksQueuedWhileRunning(t *testing.T) {
	m := &Manual{}
	var order []string
	require.NoError(t, m.After(3*time.Second, "first", func() {
		order = append(order, "first")
		_ = m.After(5*time.Second, "second", func() { order = append(order, "second") })
	}))

	d, ok := m.NextDelay()
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)
	assert.Equal(t, 2, m.RunAll())
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestGocronRunsOneTimeJob(t *testing.T) {
	g, err := NewGocron()
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Shutdown() })

	var ran atomic.Bool
	require.NoError(t, g.After(10*time.Millisecond, "probe", func() { ran.Store(true) }))
	assert.Eventually(t, ran.Load, 2*time.Second, 10*time.Millisecond)
}

func TestGocronSurvivesPanickingTask(t *testing.T) {
	g, err := NewGocron()
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Shutdown() })

	var ran atomic.Bool
	require.NoError(t, g.After(0, "panics", func() { panic("boom") }))
	require.NoError(t, g.After(20*time.Millisecond, "after", func() { ran.Store(true) }))
	assert.Eventually(t, ran.Load, 2*time.Second, 10*time.Millisecond)
}
