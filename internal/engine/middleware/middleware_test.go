package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	domainerrors "notebook/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bag struct {
	trail []string
}

func record(label string) Handler {
	return func(_ context.Context, data any, next Next, _ Done) {
		b := data.(*bag)
		b.trail = append(b.trail, label)
		next(nil, nil)
	}
}

func TestTriggerRunsPluginsThenCore(t *testing.T) {
	d := New()
	require.NoError(t, d.Core("hook", func(_ context.Context, data any, _ Next, done Done) {
		b := data.(*bag)
		b.trail = append(b.trail, "core")
		done(nil, len(b.trail))
	}))
	_, err := d.Use("hook", record("first"))
	require.NoError(t, err)
	_, err = d.Use("hook", record("second"))
	require.NoError(t, err)

	data := &bag{}
	out, err := d.Trigger(context.Background(), "hook", data)
	require.NoError(t, err)
	assert.Equal(t, 3, out)
	assert.Equal(t, []string{"first", "second", "core"}, data.trail)
}

func TestDoneShortCircuits(t *testing.T) {
	d := New()
	coreCalled := false
	require.NoError(t, d.Core("hook", func(_ context.Context, _ any, _ Next, done Done) {
		coreCalled = true
		done(nil, nil)
	}))
	_, err := d.Use("hook", func(_ context.Context, _ any, _ Next, done Done) {
		done(nil, "early")
	})
	require.NoError(t, err)

	out, err := d.Trigger(context.Background(), "hook", &bag{})
	require.NoError(t, err)
	assert.Equal(t, "early", out)
	assert.False(t, coreCalled)
}

func TestNextErrorShortCircuits(t *testing.T) {
	d := New()
	require.NoError(t, d.Core("hook", func(_ context.Context, _ any, _ Next, done Done) {
		t.Fatal("core should not run")
	}))
	boom := errors.New("boom")
	_, err := d.Use("hook", func(_ context.Context, _ any, next Next, _ Done) {
		next(boom, nil)
	})
	require.NoError(t, err)

	_, err = d.Trigger(context.Background(), "hook", &bag{})
	assert.ErrorIs(t, err, boom)
}

func TestExhaustedStackResolvesWithLastValue(t *testing.T) {
	d := New()
	_, err := d.Use("plugins-only", func(_ context.Context, _ any, next Next, _ Done) {
		next(nil, "passed")
	})
	require.NoError(t, err)

	out, err := d.Trigger(context.Background(), "plugins-only", nil)
	require.NoError(t, err)
	assert.Equal(t, "passed", out)
}

func TestDetach(t *testing.T) {
	d := New()
	require.NoError(t, d.Core("hook", func(_ context.Context, data any, _ Next, done Done) {
		done(nil, data.(*bag).trail)
	}))
	detach, err := d.Use("hook", record("plugin"))
	require.NoError(t, err)

	out, err := d.Trigger(context.Background(), "hook", &bag{})
	require.NoError(t, err)
	assert.Equal(t, []string{"plugin"}, out)

	detach()
	out, err = d.Trigger(context.Background(), "hook", &bag{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestUnknownHook(t *testing.T) {
	_, err := New().Trigger(context.Background(), "missing", nil)
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotFound))
}

func TestCoreRegistrationRules(t *testing.T) {
	d := New()
	noop := func(_ context.Context, _ any, _ Next, done Done) { done(nil, nil) }

	assert.Error(t, d.Core("", noop))
	assert.Error(t, d.Core("hook", nil))
	require.NoError(t, d.Core("hook", noop))
	assert.Error(t, d.Core("hook", noop))

	_, err := d.Use("", noop)
	assert.Error(t, err)
	_, err = d.Use("other", noop)
	require.NoError(t, err)

	assert.Equal(t, []string{"hook", "other"}, d.Hooks())
}

func TestAsyncCompletion(t *testing.T) {
	d := New()
	require.NoError(t, d.Core("async", func(_ context.Context, _ any, _ Next, done Done) {
		go func() {
			time.Sleep(10 * time.Millisecond)
			done(nil, "later")
		}()
	}))

	out, err := d.Trigger(context.Background(), "async", nil)
	require.NoError(t, err)
	assert.Equal(t, "later", out)
}

func TestContextCancellation(t *testing.T) {
	d := New()
	require.NoError(t, d.Core("stuck", func(context.Context, any, Next, Done) {}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := d.Trigger(ctx, "stuck", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPanicBecomesError(t *testing.T) {
	d := New()
	require.NoError(t, d.Core("panics", func(context.Context, any, Next, Done) {
		panic("bad handler")
	}))

	_, err := d.Trigger(context.Background(), "panics", nil)
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeInternal))
}

func TestSecondCompletionIgnored(t *testing.T) {
	d := New()
	require.NoError(t, d.Core("twice", func(_ context.Context, _ any, _ Next, done Done) {
		done(nil, "first")
		done(errors.New("ignored"), "second")
	}))

	out, err := d.Trigger(context.Background(), "twice", nil)
	require.NoError(t, err)
	assert.Equal(t, "first", out)
}
