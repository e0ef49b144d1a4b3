package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func fastPolicy() Policy {
	return Policy{MaxAttempts: 3, Delay: time.Millisecond, Multiplier: 1}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastPolicy(), "fetch", func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errFlaky
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDo_Exhausted(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(), "fetch page 2", func(ctx context.Context) (int, error) {
		calls++
		return 0, errFlaky
	})

	assert.Equal(t, 3, calls)
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, 3, fatal.Attempts)
	assert.Equal(t, "fetch page 2", fatal.Op)
	assert.ErrorIs(t, err, errFlaky)
}

func TestDo_Permanent(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(), "fetch", func(ctx context.Context) (int, error) {
		calls++
		return 0, Permanent(errFlaky)
	})

	assert.Equal(t, 1, calls)
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, 1, fatal.Attempts)
	assert.ErrorIs(t, err, errFlaky)
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, Policy{MaxAttempts: 5, Delay: time.Hour}, "fetch", func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errFlaky
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
	var fatal *FatalError
	assert.False(t, errors.As(err, &fatal))
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{}, "fetch", func(ctx context.Context) (int, error) {
		calls++
		return 0, errFlaky
	})
	assert.Equal(t, 1, calls)
	assert.Error(t, err)
}

func TestPolicy_Backoff(t *testing.T) {
	fixed := DefaultPolicy()
	assert.Equal(t, 5*time.Second, fixed.Backoff(1))
	assert.Equal(t, 5*time.Second, fixed.Backoff(3))

	exp := Policy{Delay: time.Second, Multiplier: 2, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, exp.Backoff(1))
	assert.Equal(t, 2*time.Second, exp.Backoff(2))
	assert.Equal(t, 4*time.Second, exp.Backoff(3))
	assert.Equal(t, 5*time.Second, exp.Backoff(4))
}
