package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func TestDoSucceedsAfterRetry(t *testing.T) {
	var retried []int
	got, attempts, err := Do(context.Background(), Fixed(2, 0), func(ctx context.Context, attempt int) (string, error) {
		if attempt < 2 {
			return "", errTransient
		}
		return "ok", nil
	}, WithOnRetry(func(attempt int, err error) { retried = append(retried, attempt) }))

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, []int{1}, retried)
}

func TestDoExhaustsBudget(t *testing.T) {
	calls := 0
	_, attempts, err := Do(context.Background(), Fixed(1, time.Millisecond), func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 2, calls)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	_, attempts, err := Do(context.Background(), Fixed(5, 0), func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, fatal
	}, WithRetryIf(func(err error) bool { return errors.Is(err, errTransient) }))

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestDoHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, _, err := Do(ctx, Fixed(3, time.Hour), func(ctx context.Context, attempt int) (int, error) {
		calls++
		cancel()
		return 0, errTransient
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestPolicyDelay(t *testing.T) {
	p := Exponential(4, 100*time.Millisecond, 300*time.Millisecond)
	assert.Equal(t, 5, p.Attempts())
	assert.Equal(t, 100*time.Millisecond, p.Delay(1))
	assert.Equal(t, 200*time.Millisecond, p.Delay(2))
	assert.Equal(t, 300*time.Millisecond, p.Delay(3))

	assert.Equal(t, 1, Policy{}.Attempts())
	assert.Equal(t, time.Duration(0), Policy{}.Delay(1))
	assert.Equal(t, 50*time.Millisecond, Fixed(1, 50*time.Millisecond).Delay(3))
}
