package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	var transitions []string
	cb := NewCircuitBreaker("tts", Config{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          10 * time.Second,
		Now:              clock.Now,
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	fail := func(context.Context) error { return errors.New("503") }
	ok := func(context.Context) error { return nil }
	ctx := context.Background()

	assert.Error(t, cb.Execute(ctx, fail))
	assert.Equal(t, StateClosed, cb.State())
	assert.Error(t, cb.Execute(ctx, fail))
	assert.Equal(t, StateOpen, cb.State())

	assert.ErrorIs(t, cb.Execute(ctx, ok), ErrCircuitOpen)

	clock.now = clock.now.Add(11 * time.Second)
	assert.Equal(t, StateHalfOpen, cb.State())
	assert.NoError(t, cb.Execute(ctx, ok))
	assert.Equal(t, StateClosed, cb.State())

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestBreakerIgnoresCancellationAndFilteredErrors(t *testing.T) {
	notCounted := errors.New("bad input")
	cb := NewCircuitBreaker("llm", Config{
		FailureThreshold: 1,
		IsFailure:        func(err error) bool { return !errors.Is(err, notCounted) },
	})

	ctx := context.Background()
	_ = cb.Execute(ctx, func(context.Context) error { return context.Canceled })
	_ = cb.Execute(ctx, func(context.Context) error { return notCounted })

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(2), cb.Counts().TotalSuccesses)
}

func TestBreakerHalfOpenLimitsTrialRequests(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	cb := NewCircuitBreaker("website", Config{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		MaxRequests:      1,
		Timeout:          time.Second,
		Now:              clock.Now,
	})
	ctx := context.Background()

	_ = cb.Execute(ctx, func(context.Context) error { return errors.New("down") })
	clock.now = clock.now.Add(2 * time.Second)

	assert.NoError(t, cb.Execute(ctx, func(context.Context) error { return nil }))
	assert.ErrorIs(t, cb.Execute(ctx, func(context.Context) error { return nil }), ErrTooManyRequests)
}
