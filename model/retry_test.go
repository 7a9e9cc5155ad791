package model

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyPort fails with err until the given number of calls have happened.
type flakyPort struct {
	calls    atomic.Int64
	failures int64
	err      error
}

func (p *flakyPort) Invoke(_ context.Context, prompt Prompt, _ Options) (*Response, error) {
	if p.calls.Add(1) <= p.failures {
		return nil, p.err
	}
	return &Response{Text: "ok"}, nil
}

func TestWithRetry_RecoversFromTransientErrors(t *testing.T) {
	inner := &flakyPort{failures: 2, err: errors.New("429 rate limit exceeded")}
	port := WithRetry(inner, func(o *RetryOptions) {
		o.InitialDelay = time.Millisecond
	})

	resp, err := port.Invoke(context.Background(), Prompt{User: "hi"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int64(3), inner.calls.Load())
}

func TestWithRetry_PermanentErrorNotRetried(t *testing.T) {
	inner := &flakyPort{failures: 10, err: errors.New("invalid api key")}
	port := WithRetry(inner, func(o *RetryOptions) {
		o.InitialDelay = time.Millisecond
	})

	_, err := port.Invoke(context.Background(), Prompt{User: "hi"}, Options{})
	require.Error(t, err)
	assert.Equal(t, int64(1), inner.calls.Load())
}

func TestWithRetry_ExhaustsRetries(t *testing.T) {
	inner := &flakyPort{failures: 10, err: errors.New("model overloaded")}
	port := WithRetry(inner, func(o *RetryOptions) {
		o.MaxRetries = 2
		o.InitialDelay = time.Millisecond
	})

	_, err := port.Invoke(context.Background(), Prompt{User: "hi"}, Options{})
	require.Error(t, err)
	assert.Equal(t, int64(3), inner.calls.Load())
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.True(t, IsTransient(errors.New("429 Too Many Requests")))
	assert.True(t, IsTransient(errors.New("service unavailable")))
	assert.False(t, IsTransient(errors.New("invalid request")))
	assert.False(t, IsTransient(nil))
}
