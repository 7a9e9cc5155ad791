package model

import (
	"context"
	"errors"
	"strings"
	"time"
)

// RetryOptions configures the retry/timeout decorator.
type RetryOptions struct {
	// MaxRetries is the number of re-attempts after the initial call.
	MaxRetries int
	// InitialDelay is doubled after every failed attempt.
	InitialDelay time.Duration
	// Timeout bounds the wall clock of each individual attempt. Zero disables
	// the per-attempt deadline.
	Timeout time.Duration
}

// RetryPort decorates an inner Port with a per-attempt timeout and
// exponential backoff on transient failures. Permanent failures are returned
// immediately; the step above remains retryable either way.
type RetryPort struct {
	inner Port
	opts  RetryOptions
}

// WithRetry wraps a port with the default policy (3 retries, 1s initial
// delay, 60s per-attempt timeout) unless overridden.
func WithRetry(inner Port, optFns ...func(o *RetryOptions)) *RetryPort {
	opts := RetryOptions{
		MaxRetries:   3,
		InitialDelay: time.Second,
		Timeout:      60 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &RetryPort{inner: inner, opts: opts}
}

// Invoke implements Port.
func (r *RetryPort) Invoke(ctx context.Context, prompt Prompt, opts Options) (*Response, error) {
	var lastErr error
	delay := r.opts.InitialDelay
	for attempt := 0; attempt <= r.opts.MaxRetries; attempt++ {
		resp, err := r.invokeOnce(ctx, prompt, opts)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil || !IsTransient(err) || attempt == r.opts.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, lastErr
}

func (r *RetryPort) invokeOnce(ctx context.Context, prompt Prompt, opts Options) (*Response, error) {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}
	return r.inner.Invoke(ctx, prompt, opts)
}

// IsTransient reports whether an invocation error is worth retrying:
// deadline expiry, rate limiting or temporary unavailability.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"rate limit", "timeout", "unavailable", "429", "503", "overloaded"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
