package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryOptions configures WithRetry.
type RetryOptions struct {
	// MaxRetries is the number of retries after the first attempt. Default 5.
	MaxRetries uint64
	// Base is the first Fibonacci backoff step. Default 1s.
	Base time.Duration
}

// WithRetry wraps s so that Open, List and Put are retried with Fibonacci
// backoff while ShouldRetry reports the error as transient.
func WithRetry(s Store, opts RetryOptions) Store {
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 5
	}
	if opts.Base <= 0 {
		opts.Base = time.Second
	}
	return &retryStore{next: s, opts: opts}
}

// ShouldRetry reports whether the error is retryable (non-nil and not a known permanent failure).
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	// Context cancellations/timeouts are permanent from the caller's POV.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrNotFound) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, os.ErrInvalid) {
		return false
	}
	return true
}

type retryStore struct {
	next Store
	opts RetryOptions
}

func (r *retryStore) do(ctx context.Context, task func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(r.opts.MaxRetries, retry.NewFibonacci(r.opts.Base))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := task(ctx)
		if ShouldRetry(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (r *retryStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	err := r.do(ctx, func(ctx context.Context) error {
		var err error
		rc, err = r.next.Open(ctx, name)
		return err
	})
	return rc, err
}

func (r *retryStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := r.do(ctx, func(ctx context.Context) error {
		var err error
		names, err = r.next.List(ctx, prefix)
		return err
	})
	return names, err
}

func (r *retryStore) Put(ctx context.Context, name string, data []byte) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.next.Put(ctx, name, data)
	})
}
