package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DeafMist/tokenlab/internal/logger"
	"github.com/DeafMist/tokenlab/internal/tokenize"
)

// ErrSkipped marks work that was not started or not finished because the
// run was cancelled.
var ErrSkipped = errors.New("analysis: skipped")

// DefaultTimeout bounds a single adapter call.
const DefaultTimeout = 2 * time.Minute

type options struct {
	workers int
	timeout time.Duration
	log     *slog.Logger
}

// Option tunes a comparison run.
type Option func(*options)

// WithWorkers bounds the number of concurrent tasks.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithTimeout bounds each adapter call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the run logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		workers: runtime.GOMAXPROCS(0),
		timeout: DefaultTimeout,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// forEach runs fn(i) for every i in [0, n) over a bounded pool and returns
// one error slot per index. Panics become errors; indices that were never
// scheduled because ctx ended carry ErrSkipped.
func (o options) forEach(ctx context.Context, n int, fn func(i int) error) []error {
	errs := make([]error, n)
	var g errgroup.Group
	g.SetLimit(o.workers)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			for j := i; j < n; j++ {
				errs[j] = fmt.Errorf("%w: %v", ErrSkipped, err)
			}
			break
		}
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("panic: %v", r)
				}
			}()
			errs[i] = fn(i)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// tokenize calls a under the per-call timeout. An adapter that overruns is
// abandoned and reported as unavailable. When the run context itself ends
// the call is reported as ErrSkipped instead.
func (o options) tokenize(ctx context.Context, a tokenize.Adapter, text string) ([]string, time.Duration, error) {
	callCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	type result struct {
		tokens []string
		err    error
	}
	done := make(chan result, 1)
	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%s panicked: %v", a.Name(), r)}
			}
		}()
		toks, err := a.Tokenize(callCtx, text)
		done <- result{tokens: toks, err: err}
	}()

	select {
	case r := <-done:
		elapsed := time.Since(start)
		if r.err != nil && (errors.Is(r.err, context.DeadlineExceeded) || errors.Is(r.err, context.Canceled)) {
			return nil, elapsed, o.interrupted(ctx, a, r.err)
		}
		return r.tokens, elapsed, r.err
	case <-callCtx.Done():
		return nil, time.Since(start), o.interrupted(ctx, a, callCtx.Err())
	}
}

// interrupted classifies a call that ended with its context.
func (o options) interrupted(ctx context.Context, a tokenize.Adapter, cause error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSkipped, a.Name(), err)
	}
	return fmt.Errorf("%w: %s: %v", tokenize.ErrUnavailable, a.Name(), cause)
}
