package rewrite

import (
	"context"
	"errors"
)

// #region constants

// DefaultMaxRetries allows 2 retries, so 3 attempts in total.
const DefaultMaxRetries = 2

// #endregion

// #region retry

// Retrying wraps a Rewriter and repeats calls whose reply could not be
// parsed. Transport and context errors are returned as is.
type Retrying struct {
	next       Rewriter
	maxRetries int
}

// WithRetry wraps next. maxRetries < 0 means DefaultMaxRetries.
func WithRetry(next Rewriter, maxRetries int) *Retrying {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Retrying{next: next, maxRetries: maxRetries}
}

// Rewrite implements Rewriter.
func (r *Retrying) Rewrite(ctx context.Context, req Request) ([]Update, error) {
	var err error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		var updates []Update
		updates, err = r.next.Rewrite(ctx, req)
		if !shouldRetry(ctx, err) {
			return updates, err
		}
	}
	return nil, err
}

func shouldRetry(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	return errors.Is(err, ErrMalformed)
}

// #endregion
