// Package ratelimit counts requests per client in fixed windows.
package ratelimit

import (
	"context"
	"errors"
)

type Limiter interface {
	// Allow records one hit for key and reports whether it is within the
	// limit of the current window.
	Allow(ctx context.Context, key string) (bool, error)
}

var ErrInvalidLimit = errors.New("limit must be positive")
