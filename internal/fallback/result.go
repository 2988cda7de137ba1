// Package fallback marks where a value came from so callers never mistake a static
// placeholder for live data.
package fallback

import (
	"context"
	"time"
)

type Source string

const (
	SourceLive     Source = "live"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// Result wraps a value with its provenance. Reason is set only for fallback values.
type Result[T any] struct {
	Data      T         `json:"data"`
	Source    Source    `json:"source"`
	Reason    string    `json:"reason,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

func Live[T any](v T) Result[T] {
	return Result[T]{Data: v, Source: SourceLive, FetchedAt: time.Now().UTC()}
}

// Cached re-labels a previously live result, keeping its original fetch time.
func Cached[T any](r Result[T]) Result[T] {
	if r.Source == SourceLive {
		r.Source = SourceCache
	}
	return r
}

func Fallback[T any](v T, reason string) Result[T] {
	return Result[T]{Data: v, Source: SourceFallback, Reason: reason, FetchedAt: time.Now().UTC()}
}

func (r Result[T]) IsFallback() bool { return r.Source == SourceFallback }

// Fetch runs fn and returns its value as live data. On error it returns static
// labelled as fallback, with the error text as the reason.
func Fetch[T any](ctx context.Context, fn func(context.Context) (T, error), static T) Result[T] {
	v, err := fn(ctx)
	if err != nil {
		return Fallback(static, err.Error())
	}
	return Live(v)
}
