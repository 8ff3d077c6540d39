// go-xbee
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-xbee.
//
// go-xbee is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-xbee is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-xbee; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package retry provides bounded retry and deadline polling helpers shared by
// the device layer and its variants
package retry

import (
	"context"
	"errors"
	"time"
)

// Retry errors
var (
	ErrExhausted = errors.New("retries exhausted")
	ErrDeadline  = errors.New("deadline exceeded")
)

// Clock is the time source used for deadlines and delays. xbee.Port satisfies it.
type Clock interface {
	Millis() int64
	Delay(d time.Duration)
}

// Operation represents a function that can be retried
// Returns: data, shouldRetry, error
// - data: the result if successful
// - shouldRetry: true if the operation should be retried
// - error: any permanent error that should stop retries
type Operation[T any] func(ctx context.Context) (T, bool, error)

// Config configures bounded retry behavior
type Config struct {
	// OnRetry runs before each delay. A non-nil error stops the loop.
	OnRetry     func(attempt int) error
	Clock       Clock
	Description string
	// Attempts is the total number of times the operation runs.
	Attempts int
	Delay    time.Duration
}

// WithRetry runs operation up to config.Attempts times, sleeping config.Delay on
// config.Clock between attempts but never after the last one. It returns as soon
// as the operation reports success or a permanent error.
func WithRetry[T any](ctx context.Context, config Config, operation Operation[T]) (T, error) {
	var zero T

	for attempt := 1; attempt <= config.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, shouldRetry, err := operation(ctx)
		if err != nil {
			return zero, err
		}
		if !shouldRetry {
			return result, nil
		}

		if attempt == config.Attempts {
			break
		}

		if config.OnRetry != nil {
			if err := config.OnRetry(attempt); err != nil {
				return zero, err
			}
		}

		if config.Delay > 0 && config.Clock != nil {
			config.Clock.Delay(config.Delay)
		}
	}

	return zero, ErrExhausted
}

// Until polls operation until it succeeds, fails permanently or the deadline
// passes. The deadline is computed once from clock at entry. When an attempt
// consumes no clock time the loop yields with a 1ms delay.
func Until[T any](ctx context.Context, clock Clock, timeout time.Duration, operation Operation[T]) (T, error) {
	var zero T
	deadline := clock.Millis() + timeout.Milliseconds()

	for clock.Millis() < deadline {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		before := clock.Millis()
		result, shouldRetry, err := operation(ctx)
		if err != nil {
			return zero, err
		}
		if !shouldRetry {
			return result, nil
		}

		if clock.Millis() == before {
			clock.Delay(time.Millisecond)
		}
	}

	return zero, ErrDeadline
}

// Remaining returns the time left until deadline, or zero once it has passed.
func Remaining(clock Clock, deadline int64) time.Duration {
	left := deadline - clock.Millis()
	if left <= 0 {
		return 0
	}
	return time.Duration(left) * time.Millisecond
}
