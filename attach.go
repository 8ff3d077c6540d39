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

package xbee

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-xbee/internal/retry"
	"go.uber.org/zap"
)

// AttachState is a network attach state machine state
type AttachState int

// Attach states
const (
	AttachIdle AttachState = iota
	AttachConfigApplied
	AttachPolling
	AttachAttached
	AttachFailed
)

// String returns the state name
func (s AttachState) String() string {
	switch s {
	case AttachIdle:
		return "idle"
	case AttachConfigApplied:
		return "config_applied"
	case AttachPolling:
		return "polling"
	case AttachAttached:
		return "attached"
	case AttachFailed:
		return "attach_failed"
	default:
		return fmt.Sprintf("AttachState(%d)", int(s))
	}
}

// AttachPolicy bounds the attach poll loop
type AttachPolicy struct {
	// Attempts is the total number of status polls
	Attempts int
	// Interval is the delay between polls, taken with Port.Delay
	Interval time.Duration
}

// DefaultAttachPolicy polls 20 times, one second apart
func DefaultAttachPolicy() AttachPolicy {
	return AttachPolicy{Attempts: 20, Interval: time.Second}
}

// Attach runs the attach state machine: apply the configuration, then poll
// until the module reports attached or the policy's attempts are spent. The
// first successful poll returns immediately. There is no delay after the last
// poll. Exhaustion fails with ErrAttachFailed and is not retried here.
func (d *Device) Attach(
	ctx context.Context,
	apply func(ctx context.Context) error,
	poll func(ctx context.Context) (bool, error),
) error {
	if err := d.checkUsable(); err != nil {
		return err
	}
	if poll == nil {
		return fmt.Errorf("attach poll: %w", ErrInvalidArgument)
	}

	d.attachState = AttachIdle
	if apply != nil {
		if err := apply(ctx); err != nil {
			d.attachState = AttachFailed
			return fmt.Errorf("apply network config: %w", err)
		}
	}
	d.attachState = AttachConfigApplied

	policy := d.config.Attach
	d.attachState = AttachPolling
	d.logger.Debug("polling attach status", zap.Int("attempts", policy.Attempts), zap.Duration("interval", policy.Interval))

	_, err := retry.WithRetry(ctx, retry.Config{
		Attempts:    policy.Attempts,
		Delay:       policy.Interval,
		Clock:       d.port,
		Description: "attach",
		OnRetry: func(attempt int) error {
			d.logger.Debug("not attached yet", zap.Int("attempt", attempt))
			return nil
		},
	}, func(ctx context.Context) (struct{}, bool, error) {
		attached, err := poll(ctx)
		if err != nil {
			return struct{}{}, false, err
		}
		return struct{}{}, !attached, nil
	})

	if err != nil {
		d.attachState = AttachFailed
		if errors.Is(err, retry.ErrExhausted) {
			d.logger.Warn("network attach failed", zap.Int("attempts", policy.Attempts))
			return ErrAttachFailed
		}
		return fmt.Errorf("attach poll: %w", err)
	}

	d.attachState = AttachAttached
	d.logger.Info("attached to network")
	return nil
}
