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
	"errors"
	"time"

	"go.uber.org/zap"
)

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithLogger sets the logger. The device names it "xbee" and tags every entry
// with the device ID.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Device) error {
		if logger == nil {
			return errors.New("nil logger")
		}
		d.logger = logger.Named("xbee").With(zap.String("device", d.id.String()))
		return nil
	}
}

// WithCallbacks sets the receive and transmit-status callbacks
func WithCallbacks(callbacks Callbacks) Option {
	return func(d *Device) error {
		d.callbacks = callbacks
		return nil
	}
}

// WithReadTimeout sets how long each receive phase may stall
func WithReadTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		if timeout <= 0 {
			return ErrInvalidArgument
		}
		d.config.ReadTimeout = timeout
		return nil
	}
}

// WithATTimeout sets the default wait for AT command responses
func WithATTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		if timeout <= 0 {
			return ErrInvalidArgument
		}
		d.config.ATTimeout = timeout
		return nil
	}
}

// WithAttachPolicy sets the attach poll count and interval
func WithAttachPolicy(policy AttachPolicy) Option {
	return func(d *Device) error {
		if policy.Attempts < 1 || policy.Interval < 0 {
			return ErrInvalidArgument
		}
		d.config.Attach = policy
		return nil
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(recorder MetricsRecorder) Option {
	return func(d *Device) error {
		if recorder == nil {
			return errors.New("nil metrics recorder")
		}
		d.metrics = recorder
		return nil
	}
}

// WithResetPin attaches a hardware reset line for HardReset
func WithResetPin(pin ResetPin) Option {
	return func(d *Device) error {
		d.resetPin = pin
		return nil
	}
}

// WithOwnedPort makes Close also close the port when it implements io.Closer
func WithOwnedPort() Option {
	return func(d *Device) error {
		d.ownsPort = true
		return nil
	}
}
