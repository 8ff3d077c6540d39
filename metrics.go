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
)

// AT command results reported to MetricsRecorder
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultTimeout  = "timeout"
	ResultError    = "error"
)

// MetricsRecorder receives protocol events. The metrics package provides a
// Prometheus implementation.
type MetricsRecorder interface {
	FrameSent(t FrameType)
	FrameReceived(t FrameType)
	FrameError(kind string)
	ATCommandCompleted(cmd ATCommand, result string, elapsed time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) FrameSent(FrameType)                                 {}
func (nopMetrics) FrameReceived(FrameType)                             {}
func (nopMetrics) FrameError(string)                                   {}
func (nopMetrics) ATCommandCompleted(ATCommand, string, time.Duration) {}

// frameErrorKind maps a receive error to a metric label
func frameErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsFramingError(err):
		switch {
		case errors.Is(err, ErrChecksumMismatch):
			return "checksum"
		case errors.Is(err, ErrInvalidDelimiter):
			return "delimiter"
		default:
			return "length"
		}
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "transport"
	}
}
