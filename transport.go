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
	"fmt"
	"time"
)

// Port is the byte-level serial link a Device talks through. It can be backed
// by a real UART (see transport/uart) or by a test double.
//
// Read must not block indefinitely: returning (0, nil) when no byte is ready
// is expected, and the device polls with Delay between empty reads.
type Port interface {
	// Init opens the link at the given baud rate on the named device
	Init(baud int, device string) error

	// Read copies available bytes into p
	Read(p []byte) (int, error)

	// Write sends p, returning the number of bytes accepted
	Write(p []byte) (int, error)

	// FlushRx discards any buffered receive bytes
	FlushRx() error

	// Millis returns a monotonic millisecond clock
	Millis() int64

	// Delay blocks for d
	Delay(d time.Duration)
}

// ResetPin drives the module's hardware reset line.
type ResetPin interface {
	// Pulse asserts reset, holds it, and releases it
	Pulse(ctx context.Context) error
}

// portName returns a human readable name for errors and logs
func portName(p Port) string {
	if s, ok := p.(fmt.Stringer); ok {
		return s.String()
	}
	return "port"
}
