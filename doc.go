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

/*
Package xbee provides a pure Go host-side driver for Digi XBee radio modules
running in API mode.

The module and the host exchange binary API frames over a serial link. This
package implements the protocol engine: frame encoding and decoding with
checksum validation, AT command correlation with timeouts, asynchronous frame
dispatch, the network attach state machine, and a variant abstraction that
lets different module families share one call surface.

Features:
  - API frame codec (start delimiter, big-endian length, checksum, no escaping)
  - AT commands with frame ID correlation and bounded waits
  - Unsolicited frames (modem status, receive packets) dispatched while waiting
  - XBee 3 Cellular variant with extended socket sessions (package cellular)
  - XBee LR LoRaWAN variant (package lr)
  - UART transport and serial port discovery
  - Prometheus metrics and zap logging

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-xbee/cellular"
	    "github.com/ZaparooProject/go-xbee/transport/uart"
	)

	port := uart.New()
	modem, err := cellular.New(port)
	if err != nil {
	    return err
	}
	if err := modem.Init(115200, "/dev/ttyUSB0"); err != nil {
	    return err
	}
	if err := modem.Configure(cellular.Config{APN: "hologram"}); err != nil {
	    return err
	}
	if err := modem.Connect(); err != nil {
	    return err
	}

	for {
	    if err := modem.Process(); err != nil {
	        log.Println(err)
	    }
	}

Error Handling:

Errors match one of a small set of categories with errors.Is:

	if errors.Is(err, xbee.ErrTimeout) {
	    // no response in time
	}
	if errors.Is(err, xbee.ErrDeviceRejected) {
	    var atErr *xbee.ATError
	    if errors.As(err, &atErr) {
	        // atErr.Status
	    }
	}

Thread Safety:

Device operations are not thread-safe. Use polling.DeviceActor to drive a
device from one goroutine and submit work to it from others.
*/
package xbee
