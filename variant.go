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

import "context"

// Variant is the operation set a radio module family supplies. Device forwards
// its public calls here; the generic layer never inspects variant config or
// packet types.
type Variant interface {
	// Init runs after the port has been opened and flushed
	Init(ctx context.Context, d *Device) error

	// Configure stores a variant-defined configuration value
	Configure(config any) error

	// Connect applies the stored configuration and attaches to the network
	Connect(ctx context.Context, d *Device) error

	// Disconnect detaches from the network
	Disconnect(ctx context.Context, d *Device) error

	// SendData transmits a variant-defined packet
	SendData(ctx context.Context, d *Device, packet any) error

	// SoftReset restarts the module through a command
	SoftReset(ctx context.Context, d *Device) error

	// HardReset restarts the module through its reset line
	HardReset(ctx context.Context, d *Device) error

	// Connected queries the module's attach status. A module that does not
	// answer in time is reported as not connected, without an error.
	Connected(ctx context.Context, d *Device) (bool, error)

	// Process runs one receive-and-dispatch cycle
	Process(ctx context.Context, d *Device) error
}

// RxPacketHandler is implemented by variants that turn receive frames into
// their own packet type. Returning false falls through to the generic handler.
type RxPacketHandler interface {
	HandleRxPacket(d *Device, f Frame) bool
}

// TransmitStatusHandler is implemented by variants that track transmit status
// themselves. Returning false falls through to the generic handler.
type TransmitStatusHandler interface {
	HandleTransmitStatus(d *Device, status TxStatus) bool
}

// SocketStatusHandler receives unsolicited socket status frames.
type SocketStatusHandler interface {
	HandleSocketStatus(d *Device, socketID, status byte)
}

// Callbacks are invoked synchronously from inside Process and from any wait
// that pumps frames. They must not block.
type Callbacks struct {
	// OnReceive gets the variant's packet type, or RawPacket when no
	// variant hook claimed the frame.
	OnReceive func(d *Device, packet any)
	// OnSend gets every transmit status the generic handler sees.
	OnSend func(d *Device, status TxStatus)
}
