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

	"go.uber.org/zap"
)

// InitContext opens the port, flushes stale input and initializes the variant.
// A port that fails to open leaves the handle unusable.
func (d *Device) InitContext(ctx context.Context, baud int, device string) error {
	if d.closed {
		return ErrClosed
	}
	if baud <= 0 {
		baud = DefaultBaudRate
	}

	if err := d.port.Init(baud, device); err != nil {
		d.initFailed = true
		return NewTransportError("init", device, fmt.Errorf("%w: %w", ErrPortInit, err), ErrorTypePermanent)
	}
	d.initFailed = false

	if err := d.port.FlushRx(); err != nil {
		d.logger.Warn("failed to flush receive buffer", zap.Error(err))
	}

	if err := d.variant.Init(ctx, d); err != nil {
		return fmt.Errorf("variant init: %w", err)
	}

	d.logger.Debug("device initialized", zap.Int("baud", baud), zap.String("port", device))
	return nil
}

// ConnectContext attaches the module to its network
func (d *Device) ConnectContext(ctx context.Context) error {
	if err := d.checkUsable(); err != nil {
		return err
	}
	return d.variant.Connect(ctx, d)
}

// DisconnectContext detaches the module from its network
func (d *Device) DisconnectContext(ctx context.Context) error {
	if err := d.checkUsable(); err != nil {
		return err
	}
	if err := d.variant.Disconnect(ctx, d); err != nil {
		return err
	}
	d.attachState = AttachIdle
	return nil
}

// SendDataContext transmits a variant-defined packet
func (d *Device) SendDataContext(ctx context.Context, packet any) error {
	if err := d.checkUsable(); err != nil {
		return err
	}
	return d.variant.SendData(ctx, d, packet)
}

// SoftResetContext restarts the module by command
func (d *Device) SoftResetContext(ctx context.Context) error {
	if err := d.checkUsable(); err != nil {
		return err
	}
	if err := d.variant.SoftReset(ctx, d); err != nil {
		return err
	}
	d.attachState = AttachIdle
	return nil
}

// HardResetContext restarts the module through its reset line
func (d *Device) HardResetContext(ctx context.Context) error {
	if err := d.checkUsable(); err != nil {
		return err
	}
	return d.variant.HardReset(ctx, d)
}

// ConnectedContext reports whether the module is attached
func (d *Device) ConnectedContext(ctx context.Context) (bool, error) {
	if err := d.checkUsable(); err != nil {
		return false, err
	}
	return d.variant.Connected(ctx, d)
}

// ProcessContext runs one receive-and-dispatch cycle through the variant
func (d *Device) ProcessContext(ctx context.Context) error {
	if err := d.checkUsable(); err != nil {
		return err
	}
	return d.variant.Process(ctx, d)
}
