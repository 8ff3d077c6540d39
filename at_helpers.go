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
	"encoding/binary"
	"fmt"
)

// WriteConfig saves the module's current settings to non-volatile memory (WR).
// Like the other setters here it waits for the module to accept the command.
func (d *Device) WriteConfig(ctx context.Context) error {
	if _, err := d.SendATCommandAndGetResponseContext(ctx, ATWrite, nil, 0); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyChanges makes queued setting changes take effect (AC)
func (d *Device) ApplyChanges(ctx context.Context) error {
	if _, err := d.SendATCommandAndGetResponseContext(ctx, ATApplyChanges, nil, 0); err != nil {
		return fmt.Errorf("apply changes: %w", err)
	}
	return nil
}

// SetAPIOptions sets the API output options byte (AO)
func (d *Device) SetAPIOptions(ctx context.Context, options byte) error {
	if _, err := d.SendATCommandAndGetResponseContext(ctx, ATAPIOptions, []byte{options}, 0); err != nil {
		return fmt.Errorf("set API options: %w", err)
	}
	return nil
}

// FirmwareVersion reads the firmware version (VR)
func (d *Device) FirmwareVersion(ctx context.Context) (uint32, error) {
	value, err := d.SendATCommandAndGetResponseContext(ctx, ATFirmware, nil, 0)
	if err != nil {
		return 0, fmt.Errorf("firmware version: %w", err)
	}
	if len(value) == 0 || len(value) > 4 {
		return 0, fmt.Errorf("firmware version of %d bytes: %w", len(value), ErrInvalidLength)
	}
	var buf [4]byte
	copy(buf[4-len(value):], value)
	return binary.BigEndian.Uint32(buf[:]), nil
}

// QueryUint reads a numeric register of up to 8 bytes, big-endian
func (d *Device) QueryUint(ctx context.Context, cmd ATCommand) (uint64, error) {
	value, err := d.SendATCommandAndGetResponseContext(ctx, cmd, nil, 0)
	if err != nil {
		return 0, err
	}
	if len(value) > 8 {
		return 0, fmt.Errorf("AT%s value of %d bytes: %w", cmd, len(value), ErrInvalidLength)
	}
	var buf [8]byte
	copy(buf[8-len(value):], value)
	return binary.BigEndian.Uint64(buf[:]), nil
}

// SetAndConfirm sends a setter command and waits for the module to accept it
func (d *Device) SetAndConfirm(ctx context.Context, cmd ATCommand, param []byte) error {
	if _, err := d.SendATCommandAndGetResponseContext(ctx, cmd, param, 0); err != nil {
		return fmt.Errorf("set AT%s: %w", cmd, err)
	}
	return nil
}
