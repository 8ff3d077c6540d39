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
	"encoding/hex"

	"go.uber.org/zap"
)

// HandleFrame dispatches one decoded frame by type. Unknown types are logged
// and ignored.
func (d *Device) HandleFrame(f Frame) {
	switch {
	case f.Type == FrameTypeATResponse:
		d.handleATResponse(f)
	case f.Type == FrameTypeModemStatus:
		d.handleModemStatus(f)
	case f.Type == FrameTypeTxStatus, f.Type == FrameTypeLRExplicitTxStatus:
		d.handleTransmitStatus(f)
	case isReceiveFrame(f.Type):
		d.handleRxPacket(f)
	case isSocketResponse(f.Type):
		d.handleSocketResponse(f)
	case f.Type == FrameTypeSocketStatus:
		d.handleSocketStatus(f)
	default:
		d.logger.Debug("ignoring unknown frame", zap.Stringer("type", f.Type))
	}
}

// resolve completes the pending exchange when f answers it
func (d *Device) resolve(f Frame, frameID byte) {
	if d.pending == nil || !d.pending.matches(f.Type, frameID) {
		return
	}
	d.pending.frame = Frame{Type: f.Type, Data: append([]byte(nil), f.Data...)}
	d.pending.resolved = true
}

func (d *Device) handleATResponse(f Frame) {
	resp, ok := parseATResponse(f)
	if !ok {
		d.logger.Debug("malformed AT response", zap.String("data", hex.EncodeToString(f.Data)))
		return
	}

	if resp.Status != ATStatusOK {
		d.logger.Warn("AT command failed",
			zap.String("command", string(resp.Command)),
			zap.Stringer("status", resp.Status),
			zap.Uint8("frame_id", resp.FrameID))
	} else {
		d.logger.Debug("AT response",
			zap.String("command", string(resp.Command)),
			zap.Uint8("frame_id", resp.FrameID),
			zap.String("value", hex.EncodeToString(resp.Value)))
	}

	d.resolve(f, resp.FrameID)
}

func (d *Device) handleModemStatus(f Frame) {
	if len(f.Data) < 1 {
		return
	}
	d.modemStatus = ModemStatus(f.Data[0])
	d.hasModem = true
	d.logger.Debug("modem status", zap.Uint8("status", f.Data[0]))
}

func (d *Device) handleTransmitStatus(f Frame) {
	status, ok := parseTxStatus(f)
	if !ok {
		d.logger.Debug("malformed transmit status", zap.String("data", hex.EncodeToString(f.Data)))
		return
	}
	d.resolve(f, status.FrameID)

	if hook, ok := d.variant.(TransmitStatusHandler); ok && hook.HandleTransmitStatus(d, status) {
		return
	}

	d.RecordTxStatus(status)
	if !status.OK() {
		d.logger.Warn("transmit failed", zap.Uint8("frame_id", status.FrameID), zap.Uint8("status", byte(status.Status)))
	}
	if d.callbacks.OnSend != nil {
		d.callbacks.OnSend(d, status)
	}
}

func (d *Device) handleRxPacket(f Frame) {
	if hook, ok := d.variant.(RxPacketHandler); ok && hook.HandleRxPacket(d, f) {
		return
	}
	if d.callbacks.OnReceive != nil {
		d.callbacks.OnReceive(d, RawPacket{Type: f.Type, Payload: f.Data})
	}
}

func (d *Device) handleSocketResponse(f Frame) {
	resp, ok := ParseSocketResponse(f)
	if !ok {
		d.logger.Debug("malformed socket response", zap.Stringer("type", f.Type))
		return
	}
	d.logger.Debug("socket response",
		zap.Stringer("type", f.Type),
		zap.Uint8("frame_id", resp.FrameID),
		zap.Uint8("socket", resp.SocketID),
		zap.Uint8("status", resp.Status))
	d.resolve(f, resp.FrameID)
}

func (d *Device) handleSocketStatus(f Frame) {
	if len(f.Data) < 2 {
		return
	}
	if hook, ok := d.variant.(SocketStatusHandler); ok {
		hook.HandleSocketStatus(d, f.Data[0], f.Data[1])
	}
}
