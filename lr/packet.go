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

package lr

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	xbee "github.com/ZaparooProject/go-xbee"
	"go.uber.org/zap"
)

// MaxPayload is the largest uplink payload one frame can carry
const MaxPayload = 252

// Delivery statuses the LR module reports for uplinks
const (
	DeliveryAckFailed    xbee.DeliveryStatus = 0x01
	DeliveryNotConnected xbee.DeliveryStatus = 0x22
)

// Packet is both the SendData argument and what OnReceive gets for downlinks.
// RSSI, SNR and Counter are only filled for explicit receive frames.
type Packet struct {
	Payload []byte
	Counter uint32
	Port    byte
	// Ack requests a confirmed uplink
	Ack      bool
	RSSI     int8
	SNR      int8
	Explicit bool
}

// SendData transmits a *Packet or Packet as an uplink and returns once the
// frame is written. Delivery is reported through OnSend and LastTxStatus.
func (*variant) SendData(ctx context.Context, d *xbee.Device, packet any) error {
	body, err := uplinkBody(packet)
	if err != nil {
		return err
	}
	_, err = d.SendFrameWithID(ctx, xbee.FrameTypeLRTxRequest, body)
	return err
}

// SendAndWait transmits an uplink and waits for its transmit status. A
// non-zero status fails with *xbee.DeliveryError. Confirmed uplinks can take
// several seconds; the wait is bounded by SetTxStatusTimeout.
func (m *Modem) SendAndWait(ctx context.Context, packet any) error {
	body, err := uplinkBody(packet)
	if err != nil {
		return err
	}
	f, err := m.Exchange(ctx, xbee.FrameTypeLRTxRequest, body, m.v.txTimeout,
		xbee.FrameTypeTxStatus, xbee.FrameTypeLRExplicitTxStatus)
	if err != nil {
		if errors.Is(err, xbee.ErrTimeout) {
			return fmt.Errorf("uplink transmit status: %w", err)
		}
		return err
	}
	if len(f.Data) < 2 {
		return fmt.Errorf("transmit status of %d bytes: %w", len(f.Data), xbee.ErrInvalidLength)
	}
	if status := xbee.DeliveryStatus(f.Data[1]); status != xbee.DeliverySuccess {
		return &xbee.DeliveryError{FrameID: f.Data[0], Status: status}
	}
	return nil
}

// uplinkBody validates packet and lays out [port, ack, payload]
func uplinkBody(packet any) ([]byte, error) {
	var p *Packet
	switch pk := packet.(type) {
	case *Packet:
		p = pk
	case Packet:
		p = &pk
	}
	if p == nil {
		return nil, fmt.Errorf("unsupported LR packet %T: %w", packet, xbee.ErrInvalidArgument)
	}
	if len(p.Payload) == 0 {
		return nil, xbee.ErrNullPayload
	}
	if len(p.Payload) > MaxPayload {
		return nil, fmt.Errorf("%d bytes exceeds %d: %w", len(p.Payload), MaxPayload, xbee.ErrPayloadTooLarge)
	}

	var ack byte
	if p.Ack {
		ack = 1
	}
	body := make([]byte, 0, 2+len(p.Payload))
	body = append(body, p.Port, ack)
	return append(body, p.Payload...), nil
}

// HandleTransmitStatus records uplink results and reports them through OnSend
func (*variant) HandleTransmitStatus(d *xbee.Device, status xbee.TxStatus) bool {
	d.RecordTxStatus(status)
	switch status.Status {
	case xbee.DeliverySuccess:
		d.Logger().Debug("uplink delivered", zap.Uint8("frame_id", status.FrameID))
	case DeliveryAckFailed:
		d.Logger().Warn("uplink not acknowledged", zap.Uint8("frame_id", status.FrameID))
	case DeliveryNotConnected:
		d.Logger().Warn("uplink dropped, not joined", zap.Uint8("frame_id", status.FrameID))
	default:
		d.Logger().Warn("uplink failed", zap.Uint8("frame_id", status.FrameID), zap.Uint8("status", byte(status.Status)))
	}
	if cb := d.Callbacks().OnSend; cb != nil {
		cb(d, status)
	}
	return true
}

// HandleRxPacket turns LR receive frames into *Packet values for OnReceive
func (*variant) HandleRxPacket(d *xbee.Device, f xbee.Frame) bool {
	p, ok := parseRxPacket(f)
	if !ok {
		return false
	}
	d.Logger().Debug("downlink received", zap.Uint8("port", p.Port), zap.Int("size", len(p.Payload)))
	if cb := d.Callbacks().OnReceive; cb != nil {
		cb(d, p)
	}
	return true
}

func parseRxPacket(f xbee.Frame) (*Packet, bool) {
	data := f.Data
	switch f.Type {
	case xbee.FrameTypeLRRxPacket:
		// [port, payload]
		if len(data) < 1 {
			return nil, false
		}
		return &Packet{Port: data[0], Payload: append([]byte(nil), data[1:]...)}, true
	case xbee.FrameTypeLRExplicitRxPacket:
		// [port, rssi, snr, counter×4, payload]
		if len(data) < 7 {
			return nil, false
		}
		return &Packet{
			Port:     data[0],
			RSSI:     int8(data[1]),
			SNR:      int8(data[2]),
			Counter:  binary.BigEndian.Uint32(data[3:7]),
			Payload:  append([]byte(nil), data[7:]...),
			Explicit: true,
		}, true
	default:
		return nil, false
	}
}
