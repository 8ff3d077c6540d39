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

package cellular

import (
	"context"
	"encoding/binary"
	"fmt"
	"net/netip"

	xbee "github.com/ZaparooProject/go-xbee"
	"go.uber.org/zap"
)

// Protocol selects the IP transport for a packet or socket
type Protocol byte

// Protocols understood by the module
const (
	ProtocolUDP Protocol = 0x00
	ProtocolTCP Protocol = 0x01
	ProtocolTLS Protocol = 0x04
)

func (p Protocol) String() string {
	switch p {
	case ProtocolUDP:
		return "udp"
	case ProtocolTCP:
		return "tcp"
	case ProtocolTLS:
		return "tls"
	default:
		return fmt.Sprintf("protocol(0x%02X)", byte(p))
	}
}

// Payload limits per frame, derived from the 256-byte frame capacity
const (
	MaxTxPayload       = 244
	MaxSocketPayload   = 252
	MaxSocketToPayload = 246
)

// Packet is both the SendData argument and what OnReceive gets for receive
// frames. On receive, IP and Port are the remote end, SourcePort is the local
// port the datagram arrived on and SocketID is set for socket frames.
type Packet struct {
	IP         netip.Addr
	Payload    []byte
	Port       uint16
	SourcePort uint16
	Protocol   Protocol
	SocketID   byte
	// Status is the receive status byte of socket frames
	Status byte
}

// SendData transmits a *Packet or Packet as a TX IPv4 frame.
func (*variant) SendData(ctx context.Context, d *xbee.Device, packet any) error {
	var p *Packet
	switch v := packet.(type) {
	case *Packet:
		p = v
	case Packet:
		p = &v
	}
	if p == nil {
		return fmt.Errorf("unsupported cellular packet %T: %w", packet, xbee.ErrInvalidArgument)
	}
	if len(p.Payload) == 0 {
		return xbee.ErrNullPayload
	}
	if len(p.Payload) > MaxTxPayload {
		return fmt.Errorf("%d bytes exceeds %d: %w", len(p.Payload), MaxTxPayload, xbee.ErrPayloadTooLarge)
	}
	if !p.IP.Is4() {
		return fmt.Errorf("destination %v is not IPv4: %w", p.IP, xbee.ErrInvalidArgument)
	}

	ip := p.IP.As4()
	body := make([]byte, 0, 10+len(p.Payload))
	body = append(body, ip[:]...)
	body = binary.BigEndian.AppendUint16(body, p.Port)
	body = binary.BigEndian.AppendUint16(body, p.SourcePort)
	body = append(body, byte(p.Protocol), 0x00)
	body = append(body, p.Payload...)

	_, err := d.SendFrameWithID(ctx, xbee.FrameTypeTxIPv4, body)
	return err
}

// HandleRxPacket turns RX IPv4, socket receive and socket receive-from frames
// into *Packet values for OnReceive.
func (v *variant) HandleRxPacket(d *xbee.Device, f xbee.Frame) bool {
	p, ok := parseRxPacket(f)
	if !ok {
		return false
	}
	if s, tracked := v.sessions[p.SocketID]; tracked && f.Type != xbee.FrameTypeRxIPv4 {
		p.Protocol = s.Protocol
	}
	d.Logger().Debug("cellular packet received",
		zap.Stringer("type", f.Type),
		zap.Stringer("from", netip.AddrPortFrom(p.IP, p.Port)),
		zap.Int("size", len(p.Payload)))
	if cb := d.Callbacks().OnReceive; cb != nil {
		cb(d, p)
	}
	return true
}

func parseRxPacket(f xbee.Frame) (*Packet, bool) {
	data := f.Data
	switch f.Type {
	case xbee.FrameTypeRxIPv4:
		// [ip×4, dst×2, src×2, proto, status, payload]
		if len(data) < 10 {
			return nil, false
		}
		return &Packet{
			IP:         netip.AddrFrom4([4]byte(data[0:4])),
			SourcePort: binary.BigEndian.Uint16(data[4:6]),
			Port:       binary.BigEndian.Uint16(data[6:8]),
			Protocol:   Protocol(data[8]),
			Status:     data[9],
			Payload:    clone(data[10:]),
		}, true
	case xbee.FrameTypeSocketReceive:
		// [fid, sid, status, payload]
		if len(data) < 3 {
			return nil, false
		}
		return &Packet{SocketID: data[1], Status: data[2], Payload: clone(data[3:])}, true
	case xbee.FrameTypeSocketReceiveFrom:
		// [fid, sid, ip×4, port×2, status, payload]
		if len(data) < 9 {
			return nil, false
		}
		return &Packet{
			SocketID: data[1],
			IP:       netip.AddrFrom4([4]byte(data[2:6])),
			Port:     binary.BigEndian.Uint16(data[6:8]),
			Protocol: ProtocolUDP,
			Status:   data[8],
			Payload:  clone(data[9:]),
		}, true
	default:
		return nil, false
	}
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
