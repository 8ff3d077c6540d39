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
	"errors"
	"fmt"
	"net/netip"
	"sort"

	xbee "github.com/ZaparooProject/go-xbee"
	"go.uber.org/zap"
)

// SessionState tracks a socket through its lifetime
type SessionState int

// Socket session states
const (
	SessionOpen SessionState = iota
	SessionConnected
	SessionClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionOpen:
		return "open"
	case SessionConnected:
		return "connected"
	case SessionClosed:
		return "closed"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Session is one socket the modem has created
type Session struct {
	Remote   string
	ID       byte
	Protocol Protocol
	State    SessionState
}

// Address types for socket connect
const (
	addrTypeIPv4     = 0x00
	addrTypeHostname = 0x01
)

// SocketCreate opens a socket and returns the ID the module assigned.
func (m *Modem) SocketCreate(ctx context.Context, proto Protocol) (byte, error) {
	resp, err := m.socketExchange(ctx, xbee.FrameTypeSocketCreate, xbee.FrameTypeSocketCreateResp,
		[]byte{byte(proto)}, xbee.ErrSocketCreateTimeout)
	if err != nil {
		return 0, err
	}
	if resp.Status != 0 {
		return 0, fmt.Errorf("status 0x%02X: %w", resp.Status, xbee.ErrSocketCreateRejected)
	}

	m.v.sessions[resp.SocketID] = &Session{ID: resp.SocketID, Protocol: proto, State: SessionOpen}
	m.Logger().Debug("socket created", zap.Uint8("socket", resp.SocketID), zap.Stringer("protocol", proto))
	return resp.SocketID, nil
}

// SocketConnect connects a socket to host:port. host may be a dotted IPv4
// address or a hostname for the module to resolve. useTLS requires a socket
// created with ProtocolTLS.
func (m *Modem) SocketConnect(ctx context.Context, id byte, host string, port uint16, useTLS bool) error {
	if host == "" {
		return fmt.Errorf("empty host: %w", xbee.ErrInvalidArgument)
	}
	s := m.v.sessions[id]
	if useTLS && (s == nil || s.Protocol != ProtocolTLS) {
		return fmt.Errorf("socket %d was not created for TLS: %w", id, xbee.ErrInvalidArgument)
	}

	body := []byte{id}
	body = binary.BigEndian.AppendUint16(body, port)
	if addr, err := netip.ParseAddr(host); err == nil && addr.Is4() {
		ip := addr.As4()
		body = append(body, addrTypeIPv4)
		body = append(body, ip[:]...)
	} else {
		body = append(body, addrTypeHostname)
		body = append(body, host...)
	}

	resp, err := m.socketExchange(ctx, xbee.FrameTypeSocketConnect, xbee.FrameTypeSocketConnectResp,
		body, xbee.ErrSocketConnectTimeout)
	if err != nil {
		return err
	}
	if resp.Status != 0 {
		return fmt.Errorf("socket %d status 0x%02X: %w", id, resp.Status, xbee.ErrSocketConnectRejected)
	}

	if s != nil {
		s.Remote = fmt.Sprintf("%s:%d", host, port)
		s.State = SessionConnected
	}
	m.Logger().Info("socket connected", zap.Uint8("socket", id), zap.String("host", host), zap.Uint16("port", port))
	return nil
}

// SocketSend writes payload to a connected socket. Stream sockets split
// payloads larger than MaxSocketPayload across frames; UDP sockets reject
// them.
func (m *Modem) SocketSend(ctx context.Context, id byte, payload []byte) error {
	if len(payload) == 0 {
		return xbee.ErrNullPayload
	}
	if len(payload) > MaxSocketPayload {
		if s := m.v.sessions[id]; s == nil || s.Protocol == ProtocolUDP {
			return fmt.Errorf("%d bytes exceeds %d: %w", len(payload), MaxSocketPayload, xbee.ErrPayloadTooLarge)
		}
	}

	for len(payload) > 0 {
		n := min(len(payload), MaxSocketPayload)
		body := make([]byte, 0, 2+n)
		body = append(body, id, 0x00)
		body = append(body, payload[:n]...)
		if _, err := m.SendFrameWithID(ctx, xbee.FrameTypeSocketSend, body); err != nil {
			return err
		}
		payload = payload[n:]
	}
	return nil
}

// SocketSendTo sends one datagram on a UDP socket to ip:port.
func (m *Modem) SocketSendTo(ctx context.Context, id byte, ip netip.Addr, port uint16, payload []byte) error {
	if len(payload) == 0 {
		return xbee.ErrNullPayload
	}
	if len(payload) > MaxSocketToPayload {
		return fmt.Errorf("%d bytes exceeds %d: %w", len(payload), MaxSocketToPayload, xbee.ErrPayloadTooLarge)
	}
	if !ip.Is4() {
		return fmt.Errorf("destination %v is not IPv4: %w", ip, xbee.ErrInvalidArgument)
	}

	addr := ip.As4()
	body := make([]byte, 0, 8+len(payload))
	body = append(body, id)
	body = append(body, addr[:]...)
	body = binary.BigEndian.AppendUint16(body, port)
	body = append(body, 0x00)
	body = append(body, payload...)
	_, err := m.SendFrameWithID(ctx, xbee.FrameTypeSocketSendTo, body)
	return err
}

// SocketBind binds a UDP socket to a local port and waits for the module to
// confirm.
func (m *Modem) SocketBind(ctx context.Context, id byte, port uint16) error {
	body := binary.BigEndian.AppendUint16([]byte{id}, port)
	resp, err := m.socketExchange(ctx, xbee.FrameTypeSocketBind, xbee.FrameTypeSocketBindResp,
		body, fmt.Errorf("socket bind: %w", xbee.ErrTimeout))
	if err != nil {
		return err
	}
	if resp.Status != 0 {
		return fmt.Errorf("socket bind status 0x%02X: %w", resp.Status, xbee.ErrDeviceRejected)
	}
	return nil
}

// SocketSetOption sets a socket option. The module's response is not awaited.
func (m *Modem) SocketSetOption(ctx context.Context, id, option byte, value []byte) error {
	body := make([]byte, 0, 2+len(value))
	body = append(body, id, option)
	body = append(body, value...)
	_, err := m.SendFrameWithID(ctx, xbee.FrameTypeSocketOption, body)
	return err
}

// SocketClose asks the module to close a socket. The response is not awaited
// and a failed write is returned without retrying.
func (m *Modem) SocketClose(ctx context.Context, id byte) error {
	if _, err := m.SendFrameWithID(ctx, xbee.FrameTypeSocketClose, []byte{id}); err != nil {
		return err
	}
	m.v.closeSession(id)
	return nil
}

// Sessions returns a snapshot of the tracked sockets ordered by ID
func (m *Modem) Sessions() []Session {
	out := make([]Session, 0, len(m.v.sessions))
	for _, s := range m.v.sessions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// socketExchange sends a socket request and waits for its response frame.
// A deadline becomes timeoutErr.
func (m *Modem) socketExchange(
	ctx context.Context, reqType, respType xbee.FrameType, body []byte, timeoutErr error,
) (xbee.SocketResponse, error) {
	f, err := m.Exchange(ctx, reqType, body, m.v.socketTimeout, respType)
	if err != nil {
		if errors.Is(err, xbee.ErrTimeout) {
			return xbee.SocketResponse{}, timeoutErr
		}
		return xbee.SocketResponse{}, err
	}

	resp, _ := xbee.ParseSocketResponse(f)
	return resp, nil
}

// HandleSocketStatus applies unsolicited socket status frames. Any non-zero
// status means the module closed the socket.
func (v *variant) HandleSocketStatus(d *xbee.Device, socketID, status byte) {
	s, ok := v.sessions[socketID]
	if !ok {
		return
	}
	if status == 0 {
		s.State = SessionConnected
		return
	}
	d.Logger().Info("socket closed by module", zap.Uint8("socket", socketID), zap.Uint8("status", status))
	v.closeSession(socketID)
}

func (v *variant) closeSession(id byte) {
	if s, ok := v.sessions[id]; ok {
		s.State = SessionClosed
		delete(v.sessions, id)
	}
}
