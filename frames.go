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
	"fmt"
)

// FrameType identifies the semantics of an API frame
type FrameType byte

// API frame types
const (
	FrameTypeATCommand          FrameType = 0x08
	FrameTypeTxRequest          FrameType = 0x10
	FrameTypeLRJoinRequest      FrameType = 0x14
	FrameTypeTxIPv4             FrameType = 0x20
	FrameTypeSocketCreate       FrameType = 0x40
	FrameTypeSocketOption       FrameType = 0x41
	FrameTypeSocketConnect      FrameType = 0x42
	FrameTypeSocketClose        FrameType = 0x43
	FrameTypeSocketSend         FrameType = 0x44
	FrameTypeSocketSendTo       FrameType = 0x45
	FrameTypeSocketBind         FrameType = 0x46
	FrameTypeLRTxRequest        FrameType = 0x50
	FrameTypeATResponse         FrameType = 0x88
	FrameTypeTxStatus           FrameType = 0x89
	FrameTypeModemStatus        FrameType = 0x8A
	FrameTypeLRExplicitTxStatus FrameType = 0x8B
	FrameTypeRxIPv4             FrameType = 0xB0
	FrameTypeSocketCreateResp   FrameType = 0xC0
	FrameTypeSocketOptionResp   FrameType = 0xC1
	FrameTypeSocketConnectResp  FrameType = 0xC2
	FrameTypeSocketCloseResp    FrameType = 0xC3
	FrameTypeSocketBindResp     FrameType = 0xC6
	FrameTypeSocketReceive      FrameType = 0xCD
	FrameTypeSocketReceiveFrom  FrameType = 0xCE
	FrameTypeSocketStatus       FrameType = 0xCF
	FrameTypeLRRxPacket         FrameType = 0xD0
	FrameTypeLRExplicitRxPacket FrameType = 0xD1
)

var frameTypeNames = map[FrameType]string{
	FrameTypeATCommand:          "at_command",
	FrameTypeTxRequest:          "tx_request",
	FrameTypeLRJoinRequest:      "lr_join_request",
	FrameTypeTxIPv4:             "tx_ipv4",
	FrameTypeSocketCreate:       "socket_create",
	FrameTypeSocketOption:       "socket_option",
	FrameTypeSocketConnect:      "socket_connect",
	FrameTypeSocketClose:        "socket_close",
	FrameTypeSocketSend:         "socket_send",
	FrameTypeSocketSendTo:       "socket_send_to",
	FrameTypeSocketBind:         "socket_bind",
	FrameTypeLRTxRequest:        "lr_tx_request",
	FrameTypeATResponse:         "at_response",
	FrameTypeTxStatus:           "tx_status",
	FrameTypeModemStatus:        "modem_status",
	FrameTypeLRExplicitTxStatus: "lr_explicit_tx_status",
	FrameTypeRxIPv4:             "rx_ipv4",
	FrameTypeSocketCreateResp:   "socket_create_response",
	FrameTypeSocketOptionResp:   "socket_option_response",
	FrameTypeSocketConnectResp:  "socket_connect_response",
	FrameTypeSocketCloseResp:    "socket_close_response",
	FrameTypeSocketBindResp:     "socket_bind_response",
	FrameTypeSocketReceive:      "socket_receive",
	FrameTypeSocketReceiveFrom:  "socket_receive_from",
	FrameTypeSocketStatus:       "socket_status",
	FrameTypeLRRxPacket:         "lr_rx_packet",
	FrameTypeLRExplicitRxPacket: "lr_explicit_rx_packet",
}

// String returns a stable snake_case name, or the hex value for unknown types
func (t FrameType) String() string {
	if name, ok := frameTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", byte(t))
}

// Frame is one decoded API frame. Data excludes the type byte.
type Frame struct {
	Data []byte
	Type FrameType
}

// String formats the frame for debug output
func (f Frame) String() string {
	return fmt.Sprintf("%s [%s]", f.Type, hex.EncodeToString(f.Data))
}

// ModemStatus is the payload of a modem status frame
type ModemStatus byte

// Common modem status values
const (
	ModemStatusHardwareReset  ModemStatus = 0x00
	ModemStatusWatchdogReset  ModemStatus = 0x01
	ModemStatusJoined         ModemStatus = 0x02
	ModemStatusDisassociated  ModemStatus = 0x03
	ModemStatusNetworkWokeUp  ModemStatus = 0x0B
	ModemStatusNetworkAsleep  ModemStatus = 0x0C
	ModemStatusVoltageTooHigh ModemStatus = 0x0D
	ModemStatusConfigChanged  ModemStatus = 0x11
	ModemStatusStackError     ModemStatus = 0x80
)

// DeliveryStatus is the status byte of a transmit status frame. Zero means
// the device reported success.
type DeliveryStatus byte

// DeliverySuccess is the only successful delivery status
const DeliverySuccess DeliveryStatus = 0x00

// TxStatus is a decoded transmit status frame
type TxStatus struct {
	Type    FrameType
	FrameID byte
	Status  DeliveryStatus
}

// OK reports whether the device acknowledged delivery
func (s TxStatus) OK() bool {
	return s.Status == DeliverySuccess
}

// RawPacket is delivered to OnReceive for receive frames no variant hook
// claimed.
type RawPacket struct {
	Payload []byte
	Type    FrameType
}

// SocketResponse is the decoded body of a socket create/option/connect/close/bind response
type SocketResponse struct {
	Type     FrameType
	FrameID  byte
	SocketID byte
	Status   byte
}

func parseTxStatus(f Frame) (TxStatus, bool) {
	if len(f.Data) < 2 {
		return TxStatus{}, false
	}
	return TxStatus{Type: f.Type, FrameID: f.Data[0], Status: DeliveryStatus(f.Data[1])}, true
}

// ParseSocketResponse decodes a [frameID, socketID, status] response frame
func ParseSocketResponse(f Frame) (SocketResponse, bool) {
	if len(f.Data) < 3 {
		return SocketResponse{}, false
	}
	return SocketResponse{Type: f.Type, FrameID: f.Data[0], SocketID: f.Data[1], Status: f.Data[2]}, true
}

func isReceiveFrame(t FrameType) bool {
	switch t {
	case FrameTypeRxIPv4, FrameTypeSocketReceive, FrameTypeSocketReceiveFrom,
		FrameTypeLRRxPacket, FrameTypeLRExplicitRxPacket:
		return true
	default:
		return false
	}
}

func isSocketResponse(t FrameType) bool {
	switch t {
	case FrameTypeSocketCreateResp, FrameTypeSocketOptionResp, FrameTypeSocketConnectResp,
		FrameTypeSocketCloseResp, FrameTypeSocketBindResp:
		return true
	default:
		return false
	}
}
