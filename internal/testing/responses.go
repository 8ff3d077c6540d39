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

package testing

import (
	"encoding/binary"

	"github.com/ZaparooProject/go-xbee/internal/frame"
)

// Frame types used by the builders. Mirrors the exported constants of the
// root package, which cannot be imported from here.
const (
	typeATCommand      = 0x08
	typeATResponse     = 0x88
	typeTxStatus       = 0x89
	typeModemStatus    = 0x8A
	typeRxIPv4         = 0xB0
	typeSocketReceive  = 0xCD
	typeSocketStatus   = 0xCF
	typeLRRxPacket     = 0xD0
	typeLRExplicitRx   = 0xD1
	typeLRExplicitTxSt = 0x8B
)

// Frame is a decoded frame captured from the mock port.
type Frame struct {
	Data []byte
	Type byte
}

// BuildFrame encodes an API frame and panics when it does not fit.
func BuildFrame(frameType byte, data []byte) []byte {
	b, err := frame.Encode(frameType, data)
	if err != nil {
		panic(err)
	}
	return b
}

// BuildATResponse creates an AT command response frame:
// [frameID, c0, c1, status, value...]
func BuildATResponse(frameID byte, cmd string, status byte, value []byte) []byte {
	data := []byte{frameID, cmd[0], cmd[1], status}
	return BuildFrame(typeATResponse, append(data, value...))
}

// BuildModemStatus creates a modem status frame
func BuildModemStatus(status byte) []byte {
	return BuildFrame(typeModemStatus, []byte{status})
}

// BuildTxStatus creates a transmit status frame: [frameID, status]
func BuildTxStatus(frameID, status byte) []byte {
	return BuildFrame(typeTxStatus, []byte{frameID, status})
}

// BuildLRTxStatus creates an LR explicit transmit status frame: [frameID, status]
func BuildLRTxStatus(frameID, status byte) []byte {
	return BuildFrame(typeLRExplicitTxSt, []byte{frameID, status})
}

// BuildSocketResponse creates a socket create/option/connect/close/bind
// response: [frameID, socketID, status]
func BuildSocketResponse(frameType, frameID, socketID, status byte) []byte {
	return BuildFrame(frameType, []byte{frameID, socketID, status})
}

// BuildSocketStatus creates an unsolicited socket status frame: [socketID, status]
func BuildSocketStatus(socketID, status byte) []byte {
	return BuildFrame(typeSocketStatus, []byte{socketID, status})
}

// BuildSocketReceive creates a socket receive frame: [frameID, socketID, status, payload...]
func BuildSocketReceive(socketID byte, payload []byte) []byte {
	return BuildFrame(typeSocketReceive, append([]byte{0x00, socketID, 0x00}, payload...))
}

// BuildRxIPv4 creates a cellular RX IPv4 frame:
// [srcIP×4, dstPort×2, srcPort×2, protocol, status, payload...]
func BuildRxIPv4(ip [4]byte, dstPort, srcPort uint16, protocol byte, payload []byte) []byte {
	data := make([]byte, 0, 10+len(payload))
	data = append(data, ip[:]...)
	data = binary.BigEndian.AppendUint16(data, dstPort)
	data = binary.BigEndian.AppendUint16(data, srcPort)
	data = append(data, protocol, 0x00)
	return BuildFrame(typeRxIPv4, append(data, payload...))
}

// BuildLRRxPacket creates an LR receive frame: [port, payload...]
func BuildLRRxPacket(port byte, payload []byte) []byte {
	return BuildFrame(typeLRRxPacket, append([]byte{port}, payload...))
}

// BuildLRExplicitRxPacket creates an LR explicit receive frame:
// [port, rssi, snr, counter×4, payload...]
func BuildLRExplicitRxPacket(port byte, rssi, snr int8, counter uint32, payload []byte) []byte {
	data := []byte{port, byte(rssi), byte(snr)}
	data = binary.BigEndian.AppendUint32(data, counter)
	return BuildFrame(typeLRExplicitRx, append(data, payload...))
}

// ParseFrames walks b and returns every well-formed frame it contains.
func ParseFrames(b []byte) []Frame {
	var frames []Frame
	for len(b) >= frame.Overhead {
		if b[0] != frame.StartDelimiter {
			b = b[1:]
			continue
		}
		n := frame.Length(b[1:3])
		end := frame.HeaderSize + n + 1
		if n == 0 || len(b) < end {
			break
		}
		frames = append(frames, Frame{
			Type: b[3],
			Data: append([]byte(nil), b[4:end-1]...),
		})
		b = b[end:]
	}
	return frames
}

// FrameResponder adapts a per-frame handler into a MockPort responder.
func FrameResponder(handler func(f Frame) []byte) func(p []byte) []byte {
	return func(p []byte) []byte {
		var out []byte
		for _, f := range ParseFrames(p) {
			out = append(out, handler(f)...)
		}
		return out
	}
}

// ATReply describes how a simulated device answers one AT command.
type ATReply struct {
	Value  []byte
	Status byte
	// Drop suppresses the response entirely.
	Drop bool
}

// ATResponder answers AT command frames with the reply chosen by handler,
// echoing the frame ID and command. Other frame types get no answer.
func ATResponder(handler func(cmd string, param []byte) ATReply) func(p []byte) []byte {
	return FrameResponder(func(f Frame) []byte {
		if f.Type != typeATCommand || len(f.Data) < 3 {
			return nil
		}
		cmd := string(f.Data[1:3])
		reply := handler(cmd, f.Data[3:])
		if reply.Drop {
			return nil
		}
		return BuildATResponse(f.Data[0], cmd, reply.Status, reply.Value)
	})
}

// ATCommands returns the two-letter commands of every captured AT command
// frame, in order.
func ATCommands(frames []Frame) []string {
	var cmds []string
	for _, f := range frames {
		if f.Type == typeATCommand && len(f.Data) >= 3 {
			cmds = append(cmds, string(f.Data[1:3]))
		}
	}
	return cmds
}
