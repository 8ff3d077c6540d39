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

// Package frame provides wire constants and checksum helpers for XBee API frames
package frame

// Frame markers
const (
	StartDelimiter = 0x7E // First byte of every API frame
)

// Frame size limits
const (
	// MaxFrameDataSize is the largest frame body (type byte + data) accepted on
	// receive and produced on send.
	MaxFrameDataSize = 256
	// HeaderSize covers the start delimiter and the two length bytes.
	HeaderSize = 3
	// Overhead is header plus the trailing checksum byte.
	Overhead = HeaderSize + 1
	// MaxDataSize is the largest payload that fits behind the type byte.
	MaxDataSize = MaxFrameDataSize - 1
)
