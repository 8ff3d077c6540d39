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

package frame

import (
	"encoding/binary"
	"errors"
)

// ErrFrameTooLarge is returned when type+data do not fit in MaxFrameDataSize.
var ErrFrameTooLarge = errors.New("frame too large")

// Sum returns the 8-bit sum of the frame type and data bytes.
func Sum(frameType byte, data []byte) byte {
	sum := frameType
	for _, b := range data {
		sum += b
	}
	return sum
}

// Checksum calculates the API frame checksum: 0xFF minus the 8-bit sum of the
// type and data bytes.
func Checksum(frameType byte, data []byte) byte {
	return 0xFF - Sum(frameType, data)
}

// Verify reports whether checksum matches the type and data bytes, i.e. the
// 8-bit sum of everything including the checksum equals 0xFF.
func Verify(frameType byte, data []byte, checksum byte) bool {
	return Sum(frameType, data)+checksum == 0xFF
}

// Encode builds an on-wire API frame. No byte escaping is applied.
func Encode(frameType byte, data []byte) ([]byte, error) {
	bodyLen := 1 + len(data)
	if bodyLen > MaxFrameDataSize {
		return nil, ErrFrameTooLarge
	}

	buf := make([]byte, HeaderSize+bodyLen+1)
	buf[0] = StartDelimiter
	binary.BigEndian.PutUint16(buf[1:3], uint16(bodyLen))
	buf[3] = frameType
	copy(buf[4:], data)
	buf[len(buf)-1] = Checksum(frameType, data)
	return buf, nil
}

// Length decodes the big-endian length field.
func Length(b []byte) int {
	return int(binary.BigEndian.Uint16(b))
}
