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

// ASCIIToHex parses s as exactly size bytes written as 2*size hex digits.
// Odd lengths, non-hex characters and any other length fail with
// ErrInvalidArgument.
func ASCIIToHex(s string, size int) ([]byte, error) {
	if size <= 0 || len(s) != 2*size {
		return nil, fmt.Errorf("want %d hex digits, got %d: %w", 2*size, len(s), ErrInvalidArgument)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return b, nil
}

// EvenHex parses any non-empty, even-length hex string.
func EvenHex(s string) ([]byte, error) {
	if s == "" || len(s)%2 != 0 {
		return nil, fmt.Errorf("hex string of length %d: %w", len(s), ErrInvalidArgument)
	}
	return ASCIIToHex(s, len(s)/2)
}
