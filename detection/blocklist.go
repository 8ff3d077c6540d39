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

package detection

import (
	"encoding/hex"
	"path/filepath"
	"strings"
)

// DefaultBlocklist returns USB devices that must not be opened during
// detection. Arduino boards reset when their port is opened.
// Format: VID:PID in hexadecimal (case-insensitive).
func DefaultBlocklist() []string {
	return []string{
		"2341:0043", // Arduino Uno
		"2341:0001", // Arduino Uno (early)
		"2341:0042", // Arduino Mega 2560
		"2A03:0043", // Arduino Uno (arduino.org)
	}
}

// knownBoards maps the USB bridges used on Digi interface boards and XBee USB
// adapters to a description.
var knownBoards = map[string]string{
	"0403:6015": "Digi XBIB-U / XBee USB adapter (FT231X)",
	"0403:6001": "XBee Explorer (FT232R)",
	"10C4:EA60": "XBee Grove development board (CP2102)",
	"1A86:7523": "XBee adapter (CH340)",
}

// KnownBoard reports whether vidpid belongs to a known XBee interface board
// and returns its description.
func KnownBoard(vidpid string) (string, bool) {
	name, ok := knownBoards[strings.ToUpper(strings.TrimSpace(vidpid))]
	return name, ok
}

// IsBlocked checks if a USB device is in the blocklist.
func IsBlocked(vidpid string, blocklist []string) bool {
	// Normalize to uppercase for comparison
	vidpid = strings.ToUpper(strings.TrimSpace(vidpid))

	for _, blocked := range blocklist {
		blocked = strings.ToUpper(strings.TrimSpace(blocked))
		if vidpid == blocked {
			return true
		}
	}
	return false
}

// Labels descriptors put in front of the vendor and product IDs
var (
	vidLabels = []string{"VID:", "VID=", "VID_", "VENDOR="}
	pidLabels = []string{"PID:", "PID=", "PID_", "PRODUCT="}
)

// ParseVIDPID finds a vendor/product pair in a USB descriptor such as
// "VID:0403 PID:6015", `USB\VID_0403&PID_6015` or "0403:6015". It returns
// upper-case "VVVV:PPPP", or "" when no pair is present.
func ParseVIDPID(descriptor string) string {
	d := strings.ToUpper(descriptor)
	vid, pid := labelledID(d, vidLabels), labelledID(d, pidLabels)
	if vid == "" || pid == "" {
		var ok bool
		vid, pid, ok = strings.Cut(strings.TrimSpace(d), ":")
		if !ok || !isUSBID(vid) || !isUSBID(pid) {
			return ""
		}
	}
	return vid + ":" + pid
}

// labelledID returns the four hex digits following the first label found
func labelledID(s string, labels []string) string {
	for _, label := range labels {
		i := strings.Index(s, label)
		if i < 0 {
			continue
		}
		if rest := s[i+len(label):]; len(rest) >= 4 && isUSBID(rest[:4]) {
			return rest[:4]
		}
	}
	return ""
}

func isUSBID(s string) bool {
	if len(s) != 4 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// IsPathIgnored checks if a device path should be ignored.
// Supports exact path matching and normalized path comparison.
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" || len(ignorePaths) == 0 {
		return false
	}

	// Normalize the device path for comparison
	normalizedDevice := normalizedPath(devicePath)

	for _, ignorePath := range ignorePaths {
		if ignorePath == "" {
			continue
		}

		normalizedIgnore := normalizedPath(ignorePath)

		// Exact match
		if normalizedDevice == normalizedIgnore {
			return true
		}

		// Also check original paths for exact match
		if devicePath == ignorePath {
			return true
		}
	}
	return false
}

// normalizedPath normalizes a device path for comparison
func normalizedPath(path string) string {
	// Clean the path to resolve any relative components
	cleaned := filepath.Clean(path)

	// Convert to lowercase for case-insensitive comparison on Windows
	return strings.ToLower(cleaned)
}
