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

// Package detection finds serial ports that look like attached XBee modules.
// Transport-specific detectors register themselves on import.
package detection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrNoDevicesFound is returned by DetectAll when no detector found a module
var ErrNoDevicesFound = errors.New("no XBee devices found")

// DefaultTimeout bounds one detector run
const DefaultTimeout = 5 * time.Second

// DeviceInfo describes one candidate device
type DeviceInfo struct {
	// Metadata carries detector-specific details such as vid_pid,
	// serial_number and, after a probe, firmware
	Metadata  map[string]string
	Transport string
	Path      string
	Name      string
	// Known is set when the USB VID:PID matches a known XBee interface board
	Known bool
}

// Options control detection
type Options struct {
	// Blocklist holds VID:PID pairs that are never returned or probed
	Blocklist []string
	// IgnorePaths holds device paths that are never returned or probed
	IgnorePaths []string
	Timeout     time.Duration
	// BaudRate is used when probing
	BaudRate int
	// Probe opens each candidate and asks it for its firmware version
	Probe bool
	// IncludeUnknown also returns USB serial ports that do not match a
	// known XBee VID:PID
	IncludeUnknown bool
}

// DefaultOptions returns options with the default blocklist and timeout
func DefaultOptions() Options {
	return Options{
		Blocklist: DefaultBlocklist(),
		Timeout:   DefaultTimeout,
		BaudRate:  9600,
	}
}

// Detector finds devices on one kind of transport
type Detector interface {
	Transport() string
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
}

var (
	detectorsMu sync.RWMutex
	detectors   = map[string]Detector{}
)

// RegisterDetector makes a detector available to DetectAll. Registering the
// same transport twice replaces the earlier detector.
func RegisterDetector(d Detector) {
	detectorsMu.Lock()
	defer detectorsMu.Unlock()
	detectors[d.Transport()] = d
}

// Detectors returns the registered detectors ordered by transport name
func Detectors() []Detector {
	detectorsMu.RLock()
	defer detectorsMu.RUnlock()
	out := make([]Detector, 0, len(detectors))
	for _, d := range detectors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Transport() < out[j].Transport() })
	return out
}

// DetectAll runs every registered detector. Known devices sort first. A
// detector error is returned only when no detector found anything.
func DetectAll(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	return detectWith(ctx, opts, Detectors())
}

func detectWith(ctx context.Context, opts *Options, ds []Detector) ([]DeviceInfo, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var (
		found    []DeviceInfo
		firstErr error
	)
	for _, d := range ds {
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		devices, err := d.Detect(runCtx, opts)
		cancel()
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s detection: %w", d.Transport(), err)
			}
			continue
		}
		found = append(found, devices...)
	}

	if len(found) == 0 {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, ErrNoDevicesFound
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Known != found[j].Known {
			return found[i].Known
		}
		return found[i].Path < found[j].Path
	})
	return found, nil
}
