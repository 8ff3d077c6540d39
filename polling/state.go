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

package polling

import (
	"sync"
	"time"
)

// LinkState is the actor's view of the module's network attachment
type LinkState int

const (
	LinkUnknown LinkState = iota
	LinkUp
	LinkDown
)

func (s LinkState) String() string {
	switch s {
	case LinkUp:
		return "up"
	case LinkDown:
		return "down"
	default:
		return "unknown"
	}
}

// linkTracker records link transitions from periodic Connected checks
type linkTracker struct {
	lastChange time.Time
	lastCheck  time.Time
	state      LinkState
	mu         sync.Mutex
}

// observe stores the result of one check and reports whether the state changed
func (lt *linkTracker) observe(connected bool, now time.Time) (prev, next LinkState, changed bool) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	next = LinkDown
	if connected {
		next = LinkUp
	}
	prev = lt.state
	lt.lastCheck = now
	if prev == next {
		return prev, next, false
	}
	lt.state = next
	lt.lastChange = now
	return prev, next, true
}

// due reports whether a check should run
func (lt *linkTracker) due(interval time.Duration, now time.Time) bool {
	if interval <= 0 {
		return false
	}
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return lt.lastCheck.IsZero() || now.Sub(lt.lastCheck) >= interval
}

func (lt *linkTracker) snapshot() (LinkState, time.Time) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return lt.state, lt.lastChange
}
