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

// Package polling runs an xbee.Device on its own goroutine.
package polling

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	xbee "github.com/ZaparooProject/go-xbee"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// ErrActorRunning is returned by Start on an actor that is already running
	ErrActorRunning = errors.New("device actor already running")
	// ErrActorStopped is returned by Do when the actor is not running
	ErrActorStopped = errors.New("device actor not running")
)

// Config controls the actor's pacing
type Config struct {
	// ProcessRate is the maximum number of Process cycles per second
	ProcessRate float64
	// Burst is the limiter's bucket size
	Burst int
	// HealthInterval is how often Connected is checked; zero disables checks
	HealthInterval time.Duration
}

// DefaultConfig returns 50 cycles per second and a 30 second health check
func DefaultConfig() *Config {
	return &Config{
		ProcessRate:    50,
		Burst:          1,
		HealthInterval: 30 * time.Second,
	}
}

// DeviceCallbacks defines callback functions for actor events. They run on
// the actor goroutine.
type DeviceCallbacks struct {
	OnLinkChange   func(prev, next LinkState)
	OnProcessError func(err error)
}

// DeviceMetrics tracks operational metrics for DeviceActor
type DeviceMetrics struct {
	ProcessCycles      int64         // Total number of Process calls
	ProcessErrors      int64         // Number of Process calls that failed
	Requests           int64         // Number of Do calls executed
	LastProcessLatency time.Duration // Duration of last Process call
}

type request struct {
	fn   func(ctx context.Context, d *xbee.Device) error
	done chan error
}

// DeviceActor owns one device. Process runs in a loop paced by a token
// bucket and caller work submitted through Do runs between cycles, so the
// device is only ever touched from the actor goroutine.
type DeviceActor struct {
	device    *xbee.Device
	config    *Config
	limiter   *rate.Limiter
	logger    *zap.Logger
	requests  chan request
	cancel    context.CancelFunc
	done      chan struct{}
	callbacks DeviceCallbacks
	link      linkTracker
	mu        sync.Mutex
	// Atomic counters for metrics
	processCycles      atomic.Int64
	processErrors      atomic.Int64
	requestCount       atomic.Int64
	lastProcessLatency atomic.Int64 // in nanoseconds
}

// NewDeviceActor creates an actor for device. A nil config uses DefaultConfig.
func NewDeviceActor(device *xbee.Device, config *Config, callbacks DeviceCallbacks) *DeviceActor {
	if config == nil {
		config = DefaultConfig()
	}
	limit := rate.Inf
	if config.ProcessRate > 0 {
		limit = rate.Limit(config.ProcessRate)
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}
	return &DeviceActor{
		device:    device,
		config:    config,
		limiter:   rate.NewLimiter(limit, burst),
		logger:    device.Logger().Named("actor"),
		requests:  make(chan request),
		callbacks: callbacks,
	}
}

// Start launches the actor goroutine. It runs until Stop or until ctx ends.
func (da *DeviceActor) Start(ctx context.Context) error {
	da.mu.Lock()
	defer da.mu.Unlock()
	if da.done != nil {
		return ErrActorRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	da.cancel = cancel
	da.done = make(chan struct{})
	go da.loop(loopCtx, da.done)
	return nil
}

// Stop ends the loop and waits for the current cycle to finish, or for ctx
func (da *DeviceActor) Stop(ctx context.Context) error {
	da.mu.Lock()
	cancel, done := da.cancel, da.done
	da.cancel, da.done = nil, nil
	da.mu.Unlock()

	if done == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn on the actor goroutine and returns its error. The wait for the
// actor to pick fn up is bounded by ctx; once started fn runs to completion.
func (da *DeviceActor) Do(ctx context.Context, fn func(ctx context.Context, d *xbee.Device) error) error {
	da.mu.Lock()
	done := da.done
	da.mu.Unlock()
	if done == nil {
		return ErrActorStopped
	}

	req := request{fn: fn, done: make(chan error, 1)}
	select {
	case da.requests <- req:
	case <-done:
		return ErrActorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (da *DeviceActor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	da.logger.Debug("actor started")
	defer da.logger.Debug("actor stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-da.requests:
			da.requestCount.Add(1)
			req.done <- req.fn(ctx, da.device)
			continue
		default:
		}

		if err := da.limiter.Wait(ctx); err != nil {
			return
		}
		da.processOnce(ctx)
		da.checkLink(ctx)
	}
}

func (da *DeviceActor) processOnce(ctx context.Context) {
	start := time.Now()
	err := da.device.ProcessContext(ctx)
	da.processCycles.Add(1)
	da.lastProcessLatency.Store(time.Since(start).Nanoseconds())
	if err == nil || ctx.Err() != nil {
		return
	}

	da.processErrors.Add(1)
	da.logger.Debug("process failed", zap.Error(err))
	if da.callbacks.OnProcessError != nil {
		da.callbacks.OnProcessError(err)
	}
}

func (da *DeviceActor) checkLink(ctx context.Context) {
	now := time.Now()
	if !da.link.due(da.config.HealthInterval, now) {
		return
	}
	connected, err := da.device.ConnectedContext(ctx)
	if err != nil {
		da.logger.Warn("link check failed", zap.Error(err))
		connected = false
	}
	prev, next, changed := da.link.observe(connected, now)
	if !changed {
		return
	}
	da.logger.Info("link state changed",
		zap.Stringer("from", prev),
		zap.Stringer("to", next))
	if da.callbacks.OnLinkChange != nil {
		da.callbacks.OnLinkChange(prev, next)
	}
}

// LinkState returns the last observed link state and when it changed
func (da *DeviceActor) LinkState() (LinkState, time.Time) {
	return da.link.snapshot()
}

// GetMetrics returns current operational metrics
func (da *DeviceActor) GetMetrics() DeviceMetrics {
	return DeviceMetrics{
		ProcessCycles:      da.processCycles.Load(),
		ProcessErrors:      da.processErrors.Load(),
		Requests:           da.requestCount.Load(),
		LastProcessLatency: time.Duration(da.lastProcessLatency.Load()),
	}
}
