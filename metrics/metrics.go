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

// Package metrics records XBee protocol events as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	xbee "github.com/ZaparooProject/go-xbee"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "xbee"

// NewRegistry creates a registry with the Go and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus text format
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Recorder implements xbee.MetricsRecorder
type Recorder struct {
	framesSent     *prometheus.CounterVec // labels: type
	framesReceived *prometheus.CounterVec // labels: type
	frameErrors    *prometheus.CounterVec // labels: kind
	atCommands     *prometheus.CounterVec // labels: cmd, result
	atLatency      *prometheus.HistogramVec
}

var _ xbee.MetricsRecorder = (*Recorder)(nil)

// NewRecorder registers the XBee metrics with reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		framesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "API frames written to the module.",
		}, []string{"type"}),
		framesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Valid API frames read from the module.",
		}, []string{"type"}),
		frameErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_errors_total",
			Help:      "Receive failures by kind.",
		}, []string{"kind"}),
		atCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "at_commands_total",
			Help:      "AT command exchanges by command and result.",
		}, []string{"cmd", "result"}),
		atLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "at_command_duration_seconds",
			Help:      "Time from AT command send to response.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"cmd"}),
	}
	reg.MustRegister(r.framesSent, r.framesReceived, r.frameErrors, r.atCommands, r.atLatency)
	return r
}

// FrameSent counts one written frame
func (r *Recorder) FrameSent(t xbee.FrameType) {
	r.framesSent.WithLabelValues(t.String()).Inc()
}

// FrameReceived counts one decoded frame
func (r *Recorder) FrameReceived(t xbee.FrameType) {
	r.framesReceived.WithLabelValues(t.String()).Inc()
}

// FrameError counts one receive failure
func (r *Recorder) FrameError(kind string) {
	r.frameErrors.WithLabelValues(kind).Inc()
}

// ATCommandCompleted counts the exchange and, unless it timed out, observes
// its latency
func (r *Recorder) ATCommandCompleted(cmd xbee.ATCommand, result string, elapsed time.Duration) {
	r.atCommands.WithLabelValues(string(cmd), result).Inc()
	if result != xbee.ResultTimeout {
		r.atLatency.WithLabelValues(string(cmd)).Observe(elapsed.Seconds())
	}
}
