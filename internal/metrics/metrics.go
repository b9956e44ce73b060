// Copyright (C) 2023 Jared Allard <jared@rgst.io>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package metrics exposes the prometheus collectors used by the HTTP
// surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Actions counts lifecycle actions by action and outcome
// (ok, error, invalid).
var Actions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vm_lifecycle_actions_total",
	Help: "Lifecycle actions processed, by action and status.",
}, []string{"action", "status"})

// ActionDuration observes how long an action took end to end,
// including any operation waits.
var ActionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "vm_lifecycle_action_duration_seconds",
	Help:    "End to end duration of lifecycle actions.",
	Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
}, []string{"action"})
