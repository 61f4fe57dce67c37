// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics exposes the farm meters. Meters are no-ops until
// InitializePrometheusMetrics is called, so packages can declare them freely.
package metrics

import (
	"net/http"
	"sync"
)

var (
	mu      sync.RWMutex
	metrics = defaultNoopMetrics()
)

// Metrics creates meters and serves them.
type Metrics interface {
	GetOrCreateCountMeter(name string) CountMeter
	GetOrCreateCountVecMeter(name string, labels []string) CountVecMeter
	GetOrCreateGaugeMeter(name string) GaugeMeter
	GetOrCreateHistogramVecMeter(name string, labels []string, buckets []int64) HistogramVecMeter
	GetOrCreateHandler() http.Handler
}

func current() Metrics {
	mu.RLock()
	defer mu.RUnlock()
	return metrics
}

// NoOp reports whether metrics are disabled.
func NoOp() bool {
	_, ok := current().(noopMetrics)
	return ok
}

// HTTPHandler returns the handler serving the meters, nil when metrics are disabled.
func HTTPHandler() http.Handler {
	return current().GetOrCreateHandler()
}

// Bucket10s buckets durations in milliseconds up to ten seconds.
var Bucket10s = []int64{0, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10_000}

// CountMeter is a monotonically increasing counter.
type CountMeter interface {
	Add(int64)
}

func Counter(name string) CountMeter { return current().GetOrCreateCountMeter(name) }

// CountVecMeter is a counter partitioned by labels.
type CountVecMeter interface {
	AddWithLabel(int64, map[string]string)
}

func CounterVec(name string, labels []string) CountVecMeter {
	return current().GetOrCreateCountVecMeter(name, labels)
}

// GaugeMeter is a value that goes up and down.
type GaugeMeter interface {
	Add(int64)
	Set(int64)
}

func Gauge(name string) GaugeMeter { return current().GetOrCreateGaugeMeter(name) }

// HistogramVecMeter samples observations partitioned by labels.
type HistogramVecMeter interface {
	ObserveWithLabels(int64, map[string]string)
}

func HistogramVec(name string, labels []string, buckets []int64) HistogramVecMeter {
	return current().GetOrCreateHistogramVecMeter(name, labels, buckets)
}

// LazyLoad defers creating a meter to its first use, which lets meters be declared
// as package variables before the metrics service is chosen.
func LazyLoad[T any](f func() T) func() T {
	var (
		result T
		once   sync.Once
	)
	return func() T {
		once.Do(func() { result = f() })
		return result
	}
}

func LazyLoadCounter(name string) func() CountMeter {
	return LazyLoad(func() CountMeter { return Counter(name) })
}

func LazyLoadCounterVec(name string, labels []string) func() CountVecMeter {
	return LazyLoad(func() CountVecMeter { return CounterVec(name, labels) })
}

func LazyLoadGauge(name string) func() GaugeMeter {
	return LazyLoad(func() GaugeMeter { return Gauge(name) })
}

func LazyLoadHistogramVec(name string, labels []string, buckets []int64) func() HistogramVecMeter {
	return LazyLoad(func() HistogramVecMeter { return HistogramVec(name, labels, buckets) })
}
