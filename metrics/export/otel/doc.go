// Package otel bridges sessionkit metrics into an OpenTelemetry meter.
//
// Counters map to observable counters and the latency histogram maps to
// one observable gauge per cumulative bucket. Values are pulled from a
// snapshot inside the meter's collection callback, so the bridge adds no
// overhead to the session operations themselves.
package otel
