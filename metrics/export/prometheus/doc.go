// Package prometheus renders sessionkit metrics in the Prometheus text
// exposition format without depending on the Prometheus client library.
//
// The exporter reads point-in-time snapshots from a [sessionkit.Manager]
// (or any compatible source) on each scrape; it holds no state of its
// own.
package prometheus
