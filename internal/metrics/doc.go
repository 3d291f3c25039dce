// Package metrics counts scan progress with Prometheus collectors. A batch
// run has no long-lived HTTP endpoint, so the values are written once at
// the end of a run in the textfile format read by the node exporter.
package metrics
