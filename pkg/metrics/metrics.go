// Package metrics holds the Prometheus collectors exported by every binary.
package metrics

const namespace = "cleanmatch"
