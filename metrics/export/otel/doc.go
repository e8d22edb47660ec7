// Package otel publishes authcore counters through an OpenTelemetry meter.
//
// Every counter becomes an Int64ObservableCounter. The gate latency histogram
// is exposed as one cumulative gauge per bucket plus a count gauge. A single
// callback reads the Engine snapshot per collection cycle. The caller owns the
// MeterProvider.
package otel
