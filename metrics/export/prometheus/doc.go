// Package prometheus adapts authcore's in-process counters to client_golang.
//
// [Collector] reads an Engine snapshot on every scrape. Register it on a
// prometheus.Registerer and serve the registry with promhttp.
package prometheus
