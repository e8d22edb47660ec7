// Package audit buffers security events and delivers them to sinks.
//
// The Engine decides which events to emit; this package only relays them.
// Sinks provided here write to a zap logger, a JSON stream, a channel, or a
// Kafka topic.
package audit
