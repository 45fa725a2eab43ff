// Package runevents defines the typed event stream produced by one script
// run. Each run emits exactly one start event, interleaved stdout and stderr
// chunks in operating-system delivery order, at most one error, and exactly
// one terminal event. Consumers receive events through the push-model Sink
// interface; events are ephemeral and never stored.
package runevents
