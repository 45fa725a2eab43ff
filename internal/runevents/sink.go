package runevents

import "sync"

// Sink receives the events of script runs as they occur. Implementations
// must tolerate concurrent publication from multiple runs; events belonging
// to a single run arrive in sequence order.
type Sink interface {
	// Publish delivers one event to the consumer.
	Publish(event Event)
}

// noopSink discards all events.
type noopSink struct{}

// Publish implements Sink for the no-op sink.
func (noopSink) Publish(Event) {}

// NewNoopSink returns a sink that discards every event.
func NewNoopSink() Sink {
	return noopSink{}
}

// FanoutSink republishes every event to each configured delegate in order.
type FanoutSink struct {
	delegates []Sink
}

// NewFanoutSink constructs a sink distributing events across the provided delegates.
func NewFanoutSink(delegates ...Sink) *FanoutSink {
	retainedDelegates := make([]Sink, 0, len(delegates))
	for _, delegate := range delegates {
		if delegate != nil {
			retainedDelegates = append(retainedDelegates, delegate)
		}
	}
	return &FanoutSink{delegates: retainedDelegates}
}

// Publish implements Sink by forwarding the event to every delegate.
func (fanout *FanoutSink) Publish(event Event) {
	for _, delegate := range fanout.delegates {
		delegate.Publish(event)
	}
}

// CollectingSink records published events for later inspection,
// synchronizing access so concurrent runs may publish safely.
type CollectingSink struct {
	mutex  sync.Mutex
	events []Event
}

// NewCollectingSink constructs an empty collecting sink.
func NewCollectingSink() *CollectingSink {
	return &CollectingSink{}
}

// Publish implements Sink by appending the event to the recorded sequence.
func (sink *CollectingSink) Publish(event Event) {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	sink.events = append(sink.events, event)
}

// Events returns a copy of the recorded event sequence.
func (sink *CollectingSink) Events() []Event {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	copiedEvents := make([]Event, len(sink.events))
	copy(copiedEvents, sink.events)
	return copiedEvents
}

// EventsForScript returns the recorded events whose script identifier matches.
func (sink *CollectingSink) EventsForScript(scriptIdentifier string) []Event {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	matchingEvents := make([]Event, 0, len(sink.events))
	for _, recordedEvent := range sink.events {
		if recordedEvent.ScriptIdentifier == scriptIdentifier {
			matchingEvents = append(matchingEvents, recordedEvent)
		}
	}
	return matchingEvents
}
