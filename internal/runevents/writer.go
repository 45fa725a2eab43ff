package runevents

import "io"

// StreamEventWriter adapts a Sink into an io.Writer so child process pipes
// can be copied straight into the event sequence. Each Write call publishes
// one chunk event; chunk boundaries follow operating-system pipe delivery
// and carry no line alignment guarantee.
type StreamEventWriter struct {
	sink             Sink
	streamKind       Kind
	scriptIdentifier string
	runIdentifier    string
}

// NewStreamEventWriter constructs a writer publishing chunks of the given stream kind.
func NewStreamEventWriter(sink Sink, streamKind Kind, scriptIdentifier string, runIdentifier string) *StreamEventWriter {
	return &StreamEventWriter{
		sink:             sink,
		streamKind:       streamKind,
		scriptIdentifier: scriptIdentifier,
		runIdentifier:    runIdentifier,
	}
}

var _ io.Writer = (*StreamEventWriter)(nil)

// Write implements io.Writer by publishing the chunk as an event.
func (writer *StreamEventWriter) Write(chunk []byte) (int, error) {
	if len(chunk) == 0 {
		return 0, nil
	}
	writer.sink.Publish(Event{
		Kind:             writer.streamKind,
		ScriptIdentifier: writer.scriptIdentifier,
		RunIdentifier:    writer.runIdentifier,
		Chunk:            string(chunk),
	})
	return len(chunk), nil
}
