package sequence

import "github.com/zurustar/smfseq/pkg/midimessage"

// Event pairs a MIDI message with a mutable absolute tick position. Tick is
// mutable (rather than baked into Message) so a sequencer can reposition an
// event — most notably while merging recorded input into a track — without
// reconstructing the message.
type Event struct {
	Message midimessage.Message
	Tick    int64
}

// NewEvent builds an Event at the given absolute tick.
func NewEvent(msg midimessage.Message, tick int64) *Event {
	return &Event{Message: msg, Tick: tick}
}

// Clone returns a deep copy, including a clone of the underlying message.
func (e *Event) Clone() *Event {
	return &Event{Message: e.Message.Clone(), Tick: e.Tick}
}
