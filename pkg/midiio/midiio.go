// Package midiio defines the device-facing contracts shared by the
// sequencer runtime and the external device registry, kept separate from
// both so neither has to import the other.
package midiio

import "github.com/zurustar/smfseq/pkg/midimessage"

// Receiver accepts dispatched MIDI messages. timestamp == -1 means
// "unspecified"; the sequencer always sends 0 on playback and the caller's
// own timestamp when feeding the recording receiver.
type Receiver interface {
	Send(msg midimessage.Message, timestamp int64) error
	Close()
}

// Transmitter is a source of MIDI messages that forwards them to whatever
// Receiver is currently attached.
type Transmitter interface {
	SetReceiver(r Receiver)
	Receiver() Receiver
	Close()
}
