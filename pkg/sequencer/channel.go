package sequencer

import (
	"github.com/zurustar/smfseq/pkg/midimessage"
	"github.com/zurustar/smfseq/pkg/sequence"
)

// channelOf returns the channel number of e's message if it is a channel
// voice/mode message, and false otherwise (system common/real-time, meta,
// and sysex messages have no channel).
func channelOf(e *sequence.Event) (int, bool) {
	sm, ok := e.Message.(*midimessage.ShortMessage)
	if !ok {
		return 0, false
	}
	status := sm.Status()
	if status < 0x80 || status >= 0xF0 {
		return 0, false
	}
	return int(sm.Channel()), true
}
